package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/platform/ctxutil"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
)

func signToken(t *testing.T, secret, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newAuthRouter(t *testing.T, secret string, gotUser *uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	am := NewAuthMiddleware(log, secret)
	r := gin.New()
	r.Use(am.RequireAuth())
	r.GET("/x", func(c *gin.Context) {
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
			*gotUser = rd.UserID
		}
		c.Status(http.StatusOK)
	})
	return r
}

func getWithToken(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthValidToken(t *testing.T) {
	var gotUser uuid.UUID
	r := newAuthRouter(t, "testsecret", &gotUser)
	userID := uuid.New()

	w := getWithToken(r, signToken(t, "testsecret", userID.String()))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if gotUser != userID {
		t.Fatalf("request data user = %s, want %s", gotUser, userID)
	}
}

func TestRequireAuthRejections(t *testing.T) {
	var gotUser uuid.UUID
	r := newAuthRouter(t, "testsecret", &gotUser)

	if w := getWithToken(r, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d", w.Code)
	}
	if w := getWithToken(r, "garbage"); w.Code != http.StatusUnauthorized {
		t.Fatalf("malformed token: status = %d", w.Code)
	}
	if w := getWithToken(r, signToken(t, "wrongsecret", uuid.New().String())); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret: status = %d", w.Code)
	}
	if w := getWithToken(r, signToken(t, "testsecret", "not-a-uuid")); w.Code != http.StatusUnauthorized {
		t.Fatalf("non-uuid subject: status = %d", w.Code)
	}
}
