package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/yungbote/mfe-orchestrator/internal/http/handlers"
)

func TestNewServerServesRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(RouterConfig{HealthHandler: httpH.NewHealthHandler()})
	if s.Engine == nil {
		t.Fatal("server has no engine")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	w := httptest.NewRecorder()
	s.Engine.ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("healthcheck through server: %d %q", w.Code, w.Body.String())
	}
}
