package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAppError maps a service error onto the envelope. Known apierr values
// carry their own status and code; anything else becomes an opaque 500 so
// internal detail never leaks through the public serve endpoints.
func RespondAppError(c *gin.Context, err error) {
	if apiErr, ok := apierr.As(err); ok {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	RespondError(c, http.StatusInternalServerError, "internal_error", nil)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
