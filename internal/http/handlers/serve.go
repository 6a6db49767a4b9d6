package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/http/response"
	"github.com/yungbote/mfe-orchestrator/internal/services"
)

// canaryCookieName is the opt-in cookie for COOKIE_BASED canaries. Presence
// with any truthy value enrolls the request.
const canaryCookieName = "mfe_canary"

// ServeHandler exposes the public, unauthenticated runtime surface. The
// routes with both an id form and a projectId/slug form share a prefix, so
// they are registered with generic :a/:b/:c params and disambiguated here by
// segment shape.
type ServeHandler struct {
	serve services.ServeService
}

func NewServeHandler(serve services.ServeService) *ServeHandler {
	return &ServeHandler{serve: serve}
}

// requestContext pulls the caller identity and canary signals off the
// request. Everything is optional; anonymous requests get the zero value.
func requestContext(c *gin.Context) services.RequestContext {
	userID := strings.TrimSpace(c.Query("userId"))
	if userID == "" {
		userID = strings.TrimSpace(c.GetHeader("X-User-Id"))
	}
	cookie := false
	if v, err := c.Cookie(canaryCookieName); err == nil {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "on":
			cookie = true
		}
	}
	return services.RequestContext{
		UserID:       userID,
		CanaryCookie: cookie,
		Version:      strings.TrimSpace(c.Query("version")),
	}
}

// GET /serve/all/:a
// :a = environmentId
func (sh *ServeHandler) GetAllByEnvironment(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("a"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	payload, err := sh.serve.GetAllByEnvironment(c.Request.Context(), envID, requestContext(c))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, payload)
}

// GET /serve/all/:a/:b
// :a = projectId, :b = environmentSlug
func (sh *ServeHandler) GetAllByProjectAndSlug(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("a"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	payload, err := sh.serve.GetAllByProjectAndEnvironmentSlug(c.Request.Context(), projectID, c.Param("b"), requestContext(c))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, payload)
}

// GET /serve/deployment/:deploymentId
func (sh *ServeHandler) GetByDeployment(c *gin.Context) {
	depID, err := uuid.Parse(c.Param("deploymentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deployment_id", err)
		return
	}
	payload, err := sh.serve.GetByDeployment(c.Request.Context(), depID, requestContext(c))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, payload)
}

// GET /serve/mfe/:a
// :a = microfrontendId
//
// GET /serve/mfe/:a/:b
// :a = projectId, :b = environmentSlug -> default microfrontend of the scope
func (sh *ServeHandler) GetMicrofrontend(c *gin.Context) {
	b := c.Param("b")
	if b == "" {
		mfeID, err := uuid.Parse(c.Param("a"))
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_microfrontend_id", err)
			return
		}
		entry, err := sh.serve.GetMicrofrontendByID(c.Request.Context(), mfeID, requestContext(c))
		if err != nil {
			response.RespondAppError(c, err)
			return
		}
		response.RespondOK(c, entry)
		return
	}
	projectID, err := uuid.Parse(c.Param("a"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	entry, err := sh.serve.GetDefaultMicrofrontend(c.Request.Context(), projectID, b, requestContext(c))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, entry)
}

// GET /serve/mfe/:a/:b/:c
// :a = environmentSlug, :b = projectId, :c = microfrontendSlug
func (sh *ServeHandler) GetMicrofrontendBySlug(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("b"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	entry, err := sh.serve.GetMicrofrontendBySlug(c.Request.Context(), projectID, c.Param("a"), c.Param("c"), requestContext(c))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, entry)
}

// GET /serve/global-variables/:a
// :a = environmentId
func (sh *ServeHandler) GetVariablesByEnvironment(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("a"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	vars, err := sh.serve.GetVariablesByEnvironment(c.Request.Context(), envID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

// GET /serve/global-variables/:a/:b
// :a = projectId, :b = environmentSlug
func (sh *ServeHandler) GetVariablesByProjectAndSlug(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("a"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_project_id", err)
		return
	}
	vars, err := sh.serve.GetVariablesByProjectAndEnvironmentSlug(c.Request.Context(), projectID, c.Param("b"))
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}
