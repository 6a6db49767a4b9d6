package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/http/response"
	"github.com/yungbote/mfe-orchestrator/internal/services"
)

type CanaryUserHandler struct {
	canaryUsers services.CanaryUserService
}

func NewCanaryUserHandler(canaryUsers services.CanaryUserService) *CanaryUserHandler {
	return &CanaryUserHandler{canaryUsers: canaryUsers}
}

// GET /api/deployment/:deploymentId/canary-users
func (ch *CanaryUserHandler) List(c *gin.Context) {
	depID, err := uuid.Parse(c.Param("deploymentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deployment_id", err)
		return
	}
	users, err := ch.canaryUsers.List(c.Request.Context(), depID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"canary_users": users})
}

// POST /api/deployment/:deploymentId/canary-users
// body: { "user_id": "...", "microfrontend_id": "...", "enabled": true }
func (ch *CanaryUserHandler) Upsert(c *gin.Context) {
	depID, err := uuid.Parse(c.Param("deploymentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deployment_id", err)
		return
	}
	var req struct {
		UserID          string     `json:"user_id"`
		MicrofrontendID *uuid.UUID `json:"microfrontend_id"`
		Enabled         *bool      `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	record, err := ch.canaryUsers.Upsert(c.Request.Context(), depID, req.UserID, req.MicrofrontendID, enabled)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"canary_user": record})
}

// DELETE /api/deployment/:deploymentId/canary-users
// body: { "user_ids": ["..."] }
func (ch *CanaryUserHandler) Delete(c *gin.Context) {
	depID, err := uuid.Parse(c.Param("deploymentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deployment_id", err)
		return
	}
	var req struct {
		UserIDs []string `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.UserIDs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "user_ids_required", nil)
		return
	}
	if err := ch.canaryUsers.Delete(c.Request.Context(), depID, req.UserIDs); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
