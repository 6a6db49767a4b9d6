package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/http/response"
	"github.com/yungbote/mfe-orchestrator/internal/services"
)

type GlobalVariableHandler struct {
	variables services.GlobalVariableService
}

func NewGlobalVariableHandler(variables services.GlobalVariableService) *GlobalVariableHandler {
	return &GlobalVariableHandler{variables: variables}
}

// GET /api/environments/:environmentId/global-variables
func (vh *GlobalVariableHandler) ListByEnvironment(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("environmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	vars, err := vh.variables.ListByEnvironment(c.Request.Context(), envID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variables": vars})
}

// PUT /api/environments/:environmentId/global-variables
// body: { "key": "...", "value": "..." }
func (vh *GlobalVariableHandler) Set(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("environmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	variable, err := vh.variables.Set(c.Request.Context(), envID, req.Key, req.Value)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"variable": variable})
}

// DELETE /api/environments/:environmentId/global-variables
// body: { "keys": ["..."] }
func (vh *GlobalVariableHandler) Delete(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("environmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	var req struct {
		Keys []string `json:"keys"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.Keys) == 0 {
		response.RespondError(c, http.StatusBadRequest, "keys_required", nil)
		return
	}
	if err := vh.variables.Delete(c.Request.Context(), envID, req.Keys); err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
