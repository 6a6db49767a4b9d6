package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/http/response"
	"github.com/yungbote/mfe-orchestrator/internal/services"
)

type DeploymentHandler struct {
	deployments services.DeploymentService
}

func NewDeploymentHandler(deployments services.DeploymentService) *DeploymentHandler {
	return &DeploymentHandler{deployments: deployments}
}

// POST /api/deployments/environment/:environmentId
func (dh *DeploymentHandler) Create(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("environmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	dep, err := dh.deployments.Create(c.Request.Context(), envID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deployment": dep})
}

// POST /api/deployments
// body: { "environment_ids": ["..."] }
func (dh *DeploymentHandler) CreateForEnvironments(c *gin.Context) {
	var req struct {
		EnvironmentIDs []uuid.UUID `json:"environment_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if len(req.EnvironmentIDs) == 0 {
		response.RespondError(c, http.StatusBadRequest, "environment_ids_required", nil)
		return
	}
	deps, err := dh.deployments.CreateForEnvironments(c.Request.Context(), req.EnvironmentIDs)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deployments": deps})
}

// POST /api/deployments/:deploymentId/redeploy
func (dh *DeploymentHandler) Redeploy(c *gin.Context) {
	depID, err := uuid.Parse(c.Param("deploymentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_deployment_id", err)
		return
	}
	dep, err := dh.deployments.Redeploy(c.Request.Context(), depID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deployment": dep})
}

// GET /api/deployments/environment/:environmentId
func (dh *DeploymentHandler) ListByEnvironment(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("environmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	deps, err := dh.deployments.ListByEnvironment(c.Request.Context(), envID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deployments": deps})
}
