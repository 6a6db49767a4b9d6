package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/http/response"
	"github.com/yungbote/mfe-orchestrator/internal/services"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type MicrofrontendHandler struct {
	microfrontends services.MicrofrontendService
}

func NewMicrofrontendHandler(microfrontends services.MicrofrontendService) *MicrofrontendHandler {
	return &MicrofrontendHandler{microfrontends: microfrontends}
}

type microfrontendRequest struct {
	EnvironmentID        uuid.UUID     `json:"environment_id"`
	Slug                 string        `json:"slug"`
	Name                 string        `json:"name"`
	Version              string        `json:"version"`
	Host                 types.Host    `json:"host"`
	Canary               *types.Canary `json:"canary"`
	ContinuousDeployment bool          `json:"continuous_deployment"`
	ParentID             *uuid.UUID    `json:"parent_id"`
}

func (req *microfrontendRequest) toRecord() *types.Microfrontend {
	return &types.Microfrontend{
		EnvironmentID:        req.EnvironmentID,
		Slug:                 req.Slug,
		Name:                 req.Name,
		Version:              req.Version,
		Host:                 req.Host,
		Canary:               req.Canary,
		ContinuousDeployment: req.ContinuousDeployment,
		ParentID:             req.ParentID,
	}
}

// GET /api/environments/:environmentId/microfrontends
func (mh *MicrofrontendHandler) ListByEnvironment(c *gin.Context) {
	envID, err := uuid.Parse(c.Param("environmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_environment_id", err)
		return
	}
	mfes, err := mh.microfrontends.ListByEnvironment(c.Request.Context(), envID)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"microfrontends": mfes})
}

// POST /api/microfrontends
func (mh *MicrofrontendHandler) Create(c *gin.Context) {
	var req microfrontendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	created, err := mh.microfrontends.Create(c.Request.Context(), req.toRecord())
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"microfrontend": created})
}

// PUT /api/microfrontends/:id
func (mh *MicrofrontendHandler) Update(c *gin.Context) {
	mfeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_microfrontend_id", err)
		return
	}
	var req microfrontendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	record := req.toRecord()
	record.ID = mfeID
	updated, err := mh.microfrontends.Update(c.Request.Context(), record)
	if err != nil {
		response.RespondAppError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"microfrontend": updated})
}
