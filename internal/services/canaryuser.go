package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// CanaryUserService manages the ON_USER allowlist of a deployment.
type CanaryUserService interface {
	List(ctx context.Context, deploymentID uuid.UUID) ([]*types.DeploymentCanaryUser, error)
	Upsert(ctx context.Context, deploymentID uuid.UUID, userID string, microfrontendID *uuid.UUID, enabled bool) (*types.DeploymentCanaryUser, error)
	Delete(ctx context.Context, deploymentID uuid.UUID, userIDs []string) error
}

type canaryUserService struct {
	db             *gorm.DB
	log            *logger.Logger
	depRepo        repos.DeploymentRepo
	canaryUserRepo repos.CanaryUserRepo
	access         AccessService
}

func NewCanaryUserService(
	db *gorm.DB,
	baseLog *logger.Logger,
	depRepo repos.DeploymentRepo,
	canaryUserRepo repos.CanaryUserRepo,
	access AccessService,
) CanaryUserService {
	return &canaryUserService{
		db:             db,
		log:            baseLog.With("service", "CanaryUserService"),
		depRepo:        depRepo,
		canaryUserRepo: canaryUserRepo,
		access:         access,
	}
}

func (cs *canaryUserService) List(ctx context.Context, deploymentID uuid.UUID) ([]*types.DeploymentCanaryUser, error) {
	if _, err := cs.authorizeDeployment(ctx, deploymentID); err != nil {
		return nil, err
	}
	return cs.canaryUserRepo.GetByDeploymentID(ctx, nil, deploymentID)
}

func (cs *canaryUserService) Upsert(ctx context.Context, deploymentID uuid.UUID, userID string, microfrontendID *uuid.UUID, enabled bool) (*types.DeploymentCanaryUser, error) {
	if userID == "" {
		return nil, apierr.InvalidArgument("user id is required")
	}
	if _, err := cs.authorizeDeployment(ctx, deploymentID); err != nil {
		return nil, err
	}
	now := time.Now()
	record := &types.DeploymentCanaryUser{
		ID:              uuid.New(),
		DeploymentID:    deploymentID,
		MicrofrontendID: microfrontendID,
		UserID:          userID,
		Enabled:         enabled,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return cs.canaryUserRepo.Upsert(ctx, nil, record)
}

func (cs *canaryUserService) Delete(ctx context.Context, deploymentID uuid.UUID, userIDs []string) error {
	if _, err := cs.authorizeDeployment(ctx, deploymentID); err != nil {
		return err
	}
	return cs.canaryUserRepo.DeleteByDeploymentAndUserIDs(ctx, nil, deploymentID, userIDs)
}

func (cs *canaryUserService) authorizeDeployment(ctx context.Context, deploymentID uuid.UUID) (*types.Deployment, error) {
	deps, err := cs.depRepo.GetByIDs(ctx, nil, []uuid.UUID{deploymentID})
	if err != nil {
		return nil, err
	}
	if len(deps) == 0 || deps[0] == nil {
		return nil, apierr.NotFound("deployment", deploymentID)
	}
	if _, err := cs.access.AuthorizeEnvironment(ctx, nil, deps[0].EnvironmentID); err != nil {
		return nil, err
	}
	return deps[0], nil
}
