package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/serving"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// MicrofrontendService is the registry's thin management surface. Records
// are copied by value into snapshots at deploy time, so edits here never
// alter past deployments.
type MicrofrontendService interface {
	ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*types.Microfrontend, error)
	Create(ctx context.Context, mfe *types.Microfrontend) (*types.Microfrontend, error)
	Update(ctx context.Context, mfe *types.Microfrontend) (*types.Microfrontend, error)
}

type microfrontendService struct {
	db          *gorm.DB
	log         *logger.Logger
	mfeRepo     repos.MicrofrontendRepo
	access      AccessService
	invalidator serving.Invalidator
}

func NewMicrofrontendService(
	db *gorm.DB,
	baseLog *logger.Logger,
	mfeRepo repos.MicrofrontendRepo,
	access AccessService,
	invalidator serving.Invalidator,
) MicrofrontendService {
	return &microfrontendService{
		db:          db,
		log:         baseLog.With("service", "MicrofrontendService"),
		mfeRepo:     mfeRepo,
		access:      access,
		invalidator: invalidator,
	}
}

func (ms *microfrontendService) ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*types.Microfrontend, error) {
	if _, err := ms.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
		return nil, err
	}
	return ms.mfeRepo.GetByEnvironmentIDs(ctx, nil, []uuid.UUID{envID})
}

func (ms *microfrontendService) Create(ctx context.Context, mfe *types.Microfrontend) (*types.Microfrontend, error) {
	if mfe == nil || mfe.Slug == "" {
		return nil, apierr.InvalidArgument("microfrontend slug is required")
	}
	if _, err := ms.access.AuthorizeEnvironment(ctx, nil, mfe.EnvironmentID); err != nil {
		return nil, err
	}
	if mfe.ID == uuid.Nil {
		mfe.ID = uuid.New()
	}
	now := time.Now()
	mfe.CreatedAt = now
	mfe.UpdatedAt = now
	created, err := ms.mfeRepo.Create(ctx, nil, []*types.Microfrontend{mfe})
	if err != nil {
		return nil, err
	}
	ms.invalidate(mfe.EnvironmentID)
	return created[0], nil
}

func (ms *microfrontendService) Update(ctx context.Context, mfe *types.Microfrontend) (*types.Microfrontend, error) {
	if mfe == nil || mfe.ID == uuid.Nil {
		return nil, apierr.InvalidArgument("microfrontend id is required")
	}
	existing, err := ms.mfeRepo.GetByIDs(ctx, nil, []uuid.UUID{mfe.ID})
	if err != nil {
		return nil, err
	}
	if len(existing) == 0 || existing[0] == nil {
		return nil, apierr.NotFound("microfrontend", mfe.ID)
	}
	if _, err := ms.access.AuthorizeEnvironment(ctx, nil, existing[0].EnvironmentID); err != nil {
		return nil, err
	}
	mfe.EnvironmentID = existing[0].EnvironmentID
	mfe.CreatedAt = existing[0].CreatedAt
	mfe.UpdatedAt = time.Now()
	updated, err := ms.mfeRepo.Update(ctx, nil, mfe)
	if err != nil {
		return nil, err
	}
	ms.invalidate(mfe.EnvironmentID)
	return updated, nil
}

func (ms *microfrontendService) invalidate(envID uuid.UUID) {
	if ms.invalidator != nil {
		ms.invalidator.Invalidate(envID)
	}
}
