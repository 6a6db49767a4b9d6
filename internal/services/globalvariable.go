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

type GlobalVariableService interface {
	ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*types.GlobalVariable, error)
	Set(ctx context.Context, envID uuid.UUID, key, value string) (*types.GlobalVariable, error)
	Delete(ctx context.Context, envID uuid.UUID, keys []string) error
}

type globalVariableService struct {
	db          *gorm.DB
	log         *logger.Logger
	varRepo     repos.GlobalVariableRepo
	access      AccessService
	invalidator serving.Invalidator
}

func NewGlobalVariableService(
	db *gorm.DB,
	baseLog *logger.Logger,
	varRepo repos.GlobalVariableRepo,
	access AccessService,
	invalidator serving.Invalidator,
) GlobalVariableService {
	return &globalVariableService{
		db:          db,
		log:         baseLog.With("service", "GlobalVariableService"),
		varRepo:     varRepo,
		access:      access,
		invalidator: invalidator,
	}
}

func (vs *globalVariableService) ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*types.GlobalVariable, error) {
	if _, err := vs.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
		return nil, err
	}
	return vs.varRepo.GetByEnvironmentIDs(ctx, nil, []uuid.UUID{envID})
}

func (vs *globalVariableService) Set(ctx context.Context, envID uuid.UUID, key, value string) (*types.GlobalVariable, error) {
	if key == "" {
		return nil, apierr.InvalidArgument("variable key is required")
	}
	if _, err := vs.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
		return nil, err
	}
	now := time.Now()
	variable := &types.GlobalVariable{
		ID:            uuid.New(),
		EnvironmentID: envID,
		Key:           key,
		Value:         value,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	upserted, err := vs.varRepo.Upsert(ctx, nil, variable)
	if err != nil {
		return nil, err
	}
	vs.invalidate(envID)
	return upserted, nil
}

func (vs *globalVariableService) Delete(ctx context.Context, envID uuid.UUID, keys []string) error {
	if _, err := vs.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
		return err
	}
	if err := vs.varRepo.DeleteByEnvironmentAndKeys(ctx, nil, envID, keys); err != nil {
		return err
	}
	vs.invalidate(envID)
	return nil
}

func (vs *globalVariableService) invalidate(envID uuid.UUID) {
	if vs.invalidator != nil {
		vs.invalidator.Invalidate(envID)
	}
}
