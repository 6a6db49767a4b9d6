package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type EnvironmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, envs []*types.Environment) ([]*types.Environment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, envIDs []uuid.UUID) ([]*types.Environment, error)
	GetByProjectAndSlug(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Environment, error)
}

type environmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnvironmentRepo(db *gorm.DB, baseLog *logger.Logger) EnvironmentRepo {
	return &environmentRepo{db: db, log: baseLog.With("repo", "EnvironmentRepo")}
}

func (er *environmentRepo) Create(ctx context.Context, tx *gorm.DB, envs []*types.Environment) ([]*types.Environment, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	if len(envs) == 0 {
		return []*types.Environment{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&envs).Error; err != nil {
		return nil, err
	}
	return envs, nil
}

func (er *environmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, envIDs []uuid.UUID) ([]*types.Environment, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.Environment
	if len(envIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", envIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (er *environmentRepo) GetByProjectAndSlug(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, slug string) (*types.Environment, error) {
	transaction := tx
	if transaction == nil {
		transaction = er.db
	}
	var results []*types.Environment
	if err := transaction.WithContext(ctx).
		Where("project_id = ? AND slug = ?", projectID, slug).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
