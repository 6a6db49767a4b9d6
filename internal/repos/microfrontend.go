package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type MicrofrontendRepo interface {
	Create(ctx context.Context, tx *gorm.DB, mfes []*types.Microfrontend) ([]*types.Microfrontend, error)
	Update(ctx context.Context, tx *gorm.DB, mfe *types.Microfrontend) (*types.Microfrontend, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, mfeIDs []uuid.UUID) ([]*types.Microfrontend, error)
	GetByEnvironmentIDs(ctx context.Context, tx *gorm.DB, envIDs []uuid.UUID) ([]*types.Microfrontend, error)
	GetByEnvironmentAndSlug(ctx context.Context, tx *gorm.DB, envID uuid.UUID, slug string) (*types.Microfrontend, error)
}

type microfrontendRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMicrofrontendRepo(db *gorm.DB, baseLog *logger.Logger) MicrofrontendRepo {
	return &microfrontendRepo{db: db, log: baseLog.With("repo", "MicrofrontendRepo")}
}

func (mr *microfrontendRepo) Create(ctx context.Context, tx *gorm.DB, mfes []*types.Microfrontend) ([]*types.Microfrontend, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if len(mfes) == 0 {
		return []*types.Microfrontend{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&mfes).Error; err != nil {
		return nil, err
	}
	return mfes, nil
}

func (mr *microfrontendRepo) Update(ctx context.Context, tx *gorm.DB, mfe *types.Microfrontend) (*types.Microfrontend, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	if err := transaction.WithContext(ctx).Save(mfe).Error; err != nil {
		return nil, err
	}
	return mfe, nil
}

func (mr *microfrontendRepo) GetByIDs(ctx context.Context, tx *gorm.DB, mfeIDs []uuid.UUID) ([]*types.Microfrontend, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.Microfrontend
	if len(mfeIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", mfeIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *microfrontendRepo) GetByEnvironmentIDs(ctx context.Context, tx *gorm.DB, envIDs []uuid.UUID) ([]*types.Microfrontend, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.Microfrontend
	if len(envIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("environment_id IN ?", envIDs).
		Order("slug ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (mr *microfrontendRepo) GetByEnvironmentAndSlug(ctx context.Context, tx *gorm.DB, envID uuid.UUID, slug string) (*types.Microfrontend, error) {
	transaction := tx
	if transaction == nil {
		transaction = mr.db
	}
	var results []*types.Microfrontend
	if err := transaction.WithContext(ctx).
		Where("environment_id = ? AND slug = ?", envID, slug).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}
