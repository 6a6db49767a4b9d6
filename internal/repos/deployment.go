package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type DeploymentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, deployment *types.Deployment) (*types.Deployment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, deploymentIDs []uuid.UUID) ([]*types.Deployment, error)
	GetByEnvironmentID(ctx context.Context, tx *gorm.DB, envID uuid.UUID) ([]*types.Deployment, error)
	GetActiveByEnvironmentID(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (*types.Deployment, error)
	CountByEnvironmentID(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (int64, error)
	Activate(ctx context.Context, tx *gorm.DB, deployment *types.Deployment) error
	DeactivateSiblings(ctx context.Context, tx *gorm.DB, envID, keepID uuid.UUID) error
}

type deploymentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeploymentRepo(db *gorm.DB, baseLog *logger.Logger) DeploymentRepo {
	return &deploymentRepo{db: db, log: baseLog.With("repo", "DeploymentRepo")}
}

func (dr *deploymentRepo) Create(ctx context.Context, tx *gorm.DB, deployment *types.Deployment) (*types.Deployment, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	if err := transaction.WithContext(ctx).Create(deployment).Error; err != nil {
		return nil, err
	}
	return deployment, nil
}

func (dr *deploymentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, deploymentIDs []uuid.UUID) ([]*types.Deployment, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var results []*types.Deployment
	if len(deploymentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", deploymentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByEnvironmentID returns every snapshot of the environment, newest
// deploy first.
func (dr *deploymentRepo) GetByEnvironmentID(ctx context.Context, tx *gorm.DB, envID uuid.UUID) ([]*types.Deployment, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var results []*types.Deployment
	if err := transaction.WithContext(ctx).
		Where("environment_id = ?", envID).
		Order("deployed_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (dr *deploymentRepo) GetActiveByEnvironmentID(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (*types.Deployment, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var results []*types.Deployment
	if err := transaction.WithContext(ctx).
		Where("environment_id = ? AND active = ?", envID, true).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (dr *deploymentRepo) CountByEnvironmentID(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Deployment{}).
		Where("environment_id = ?", envID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (dr *deploymentRepo) Activate(ctx context.Context, tx *gorm.DB, deployment *types.Deployment) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Deployment{}).
		Where("id = ?", deployment.ID).
		Updates(map[string]interface{}{
			"active":      true,
			"deployed_at": deployment.DeployedAt,
		}).Error
}

// DeactivateSiblings unsets active on every other snapshot of the
// environment. Always paired with Activate inside the same transaction so
// the exactly-one-active invariant holds for readers.
func (dr *deploymentRepo) DeactivateSiblings(ctx context.Context, tx *gorm.DB, envID, keepID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}
	return transaction.WithContext(ctx).
		Model(&types.Deployment{}).
		Where("environment_id = ? AND id <> ?", envID, keepID).
		Update("active", false).Error
}
