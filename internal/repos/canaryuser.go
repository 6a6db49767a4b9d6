package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type CanaryUserRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, record *types.DeploymentCanaryUser) (*types.DeploymentCanaryUser, error)
	GetByDeploymentID(ctx context.Context, tx *gorm.DB, deploymentID uuid.UUID) ([]*types.DeploymentCanaryUser, error)
	GetByDeploymentAndUser(ctx context.Context, tx *gorm.DB, deploymentID uuid.UUID, userID string) (*types.DeploymentCanaryUser, error)
	DeleteByDeploymentAndUserIDs(ctx context.Context, tx *gorm.DB, deploymentID uuid.UUID, userIDs []string) error
}

type canaryUserRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCanaryUserRepo(db *gorm.DB, baseLog *logger.Logger) CanaryUserRepo {
	return &canaryUserRepo{db: db, log: baseLog.With("repo", "CanaryUserRepo")}
}

// Upsert keys on (deployment_id, user_id) per the allowlist contract.
func (cr *canaryUserRepo) Upsert(ctx context.Context, tx *gorm.DB, record *types.DeploymentCanaryUser) (*types.DeploymentCanaryUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	record.UpdatedAt = time.Now()
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deployment_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"microfrontend_id", "enabled", "updated_at"}),
		}).
		Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (cr *canaryUserRepo) GetByDeploymentID(ctx context.Context, tx *gorm.DB, deploymentID uuid.UUID) ([]*types.DeploymentCanaryUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.DeploymentCanaryUser
	if err := transaction.WithContext(ctx).
		Where("deployment_id = ?", deploymentID).
		Order("user_id ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *canaryUserRepo) GetByDeploymentAndUser(ctx context.Context, tx *gorm.DB, deploymentID uuid.UUID, userID string) (*types.DeploymentCanaryUser, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	var results []*types.DeploymentCanaryUser
	if err := transaction.WithContext(ctx).
		Where("deployment_id = ? AND user_id = ?", deploymentID, userID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (cr *canaryUserRepo) DeleteByDeploymentAndUserIDs(ctx context.Context, tx *gorm.DB, deploymentID uuid.UUID, userIDs []string) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db
	}
	if len(userIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("deployment_id = ? AND user_id IN ?", deploymentID, userIDs).
		Delete(&types.DeploymentCanaryUser{}).Error
}
