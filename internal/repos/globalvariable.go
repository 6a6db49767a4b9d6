package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type GlobalVariableRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, variable *types.GlobalVariable) (*types.GlobalVariable, error)
	GetByEnvironmentIDs(ctx context.Context, tx *gorm.DB, envIDs []uuid.UUID) ([]*types.GlobalVariable, error)
	DeleteByEnvironmentAndKeys(ctx context.Context, tx *gorm.DB, envID uuid.UUID, keys []string) error
}

type globalVariableRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGlobalVariableRepo(db *gorm.DB, baseLog *logger.Logger) GlobalVariableRepo {
	return &globalVariableRepo{db: db, log: baseLog.With("repo", "GlobalVariableRepo")}
}

// Upsert writes the value for (environment_id, key), inserting or updating
// in place so the uniqueness invariant holds without a read-modify-write.
// A soft-deleted row still occupies the unique index, so the conflict
// branch must also clear deleted_at or the key could never be re-created.
func (vr *globalVariableRepo) Upsert(ctx context.Context, tx *gorm.DB, variable *types.GlobalVariable) (*types.GlobalVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "environment_id"}, {Name: "key"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"value":      variable.Value,
				"updated_at": variable.UpdatedAt,
				"deleted_at": nil,
			}),
		}).
		Create(variable).Error; err != nil {
		return nil, err
	}
	return variable, nil
}

func (vr *globalVariableRepo) GetByEnvironmentIDs(ctx context.Context, tx *gorm.DB, envIDs []uuid.UUID) ([]*types.GlobalVariable, error) {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	var results []*types.GlobalVariable
	if len(envIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("environment_id IN ?", envIDs).
		Order("key ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (vr *globalVariableRepo) DeleteByEnvironmentAndKeys(ctx context.Context, tx *gorm.DB, envID uuid.UUID, keys []string) error {
	transaction := tx
	if transaction == nil {
		transaction = vr.db
	}
	if len(keys) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("environment_id = ? AND key IN ?", envID, keys).
		Delete(&types.GlobalVariable{}).Error
}
