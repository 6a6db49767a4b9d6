package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GlobalVariable is a key/value pair scoped to one environment.
// (key, environment_id) is unique.
type GlobalVariable struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	EnvironmentID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_variable_environment_key" json:"environment_id"`
	Environment   *Environment   `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnvironmentID;references:ID" json:"environment,omitempty"`
	Key           string         `gorm:"column:key;not null;uniqueIndex:idx_variable_environment_key" json:"key"`
	Value         string         `gorm:"column:value;not null" json:"value"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GlobalVariable) TableName() string { return "global_variable" }
