package types

import (
	"time"

	"github.com/google/uuid"
)

// DeploymentCanaryUser is an explicit allowlist entry consumed by the
// ON_USER canary strategy. UserID is the serve-side identity presented by
// the browser, not a management-API account. Upserts key on
// (deployment_id, user_id).
type DeploymentCanaryUser struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	DeploymentID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_canary_user_deployment" json:"deployment_id"`
	Deployment      *Deployment `gorm:"constraint:OnDelete:CASCADE;foreignKey:DeploymentID;references:ID" json:"deployment,omitempty"`
	MicrofrontendID *uuid.UUID  `gorm:"type:uuid;index" json:"microfrontend_id,omitempty"`
	UserID          string      `gorm:"column:user_id;not null;uniqueIndex:idx_canary_user_deployment" json:"user_id"`
	Enabled         bool        `gorm:"column:enabled;not null;default:true" json:"enabled"`
	CreatedAt       time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null" json:"updated_at"`
}

func (DeploymentCanaryUser) TableName() string { return "deployment_canary_user" }
