package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Deployment is an immutable point-in-time snapshot of an environment's
// microfrontends and variables. At most one deployment per environment is
// active at a time; the snapshot keeps serving consistently even if the
// live registry changes afterwards.
type Deployment struct {
	ID            uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	EnvironmentID uuid.UUID    `gorm:"type:uuid;not null;index" json:"environment_id"`
	Environment   *Environment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnvironmentID;references:ID" json:"environment,omitempty"`
	// DeploymentID is the environment-scoped sequence label ("#1", "#2", ...).
	DeploymentID   string         `gorm:"column:deployment_id;not null" json:"deployment_id"`
	Active         bool           `gorm:"column:active;not null;default:false;index" json:"active"`
	Microfrontends datatypes.JSON `gorm:"column:microfrontends" json:"microfrontends"`
	Variables      datatypes.JSON `gorm:"column:variables" json:"variables"`
	DeployedAt     time.Time      `gorm:"column:deployed_at;not null" json:"deployed_at"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}

func (Deployment) TableName() string { return "deployment" }

// MicrofrontendList decodes the frozen microfrontend copies.
func (d *Deployment) MicrofrontendList() ([]Microfrontend, error) {
	var out []Microfrontend
	if len(d.Microfrontends) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(d.Microfrontends, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// VariableList decodes the frozen variable copies.
func (d *Deployment) VariableList() ([]GlobalVariable, error) {
	var out []GlobalVariable
	if len(d.Variables) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(d.Variables, &out); err != nil {
		return nil, err
	}
	return out, nil
}
