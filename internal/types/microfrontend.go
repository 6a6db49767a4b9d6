package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type HostType string

const (
	HostOrchestratorHosted HostType = "ORCHESTRATOR_HOSTED"
	HostCustomURL          HostType = "CUSTOM_URL"
	HostCustomSource       HostType = "CUSTOM_SOURCE"
)

type CanaryType string

const (
	CanaryOnSessions  CanaryType = "ON_SESSIONS"
	CanaryOnUser      CanaryType = "ON_USER"
	CanaryCookieBased CanaryType = "COOKIE_BASED"
)

type CanaryDeploymentType string

const (
	CanaryBasedOnVersion CanaryDeploymentType = "BASED_ON_VERSION"
	CanaryBasedOnURL     CanaryDeploymentType = "BASED_ON_URL"
)

// Host describes where a microfrontend is served from. URL may carry the
// literal "$version" placeholder; StorageID points at an external storage
// backend for CUSTOM_SOURCE hosts.
type Host struct {
	Type      HostType   `gorm:"column:type" json:"type"`
	URL       string     `gorm:"column:url" json:"url,omitempty"`
	StorageID *uuid.UUID `gorm:"column:storage_id;type:uuid" json:"storage_id,omitempty"`
}

// Canary is the per-microfrontend traffic-splitting policy.
type Canary struct {
	Enabled        bool                 `gorm:"column:enabled;not null;default:false" json:"enabled"`
	Type           CanaryType           `gorm:"column:type" json:"type,omitempty"`
	Percentage     float64              `gorm:"column:percentage;not null;default:0" json:"percentage"`
	DeploymentType CanaryDeploymentType `gorm:"column:deployment_type" json:"deployment_type,omitempty"`
	CanaryVersion  string               `gorm:"column:version" json:"canary_version,omitempty"`
	CanaryURL      string               `gorm:"column:url" json:"canary_url,omitempty"`
}

type Microfrontend struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	EnvironmentID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_mfe_environment_slug" json:"environment_id"`
	Environment   *Environment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnvironmentID;references:ID" json:"environment,omitempty"`
	Slug          string     `gorm:"column:slug;not null;uniqueIndex:idx_mfe_environment_slug" json:"slug"`
	Name          string     `gorm:"column:name;not null" json:"name"`
	Version       string     `gorm:"column:version;not null" json:"version"`
	Host          Host       `gorm:"embedded;embeddedPrefix:host_" json:"host"`
	Canary        *Canary    `gorm:"embedded;embeddedPrefix:canary_" json:"canary,omitempty"`
	// ContinuousDeployment is surfaced to serve clients so hosts can poll
	// for new versions instead of pinning one.
	ContinuousDeployment bool `gorm:"column:continuous_deployment;not null;default:false" json:"continuous_deployment"`
	// ParentID links host/remote composition for graph display only; it
	// plays no part in resolution.
	ParentID  *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Microfrontend) TableName() string { return "microfrontend" }

// CanaryEnabled reports whether a canary policy is present and switched on.
func (m *Microfrontend) CanaryEnabled() bool {
	return m != nil && m.Canary != nil && m.Canary.Enabled
}
