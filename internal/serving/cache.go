package serving

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// EnvironmentState is the per-environment read model the serve path works
// from: everything is fetched once, then canary resolution maps over it in
// memory.
type EnvironmentState struct {
	Environment        *types.Environment
	Microfrontends     []types.Microfrontend
	Variables          []types.GlobalVariable
	ActiveDeploymentID *uuid.UUID
}

// Invalidator drops cached state for an environment. Every snapshot
// activation/redeploy and every registry/variable mutation must go through
// one of these synchronously, or serve responses drift from the store.
type Invalidator interface {
	Invalidate(envID uuid.UUID)
}

// Cache is an optional in-process cache for the serve read path. When
// disabled every request re-reads the authoritative store, which is the
// baseline behavior.
type Cache struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*EnvironmentState
	enabled bool
}

func NewCache(enabled bool) *Cache {
	return &Cache{
		entries: make(map[uuid.UUID]*EnvironmentState),
		enabled: enabled,
	}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

func (c *Cache) Get(envID uuid.UUID) (*EnvironmentState, bool) {
	if !c.Enabled() {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.entries[envID]
	return st, ok
}

func (c *Cache) Set(envID uuid.UUID, st *EnvironmentState) {
	if !c.Enabled() || st == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[envID] = st
}

func (c *Cache) Invalidate(envID uuid.UUID) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, envID)
}
