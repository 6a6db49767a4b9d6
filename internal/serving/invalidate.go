package serving

import (
	"context"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/yungbote/mfe-orchestrator/internal/clients/redis"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
)

// Fanout invalidates the local cache synchronously and then tells the other
// instances over the deploy bus. Local invalidation happens first so the
// writing instance never serves stale state, whatever the bus does.
type Fanout struct {
	log   *logger.Logger
	cache *Cache
	bus   redisclient.DeployBus
}

func NewFanout(baseLog *logger.Logger, cache *Cache, bus redisclient.DeployBus) *Fanout {
	return &Fanout{
		log:   baseLog.With("service", "ServeCacheFanout"),
		cache: cache,
		bus:   bus,
	}
}

func (f *Fanout) Invalidate(envID uuid.UUID) {
	f.cache.Invalidate(envID)
	if f.bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event := redisclient.DeployEvent{EnvironmentID: envID, Kind: redisclient.EventDeploymentActivated}
	if err := f.bus.Publish(ctx, event); err != nil {
		f.log.Warn("Deploy event publish failed; remote caches will lag", "error", err, "environment_id", envID)
	}
}

// StartSubscriber wires inbound bus events back into the local cache.
func (f *Fanout) StartSubscriber(ctx context.Context) error {
	if f.bus == nil {
		return nil
	}
	return f.bus.StartForwarder(ctx, func(event redisclient.DeployEvent) {
		f.cache.Invalidate(event.EnvironmentID)
	})
}
