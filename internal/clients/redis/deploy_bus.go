package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
)

// DeployEvent is broadcast whenever an environment's served configuration
// changes: snapshot activation, redeploy, or a registry/variable mutation.
// Subscribers drop their in-process serve cache entry for the environment.
type DeployEvent struct {
	EnvironmentID uuid.UUID `json:"environment_id"`
	Kind          string    `json:"kind"`
}

const (
	EventDeploymentActivated = "deployment_activated"
	EventRegistryMutated     = "registry_mutated"
)

// DeployBus fans deploy events out to every running instance. It is never
// consulted on the serve hot path; only the write paths publish.
type DeployBus interface {
	Publish(ctx context.Context, event DeployEvent) error
	StartForwarder(ctx context.Context, onEvent func(event DeployEvent)) error
	Close() error
}

type deployBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewDeployBus(log *logger.Logger) (DeployBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ch := strings.TrimSpace(os.Getenv("REDIS_CHANNEL"))
	if ch == "" {
		ch = "deploy-events"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &deployBus{
		log:     log.With("service", "RedisDeployBus"),
		rdb:     rdb,
		channel: ch,
	}, nil
}

func (b *deployBus) Publish(ctx context.Context, event DeployEvent) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis deploy bus not initialized")
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *deployBus) StartForwarder(ctx context.Context, onEvent func(event DeployEvent)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis deploy bus not initialized")
	}
	if onEvent == nil {
		return fmt.Errorf("onEvent callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var event DeployEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					b.log.Warn("bad redis deploy event payload", "error", err)
					continue
				}
				onEvent(event)
			}
		}
	}()

	return nil
}

func (b *deployBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
