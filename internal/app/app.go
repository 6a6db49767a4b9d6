package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	redisclient "github.com/yungbote/mfe-orchestrator/internal/clients/redis"
	"github.com/yungbote/mfe-orchestrator/internal/db"
	apphttp "github.com/yungbote/mfe-orchestrator/internal/http"
	"github.com/yungbote/mfe-orchestrator/internal/observability"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/serving"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *apphttp.Server
	Cfg      Config
	Repos    Repos
	Services Services
	Cache    *serving.Cache
	Fanout   *serving.Fanout

	bus          redisclient.DeployBus
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	cache := serving.NewCache(cfg.ServeCacheActive)

	// Redis only carries cache-invalidation events between instances; the
	// serve path never waits on it. Without the bus the app still runs,
	// each instance invalidating its own cache.
	var bus redisclient.DeployBus
	if cfg.RedisBusActive {
		bus, err = redisclient.NewDeployBus(log)
		if err != nil {
			log.Warn("Redis deploy bus unavailable; running single-instance invalidation", "error", err)
			bus = nil
		}
	}
	fanout := serving.NewFanout(log, cache, bus)

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, cache, fanout)
	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, cfg)
	server := wireServer(log, handlerset, middleware)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.OtelService,
		Environment: cfg.OtelEnvironment,
		Version:     cfg.OtelVersion,
	})

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Cache:        cache,
		Fanout:       fanout,
		bus:          bus,
		otelShutdown: otelShutdown,
	}, nil
}

func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Fanout != nil {
		if err := a.Fanout.StartSubscriber(ctx); err != nil {
			a.Log.Warn("Deploy bus subscriber failed to start", "error", err)
		}
	}
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.bus != nil {
		if err := a.bus.Close(); err != nil {
			a.Log.Warn("Redis deploy bus close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("Otel shutdown failed", "error", err)
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
