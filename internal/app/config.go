package app

import (
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/utils"
)

type Config struct {
	JWTSecretKey     string
	ServeCacheActive bool
	RedisBusActive   bool
	OtelService      string
	OtelEnvironment  string
	OtelVersion      string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		JWTSecretKey:     utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		ServeCacheActive: utils.GetEnvAsBool("SERVE_CACHE_ENABLED", false, log),
		RedisBusActive:   utils.GetEnvAsBool("REDIS_BUS_ENABLED", false, log),
		OtelService:      utils.GetEnv("OTEL_SERVICE_NAME", "mfe-orchestrator", log),
		OtelEnvironment:  utils.GetEnv("APP_ENV", "development", log),
		OtelVersion:      utils.GetEnv("APP_VERSION", "", log),
	}
}
