package app

import (
	apphttp "github.com/yungbote/mfe-orchestrator/internal/http"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
)

func wireServer(log *logger.Logger, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:            log,
		AuthMiddleware: middleware.Auth,

		ServeHandler:          handlers.Serve,
		DeploymentHandler:     handlers.Deployment,
		CanaryUserHandler:     handlers.CanaryUser,
		MicrofrontendHandler:  handlers.Microfrontend,
		GlobalVariableHandler: handlers.GlobalVariable,
		HealthHandler:         handlers.Health,
	})
}
