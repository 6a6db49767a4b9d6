package app

import (
	httpH "github.com/yungbote/mfe-orchestrator/internal/http/handlers"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
)

type Handlers struct {
	Serve          *httpH.ServeHandler
	Deployment     *httpH.DeploymentHandler
	CanaryUser     *httpH.CanaryUserHandler
	Microfrontend  *httpH.MicrofrontendHandler
	GlobalVariable *httpH.GlobalVariableHandler
	Health         *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, serviceset Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Serve:          httpH.NewServeHandler(serviceset.Serve),
		Deployment:     httpH.NewDeploymentHandler(serviceset.Deployment),
		CanaryUser:     httpH.NewCanaryUserHandler(serviceset.CanaryUser),
		Microfrontend:  httpH.NewMicrofrontendHandler(serviceset.Microfrontend),
		GlobalVariable: httpH.NewGlobalVariableHandler(serviceset.GlobalVariable),
		Health:         httpH.NewHealthHandler(),
	}
}
