package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/services"
	"github.com/yungbote/mfe-orchestrator/internal/serving"
)

type Services struct {
	Access         services.AccessService
	Resolver       services.CanaryResolver
	Serve          services.ServeService
	Deployment     services.DeploymentService
	CanaryUser     services.CanaryUserService
	Microfrontend  services.MicrofrontendService
	GlobalVariable services.GlobalVariableService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, cache *serving.Cache, invalidator serving.Invalidator) Services {
	log.Info("Wiring services...")

	access := services.NewAccessService(db, log, reposet.Environment, reposet.Project)
	resolver := services.NewCanaryResolver(nil)

	serve := services.NewServeService(
		db, log,
		reposet.Environment,
		reposet.Microfrontend,
		reposet.GlobalVariable,
		reposet.Deployment,
		reposet.CanaryUser,
		resolver,
		cache,
	)

	deployment := services.NewDeploymentService(
		db, log,
		reposet.Environment,
		reposet.Microfrontend,
		reposet.GlobalVariable,
		reposet.Deployment,
		access,
		services.TxTransactional,
		invalidator,
	)

	canaryUser := services.NewCanaryUserService(db, log, reposet.Deployment, reposet.CanaryUser, access)
	microfrontend := services.NewMicrofrontendService(db, log, reposet.Microfrontend, access, invalidator)
	globalVariable := services.NewGlobalVariableService(db, log, reposet.GlobalVariable, access, invalidator)

	return Services{
		Access:         access,
		Resolver:       resolver,
		Serve:          serve,
		Deployment:     deployment,
		CanaryUser:     canaryUser,
		Microfrontend:  microfrontend,
		GlobalVariable: globalVariable,
	}
}
