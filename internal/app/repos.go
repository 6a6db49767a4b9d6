package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
)

type Repos struct {
	Project        repos.ProjectRepo
	Environment    repos.EnvironmentRepo
	Microfrontend  repos.MicrofrontendRepo
	GlobalVariable repos.GlobalVariableRepo
	Deployment     repos.DeploymentRepo
	CanaryUser     repos.CanaryUserRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Project:        repos.NewProjectRepo(db, log),
		Environment:    repos.NewEnvironmentRepo(db, log),
		Microfrontend:  repos.NewMicrofrontendRepo(db, log),
		GlobalVariable: repos.NewGlobalVariableRepo(db, log),
		Deployment:     repos.NewDeploymentRepo(db, log),
		CanaryUser:     repos.NewCanaryUserRepo(db, log),
	}
}
