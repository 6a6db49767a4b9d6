package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/platform/ctxutil"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// AccessService is the authorization collaborator for the management API.
// The serve surface never consults it: public endpoints stay anonymous.
type AccessService interface {
	// AuthorizeEnvironment loads the environment and verifies the caller
	// belongs to its project. EntityNotFound when the environment is
	// unknown, AccessDenied when the caller has no membership.
	AuthorizeEnvironment(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (*types.Environment, error)
	AuthorizeProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error
}

type accessService struct {
	db          *gorm.DB
	log         *logger.Logger
	envRepo     repos.EnvironmentRepo
	projectRepo repos.ProjectRepo
}

func NewAccessService(db *gorm.DB, baseLog *logger.Logger, envRepo repos.EnvironmentRepo, projectRepo repos.ProjectRepo) AccessService {
	return &accessService{
		db:          db,
		log:         baseLog.With("service", "AccessService"),
		envRepo:     envRepo,
		projectRepo: projectRepo,
	}
}

func (as *accessService) AuthorizeEnvironment(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (*types.Environment, error) {
	envs, err := as.envRepo.GetByIDs(ctx, tx, []uuid.UUID{envID})
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 || envs[0] == nil {
		return nil, apierr.NotFound("environment", envID)
	}
	env := envs[0]
	if err := as.AuthorizeProject(ctx, tx, env.ProjectID); err != nil {
		return nil, err
	}
	return env, nil
}

func (as *accessService) AuthorizeProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return apierr.AccessDenied("project " + projectID.String())
	}
	exists, err := as.projectRepo.MemberExists(ctx, tx, projectID, rd.UserID)
	if err != nil {
		return err
	}
	if !exists {
		as.log.Warn("Project access denied", "project_id", projectID, "user_id", rd.UserID)
		return apierr.AccessDenied("project " + projectID.String())
	}
	return nil
}
