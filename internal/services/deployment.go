package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/serving"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// TxCapability tells the snapshot-write path whether the underlying store
// supports multi-statement transactions. Injected at construction so tests
// can exercise both modes; when best-effort, the activate/deactivate pair
// degrades to sequential writes with a narrow window where readers can see
// zero or two active snapshots. Known limitation, not silently hidden.
type TxCapability bool

const (
	TxTransactional TxCapability = true
	TxBestEffort    TxCapability = false
)

type DeploymentService interface {
	Create(ctx context.Context, envID uuid.UUID) (*types.Deployment, error)
	// CreateForEnvironments fans out Create over several environments
	// inside one shared transaction; if any element fails the whole batch
	// rolls back.
	CreateForEnvironments(ctx context.Context, envIDs []uuid.UUID) ([]*types.Deployment, error)
	Redeploy(ctx context.Context, deploymentID uuid.UUID) (*types.Deployment, error)
	ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*types.Deployment, error)
}

type deploymentService struct {
	db          *gorm.DB
	log         *logger.Logger
	envRepo     repos.EnvironmentRepo
	mfeRepo     repos.MicrofrontendRepo
	varRepo     repos.GlobalVariableRepo
	depRepo     repos.DeploymentRepo
	access      AccessService
	txCapable   TxCapability
	invalidator serving.Invalidator
}

func NewDeploymentService(
	db *gorm.DB,
	baseLog *logger.Logger,
	envRepo repos.EnvironmentRepo,
	mfeRepo repos.MicrofrontendRepo,
	varRepo repos.GlobalVariableRepo,
	depRepo repos.DeploymentRepo,
	access AccessService,
	txCapable TxCapability,
	invalidator serving.Invalidator,
) DeploymentService {
	return &deploymentService{
		db:          db,
		log:         baseLog.With("service", "DeploymentService"),
		envRepo:     envRepo,
		mfeRepo:     mfeRepo,
		varRepo:     varRepo,
		depRepo:     depRepo,
		access:      access,
		txCapable:   txCapable,
		invalidator: invalidator,
	}
}

// runWrite wraps fn in a transaction when the store supports it. GORM retries
// nothing itself; transient serialization conflicts surface to the caller's
// transaction wrapper, which is the only retry layer this path gets.
func (ds *deploymentService) runWrite(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if ds.txCapable == TxTransactional {
		return ds.db.WithContext(ctx).Transaction(fn)
	}
	return fn(ds.db.WithContext(ctx))
}

func (ds *deploymentService) Create(ctx context.Context, envID uuid.UUID) (*types.Deployment, error) {
	if _, err := ds.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
		return nil, err
	}
	var created *types.Deployment
	err := ds.runWrite(ctx, func(tx *gorm.DB) error {
		dep, err := ds.createInTx(ctx, tx, envID)
		if err != nil {
			return err
		}
		created = dep
		return nil
	})
	if err != nil {
		ds.log.Error("Create deployment failed", "error", err, "environment_id", envID)
		return nil, err
	}
	ds.invalidate(envID)
	ds.log.Info("Deployment created", "environment_id", envID, "deployment_id", created.DeploymentID)
	return created, nil
}

func (ds *deploymentService) CreateForEnvironments(ctx context.Context, envIDs []uuid.UUID) ([]*types.Deployment, error) {
	if len(envIDs) == 0 {
		return []*types.Deployment{}, nil
	}
	for _, envID := range envIDs {
		if _, err := ds.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
			return nil, err
		}
	}
	created := make([]*types.Deployment, 0, len(envIDs))
	err := ds.runWrite(ctx, func(tx *gorm.DB) error {
		for _, envID := range envIDs {
			dep, err := ds.createInTx(ctx, tx, envID)
			if err != nil {
				return fmt.Errorf("environment %s: %w", envID, err)
			}
			created = append(created, dep)
		}
		return nil
	})
	if err != nil {
		ds.log.Error("Fan-out deployment failed, rolled back", "error", err)
		return nil, err
	}
	for _, envID := range envIDs {
		ds.invalidate(envID)
	}
	return created, nil
}

// createInTx freezes the environment's live registry and variables into a new
// active snapshot and deactivates every sibling.
//
// The "#<n>" label is derived by counting existing snapshots, not from a
// dedicated counter, so two concurrent creations can mint the same label.
// Accepted limitation; switch to an atomic per-environment counter if label
// uniqueness ever becomes a hard requirement.
func (ds *deploymentService) createInTx(ctx context.Context, tx *gorm.DB, envID uuid.UUID) (*types.Deployment, error) {
	envs, err := ds.envRepo.GetByIDs(ctx, tx, []uuid.UUID{envID})
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 || envs[0] == nil {
		return nil, apierr.NotFound("environment", envID)
	}

	mfes, err := ds.mfeRepo.GetByEnvironmentIDs(ctx, tx, []uuid.UUID{envID})
	if err != nil {
		return nil, fmt.Errorf("load microfrontends: %w", err)
	}
	vars, err := ds.varRepo.GetByEnvironmentIDs(ctx, tx, []uuid.UUID{envID})
	if err != nil {
		return nil, fmt.Errorf("load variables: %w", err)
	}
	count, err := ds.depRepo.CountByEnvironmentID(ctx, tx, envID)
	if err != nil {
		return nil, fmt.Errorf("count deployments: %w", err)
	}

	mfeCopies := make([]types.Microfrontend, 0, len(mfes))
	for _, m := range mfes {
		copied := *m
		copied.Environment = nil
		mfeCopies = append(mfeCopies, copied)
	}
	varCopies := make([]types.GlobalVariable, 0, len(vars))
	for _, v := range vars {
		copied := *v
		copied.Environment = nil
		varCopies = append(varCopies, copied)
	}
	mfeJSON, err := json.Marshal(mfeCopies)
	if err != nil {
		return nil, fmt.Errorf("freeze microfrontends: %w", err)
	}
	varJSON, err := json.Marshal(varCopies)
	if err != nil {
		return nil, fmt.Errorf("freeze variables: %w", err)
	}

	now := time.Now()
	dep := &types.Deployment{
		ID:             uuid.New(),
		EnvironmentID:  envID,
		DeploymentID:   fmt.Sprintf("#%d", count+1),
		Active:         true,
		Microfrontends: mfeJSON,
		Variables:      varJSON,
		DeployedAt:     now,
		CreatedAt:      now,
	}
	if _, err := ds.depRepo.Create(ctx, tx, dep); err != nil {
		return nil, fmt.Errorf("create deployment: %w", err)
	}
	if err := ds.depRepo.DeactivateSiblings(ctx, tx, envID, dep.ID); err != nil {
		return nil, fmt.Errorf("deactivate siblings: %w", err)
	}
	return dep, nil
}

func (ds *deploymentService) Redeploy(ctx context.Context, deploymentID uuid.UUID) (*types.Deployment, error) {
	deps, err := ds.depRepo.GetByIDs(ctx, nil, []uuid.UUID{deploymentID})
	if err != nil {
		return nil, err
	}
	if len(deps) == 0 || deps[0] == nil {
		return nil, apierr.NotFound("deployment", deploymentID)
	}
	dep := deps[0]
	if _, err := ds.access.AuthorizeEnvironment(ctx, nil, dep.EnvironmentID); err != nil {
		return nil, err
	}

	dep.Active = true
	dep.DeployedAt = time.Now()
	err = ds.runWrite(ctx, func(tx *gorm.DB) error {
		if err := ds.depRepo.Activate(ctx, tx, dep); err != nil {
			return fmt.Errorf("activate deployment: %w", err)
		}
		if err := ds.depRepo.DeactivateSiblings(ctx, tx, dep.EnvironmentID, dep.ID); err != nil {
			return fmt.Errorf("deactivate siblings: %w", err)
		}
		return nil
	})
	if err != nil {
		ds.log.Error("Redeploy failed", "error", err, "deployment", dep.DeploymentID)
		return nil, err
	}
	ds.invalidate(dep.EnvironmentID)
	ds.log.Info("Deployment reactivated", "environment_id", dep.EnvironmentID, "deployment_id", dep.DeploymentID)
	return dep, nil
}

func (ds *deploymentService) ListByEnvironment(ctx context.Context, envID uuid.UUID) ([]*types.Deployment, error) {
	if _, err := ds.access.AuthorizeEnvironment(ctx, nil, envID); err != nil {
		return nil, err
	}
	return ds.depRepo.GetByEnvironmentID(ctx, nil, envID)
}

func (ds *deploymentService) invalidate(envID uuid.UUID) {
	if ds.invalidator != nil {
		ds.invalidator.Invalidate(envID)
	}
}
