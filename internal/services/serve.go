package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/serving"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

// ResolvedEntry is one microfrontend as served to a module-federation host
// or plain fetch client: a stable slug and a single concrete URL.
type ResolvedEntry struct {
	Slug                 string `json:"slug"`
	URL                  string `json:"url"`
	ContinuousDeployment bool   `json:"continuous_deployment,omitempty"`
}

// ServePayload is the full runtime configuration for one scope.
type ServePayload struct {
	Variables      []types.GlobalVariable `json:"variables"`
	Microfrontends []ResolvedEntry        `json:"microfrontends"`
}

// ServeService is the public read path. All operations tolerate anonymous
// callers, perform no writes, and resolve from state fetched once per
// request; the only per-entry I/O is the ON_USER allowlist lookup, done
// concurrently across microfrontends. One InvalidConfiguration entry fails
// the whole payload: the response is a single JSON document with no
// per-item failure envelope.
type ServeService interface {
	GetAllByEnvironment(ctx context.Context, envID uuid.UUID, rc RequestContext) (*ServePayload, error)
	GetAllByProjectAndEnvironmentSlug(ctx context.Context, projectID uuid.UUID, envSlug string, rc RequestContext) (*ServePayload, error)
	GetByDeployment(ctx context.Context, deploymentID uuid.UUID, rc RequestContext) (*ServePayload, error)
	GetMicrofrontendByID(ctx context.Context, mfeID uuid.UUID, rc RequestContext) (*ResolvedEntry, error)
	GetMicrofrontendBySlug(ctx context.Context, projectID uuid.UUID, envSlug, mfeSlug string, rc RequestContext) (*ResolvedEntry, error)
	GetDefaultMicrofrontend(ctx context.Context, projectID uuid.UUID, envSlug string, rc RequestContext) (*ResolvedEntry, error)
	GetVariablesByEnvironment(ctx context.Context, envID uuid.UUID) ([]types.GlobalVariable, error)
	GetVariablesByProjectAndEnvironmentSlug(ctx context.Context, projectID uuid.UUID, envSlug string) ([]types.GlobalVariable, error)
}

type serveService struct {
	db             *gorm.DB
	log            *logger.Logger
	envRepo        repos.EnvironmentRepo
	mfeRepo        repos.MicrofrontendRepo
	varRepo        repos.GlobalVariableRepo
	depRepo        repos.DeploymentRepo
	canaryUserRepo repos.CanaryUserRepo
	resolver       CanaryResolver
	cache          *serving.Cache
}

func NewServeService(
	db *gorm.DB,
	baseLog *logger.Logger,
	envRepo repos.EnvironmentRepo,
	mfeRepo repos.MicrofrontendRepo,
	varRepo repos.GlobalVariableRepo,
	depRepo repos.DeploymentRepo,
	canaryUserRepo repos.CanaryUserRepo,
	resolver CanaryResolver,
	cache *serving.Cache,
) ServeService {
	return &serveService{
		db:             db,
		log:            baseLog.With("service", "ServeService"),
		envRepo:        envRepo,
		mfeRepo:        mfeRepo,
		varRepo:        varRepo,
		depRepo:        depRepo,
		canaryUserRepo: canaryUserRepo,
		resolver:       resolver,
		cache:          cache,
	}
}

func (ss *serveService) GetAllByEnvironment(ctx context.Context, envID uuid.UUID, rc RequestContext) (*ServePayload, error) {
	st, err := ss.environmentState(ctx, envID)
	if err != nil {
		return nil, err
	}
	entries, err := ss.resolveEntries(ctx, st.Microfrontends, st.ActiveDeploymentID, rc)
	if err != nil {
		return nil, err
	}
	return &ServePayload{Variables: st.Variables, Microfrontends: entries}, nil
}

func (ss *serveService) GetAllByProjectAndEnvironmentSlug(ctx context.Context, projectID uuid.UUID, envSlug string, rc RequestContext) (*ServePayload, error) {
	env, err := ss.lookupEnvironment(ctx, projectID, envSlug)
	if err != nil {
		return nil, err
	}
	return ss.GetAllByEnvironment(ctx, env.ID, rc)
}

// GetByDeployment serves a frozen snapshot instead of the live registry.
func (ss *serveService) GetByDeployment(ctx context.Context, deploymentID uuid.UUID, rc RequestContext) (*ServePayload, error) {
	deps, err := ss.depRepo.GetByIDs(ctx, nil, []uuid.UUID{deploymentID})
	if err != nil {
		return nil, err
	}
	if len(deps) == 0 || deps[0] == nil {
		return nil, apierr.NotFound("deployment", deploymentID)
	}
	dep := deps[0]
	mfes, err := dep.MicrofrontendList()
	if err != nil {
		return nil, err
	}
	vars, err := dep.VariableList()
	if err != nil {
		return nil, err
	}
	depID := dep.ID
	entries, err := ss.resolveEntries(ctx, mfes, &depID, rc)
	if err != nil {
		return nil, err
	}
	return &ServePayload{Variables: vars, Microfrontends: entries}, nil
}

func (ss *serveService) GetMicrofrontendByID(ctx context.Context, mfeID uuid.UUID, rc RequestContext) (*ResolvedEntry, error) {
	mfes, err := ss.mfeRepo.GetByIDs(ctx, nil, []uuid.UUID{mfeID})
	if err != nil {
		return nil, err
	}
	if len(mfes) == 0 || mfes[0] == nil {
		return nil, apierr.NotFound("microfrontend", mfeID)
	}
	return ss.resolveOne(ctx, mfes[0], rc)
}

func (ss *serveService) GetMicrofrontendBySlug(ctx context.Context, projectID uuid.UUID, envSlug, mfeSlug string, rc RequestContext) (*ResolvedEntry, error) {
	env, err := ss.lookupEnvironment(ctx, projectID, envSlug)
	if err != nil {
		return nil, err
	}
	mfe, err := ss.mfeRepo.GetByEnvironmentAndSlug(ctx, nil, env.ID, mfeSlug)
	if err != nil {
		return nil, err
	}
	if mfe == nil {
		return nil, apierr.NotFound("microfrontend", mfeSlug)
	}
	return ss.resolveOne(ctx, mfe, rc)
}

// GetDefaultMicrofrontend resolves the composition host of the scope: the
// first parentless entry in slug order, falling back to the first entry.
func (ss *serveService) GetDefaultMicrofrontend(ctx context.Context, projectID uuid.UUID, envSlug string, rc RequestContext) (*ResolvedEntry, error) {
	env, err := ss.lookupEnvironment(ctx, projectID, envSlug)
	if err != nil {
		return nil, err
	}
	mfes, err := ss.mfeRepo.GetByEnvironmentIDs(ctx, nil, []uuid.UUID{env.ID})
	if err != nil {
		return nil, err
	}
	if len(mfes) == 0 {
		return nil, apierr.NotFound("microfrontend", "default")
	}
	target := mfes[0]
	for _, m := range mfes {
		if m.ParentID == nil {
			target = m
			break
		}
	}
	return ss.resolveOne(ctx, target, rc)
}

func (ss *serveService) GetVariablesByEnvironment(ctx context.Context, envID uuid.UUID) ([]types.GlobalVariable, error) {
	st, err := ss.environmentState(ctx, envID)
	if err != nil {
		return nil, err
	}
	return st.Variables, nil
}

func (ss *serveService) GetVariablesByProjectAndEnvironmentSlug(ctx context.Context, projectID uuid.UUID, envSlug string) ([]types.GlobalVariable, error) {
	env, err := ss.lookupEnvironment(ctx, projectID, envSlug)
	if err != nil {
		return nil, err
	}
	return ss.GetVariablesByEnvironment(ctx, env.ID)
}

func (ss *serveService) lookupEnvironment(ctx context.Context, projectID uuid.UUID, envSlug string) (*types.Environment, error) {
	env, err := ss.envRepo.GetByProjectAndSlug(ctx, nil, projectID, envSlug)
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, apierr.NotFound("environment", envSlug)
	}
	return env, nil
}

// environmentState loads the live read model for one environment, through
// the cache when it is enabled.
func (ss *serveService) environmentState(ctx context.Context, envID uuid.UUID) (*serving.EnvironmentState, error) {
	if st, ok := ss.cache.Get(envID); ok {
		return st, nil
	}
	envs, err := ss.envRepo.GetByIDs(ctx, nil, []uuid.UUID{envID})
	if err != nil {
		return nil, err
	}
	if len(envs) == 0 || envs[0] == nil {
		return nil, apierr.NotFound("environment", envID)
	}
	mfePtrs, err := ss.mfeRepo.GetByEnvironmentIDs(ctx, nil, []uuid.UUID{envID})
	if err != nil {
		return nil, err
	}
	varPtrs, err := ss.varRepo.GetByEnvironmentIDs(ctx, nil, []uuid.UUID{envID})
	if err != nil {
		return nil, err
	}
	active, err := ss.depRepo.GetActiveByEnvironmentID(ctx, nil, envID)
	if err != nil {
		return nil, err
	}

	st := &serving.EnvironmentState{
		Environment:    envs[0],
		Microfrontends: make([]types.Microfrontend, 0, len(mfePtrs)),
		Variables:      make([]types.GlobalVariable, 0, len(varPtrs)),
	}
	for _, m := range mfePtrs {
		st.Microfrontends = append(st.Microfrontends, *m)
	}
	for _, v := range varPtrs {
		st.Variables = append(st.Variables, *v)
	}
	if active != nil {
		id := active.ID
		st.ActiveDeploymentID = &id
	}
	ss.cache.Set(envID, st)
	return st, nil
}

// resolveEntries maps every microfrontend through the canary resolver. The
// allowlist fetches are independent records with no ordering requirement, so
// they run concurrently; any failure aborts the whole batch.
func (ss *serveService) resolveEntries(ctx context.Context, mfes []types.Microfrontend, deploymentID *uuid.UUID, rc RequestContext) ([]ResolvedEntry, error) {
	entries := make([]ResolvedEntry, len(mfes))
	g, gctx := errgroup.WithContext(ctx)
	for i := range mfes {
		mfe := &mfes[i]
		idx := i
		g.Go(func() error {
			allowed, err := ss.userAllowed(gctx, mfe, deploymentID, rc)
			if err != nil {
				return err
			}
			url, err := ss.resolver.Resolve(mfe, rc, allowed)
			if err != nil {
				return err
			}
			entries[idx] = ResolvedEntry{
				Slug:                 mfe.Slug,
				URL:                  url,
				ContinuousDeployment: mfe.ContinuousDeployment,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (ss *serveService) resolveOne(ctx context.Context, mfe *types.Microfrontend, rc RequestContext) (*ResolvedEntry, error) {
	var deploymentID *uuid.UUID
	if ss.resolver.NeedsAllowlist(mfe) {
		active, err := ss.depRepo.GetActiveByEnvironmentID(ctx, nil, mfe.EnvironmentID)
		if err != nil {
			return nil, err
		}
		if active != nil {
			id := active.ID
			deploymentID = &id
		}
	}
	allowed, err := ss.userAllowed(ctx, mfe, deploymentID, rc)
	if err != nil {
		return nil, err
	}
	url, err := ss.resolver.Resolve(mfe, rc, allowed)
	if err != nil {
		return nil, err
	}
	return &ResolvedEntry{
		Slug:                 mfe.Slug,
		URL:                  url,
		ContinuousDeployment: mfe.ContinuousDeployment,
	}, nil
}

// userAllowed performs the single ON_USER allowlist lookup for one
// microfrontend. A record scoped to a specific microfrontend only matches
// that microfrontend; an unscoped record matches all of them.
func (ss *serveService) userAllowed(ctx context.Context, mfe *types.Microfrontend, deploymentID *uuid.UUID, rc RequestContext) (bool, error) {
	if !ss.resolver.NeedsAllowlist(mfe) || rc.UserID == "" || deploymentID == nil {
		return false, nil
	}
	rec, err := ss.canaryUserRepo.GetByDeploymentAndUser(ctx, nil, *deploymentID, rc.UserID)
	if err != nil {
		return false, err
	}
	if rec == nil || !rec.Enabled {
		return false, nil
	}
	if rec.MicrofrontendID != nil && *rec.MicrofrontendID != mfe.ID {
		return false, nil
	}
	return true, nil
}
