package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

func newDeploymentService(t *testing.T, gdb *gorm.DB, txCapable TxCapability) DeploymentService {
	t.Helper()
	log := newTestLogger(t)
	envRepo := repos.NewEnvironmentRepo(gdb, log)
	mfeRepo := repos.NewMicrofrontendRepo(gdb, log)
	varRepo := repos.NewGlobalVariableRepo(gdb, log)
	depRepo := repos.NewDeploymentRepo(gdb, log)
	projectRepo := repos.NewProjectRepo(gdb, log)
	access := NewAccessService(gdb, log, envRepo, projectRepo)
	return NewDeploymentService(gdb, log, envRepo, mfeRepo, varRepo, depRepo, access, txCapable, nil)
}

func listDeployments(t *testing.T, gdb *gorm.DB, envID uuid.UUID) []*types.Deployment {
	t.Helper()
	var deps []*types.Deployment
	if err := gdb.Where("environment_id = ?", envID).Order("created_at ASC").Find(&deps).Error; err != nil {
		t.Fatalf("list deployments: %v", err)
	}
	return deps
}

func TestCreateDeploymentLabelsAndSingleActive(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	seedVariable(t, gdb, scope.Environment.ID, "API_URL", "https://api.example.com")
	svc := newDeploymentService(t, gdb, TxTransactional)

	first, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.DeploymentID != "#1" {
		t.Fatalf("first label = %q, want #1", first.DeploymentID)
	}
	if !first.Active {
		t.Fatal("first deployment should be active")
	}

	second, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if second.DeploymentID != "#2" {
		t.Fatalf("second label = %q, want #2", second.DeploymentID)
	}

	deps := listDeployments(t, gdb, scope.Environment.ID)
	if len(deps) != 2 {
		t.Fatalf("got %d deployments, want 2", len(deps))
	}
	activeCount := 0
	for _, d := range deps {
		if d.Active {
			activeCount++
			if d.ID != second.ID {
				t.Fatalf("active deployment is %s, want %s", d.ID, second.ID)
			}
		}
	}
	if activeCount != 1 {
		t.Fatalf("got %d active deployments, want exactly 1", activeCount)
	}
}

func TestDeploymentSnapshotIsImmutable(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	mfe := seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	seedVariable(t, gdb, scope.Environment.ID, "API_URL", "https://api.example.com")
	svc := newDeploymentService(t, gdb, TxTransactional)

	dep, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Registry edits after the snapshot must not leak into it.
	if err := gdb.Model(mfe).Update("version", "9.9.9").Error; err != nil {
		t.Fatalf("mutate registry: %v", err)
	}
	if err := gdb.Where("environment_id = ?", scope.Environment.ID).Delete(&types.GlobalVariable{}).Error; err != nil {
		t.Fatalf("delete variables: %v", err)
	}

	var reloaded types.Deployment
	if err := gdb.First(&reloaded, "id = ?", dep.ID).Error; err != nil {
		t.Fatalf("reload deployment: %v", err)
	}
	frozenMfes, err := reloaded.MicrofrontendList()
	if err != nil {
		t.Fatalf("decode microfrontends: %v", err)
	}
	if len(frozenMfes) != 1 || frozenMfes[0].Version != "1.0.0" {
		t.Fatalf("snapshot changed with the registry: %+v", frozenMfes)
	}
	frozenVars, err := reloaded.VariableList()
	if err != nil {
		t.Fatalf("decode variables: %v", err)
	}
	if len(frozenVars) != 1 || frozenVars[0].Value != "https://api.example.com" {
		t.Fatalf("snapshot variables changed: %+v", frozenVars)
	}
}

func TestRedeployReactivatesOldSnapshot(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	svc := newDeploymentService(t, gdb, TxTransactional)

	first, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.Create(scope.ctx(), scope.Environment.ID); err != nil {
		t.Fatalf("second create: %v", err)
	}

	rolled, err := svc.Redeploy(scope.ctx(), first.ID)
	if err != nil {
		t.Fatalf("redeploy: %v", err)
	}
	if rolled.DeploymentID != "#1" {
		t.Fatalf("redeploy must keep the label, got %q", rolled.DeploymentID)
	}

	deps := listDeployments(t, gdb, scope.Environment.ID)
	activeCount := 0
	for _, d := range deps {
		if d.Active {
			activeCount++
			if d.ID != first.ID {
				t.Fatalf("active deployment is %s, want redeployed %s", d.ID, first.ID)
			}
		}
	}
	if activeCount != 1 {
		t.Fatalf("got %d active deployments, want exactly 1", activeCount)
	}
}

func TestCreateForEnvironmentsSharesNothingAcrossScopes(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")

	// Second environment in the same project.
	env2 := &types.Environment{
		ID:        uuid.New(),
		ProjectID: scope.Project.ID,
		Slug:      "staging",
		Name:      "staging",
	}
	if err := gdb.Create(env2).Error; err != nil {
		t.Fatalf("seed second environment: %v", err)
	}
	seedMicrofrontend(t, gdb, env2.ID, "checkout", "2.0.0", "https://cdn.example.com/$version/e.js")

	svc := newDeploymentService(t, gdb, TxTransactional)
	deps, err := svc.CreateForEnvironments(scope.ctx(), []uuid.UUID{scope.Environment.ID, env2.ID})
	if err != nil {
		t.Fatalf("fan-out create: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d deployments, want 2", len(deps))
	}
	// Labels count per environment, not globally.
	if deps[0].DeploymentID != "#1" || deps[1].DeploymentID != "#1" {
		t.Fatalf("labels = %q, %q; want #1, #1", deps[0].DeploymentID, deps[1].DeploymentID)
	}
	for _, d := range deps {
		frozen, err := d.MicrofrontendList()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(frozen) != 1 {
			t.Fatalf("each snapshot freezes its own environment, got %d entries", len(frozen))
		}
	}
}

func TestCreateForEnvironmentsFailsAtomically(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	svc := newDeploymentService(t, gdb, TxTransactional)

	_, err := svc.CreateForEnvironments(scope.ctx(), []uuid.UUID{scope.Environment.ID, uuid.New()})
	if err == nil {
		t.Fatal("expected error for unknown environment")
	}
	if deps := listDeployments(t, gdb, scope.Environment.ID); len(deps) != 0 {
		t.Fatalf("failed batch must create nothing, found %d deployments", len(deps))
	}
}

func TestCreateDeploymentBestEffortMode(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	svc := newDeploymentService(t, gdb, TxBestEffort)

	dep, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("create without transactions: %v", err)
	}
	if dep.DeploymentID != "#1" || !dep.Active {
		t.Fatalf("unexpected deployment %+v", dep)
	}
}

func TestDeploymentAccessControl(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	svc := newDeploymentService(t, gdb, TxTransactional)

	// Anonymous context.
	if _, err := svc.Create(context.Background(), scope.Environment.ID); !apierr.IsCode(err, apierr.CodeAccessDenied) {
		t.Fatalf("anonymous create: expected access_denied, got %v", err)
	}

	// Unknown environment surfaces as not-found before access.
	if _, err := svc.Create(scope.ctx(), uuid.New()); !apierr.IsCode(err, apierr.CodeEntityNotFound) {
		t.Fatalf("unknown environment: expected entity_not_found, got %v", err)
	}

	// Authenticated non-member.
	outsider := ctxWithUser(uuid.New())
	if _, err := svc.ListByEnvironment(outsider, scope.Environment.ID); !apierr.IsCode(err, apierr.CodeAccessDenied) {
		t.Fatalf("non-member list: expected access_denied, got %v", err)
	}
}

func TestListByEnvironmentNewestFirst(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	svc := newDeploymentService(t, gdb, TxTransactional)

	first, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	deps, err := svc.ListByEnvironment(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("got %d deployments, want 2", len(deps))
	}
	if deps[0].ID != second.ID || deps[1].ID != first.ID {
		t.Fatal("deployments should be ordered newest deploy first")
	}
}
