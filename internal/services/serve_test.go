package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/mfe-orchestrator/internal/platform/apierr"
	"github.com/yungbote/mfe-orchestrator/internal/repos"
	"github.com/yungbote/mfe-orchestrator/internal/serving"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

type serveFixture struct {
	gdb        *gorm.DB
	serve      ServeService
	deploy     DeploymentService
	canaryUser CanaryUserService
	cache      *serving.Cache
}

func newServeFixture(t *testing.T, gdb *gorm.DB, cacheEnabled bool) serveFixture {
	t.Helper()
	log := newTestLogger(t)
	envRepo := repos.NewEnvironmentRepo(gdb, log)
	mfeRepo := repos.NewMicrofrontendRepo(gdb, log)
	varRepo := repos.NewGlobalVariableRepo(gdb, log)
	depRepo := repos.NewDeploymentRepo(gdb, log)
	cuRepo := repos.NewCanaryUserRepo(gdb, log)
	projectRepo := repos.NewProjectRepo(gdb, log)
	access := NewAccessService(gdb, log, envRepo, projectRepo)
	cache := serving.NewCache(cacheEnabled)
	resolver := NewCanaryResolver(nil)
	return serveFixture{
		gdb:        gdb,
		serve:      NewServeService(gdb, log, envRepo, mfeRepo, varRepo, depRepo, cuRepo, resolver, cache),
		deploy:     NewDeploymentService(gdb, log, envRepo, mfeRepo, varRepo, depRepo, access, TxTransactional, cache),
		canaryUser: NewCanaryUserService(gdb, log, depRepo, cuRepo, access),
		cache:      cache,
	}
}

func entriesBySlug(entries []ResolvedEntry) map[string]ResolvedEntry {
	out := make(map[string]ResolvedEntry, len(entries))
	for _, e := range entries {
		out[e.Slug] = e
	}
	return out
}

func TestGetAllByEnvironment(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.4.0", "https://cdn.example.com/checkout/$version/remoteEntry.js")
	hosted := seedMicrofrontend(t, gdb, scope.Environment.ID, "search", "0.3.0", "")
	hosted.Host = types.Host{Type: types.HostOrchestratorHosted}
	if err := gdb.Save(hosted).Error; err != nil {
		t.Fatalf("update host: %v", err)
	}
	// ON_SESSIONS at 100% resolves to the canary on every request, so it is
	// deterministic even with the real random source.
	full := seedMicrofrontend(t, gdb, scope.Environment.ID, "banner", "1.0.0", "https://cdn.example.com/banner/e.js")
	full.Canary = &types.Canary{
		Enabled:        true,
		Type:           types.CanaryOnSessions,
		Percentage:     100,
		DeploymentType: types.CanaryBasedOnURL,
		CanaryURL:      "https://canary.example.com/banner/e.js",
	}
	if err := gdb.Save(full).Error; err != nil {
		t.Fatalf("enable canary: %v", err)
	}
	seedVariable(t, gdb, scope.Environment.ID, "API_URL", "https://api.example.com")
	fx := newServeFixture(t, gdb, false)

	payload, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if len(payload.Microfrontends) != 3 {
		t.Fatalf("got %d entries, want 3", len(payload.Microfrontends))
	}
	byID := entriesBySlug(payload.Microfrontends)
	if byID["checkout"].URL != "https://cdn.example.com/checkout/1.4.0/remoteEntry.js" {
		t.Fatalf("checkout url = %q", byID["checkout"].URL)
	}
	if byID["search"].URL != "/mfe/"+hosted.ID.String() {
		t.Fatalf("search url = %q", byID["search"].URL)
	}
	if byID["banner"].URL != "https://canary.example.com/banner/e.js" {
		t.Fatalf("100%% canary url = %q", byID["banner"].URL)
	}
	if len(payload.Variables) != 1 || payload.Variables[0].Key != "API_URL" {
		t.Fatalf("unexpected variables %+v", payload.Variables)
	}
}

func TestGetAllFailsWholePayloadOnInvalidEntry(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	broken := seedMicrofrontend(t, gdb, scope.Environment.ID, "payments", "1.0.0", "")
	broken.Host = types.Host{Type: types.HostCustomSource}
	if err := gdb.Save(broken).Error; err != nil {
		t.Fatalf("update host: %v", err)
	}
	fx := newServeFixture(t, gdb, false)

	payload, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{})
	if payload != nil {
		t.Fatal("no partial payload on failure")
	}
	if !apierr.IsCode(err, apierr.CodeInvalidConfiguration) {
		t.Fatalf("expected invalid_configuration, got %v", err)
	}
}

func TestGetAllByProjectAndEnvironmentSlug(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	fx := newServeFixture(t, gdb, false)

	payload, err := fx.serve.GetAllByProjectAndEnvironmentSlug(context.Background(), scope.Project.ID, "production", RequestContext{})
	if err != nil {
		t.Fatalf("serve by slug: %v", err)
	}
	if len(payload.Microfrontends) != 1 {
		t.Fatalf("got %d entries, want 1", len(payload.Microfrontends))
	}

	_, err = fx.serve.GetAllByProjectAndEnvironmentSlug(context.Background(), scope.Project.ID, "nope", RequestContext{})
	if !apierr.IsCode(err, apierr.CodeEntityNotFound) {
		t.Fatalf("unknown slug: expected entity_not_found, got %v", err)
	}
}

func TestOnUserAllowlistFlow(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	mfe := seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	mfe.Canary = &types.Canary{
		Enabled:        true,
		Type:           types.CanaryOnUser,
		DeploymentType: types.CanaryBasedOnURL,
		CanaryURL:      "https://canary.example.com/e.js",
	}
	if err := gdb.Save(mfe).Error; err != nil {
		t.Fatalf("enable canary: %v", err)
	}
	fx := newServeFixture(t, gdb, false)

	// The allowlist hangs off the active deployment.
	dep, err := fx.deploy.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("create deployment: %v", err)
	}
	if _, err := fx.canaryUser.Upsert(scope.ctx(), dep.ID, "u-1", nil, true); err != nil {
		t.Fatalf("upsert canary user: %v", err)
	}

	serveURL := func(userID string) string {
		t.Helper()
		payload, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{UserID: userID})
		if err != nil {
			t.Fatalf("serve for %q: %v", userID, err)
		}
		return payload.Microfrontends[0].URL
	}

	if got := serveURL("u-1"); got != "https://canary.example.com/e.js" {
		t.Fatalf("allowlisted user got %q", got)
	}
	if got := serveURL("u-2"); got != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("unlisted user got %q", got)
	}
	if got := serveURL(""); got != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("anonymous got %q", got)
	}

	// Disabling the record excludes without deleting.
	if _, err := fx.canaryUser.Upsert(scope.ctx(), dep.ID, "u-1", nil, false); err != nil {
		t.Fatalf("disable canary user: %v", err)
	}
	if got := serveURL("u-1"); got != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("disabled user got %q", got)
	}

	// Re-enable, then delete.
	if _, err := fx.canaryUser.Upsert(scope.ctx(), dep.ID, "u-1", nil, true); err != nil {
		t.Fatalf("re-enable canary user: %v", err)
	}
	if got := serveURL("u-1"); got != "https://canary.example.com/e.js" {
		t.Fatalf("re-enabled user got %q", got)
	}
	if err := fx.canaryUser.Delete(scope.ctx(), dep.ID, []string{"u-1"}); err != nil {
		t.Fatalf("delete canary user: %v", err)
	}
	if got := serveURL("u-1"); got != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("deleted user got %q", got)
	}
}

func TestOnUserAllowlistMicrofrontendScope(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	mfe := seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	other := seedMicrofrontend(t, gdb, scope.Environment.ID, "search", "1.0.0", "https://cdn.example.com/search/e.js")
	mfe.Canary = &types.Canary{
		Enabled:        true,
		Type:           types.CanaryOnUser,
		DeploymentType: types.CanaryBasedOnURL,
		CanaryURL:      "https://canary.example.com/e.js",
	}
	if err := gdb.Save(mfe).Error; err != nil {
		t.Fatalf("enable canary: %v", err)
	}
	fx := newServeFixture(t, gdb, false)

	dep, err := fx.deploy.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("create deployment: %v", err)
	}

	// Record scoped to a different microfrontend must not enroll this one.
	if _, err := fx.canaryUser.Upsert(scope.ctx(), dep.ID, "u-1", &other.ID, true); err != nil {
		t.Fatalf("upsert scoped canary user: %v", err)
	}
	payload, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{UserID: "u-1"})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if got := entriesBySlug(payload.Microfrontends)["checkout"].URL; got != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("scoped record leaked into another microfrontend: %q", got)
	}

	// Scoped to the right microfrontend it enrolls.
	if _, err := fx.canaryUser.Upsert(scope.ctx(), dep.ID, "u-1", &mfe.ID, true); err != nil {
		t.Fatalf("rescope canary user: %v", err)
	}
	payload, err = fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{UserID: "u-1"})
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if got := entriesBySlug(payload.Microfrontends)["checkout"].URL; got != "https://canary.example.com/e.js" {
		t.Fatalf("scoped record should enroll its microfrontend: %q", got)
	}
}

func TestGetByDeploymentServesFrozenState(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	mfe := seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	fx := newServeFixture(t, gdb, false)

	dep, err := fx.deploy.Create(scope.ctx(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("create deployment: %v", err)
	}
	if err := gdb.Model(mfe).Update("version", "2.0.0").Error; err != nil {
		t.Fatalf("mutate registry: %v", err)
	}

	frozen, err := fx.serve.GetByDeployment(context.Background(), dep.ID, RequestContext{})
	if err != nil {
		t.Fatalf("serve frozen: %v", err)
	}
	if frozen.Microfrontends[0].URL != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("snapshot url = %q, want the frozen 1.0.0", frozen.Microfrontends[0].URL)
	}

	live, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{})
	if err != nil {
		t.Fatalf("serve live: %v", err)
	}
	if live.Microfrontends[0].URL != "https://cdn.example.com/2.0.0/e.js" {
		t.Fatalf("live url = %q, want 2.0.0", live.Microfrontends[0].URL)
	}

	if _, err := fx.serve.GetByDeployment(context.Background(), uuid.New(), RequestContext{}); !apierr.IsCode(err, apierr.CodeEntityNotFound) {
		t.Fatalf("unknown deployment: expected entity_not_found, got %v", err)
	}
}

func TestGetMicrofrontendLookups(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	checkout := seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/checkout/$version/e.js")
	shell := seedMicrofrontend(t, gdb, scope.Environment.ID, "shell", "1.0.0", "https://cdn.example.com/shell/e.js")
	// checkout composes under the shell; shell is the parentless host.
	if err := gdb.Model(checkout).Update("parent_id", shell.ID).Error; err != nil {
		t.Fatalf("set parent: %v", err)
	}
	fx := newServeFixture(t, gdb, false)

	entry, err := fx.serve.GetMicrofrontendByID(context.Background(), checkout.ID, RequestContext{Version: "3.0.0"})
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if entry.URL != "https://cdn.example.com/checkout/3.0.0/e.js" {
		t.Fatalf("version override ignored: %q", entry.URL)
	}

	entry, err = fx.serve.GetMicrofrontendBySlug(context.Background(), scope.Project.ID, "production", "shell", RequestContext{})
	if err != nil {
		t.Fatalf("by slug: %v", err)
	}
	if entry.Slug != "shell" {
		t.Fatalf("by slug got %q", entry.Slug)
	}

	entry, err = fx.serve.GetDefaultMicrofrontend(context.Background(), scope.Project.ID, "production", RequestContext{})
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if entry.Slug != "shell" {
		t.Fatalf("default should be the parentless entry, got %q", entry.Slug)
	}

	if _, err := fx.serve.GetMicrofrontendBySlug(context.Background(), scope.Project.ID, "production", "missing", RequestContext{}); !apierr.IsCode(err, apierr.CodeEntityNotFound) {
		t.Fatalf("unknown slug: expected entity_not_found, got %v", err)
	}
}

func TestServeCacheInvalidation(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	mfe := seedMicrofrontend(t, gdb, scope.Environment.ID, "checkout", "1.0.0", "https://cdn.example.com/$version/e.js")
	fx := newServeFixture(t, gdb, true)

	first, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{})
	if err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if first.Microfrontends[0].URL != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("unexpected url %q", first.Microfrontends[0].URL)
	}

	// Direct store mutation bypasses invalidation; the cache keeps serving
	// the old read model.
	if err := gdb.Model(mfe).Update("version", "2.0.0").Error; err != nil {
		t.Fatalf("mutate registry: %v", err)
	}
	stale, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{})
	if err != nil {
		t.Fatalf("serve stale: %v", err)
	}
	if stale.Microfrontends[0].URL != "https://cdn.example.com/1.0.0/e.js" {
		t.Fatalf("expected stale cache hit, got %q", stale.Microfrontends[0].URL)
	}

	fx.cache.Invalidate(scope.Environment.ID)
	fresh, err := fx.serve.GetAllByEnvironment(context.Background(), scope.Environment.ID, RequestContext{})
	if err != nil {
		t.Fatalf("serve fresh: %v", err)
	}
	if fresh.Microfrontends[0].URL != "https://cdn.example.com/2.0.0/e.js" {
		t.Fatalf("expected fresh read after invalidation, got %q", fresh.Microfrontends[0].URL)
	}
}

func TestVariablesEndpoints(t *testing.T) {
	gdb := newTestDB(t)
	scope := seedScope(t, gdb, "production")
	seedVariable(t, gdb, scope.Environment.ID, "API_URL", "https://api.example.com")
	seedVariable(t, gdb, scope.Environment.ID, "FLAG", "on")
	fx := newServeFixture(t, gdb, false)

	vars, err := fx.serve.GetVariablesByEnvironment(context.Background(), scope.Environment.ID)
	if err != nil {
		t.Fatalf("variables by env: %v", err)
	}
	if len(vars) != 2 || vars[0].Key != "API_URL" || vars[1].Key != "FLAG" {
		t.Fatalf("unexpected variables %+v", vars)
	}

	vars, err = fx.serve.GetVariablesByProjectAndEnvironmentSlug(context.Background(), scope.Project.ID, "production")
	if err != nil {
		t.Fatalf("variables by slug: %v", err)
	}
	if len(vars) != 2 {
		t.Fatalf("got %d variables, want 2", len(vars))
	}
}
