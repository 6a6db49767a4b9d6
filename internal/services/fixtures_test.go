package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	dbpkg "github.com/yungbote/mfe-orchestrator/internal/db"
	"github.com/yungbote/mfe-orchestrator/internal/platform/ctxutil"
	"github.com/yungbote/mfe-orchestrator/internal/platform/logger"
	"github.com/yungbote/mfe-orchestrator/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A :memory: database exists per connection; pin the pool to one so
	// transactions and queries see the same database.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := dbpkg.AutoMigrate(gdb); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("production")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

// testScope is one project/environment pair with a member user, the shape
// every management-API test needs.
type testScope struct {
	Project     *types.Project
	Environment *types.Environment
	UserID      uuid.UUID
}

func seedScope(t *testing.T, gdb *gorm.DB, envSlug string) testScope {
	t.Helper()
	now := time.Now()
	project := &types.Project{ID: uuid.New(), Name: "storefront", CreatedAt: now, UpdatedAt: now}
	if err := gdb.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	userID := uuid.New()
	member := &types.ProjectMember{
		ID:        uuid.New(),
		ProjectID: project.ID,
		UserID:    userID,
		Role:      "member",
		CreatedAt: now,
	}
	if err := gdb.Create(member).Error; err != nil {
		t.Fatalf("seed project member: %v", err)
	}
	env := &types.Environment{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Slug:      envSlug,
		Name:      envSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := gdb.Create(env).Error; err != nil {
		t.Fatalf("seed environment: %v", err)
	}
	return testScope{Project: project, Environment: env, UserID: userID}
}

func (s testScope) ctx() context.Context {
	return ctxWithUser(s.UserID)
}

func ctxWithUser(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

func seedMicrofrontend(t *testing.T, gdb *gorm.DB, envID uuid.UUID, slug, version, hostURL string) *types.Microfrontend {
	t.Helper()
	now := time.Now()
	mfe := &types.Microfrontend{
		ID:            uuid.New(),
		EnvironmentID: envID,
		Slug:          slug,
		Name:          slug,
		Version:       version,
		Host:          types.Host{Type: types.HostCustomURL, URL: hostURL},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := gdb.Create(mfe).Error; err != nil {
		t.Fatalf("seed microfrontend %s: %v", slug, err)
	}
	return mfe
}

func seedVariable(t *testing.T, gdb *gorm.DB, envID uuid.UUID, key, value string) *types.GlobalVariable {
	t.Helper()
	now := time.Now()
	v := &types.GlobalVariable{
		ID:            uuid.New(),
		EnvironmentID: envID,
		Key:           key,
		Value:         value,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := gdb.Create(v).Error; err != nil {
		t.Fatalf("seed variable %s: %v", key, err)
	}
	return v
}
