package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamondaura/storefront/config"
	"github.com/diamondaura/storefront/internal/domain"
	"github.com/diamondaura/storefront/internal/testdb"
	"github.com/diamondaura/storefront/pkg/common"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()
	cfg := config.DefaultAppConfig()
	cfg.System.Workdir = t.TempDir()
	a := NewApplication(cfg)
	a.OverrideDB(testdb.Open(t))
	return a
}

func TestServicesAreWired(t *testing.T) {
	a := newTestApp(t)
	assert.NotNil(t, a.Accounts())
	assert.NotNil(t, a.Catalog())
	assert.NotNil(t, a.Cart())
	assert.NotNil(t, a.Checkout())
	assert.NotNil(t, a.Intake())
	assert.NotNil(t, a.Reports())
	assert.NotNil(t, a.Events())
	require.NotNil(t, a.Media())
	assert.Equal(t, a.Config().GetMediaDir(), a.Media().Root())
}

func TestCheckSuperSeedsAdmin(t *testing.T) {
	a := newTestApp(t)
	a.checkSuper()
	a.checkSuper()

	p, err := a.Accounts().Login(context.Background(), "admin", "diamondaura")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, p.Role)
}

func TestSchedClearExpireData(t *testing.T) {
	a := newTestApp(t)
	db := a.DB()
	old := domain.SysOprLog{ID: common.UUIDint64(), OprName: "admin", OptAction: "delete_product", OptTime: time.Now().AddDate(-2, 0, 0)}
	recent := domain.SysOprLog{ID: common.UUIDint64(), OprName: "admin", OptAction: "create_product", OptTime: time.Now().AddDate(0, -1, 0)}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Create(&recent).Error)

	a.SchedClearExpireData()

	var logs []domain.SysOprLog
	require.NoError(t, db.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, recent.ID, logs[0].ID)
}

func TestInitJobRegistersHousekeeping(t *testing.T) {
	a := newTestApp(t)
	a.initJob()
	t.Cleanup(func() { <-a.Scheduler().Stop().Done() })
	assert.Len(t, a.Scheduler().Entries(), 1)
}

func TestGetDatabaseSqlite(t *testing.T) {
	dir := t.TempDir()
	db := getDatabase(config.DBConfig{Type: "sqlite", Name: "shop.db"}, dir)
	a := NewApplication(config.DefaultAppConfig())
	a.gormDB = db
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, a.MigrateDB(false))
	assert.True(t, db.Migrator().HasTable(&domain.Order{}))
	assert.Equal(t, "sqlite", db.Name())
}
