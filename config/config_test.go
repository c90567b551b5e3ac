package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("STOREFRONT_SYSTEM_WORKDIR", workdir)

	cfg, err := LoadConfig(filepath.Join(workdir, "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 8000, cfg.Web.Port)
	assert.False(t, cfg.Mail.Enabled)
	assert.False(t, cfg.System.Debug)
	assert.Equal(t, filepath.Join(workdir, "media"), cfg.GetMediaDir())

	_, err = os.Stat(cfg.GetMediaDir())
	assert.NoError(t, err)
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	workdir := t.TempDir()
	cfile := filepath.Join(workdir, "storefront.yml")
	content := `
system:
  workdir: ` + workdir + `
web:
  port: 9090
database:
  type: SQLite
  name: shop.db
logger:
  mode: production
`
	require.NoError(t, os.WriteFile(cfile, []byte(content), 0o600))
	t.Setenv("STOREFRONT_WEB_PORT", "9191")
	t.Setenv("STOREFRONT_DB_DEBUG", "true")
	t.Setenv("STOREFRONT_LOGGER_FILE_ENABLE", "not-a-bool")
	t.Setenv("STOREFRONT_MAIL_ENABLED", "1")
	t.Setenv("STOREFRONT_MAIL_PORT", "2525")

	cfg, err := LoadConfig(cfile)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Web.Port)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "shop.db", cfg.Database.Name)
	assert.True(t, cfg.Database.Debug)
	assert.False(t, cfg.Logger.FileEnable)
	assert.Equal(t, "production", cfg.Logger.Mode)
	assert.Equal(t, "admin", cfg.Web.AdminUser)
	assert.True(t, cfg.Mail.Enabled)
	assert.Equal(t, 2525, cfg.Mail.Port)
}

func TestLoadConfigRejectsBrokenYAML(t *testing.T) {
	cfile := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(cfile, []byte("web: [port"), 0o600))
	_, err := LoadConfig(cfile)
	assert.Error(t, err)
}

func TestUsesDefaultSecret(t *testing.T) {
	workdir := t.TempDir()
	t.Setenv("STOREFRONT_SYSTEM_WORKDIR", workdir)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.True(t, cfg.UsesDefaultSecret())

	cfg.Web.Secret = ""
	assert.True(t, cfg.UsesDefaultSecret())

	t.Setenv("STOREFRONT_WEB_SECRET", "rotate-me-please")
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.False(t, cfg.UsesDefaultSecret())
}
