package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: these tests mutate VAULTFS_CONFIG_DIR via t.Setenv, so no t.Parallel.

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VAULTFS_CONFIG_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultQuotaLimit), cfg.QuotaLimit)
	assert.Equal(t, "off", cfg.LogLevel)
	assert.False(t, cfg.LoggingEnabled())
	assert.NotEmpty(t, cfg.VaultDir)
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAULTFS_CONFIG_DIR", dir)

	cfg := &Config{
		VaultDir:     filepath.Join(dir, "vault"),
		DefaultOwner: "alice",
		QuotaLimit:   1000,
		LogLevel:     "debug",
	}
	require.NoError(t, Save(cfg))

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.DefaultOwner)
	assert.Equal(t, int64(1000), loaded.QuotaLimit)
	assert.True(t, loaded.LoggingEnabled())
}

func TestInitDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("VAULTFS_CONFIG_DIR", dir)

	require.NoError(t, InitDir())
	assert.FileExists(t, FilePath())

	// Second init must not clobber an edited config.
	require.NoError(t, os.WriteFile(FilePath(), []byte("quota_limit: 42\n"), 0600))
	require.NoError(t, InitDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(42), cfg.QuotaLimit)
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := &Config{QuotaLimit: 500, LogLevel: "info", VaultDir: "/v", DefaultOwner: "bob"}
	cfg.ApplyDefaults()

	assert.Equal(t, int64(500), cfg.QuotaLimit)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "/v", cfg.VaultDir)
	assert.Equal(t, "bob", cfg.DefaultOwner)
}
