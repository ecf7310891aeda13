package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("AUTH_SIGNING_KEY", "")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/test")
	t.Setenv("AUTH_SIGNING_KEY", "secret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 30*time.Second, cfg.Cache.CompatTTL)
}

func TestLoadReadsYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "http:\n  addr: \":9090\"\ndatabase:\n  dsn: \"postgres://db/app\"\nauth:\n  signing_key: \"file-secret\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "postgres://db/app", cfg.Database.DSN)
}

func TestLoadToleratesMissingFile(t *testing.T) {
	t.Setenv("DATABASE_DSN", "postgres://localhost/test")
	t.Setenv("AUTH_SIGNING_KEY", "secret")
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.DSN)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "database:\n  dsn: \"postgres://file/app\"\nauth:\n  signing_key: \"file-secret\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("DATABASE_DSN", "postgres://env/app")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://env/app", cfg.Database.DSN)
}
