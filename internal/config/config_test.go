package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/laundry-service/internal/config"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "123456")
	t.Setenv("DB_NAME", "laundry")
	t.Setenv("AUTH_JWT_SECRET", "secret")
}

func TestNewConfig_Defaults(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_PATH", "")

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "disable", cfg.Postgres.SSLMode)
	assert.Equal(t, int32(10), cfg.Postgres.MaxConns)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Inventory.AllowOversell)
	assert.Equal(t, "Asia/Makassar", cfg.Location().String())
}

func TestNewConfig_MissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := config.NewConfig()
	require.Error(t, err)
	assert.Equal(t, "AUTH_JWT_SECRET is required", err.Error())
}

func TestNewConfig_YAMLWithEnvOverride(t *testing.T) {
	setRequired(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  port: "9090"
shop:
  name: "Test Laundry"
inventory:
  allow_oversell: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("APP_PORT", "7070")

	cfg, err := config.NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.App.Port)
	assert.Equal(t, "Test Laundry", cfg.Shop.Name)
	assert.True(t, cfg.Inventory.AllowOversell)
}

func TestNewConfig_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("AUTH_TOKEN_TTL", "soon")

	_, err := config.NewConfig()
	assert.Error(t, err)
}
