package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "HS256", cfg.JWT.Alg)
	assert.Equal(t, time.Hour, cfg.AccessTTL())
	assert.Equal(t, 30*24*time.Hour, cfg.RefreshTTL())
	assert.Equal(t, 10*time.Minute, cfg.CodeTTL())
}

func TestLoad_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  env: prod
server:
  addr: ":9090"
storage:
  driver: redis
  redis:
    addr: "redis:6379"
    prefix: "ts:"
jwt:
  issuer: https://auth.example.com
  hmac_secret: secret
  access_ttl: 15m
oauth:
  code_ttl: 2m
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.App.Env)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "redis:6379", cfg.Storage.Redis.Addr)
	assert.Equal(t, "https://auth.example.com", cfg.JWT.Issuer)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL())
	assert.Equal(t, 2*time.Minute, cfg.CodeTTL())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TOKENSMITH_STORAGE_DRIVER", "postgres")
	t.Setenv("TOKENSMITH_POSTGRES_DSN", "postgres://localhost/ts")
	t.Setenv("TOKENSMITH_JWT_SECRET", "env-secret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.Equal(t, "postgres://localhost/ts", cfg.Storage.Postgres.DSN)
	assert.Equal(t, "env-secret", cfg.JWT.HMACSecret)
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("oauth:\n  code_ttl: nonsense\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.CodeTTL())
}
