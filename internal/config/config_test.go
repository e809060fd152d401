package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2, cfg.Workers.Count)
	assert.Equal(t, 500*time.Millisecond, cfg.Workers.PollInterval())
	assert.Equal(t, 60*time.Second, cfg.URLSafety.CacheTTL())
	assert.Equal(t, 1024, cfg.URLSafety.CacheSize)
	assert.False(t, cfg.URLSafety.FailClosed)
	assert.Equal(t, 2*time.Second, cfg.URLSafety.ResolverTimeout())
	assert.Equal(t, 10, cfg.URLSafety.MaxRedirects)
	assert.Equal(t, "v1", cfg.Scoring.Version)
	assert.InDelta(t, 2.0, cfg.Scoring.StepWeight, 0.001)
	assert.InDelta(t, 50.0, cfg.Scoring.StepCap, 0.001)
	assert.Equal(t, 1000, cfg.Scoring.ScrollUnit)
	assert.Equal(t, map[string]int{"free": 25, "pro": 50, "enterprise": 100}, cfg.Flow.StepBudgets)
	assert.Equal(t, "free", cfg.Flow.DefaultTier)
	assert.Equal(t, 3, cfg.Lifecycle.RetryAttempts)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: memory
log:
  level: debug
  format: console
urlsafety:
  fail_closed: true
  cache_ttl_secs: 30
scoring:
  version: v2
  step_weight: 3
flow:
  step_budgets:
    pro: 60
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.True(t, cfg.URLSafety.FailClosed)
	assert.Equal(t, 30*time.Second, cfg.URLSafety.CacheTTL())
	assert.Equal(t, "v2", cfg.Scoring.Version)
	assert.InDelta(t, 3.0, cfg.Scoring.StepWeight, 0.001)
	// Defaults still apply for unset values
	assert.InDelta(t, 15.0, cfg.Scoring.PageWeight, 0.001)
	assert.Equal(t, 60, cfg.Flow.StepBudgets["pro"])
	assert.Equal(t, 25, cfg.Flow.StepBudgets["free"])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: memory
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("EXPLORE_STORE_DRIVER", "postgres")
	t.Setenv("EXPLORE_LOG_LEVEL", "warn")
	t.Setenv("EXPLORE_WORKERS_COUNT", "8")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 8, cfg.Workers.Count)
}

func TestLoadDatabaseURLFallback(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/explore")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/explore", cfg.Store.DatabaseURL)

	t.Setenv("EXPLORE_STORE_DATABASE_URL", "postgres://db/explore")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://db/explore", cfg.Store.DatabaseURL)
}

func TestValidate(t *testing.T) {
	chdirTemp(t)
	t.Setenv("DATABASE_URL", "")
	base, err := Load()
	require.NoError(t, err)

	assert.Error(t, base.Validate(), "postgres without a database url")

	mem := *base
	mem.Store.Driver = "memory"
	assert.NoError(t, mem.Validate())

	pg := *base
	pg.Store.DatabaseURL = "postgres://localhost/explore"
	assert.NoError(t, pg.Validate())

	bad := mem
	bad.Store.Driver = "sqlite"
	assert.Error(t, bad.Validate())

	bad = mem
	bad.URLSafety.CacheSize = 0
	assert.Error(t, bad.Validate())

	bad = mem
	bad.Workers.PollIntervalMs = 0
	assert.Error(t, bad.Validate())

	bad = mem
	bad.Workers.Count = 0
	bad.Workers.PollIntervalMs = 0
	assert.NoError(t, bad.Validate())
}

func TestLifecycleRetry(t *testing.T) {
	r := LifecycleConfig{RetryAttempts: 5, RetryInitialBackoffMs: 20}.Retry()
	assert.Equal(t, 5, r.MaxAttempts)
	assert.Equal(t, 20*time.Millisecond, r.InitialBackoff)

	r = LifecycleConfig{}.Retry()
	assert.Equal(t, 3, r.MaxAttempts)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
