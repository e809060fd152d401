package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"explorecore/internal/exertion"
	"explorecore/internal/flow"
	"explorecore/internal/resilience"
)

type Config struct {
	Env        string           `mapstructure:"env"`
	ListenAddr string           `mapstructure:"listen_addr"`
	Store      StoreConfig      `mapstructure:"store"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	URLSafety  URLSafetyConfig  `mapstructure:"urlsafety"`
	Scoring    exertion.Weights `mapstructure:"scoring"`
	Flow       flow.Config      `mapstructure:"flow"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle"`
	Log        LogConfig        `mapstructure:"log"`
}

// StoreConfig selects the run store. "memory" keeps everything in process and
// needs no database.
type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
}

type WorkersConfig struct {
	Count          int `mapstructure:"count"`
	PollIntervalMs int `mapstructure:"poll_interval_ms"`
}

func (w WorkersConfig) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalMs) * time.Millisecond
}

type URLSafetyConfig struct {
	CacheTTLSecs      int     `mapstructure:"cache_ttl_secs"`
	CacheSize         int     `mapstructure:"cache_size"`
	FailClosed        bool    `mapstructure:"fail_closed"`
	ResolverTimeoutMs int     `mapstructure:"resolver_timeout_ms"`
	DNSQPS            float64 `mapstructure:"dns_qps"`
	MaxRedirects      int     `mapstructure:"max_redirects"`
}

func (u URLSafetyConfig) CacheTTL() time.Duration {
	return time.Duration(u.CacheTTLSecs) * time.Second
}

func (u URLSafetyConfig) ResolverTimeout() time.Duration {
	return time.Duration(u.ResolverTimeoutMs) * time.Millisecond
}

type LifecycleConfig struct {
	RetryAttempts         int `mapstructure:"retry_attempts"`
	RetryInitialBackoffMs int `mapstructure:"retry_initial_backoff_ms"`
}

// Retry builds the status-write retry policy from the configured values.
func (l LifecycleConfig) Retry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if l.RetryAttempts > 0 {
		cfg.MaxAttempts = l.RetryAttempts
	}
	if l.RetryInitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(l.RetryInitialBackoffMs) * time.Millisecond
	}
	return cfg
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from an optional config.yaml in the working
// directory and from EXPLORE_* environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("EXPLORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Plain DATABASE_URL still works for existing deployments.
	_ = v.BindEnv("store.database_url", "EXPLORE_STORE_DATABASE_URL", "DATABASE_URL")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("workers.count", 2)
	v.SetDefault("workers.poll_interval_ms", 500)
	v.SetDefault("urlsafety.cache_ttl_secs", 60)
	v.SetDefault("urlsafety.cache_size", 1024)
	v.SetDefault("urlsafety.fail_closed", false)
	v.SetDefault("urlsafety.resolver_timeout_ms", 2000)
	v.SetDefault("urlsafety.dns_qps", 0)
	v.SetDefault("urlsafety.max_redirects", 10)

	w := exertion.DefaultWeights()
	v.SetDefault("scoring.version", w.Version)
	v.SetDefault("scoring.step_weight", w.StepWeight)
	v.SetDefault("scoring.step_cap", w.StepCap)
	v.SetDefault("scoring.page_weight", w.PageWeight)
	v.SetDefault("scoring.page_cap", w.PageCap)
	v.SetDefault("scoring.duration_cap", w.DurationCap)
	v.SetDefault("scoring.interaction_bonus_threshold", w.InteractionBonusThreshold)
	v.SetDefault("scoring.interaction_bonus", w.InteractionBonus)
	v.SetDefault("scoring.scroll_unit", w.ScrollUnit)

	f := flow.DefaultConfig()
	for tier, budget := range f.StepBudgets {
		v.SetDefault("flow.step_budgets."+tier, budget)
	}
	v.SetDefault("flow.default_tier", f.DefaultTier)

	v.SetDefault("lifecycle.retry_attempts", 3)
	v.SetDefault("lifecycle.retry_initial_backoff_ms", 100)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "memory":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url is required for the postgres driver")
		}
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	if c.Workers.Count < 0 {
		return eris.New("config: workers.count must not be negative")
	}
	if c.Workers.Count > 0 && c.Workers.PollIntervalMs <= 0 {
		return eris.New("config: workers.poll_interval_ms must be positive")
	}
	if c.URLSafety.CacheSize <= 0 {
		return eris.New("config: urlsafety.cache_size must be positive")
	}
	if c.URLSafety.CacheTTLSecs <= 0 {
		return eris.New("config: urlsafety.cache_ttl_secs must be positive")
	}
	if c.Scoring.Version == "" {
		return eris.New("config: scoring.version is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)
	return nil
}
