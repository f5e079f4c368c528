// Package config loads merchant-ops settings from config.yaml and
// MERCHANTOPS_* environment variables.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Inference  InferenceConfig  `yaml:"inference" mapstructure:"inference"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds provider credentials and the model to call.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// InferenceConfig controls pacing and outage isolation for provider calls.
type InferenceConfig struct {
	RequestsPerSecond       float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs             int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CatalogLimit            int     `yaml:"catalog_limit" mapstructure:"catalog_limit"`
	BreakerFailureThreshold int     `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerResetSecs        int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
	Offline                 bool    `yaml:"offline" mapstructure:"offline"`
}

// IngestConfig bounds run inputs and names the text encoding of input files.
type IngestConfig struct {
	MaxProducts       int    `yaml:"max_products" mapstructure:"max_products"`
	MaxMessages       int    `yaml:"max_messages" mapstructure:"max_messages"`
	MaxPricingContext int    `yaml:"max_pricing_context" mapstructure:"max_pricing_context"`
	Charset           string `yaml:"charset" mapstructure:"charset"`
}

// StoreConfig configures the merchant lock backend.
type StoreConfig struct {
	Driver         string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	RedisAddr      string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisNamespace string `yaml:"redis_namespace" mapstructure:"redis_namespace"`
	LocksFile      string `yaml:"locks_file" mapstructure:"locks_file"`
}

// MonitoringConfig configures alert thresholds and delivery.
type MonitoringConfig struct {
	WebhookURL                 string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	HallucinationRateThreshold float64 `yaml:"hallucination_rate_threshold" mapstructure:"hallucination_rate_threshold"`
	CostThresholdUSD           float64 `yaml:"cost_threshold_usd" mapstructure:"cost_threshold_usd"`
	FreezeRateThreshold        float64 `yaml:"freeze_rate_threshold" mapstructure:"freeze_rate_threshold"`
}

// BatchConfig configures multi-merchant runs.
type BatchConfig struct {
	MaxConcurrentMerchants int `yaml:"max_concurrent_merchants" mapstructure:"max_concurrent_merchants"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("MERCHANTOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a meaningful default are still registered so
	// their environment variables bind.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("inference.requests_per_second", 2.0)
	v.SetDefault("inference.timeout_secs", 60)
	v.SetDefault("inference.catalog_limit", 10)
	v.SetDefault("inference.breaker_failure_threshold", 5)
	v.SetDefault("inference.breaker_reset_secs", 30)
	v.SetDefault("inference.offline", false)
	v.SetDefault("ingest.max_products", 10)
	v.SetDefault("ingest.max_messages", 20)
	v.SetDefault("ingest.max_pricing_context", 5)
	v.SetDefault("ingest.charset", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "merchant-ops.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_namespace", "merchantops")
	v.SetDefault("store.locks_file", "locks.yaml")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.hallucination_rate_threshold", 20.0)
	v.SetDefault("monitoring.cost_threshold_usd", 0.0)
	v.SetDefault("monitoring.freeze_rate_threshold", 0.5)
	v.SetDefault("batch.max_concurrent_merchants", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
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

// Validate checks the settings a command mode depends on. Modes are "run",
// "batch" and "locks".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "run", "batch":
		if !c.Inference.Offline && c.Anthropic.Key == "" {
			errs = append(errs, "anthropic.key is required unless inference.offline is set")
		}
		if c.Anthropic.Model == "" {
			errs = append(errs, "anthropic.model is required")
		}
		if c.Inference.RequestsPerSecond < 0 {
			errs = append(errs, "inference.requests_per_second must be >= 0")
		}
		if c.Monitoring.HallucinationRateThreshold < 0 || c.Monitoring.HallucinationRateThreshold > 100 {
			errs = append(errs, "monitoring.hallucination_rate_threshold must be between 0 and 100")
		}
		if mode == "batch" {
			if n := c.Batch.MaxConcurrentMerchants; n < 1 || n > 50 {
				errs = append(errs, "batch.max_concurrent_merchants must be between 1 and 50")
			}
			if c.Monitoring.FreezeRateThreshold < 0 || c.Monitoring.FreezeRateThreshold > 1 {
				errs = append(errs, "monitoring.freeze_rate_threshold must be between 0 and 1")
			}
		}
	case "locks":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	errs = append(errs, c.Store.validate()...)

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s StoreConfig) validate() []string {
	switch s.Driver {
	case "sqlite", "postgres":
		if s.DatabaseURL == "" {
			return []string{"store.database_url is required for driver " + s.Driver}
		}
	case "redis":
		if s.RedisAddr == "" {
			return []string{"store.redis_addr is required for driver redis"}
		}
	case "file":
		if s.LocksFile == "" {
			return []string{"store.locks_file is required for driver file"}
		}
	default:
		return []string{"store.driver must be one of sqlite, postgres, redis, file"}
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
