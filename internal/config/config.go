// Package config loads and validates the process-level configuration: store
// DSNs, external-collaborator endpoints, rate limits, and resilience
// thresholds. None of this is "the core" — it is the ambient wiring the
// orchestrator is constructed from at process startup.
package config

import (
	"fmt"
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the thin HTTP layer in cmd/repurposing-server.
type ServerConfig struct {
	Port         string        `yaml:"port" validate:"required"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// PostgresConfig backs both the knowledge-graph repository and the audit
// store's primary tier (see DESIGN.md's Open Question resolution).
type PostgresConfig struct {
	DSN             string        `yaml:"dsn" validate:"required"`
	MaxConns        int           `yaml:"max_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig backs the ingestion dedup set. An empty Addr leaves Redis
// unconfigured.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LiteratureConfig configures the rate-limited literature client.
type LiteratureConfig struct {
	Endpoint     string        `yaml:"endpoint" validate:"required"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	RateWithKey  float64       `yaml:"rate_with_key"`
	RateNoKey    float64       `yaml:"rate_no_key"`
	MaxPMIDs     int           `yaml:"max_pmids"`
	FetchWindow  int           `yaml:"fetch_window"`
}

// SynthesizerConfig configures the Anthropic-backed Synthesizer adapter.
type SynthesizerConfig struct {
	Provider    string        `yaml:"provider" validate:"required"`
	Model       string        `yaml:"model" validate:"required"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
}

// ScorerConfig configures the langchaingo-backed Scorer adapter.
type ScorerConfig struct {
	Provider string        `yaml:"provider" validate:"required"`
	Model    string        `yaml:"model"`
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// NERConfig configures the remote NER extractor and its pattern fallback.
type NERConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	Timeout        time.Duration `yaml:"timeout"`
	FallbackOnly   bool          `yaml:"fallback_only"`
	MinConfidence  float64       `yaml:"min_confidence"`
}

// ResilienceConfig configures the shared circuit breaker and retry helpers.
type ResilienceConfig struct {
	FailureThreshold float64       `yaml:"failure_threshold"`
	ResetTimeout     time.Duration `yaml:"reset_timeout"`
	MaxRetries       int           `yaml:"max_retries"`
}

// AuditConfig configures the hash-chained audit log.
type AuditConfig struct {
	FallbackFilePath string `yaml:"fallback_file_path" validate:"required"`
}

// NotifyConfig configures the Slack human-review notifier.
type NotifyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// LoggingConfig controls the ambient logrus logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the full process configuration tree.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	GraphStore  PostgresConfig    `yaml:"graph_store"`
	AuditStore  PostgresConfig    `yaml:"audit_store"`
	Redis       RedisConfig       `yaml:"redis"`
	Literature  LiteratureConfig  `yaml:"literature"`
	Synthesizer SynthesizerConfig `yaml:"synthesizer"`
	Scorer      ScorerConfig      `yaml:"scorer"`
	NER         NERConfig         `yaml:"ner"`
	Resilience  ResilienceConfig  `yaml:"resilience"`
	Audit       AuditConfig       `yaml:"audit"`
	Notify      NotifyConfig      `yaml:"notify"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Load reads and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	applyDefaults(cfg)

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Literature.RateWithKey == 0 {
		cfg.Literature.RateWithKey = 3.0
	}
	if cfg.Literature.RateNoKey == 0 {
		cfg.Literature.RateNoKey = 1.0
	}
	if cfg.Literature.MaxPMIDs == 0 {
		cfg.Literature.MaxPMIDs = 10
	}
	if cfg.Literature.FetchWindow == 0 {
		cfg.Literature.FetchWindow = 50
	}
	if cfg.Literature.Timeout == 0 {
		cfg.Literature.Timeout = 30 * time.Second
	}
	if cfg.Synthesizer.Timeout == 0 {
		cfg.Synthesizer.Timeout = 60 * time.Second
	}
	if cfg.Scorer.Timeout == 0 {
		cfg.Scorer.Timeout = 10 * time.Second
	}
	if cfg.NER.Timeout == 0 {
		cfg.NER.Timeout = 10 * time.Second
	}
	if cfg.NER.MinConfidence == 0 {
		cfg.NER.MinConfidence = 0.5
	}
	if cfg.Resilience.FailureThreshold == 0 {
		cfg.Resilience.FailureThreshold = 0.5
	}
	if cfg.Resilience.ResetTimeout == 0 {
		cfg.Resilience.ResetTimeout = 60 * time.Second
	}
	if cfg.Resilience.MaxRetries == 0 {
		cfg.Resilience.MaxRetries = 3
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}
