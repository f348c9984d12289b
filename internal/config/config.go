// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by PMARB_* environment
// variables.
type Config struct {
	Database   DatabaseConfig   `toml:"database"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Platforms  PlatformsConfig  `toml:"platforms"`
	Matcher    MatcherConfig    `toml:"matcher"`
	Classifier ClassifierConfig `toml:"classifier"`
	Detector   DetectorConfig   `toml:"detector"`
	Server     ServerConfig     `toml:"server"`
	Notify     NotifyConfig     `toml:"notify"`
	Mode       string           `toml:"mode"`
	LogLevel   string           `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters. An empty Addr disables
// the market cache.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for the model
// store. An empty Bucket disables it.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	ModelName      string `toml:"model_name"`
}

// PlatformsConfig holds the per-platform API roots and enable switches.
type PlatformsConfig struct {
	Kalshi     PlatformConfig `toml:"kalshi"`
	Polymarket PlatformConfig `toml:"polymarket"`
	PredictIt  PlatformConfig `toml:"predictit"`
}

// PlatformConfig configures one market data provider.
type PlatformConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// MatcherConfig holds market matching parameters.
type MatcherConfig struct {
	NameWeight        float64 `toml:"name_weight"`
	CategoryWeight    float64 `toml:"category_weight"`
	ContractWeight    float64 `toml:"contract_weight"`
	TemporalWeight    float64 `toml:"temporal_weight"`
	MinScoreThreshold float64 `toml:"min_score_threshold"`
	MaxDaysApart      int     `toml:"max_days_apart"`
}

// ClassifierConfig holds the optional match classifier settings.
type ClassifierConfig struct {
	Enabled   bool   `toml:"enabled"`
	ModelPath string `toml:"model_path"`
}

// DetectorConfig holds arbitrage detection thresholds.
type DetectorConfig struct {
	MinSimilarity      float64 `toml:"min_similarity"`
	MinProfitThreshold float64 `toml:"min_profit_threshold"`
	MinROI             float64 `toml:"min_roi"`
}

// ServerConfig holds the HTTP API settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// NotifyConfig holds notification channel settings.
type NotifyConfig struct {
	Enabled        bool     `toml:"enabled"`
	Events         []string `toml:"events"`
	TelegramToken  string   `toml:"telegram_token"`
	TelegramChatID string   `toml:"telegram_chat_id"`
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "pmarb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:    "us-east-1",
			ModelName: "match_classifier.json",
		},
		Platforms: PlatformsConfig{
			Kalshi:     PlatformConfig{Enabled: true, BaseURL: "https://api.elections.kalshi.com/trade-api/v2"},
			Polymarket: PlatformConfig{Enabled: true, BaseURL: "https://gamma-api.polymarket.com"},
			PredictIt:  PlatformConfig{Enabled: true, BaseURL: "https://www.predictit.org/api/marketdata/all/"},
		},
		Matcher: MatcherConfig{
			NameWeight:        0.4,
			CategoryWeight:    0.2,
			ContractWeight:    0.3,
			TemporalWeight:    0.1,
			MinScoreThreshold: 0.5,
			MaxDaysApart:      7,
		},
		Classifier: ClassifierConfig{
			ModelPath: "match_classifier.json",
		},
		Detector: DetectorConfig{
			MinSimilarity:      0.70,
			MinProfitThreshold: 0.01,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Mode:     "full",
		LogLevel: "info",
	}
}

var validModes = map[string]bool{
	"ingest":    true,
	"match":     true,
	"arbitrage": true,
	"train":     true,
	"serve":     true,
	"full":      true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and
// returns a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: ingest, match, arbitrage, train, serve, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Database.DSN == "" {
		if c.Database.Host == "" {
			errs = append(errs, "database: host must not be empty when dsn is unset")
		}
		if c.Database.Database == "" {
			errs = append(errs, "database: database must not be empty when dsn is unset")
		}
	}
	if c.Database.PoolMaxConns < c.Database.PoolMinConns {
		errs = append(errs, "database: pool_max_conns must be >= pool_min_conns")
	}

	weights := c.Matcher.NameWeight + c.Matcher.CategoryWeight + c.Matcher.ContractWeight + c.Matcher.TemporalWeight
	if weights < 0.99 || weights > 1.01 {
		errs = append(errs, fmt.Sprintf("matcher: component weights must sum to 1.0, got %.3f", weights))
	}
	if c.Matcher.MaxDaysApart <= 0 {
		errs = append(errs, "matcher: max_days_apart must be positive")
	}
	if c.Matcher.MinScoreThreshold < 0 || c.Matcher.MinScoreThreshold > 1 {
		errs = append(errs, "matcher: min_score_threshold must be in [0, 1]")
	}

	if c.Detector.MinSimilarity < 0 || c.Detector.MinSimilarity > 1 {
		errs = append(errs, "detector: min_similarity must be in [0, 1]")
	}

	if !c.Platforms.Kalshi.Enabled && !c.Platforms.Polymarket.Enabled && !c.Platforms.PredictIt.Enabled {
		errs = append(errs, "platforms: at least one platform must be enabled")
	}

	if c.Notify.Enabled {
		if c.Notify.TelegramToken == "" || c.Notify.TelegramChatID == "" {
			errs = append(errs, "notify: telegram_token and telegram_chat_id are required when notifications are enabled")
		}
	}

	if (c.Mode == "serve" || c.Mode == "full") && c.Server.Addr == "" {
		errs = append(errs, "server: addr must not be empty for mode "+c.Mode)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}
