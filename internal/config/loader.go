package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads the TOML file at path, layers PMARB_* environment variable
// overrides on top, and returns the resulting Config. Defaults apply for
// any field the file does not set.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known PMARB_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "PMARB_DATABASE_DSN")
	setStr(&cfg.Database.Host, "PMARB_DATABASE_HOST")
	setInt(&cfg.Database.Port, "PMARB_DATABASE_PORT")
	setStr(&cfg.Database.Database, "PMARB_DATABASE_NAME")
	setStr(&cfg.Database.User, "PMARB_DATABASE_USER")
	setStr(&cfg.Database.Password, "PMARB_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "PMARB_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "PMARB_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "PMARB_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "PMARB_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "PMARB_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "PMARB_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "PMARB_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "PMARB_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "PMARB_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "PMARB_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "PMARB_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "PMARB_S3_REGION")
	setStr(&cfg.S3.Bucket, "PMARB_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "PMARB_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "PMARB_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "PMARB_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "PMARB_S3_FORCE_PATH_STYLE")
	setStr(&cfg.S3.ModelName, "PMARB_S3_MODEL_NAME")

	// ── Platforms ──
	setBool(&cfg.Platforms.Kalshi.Enabled, "PMARB_KALSHI_ENABLED")
	setStr(&cfg.Platforms.Kalshi.BaseURL, "PMARB_KALSHI_BASE_URL")
	setBool(&cfg.Platforms.Polymarket.Enabled, "PMARB_POLYMARKET_ENABLED")
	setStr(&cfg.Platforms.Polymarket.BaseURL, "PMARB_POLYMARKET_BASE_URL")
	setBool(&cfg.Platforms.PredictIt.Enabled, "PMARB_PREDICTIT_ENABLED")
	setStr(&cfg.Platforms.PredictIt.BaseURL, "PMARB_PREDICTIT_BASE_URL")

	// ── Matcher ──
	setFloat64(&cfg.Matcher.NameWeight, "PMARB_MATCHER_NAME_WEIGHT")
	setFloat64(&cfg.Matcher.CategoryWeight, "PMARB_MATCHER_CATEGORY_WEIGHT")
	setFloat64(&cfg.Matcher.ContractWeight, "PMARB_MATCHER_CONTRACT_WEIGHT")
	setFloat64(&cfg.Matcher.TemporalWeight, "PMARB_MATCHER_TEMPORAL_WEIGHT")
	setFloat64(&cfg.Matcher.MinScoreThreshold, "PMARB_MATCHER_MIN_SCORE_THRESHOLD")
	setInt(&cfg.Matcher.MaxDaysApart, "PMARB_MATCHER_MAX_DAYS_APART")

	// ── Classifier ──
	setBool(&cfg.Classifier.Enabled, "PMARB_CLASSIFIER_ENABLED")
	setStr(&cfg.Classifier.ModelPath, "PMARB_CLASSIFIER_MODEL_PATH")

	// ── Detector ──
	setFloat64(&cfg.Detector.MinSimilarity, "PMARB_DETECTOR_MIN_SIMILARITY")
	setFloat64(&cfg.Detector.MinProfitThreshold, "PMARB_DETECTOR_MIN_PROFIT_THRESHOLD")
	setFloat64(&cfg.Detector.MinROI, "PMARB_DETECTOR_MIN_ROI")

	// ── Server ──
	setStr(&cfg.Server.Addr, "PMARB_SERVER_ADDR")

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "PMARB_NOTIFY_ENABLED")
	setStringSlice(&cfg.Notify.Events, "PMARB_NOTIFY_EVENTS")
	setStr(&cfg.Notify.TelegramToken, "PMARB_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "PMARB_NOTIFY_TELEGRAM_CHAT_ID")

	// ── Top level ──
	setStr(&cfg.Mode, "PMARB_MODE")
	setStr(&cfg.LogLevel, "PMARB_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env setters. Each overwrites the destination only when the
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
