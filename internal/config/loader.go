package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies BETLEDGER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
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

// applyEnvOverrides reads well-known BETLEDGER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "BETLEDGER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "BETLEDGER_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "BETLEDGER_SERVER_API_KEY")
	setInt(&cfg.Server.RateLimit, "BETLEDGER_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateWindow, "BETLEDGER_SERVER_RATE_WINDOW")

	// ── Database ──
	setStr(&cfg.Database.DSN, "BETLEDGER_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "BETLEDGER_DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "BETLEDGER_DATABASE_HOST")
	setInt(&cfg.Database.Port, "BETLEDGER_DATABASE_PORT")
	setStr(&cfg.Database.Database, "BETLEDGER_DATABASE_NAME")
	setStr(&cfg.Database.User, "BETLEDGER_DATABASE_USER")
	setStr(&cfg.Database.Password, "BETLEDGER_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "BETLEDGER_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "BETLEDGER_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "BETLEDGER_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "BETLEDGER_DATABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "BETLEDGER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "BETLEDGER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "BETLEDGER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "BETLEDGER_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "BETLEDGER_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "BETLEDGER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "BETLEDGER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "BETLEDGER_S3_REGION")
	setStr(&cfg.S3.Bucket, "BETLEDGER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "BETLEDGER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "BETLEDGER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "BETLEDGER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "BETLEDGER_S3_FORCE_PATH_STYLE")

	// ── Market ──
	setUint64(&cfg.Market.TicketPrice, "BETLEDGER_MARKET_TICKET_PRICE")
	setUint64(&cfg.Market.GrantAmount, "BETLEDGER_MARKET_GRANT_AMOUNT")
	setStr(&cfg.Market.PaymentMode, "BETLEDGER_MARKET_PAYMENT_MODE")
	setInt(&cfg.Market.RateLimit, "BETLEDGER_MARKET_RATE_LIMIT")
	setDuration(&cfg.Market.RateWindow, "BETLEDGER_MARKET_RATE_WINDOW")

	// ── Snapshot ──
	setBool(&cfg.Snapshot.Enabled, "BETLEDGER_SNAPSHOT_ENABLED")
	setDuration(&cfg.Snapshot.Interval, "BETLEDGER_SNAPSHOT_INTERVAL")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "BETLEDGER_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "BETLEDGER_ARCHIVE_INTERVAL")
	setInt(&cfg.Archive.RetentionDays, "BETLEDGER_ARCHIVE_RETENTION_DAYS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "BETLEDGER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "BETLEDGER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "BETLEDGER_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "BETLEDGER_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "BETLEDGER_MODE")
	setStr(&cfg.LogLevel, "BETLEDGER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
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

func setUint64(dst *uint64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			*dst = n
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

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
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
