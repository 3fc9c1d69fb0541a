package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "serve"

[server]
port = 9100

[market]
ticket_price = 250
payment_mode = "credit"
grant_amount = 5000

[snapshot]
interval = "90s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, uint64(250), cfg.Market.TicketPrice)
	assert.Equal(t, "credit", cfg.Market.PaymentMode)
	assert.Equal(t, 90*time.Second, cfg.Snapshot.Interval.Duration)

	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "betledger", cfg.Database.Database)
	assert.True(t, cfg.Database.RunMigrations)

	require.NoError(t, cfg.Validate())
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
[market]
ticket_price = 100
`)

	t.Setenv("BETLEDGER_MARKET_TICKET_PRICE", "777")
	t.Setenv("BETLEDGER_DATABASE_PASSWORD", "sekret")
	t.Setenv("BETLEDGER_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("BETLEDGER_MODE", "replay")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(777), cfg.Market.TicketPrice)
	assert.Equal(t, "sekret", cfg.Database.Password)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "replay", cfg.Mode)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "turbo"
	cfg.Market.PaymentMode = "barter"
	cfg.Market.TicketPrice = 0
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
	assert.Contains(t, err.Error(), "payment_mode")
	assert.Contains(t, err.Error(), "ticket_price")
	assert.Contains(t, err.Error(), "port")
}

func TestValidateCreditModeNeedsGrant(t *testing.T) {
	cfg := Defaults()
	cfg.Market.PaymentMode = "credit"
	cfg.Market.GrantAmount = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grant_amount")
}

func TestRedactedConfigHidesSecrets(t *testing.T) {
	cfg := Defaults()
	cfg.Database.Password = "hunter2"
	cfg.Redis.Password = "hunter2"
	cfg.S3.SecretKey = "hunter2"
	cfg.Server.APIKey = "hunter2"
	cfg.Notify.TelegramToken = "hunter2"

	red := RedactedConfig(&cfg)
	assert.Equal(t, "***", red.Database.Password)
	assert.Equal(t, "***", red.Redis.Password)
	assert.Equal(t, "***", red.S3.SecretKey)
	assert.Equal(t, "***", red.Server.APIKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)

	// The original is untouched.
	assert.Equal(t, "hunter2", cfg.Database.Password)
}
