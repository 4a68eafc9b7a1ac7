package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAndValidate_Defaults(t *testing.T) {
	cfg, err := LoadAndValidate(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, DefaultStaticDir, cfg.Server.StaticDir)
	assert.Equal(t, DefaultFuturesURL, cfg.Exchange.FuturesURL)
	assert.Equal(t, "USDT", cfg.Exchange.QuoteAsset)
	assert.Equal(t, 5*time.Minute, cfg.Intervals.Spot)
	assert.Equal(t, 5*time.Minute, cfg.Intervals.MarketData)
	assert.Equal(t, time.Second, cfg.Intervals.Snapshot)
	assert.Equal(t, time.Minute, cfg.Warmup.Timeout)
	assert.Equal(t, 16, cfg.Hub.SendBuffer)
	assert.Equal(t, "none", cfg.History.Driver)
	assert.Equal(t, 7*24*time.Hour, cfg.History.Retention())
	assert.Equal(t, 5432, cfg.History.Postgres.Port)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("BOARD_PG_HOST", "db.internal")
	t.Setenv("BOARD_PG_PASSWORD", "s3cret")

	cfg, err := LoadAndValidate(writeConfig(t, `
exchange:
  timeout: 3s
intervals:
  snapshot: 500ms
history:
  driver: postgres
  retention_days: 30
  postgres:
    host: ${BOARD_PG_HOST}
    name: perp_board
    user: board
    password: ${BOARD_PG_PASSWORD}
`))
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Exchange.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Intervals.Snapshot)
	assert.Equal(t, "db.internal", cfg.History.Postgres.Host)
	assert.Equal(t, "s3cret", cfg.History.Postgres.Password)
	assert.Equal(t, 30*24*time.Hour, cfg.History.Retention())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"empty quote", func(c *Config) { c.Exchange.QuoteAsset = "" }, "quote_asset"},
		{"negative timeout", func(c *Config) { c.Exchange.Timeout = -time.Second }, "exchange.timeout"},
		{"negative interval", func(c *Config) { c.Intervals.Snapshot = -time.Second }, "intervals.snapshot"},
		{"ping after pong", func(c *Config) { c.Hub.PingInterval = 2 * c.Hub.PongWait }, "ping_interval"},
		{"unknown driver", func(c *Config) { c.History.Driver = "mongo" }, "history.driver"},
		{"postgres without host", func(c *Config) { c.History.Driver = "postgres"; c.History.Postgres.Name = "x" }, "postgres.host"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"retention", func(c *Config) { c.History.RetentionDays = -1 }, "retention_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), err.Error())
		})
	}
}
