package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Exchange.QuoteAsset == "" {
		return errors.New("exchange.quote_asset is required")
	}
	if c.Exchange.Timeout <= 0 {
		return errors.New("exchange.timeout must be > 0")
	}

	intervals := map[string]time.Duration{
		"intervals.spot":        c.Intervals.Spot,
		"intervals.futures":     c.Intervals.Futures,
		"intervals.market_data": c.Intervals.MarketData,
		"intervals.snapshot":    c.Intervals.Snapshot,
		"intervals.history":     c.Intervals.History,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0, got %s", name, d)
		}
	}

	if c.Hub.SendBuffer < 1 {
		return errors.New("hub.send_buffer must be >= 1")
	}
	if c.Hub.PingInterval >= c.Hub.PongWait {
		return fmt.Errorf("hub.ping_interval (%s) must be shorter than hub.pong_wait (%s)", c.Hub.PingInterval, c.Hub.PongWait)
	}

	switch c.History.Driver {
	case "none", "sqlite":
	case "postgres":
		if c.History.Postgres.Host == "" {
			return errors.New("history.postgres.host is required")
		}
		if c.History.Postgres.Name == "" {
			return errors.New("history.postgres.name is required")
		}
	default:
		return fmt.Errorf("history.driver must be one of none, sqlite, postgres, got %q", c.History.Driver)
	}
	if c.History.RetentionDays < 1 {
		return errors.New("history.retention_days must be >= 1")
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errors.New("redis.addr is required when redis is enabled")
	}

	return nil
}
