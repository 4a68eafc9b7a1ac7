package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPort              = 8881
	DefaultStaticDir         = "public"
	DefaultSpotURL           = "https://api.binance.com"
	DefaultFuturesURL        = "https://fapi.binance.com"
	DefaultMarketURL         = "https://www.binance.com"
	DefaultTradeURLBase      = "https://www.binance.com/en/trade"
	DefaultQuoteAsset        = "USDT"
	DefaultExchangeTimeout   = 10 * time.Second
	DefaultReferenceInterval = 5 * time.Minute
	DefaultSnapshotInterval  = 1 * time.Second
	DefaultHistoryInterval   = 1 * time.Minute
	DefaultWarmupTimeout     = 1 * time.Minute
	DefaultWarmupRetryDelay  = 2 * time.Second
	DefaultSendBuffer        = 16
	DefaultWriteTimeout      = 10 * time.Second
	DefaultPingInterval      = 54 * time.Second
	DefaultPongWait          = 60 * time.Second
	DefaultHistoryDriver     = "none"
	DefaultSQLitePath        = "data/coins.db"
	DefaultRetentionDays     = 7
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisKey          = "perp_board:snapshot"
	DefaultRedisChannel      = "perp_board:updates"
	DefaultRedisTTL          = 30 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogEncoding       = "json"
)

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = DefaultStaticDir
	}

	// Exchange defaults
	if c.Exchange.SpotURL == "" {
		c.Exchange.SpotURL = DefaultSpotURL
	}
	if c.Exchange.FuturesURL == "" {
		c.Exchange.FuturesURL = DefaultFuturesURL
	}
	if c.Exchange.MarketURL == "" {
		c.Exchange.MarketURL = DefaultMarketURL
	}
	if c.Exchange.TradeURLBase == "" {
		c.Exchange.TradeURLBase = DefaultTradeURLBase
	}
	if c.Exchange.QuoteAsset == "" {
		c.Exchange.QuoteAsset = DefaultQuoteAsset
	}
	if c.Exchange.Timeout == 0 {
		c.Exchange.Timeout = DefaultExchangeTimeout
	}

	// Interval defaults
	if c.Intervals.Spot == 0 {
		c.Intervals.Spot = DefaultReferenceInterval
	}
	if c.Intervals.Futures == 0 {
		c.Intervals.Futures = DefaultReferenceInterval
	}
	if c.Intervals.MarketData == 0 {
		c.Intervals.MarketData = DefaultReferenceInterval
	}
	if c.Intervals.Snapshot == 0 {
		c.Intervals.Snapshot = DefaultSnapshotInterval
	}
	if c.Intervals.History == 0 {
		c.Intervals.History = DefaultHistoryInterval
	}

	// Warmup defaults
	if c.Warmup.Timeout == 0 {
		c.Warmup.Timeout = DefaultWarmupTimeout
	}
	if c.Warmup.RetryDelay == 0 {
		c.Warmup.RetryDelay = DefaultWarmupRetryDelay
	}

	// Hub defaults
	if c.Hub.SendBuffer == 0 {
		c.Hub.SendBuffer = DefaultSendBuffer
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultWriteTimeout
	}
	if c.Hub.PingInterval == 0 {
		c.Hub.PingInterval = DefaultPingInterval
	}
	if c.Hub.PongWait == 0 {
		c.Hub.PongWait = DefaultPongWait
	}

	// History defaults
	if c.History.Driver == "" {
		c.History.Driver = DefaultHistoryDriver
	}
	if c.History.SQLitePath == "" {
		c.History.SQLitePath = DefaultSQLitePath
	}
	if c.History.RetentionDays == 0 {
		c.History.RetentionDays = DefaultRetentionDays
	}
	applyDBDefaults(&c.History.Postgres)

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.Key == "" {
		c.Redis.Key = DefaultRedisKey
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = DefaultRedisChannel
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = DefaultRedisTTL
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Encoding == "" {
		c.Logging.Encoding = DefaultLogEncoding
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
