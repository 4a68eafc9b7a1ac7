package config

import "time"

// Config is the root configuration of the board service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Intervals IntervalsConfig `yaml:"intervals"`
	Warmup    WarmupConfig    `yaml:"warmup"`
	Hub       HubConfig       `yaml:"hub"`
	History   HistoryConfig   `yaml:"history"`
	Redis     RedisConfig     `yaml:"redis"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           int      `yaml:"port"`
	StaticDir      string   `yaml:"static_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ExchangeConfig holds the upstream feed endpoints.
type ExchangeConfig struct {
	SpotURL      string        `yaml:"spot_url"`
	FuturesURL   string        `yaml:"futures_url"`
	MarketURL    string        `yaml:"market_url"`
	TradeURLBase string        `yaml:"trade_url_base"`
	QuoteAsset   string        `yaml:"quote_asset"`
	Timeout      time.Duration `yaml:"timeout"`
}

// IntervalsConfig holds the refresh periods.
type IntervalsConfig struct {
	Spot       time.Duration `yaml:"spot"`
	Futures    time.Duration `yaml:"futures"`
	MarketData time.Duration `yaml:"market_data"`
	Snapshot   time.Duration `yaml:"snapshot"`
	History    time.Duration `yaml:"history"`
}

// WarmupConfig bounds the initial cache population.
type WarmupConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// HubConfig holds subscriber connection settings.
type HubConfig struct {
	SendBuffer   int           `yaml:"send_buffer"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingInterval time.Duration `yaml:"ping_interval"`
	PongWait     time.Duration `yaml:"pong_wait"`
}

// HistoryConfig selects the optional history store.
type HistoryConfig struct {
	Driver        string   `yaml:"driver"` // none, sqlite or postgres
	SQLitePath    string   `yaml:"sqlite_path"`
	Postgres      DBConfig `yaml:"postgres"`
	RetentionDays int      `yaml:"retention_days"`
}

// DBConfig holds a single Postgres connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// RedisConfig holds the optional snapshot mirror settings.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Key      string        `yaml:"key"`
	Channel  string        `yaml:"channel"`
	TTL      time.Duration `yaml:"ttl"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Retention is the history retention window.
func (h HistoryConfig) Retention() time.Duration {
	return time.Duration(h.RetentionDays) * 24 * time.Hour
}
