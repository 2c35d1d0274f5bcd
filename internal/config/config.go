package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`

	Market     MarketConfig     `mapstructure:"market"`
	Account    AccountConfig    `mapstructure:"account"`
	Resolution ResolutionConfig `mapstructure:"resolution"`
	PriceFeed  PriceFeedConfig  `mapstructure:"price_feed"`
	Broadcast  BroadcastConfig  `mapstructure:"broadcast"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// RedisConfig gates the cross-instance resolution notice bridge. When
// disabled, resolution notices only reach websocket clients of this process.
type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

// MarketConfig holds betting admission knobs. Entry fees not listed here are
// rejected by the admission controller unless the event carries its own set.
type MarketConfig struct {
	AllowedEntryFees []int64 `mapstructure:"allowed_entry_fees"`
}

type AccountConfig struct {
	RegistrationBonus int64 `mapstructure:"registration_bonus"`
	DailyClaimAmount  int64 `mapstructure:"daily_claim_amount"`
}

type ResolutionConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CronSpec string `mapstructure:"cron_spec"`
	// BatchSize bounds how many due events a single scheduler tick settles.
	BatchSize int `mapstructure:"batch_size"`
}

type PriceFeedConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type BroadcastConfig struct {
	SendBuffer int `mapstructure:"send_buffer"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PARI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.channel", "parimarket:resolutions")
	v.SetDefault("market.allowed_entry_fees", []int64{100, 200, 500, 1000})
	v.SetDefault("account.registration_bonus", 1000)
	v.SetDefault("account.daily_claim_amount", 100)
	v.SetDefault("resolution.enabled", true)
	v.SetDefault("resolution.cron_spec", "@every 1m")
	v.SetDefault("resolution.batch_size", 50)
	v.SetDefault("price_feed.endpoint", "https://api.binance.com/api/v3/ticker/price")
	v.SetDefault("price_feed.timeout", "10s")
	v.SetDefault("broadcast.send_buffer", 16)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
