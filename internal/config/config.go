package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"token-change-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Logging   logging.Config  `mapstructure:"logging"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Solana    SolanaConfig    `mapstructure:"solana"`
	Moralis   MoralisConfig   `mapstructure:"moralis"`
	Discord   DiscordConfig   `mapstructure:"discord"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig encapsulates PostgreSQL connectivity.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// SchedulerConfig governs polling cadence and fan-out.
type SchedulerConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	Concurrency  int           `mapstructure:"concurrency"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// SolanaConfig covers chain RPC access.
type SolanaConfig struct {
	RPCURL         string        `mapstructure:"rpc_url"`
	MaxInflight    int           `mapstructure:"max_inflight"`
	NativeMint     string        `mapstructure:"native_mint"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// MoralisConfig captures token metadata service connectivity.
type MoralisConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	Network        string        `mapstructure:"network"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// DiscordConfig 描述 Discord webhook 告警参数。
type DiscordConfig struct {
	WebhookURL        string        `mapstructure:"webhook_url"`
	ResultsWebhookURL string        `mapstructure:"results_webhook_url"`
	ErrorsWebhookURL  string        `mapstructure:"errors_webhook_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOKENWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tokenwatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scheduler.interval", "30s")
	v.SetDefault("scheduler.concurrency", 10)
	v.SetDefault("scheduler.startup_delay", "0s")

	v.SetDefault("solana.max_inflight", 10)
	v.SetDefault("solana.native_mint", "So11111111111111111111111111111111111111112")
	v.SetDefault("solana.request_timeout", "10s")

	v.SetDefault("moralis.base_url", "https://solana-gateway.moralis.io")
	v.SetDefault("moralis.network", "mainnet")
	v.SetDefault("moralis.request_timeout", "10s")

	v.SetDefault("discord.request_timeout", "10s")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("database.migrations_path", "migrations")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be greater than zero")
	}
	if c.Scheduler.Concurrency <= 0 {
		return fmt.Errorf("scheduler.concurrency must be greater than zero")
	}
	if c.Solana.MaxInflight <= 0 {
		return fmt.Errorf("solana.max_inflight must be greater than zero")
	}
	if c.Solana.NativeMint == "" {
		return fmt.Errorf("solana.native_mint must not be empty")
	}
	if c.Discord.WebhookURL != "" && c.Discord.ResultsWebhookURL == "" {
		c.Discord.ResultsWebhookURL = c.Discord.WebhookURL
	}
	if c.Discord.ErrorsWebhookURL == "" {
		c.Discord.ErrorsWebhookURL = c.Discord.WebhookURL
	}
	return nil
}
