// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Daily     DailyConfig     `mapstructure:"daily"`
	Wheel     WheelConfig     `mapstructure:"wheel"`
	Slot      SlotConfig      `mapstructure:"slot"`
	Duel      DuelConfig      `mapstructure:"duel"`
	Clicker   ClickerConfig   `mapstructure:"clicker"`
	AutoClick AutoClickConfig `mapstructure:"auto_click"`
	Avatar    AvatarConfig    `mapstructure:"avatar"`
}

// ServerConfig holds HTTP API configuration.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr"`
	FrontendOrigin string        `mapstructure:"frontend_origin"`
	WebAppURL      string        `mapstructure:"webapp_url"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// DailyConfig holds daily claim configuration.
type DailyConfig struct {
	Cooldown    time.Duration `mapstructure:"cooldown"`
	BaseMin     int           `mapstructure:"base_min"`
	BaseMax     int           `mapstructure:"base_max"`
	StreakGrace time.Duration `mapstructure:"streak_grace"`
	StreakMax   time.Duration `mapstructure:"streak_max"`
}

// WheelConfig holds wheel-of-fortune configuration.
type WheelConfig struct {
	ShieldDuration time.Duration `mapstructure:"shield_duration"`
}

// SlotConfig holds slot machine payout configuration.
type SlotConfig struct {
	JackpotTop int64 `mapstructure:"jackpot_top"`
	Jackpot    int64 `mapstructure:"jackpot"`
	PairPayout int64 `mapstructure:"pair_payout"`
}

// DuelConfig holds duel resolution configuration.
type DuelConfig struct {
	RollMax      int     `mapstructure:"roll_max"`
	StakePercent float64 `mapstructure:"stake_percent"`
}

// ClickerConfig holds clicker upgrade configuration.
type ClickerConfig struct {
	AutoClickCostStep int64 `mapstructure:"auto_click_cost_step"`
}

// AutoClickConfig holds auto-click accrual job configuration.
type AutoClickConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// AvatarConfig holds avatar proxy cache configuration.
type AvatarConfig struct {
	CacheSize int           `mapstructure:"cache_size"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Enable environment variable override
	// e.g., BOT_TOKEN, DATABASE_HOST, SERVER_ADDR
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional - env vars can provide all config)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.frontend_origin", "*")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "15s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "arena")
	v.SetDefault("database.name", "arena")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	// Daily claim defaults: 24h cooldown, -10..+10 base roll, streak
	// continues when the gap falls inside [20h, 48h].
	v.SetDefault("daily.cooldown", "24h")
	v.SetDefault("daily.base_min", -10)
	v.SetDefault("daily.base_max", 10)
	v.SetDefault("daily.streak_grace", "20h")
	v.SetDefault("daily.streak_max", "48h")

	// Reward defaults
	v.SetDefault("wheel.shield_duration", "12h")
	v.SetDefault("slot.jackpot_top", 500)
	v.SetDefault("slot.jackpot", 100)
	v.SetDefault("slot.pair_payout", 20)

	// Duel defaults: combat roll uniform [0, roll_max], stake 10% of the
	// loser's rating with a floor of 1.
	v.SetDefault("duel.roll_max", 20)
	v.SetDefault("duel.stake_percent", 0.10)

	// Progression defaults
	v.SetDefault("clicker.auto_click_cost_step", 5)
	v.SetDefault("auto_click.enabled", true)
	v.SetDefault("auto_click.schedule", "@every 1m")

	// Avatar cache defaults
	v.SetDefault("avatar.cache_size", 512)
	v.SetDefault("avatar.cache_ttl", "5m")
}
