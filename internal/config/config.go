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
	Bot      BotConfig      `mapstructure:"bot"`
	Database DatabaseConfig `mapstructure:"database"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Economy  EconomyConfig  `mapstructure:"economy"`
	Games    GamesConfig    `mapstructure:"games"`
	Profiles ProfilesConfig `mapstructure:"profiles"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token         string `mapstructure:"token"`
	ReviewChannel int64  `mapstructure:"review_channel"`
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

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// EconomyConfig holds settlement parameters.
type EconomyConfig struct {
	// Commission is the platform's cut of order escrow, in [0, 1).
	Commission float64 `mapstructure:"commission"`
	// DailyBonus is the coin amount granted per daily claim.
	DailyBonus int64 `mapstructure:"daily_bonus"`
	// DemoStart is the demo balance seeded for new accounts.
	DemoStart int64 `mapstructure:"demo_start"`
	// StarsRate is coins granted per Telegram Star.
	StarsRate int64 `mapstructure:"stars_rate"`
}

// GamesConfig holds mini-game configuration.
type GamesConfig struct {
	// MercyChance is the flat probability of a forced win applied
	// before the real draw in every game.
	MercyChance float64 `mapstructure:"mercy_chance"`
	MinStake    int64   `mapstructure:"min_stake"`
	MaxStake    int64   `mapstructure:"max_stake"`
}

// ProfilesConfig holds recruitment listing configuration.
type ProfilesConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
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

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, ECONOMY_COMMISSION.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file not found is OK, env vars can provide everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Economy.Commission < 0 || cfg.Economy.Commission >= 1 {
		return nil, fmt.Errorf("economy.commission must be in [0, 1), got %v", cfg.Economy.Commission)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "coinsbot")
	v.SetDefault("database.name", "coinsbot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("economy.commission", 0.2)
	v.SetDefault("economy.daily_bonus", 1)
	v.SetDefault("economy.demo_start", 1000)
	v.SetDefault("economy.stars_rate", 1)

	v.SetDefault("games.mercy_chance", 0.08)
	v.SetDefault("games.min_stake", 1)
	v.SetDefault("games.max_stake", 10000)

	v.SetDefault("profiles.ttl", "168h")
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}
