// Package config loads and validates the application configuration from a
// YAML file with environment-variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig holds the odds site endpoints and browser settings.
type SourceConfig struct {
	MultibetURL    string        `mapstructure:"multibet_url"`
	BettingBaseURL string        `mapstructure:"betting_base_url"`
	NavTimeout     time.Duration `mapstructure:"nav_timeout"`
	Headless       bool          `mapstructure:"headless"`
}

// ScanConfig holds scan behavior configuration.
type ScanConfig struct {
	CompIDs         string   `mapstructure:"comp_ids"`
	SkipIDs         []int    `mapstructure:"skip_ids"`
	ROIThreshold    float64  `mapstructure:"roi_threshold"`
	AllowedAgencies []string `mapstructure:"allowed_agencies"`
}

// NotifyConfig holds notification channel configuration.
type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Discord  DiscordConfig  `mapstructure:"discord"`
}

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BotToken       string        `mapstructure:"bot_token"`
	ChatID         string        `mapstructure:"chat_id"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryDelayBase time.Duration `mapstructure:"retry_delay_base"`
}

// DiscordConfig holds Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	WebhookURL string `mapstructure:"webhook_url"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	Driver            string `mapstructure:"driver"`
	DataDir           string `mapstructure:"data_dir"`
	OpportunitiesFile string `mapstructure:"opportunities_file"`
	SeenKeysFile      string `mapstructure:"seen_keys_file"`
	PostgresDSN       string `mapstructure:"postgres_dsn"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.SetEnvPrefix("ARBSCAN")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.multibet_url", "http://odds.aussportsbetting.com/multibet")
	v.SetDefault("source.betting_base_url", "http://odds.aussportsbetting.com")
	v.SetDefault("source.nav_timeout", "15s")
	v.SetDefault("source.headless", true)

	v.SetDefault("scan.comp_ids", "10-11")
	v.SetDefault("scan.skip_ids", []int{72, 73, 108, 114})
	v.SetDefault("scan.roi_threshold", 0.02)
	v.SetDefault("scan.allowed_agencies", []string{"sportsbet", "bet365", "neds", "tab"})

	v.SetDefault("notify.telegram.enabled", false)
	v.SetDefault("notify.telegram.max_retries", 3)
	v.SetDefault("notify.telegram.retry_delay_base", "1s")
	v.SetDefault("notify.discord.enabled", false)

	v.SetDefault("storage.driver", "file")
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.opportunities_file", "opportunities.json")
	v.SetDefault("storage.seen_keys_file", "seen_keys.json")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Source.MultibetURL == "" {
		return fmt.Errorf("source.multibet_url is required")
	}
	if c.Source.BettingBaseURL == "" {
		return fmt.Errorf("source.betting_base_url is required")
	}
	if c.Source.NavTimeout < time.Second {
		return fmt.Errorf("source.nav_timeout must be at least 1 second")
	}

	if _, err := ParseCompIDs(c.Scan.CompIDs, c.Scan.SkipIDs); err != nil {
		return fmt.Errorf("scan.comp_ids: %w", err)
	}
	if c.Scan.ROIThreshold < 0 || c.Scan.ROIThreshold >= 1 {
		return fmt.Errorf("scan.roi_threshold must be in [0, 1)")
	}
	if len(c.Scan.AllowedAgencies) == 0 {
		return fmt.Errorf("scan.allowed_agencies must contain at least one agency")
	}

	if c.Notify.Telegram.Enabled {
		if c.Notify.Telegram.BotToken == "" {
			return fmt.Errorf("notify.telegram.bot_token is required when telegram is enabled")
		}
		if c.Notify.Telegram.ChatID == "" {
			return fmt.Errorf("notify.telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Notify.Discord.Enabled && c.Notify.Discord.WebhookURL == "" {
		return fmt.Errorf("notify.discord.webhook_url is required when discord is enabled")
	}

	switch c.Storage.Driver {
	case "file":
		if c.Storage.DataDir == "" {
			return fmt.Errorf("storage.data_dir is required for the file driver")
		}
		if c.Storage.OpportunitiesFile == "" || c.Storage.SeenKeysFile == "" {
			return fmt.Errorf("storage file names are required for the file driver")
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver must be one of: file, postgres")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}
	return nil
}

// CompetitionIDs resolves the configured ID spec minus the skip list.
func (c *Config) CompetitionIDs() ([]int, error) {
	return ParseCompIDs(c.Scan.CompIDs, c.Scan.SkipIDs)
}
