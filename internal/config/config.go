package config

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// global configuration structure
type Config struct {
	Bot        BotConfig        `mapstructure:"bot"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Moderation ModerationConfig `mapstructure:"moderation"`
}

// Telegram bot configuration
type BotConfig struct {
	Token   string        `mapstructure:"token"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// webhook server configuration
type WebhookConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ListenPort  string `mapstructure:"listen_port"`
	DebugPath   string `mapstructure:"debug_path"`
	MetricsPath string `mapstructure:"metrics_path"`
	CertFile    string `mapstructure:"cert_file"`
	KeyFile     string `mapstructure:"key_file"`
}

// logging configuration
type LoggerConfig struct {
	Directory string            `mapstructure:"directory"`
	Rotation  LogRotationConfig `mapstructure:"rotation"`
	Level     string            `mapstructure:"level"`
}

// log rotation settings
type LogRotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	// Path is the database file used by the sqlite driver.
	Path string `mapstructure:"path"`
}

// StorageConfig controls the JSON file stores used when the database is disabled.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// PunishmentConfig maps a warning count to an action keyword.
type PunishmentConfig struct {
	Warnings int    `mapstructure:"warnings"`
	Action   string `mapstructure:"action"`
}

// automoderation settings
type ModerationConfig struct {
	Language        string   `mapstructure:"language"`
	CommandPrefixes []string `mapstructure:"command_prefixes"`

	CapsMinLetters int     `mapstructure:"caps_min_letters"`
	CapsRatio      float64 `mapstructure:"caps_ratio"`

	FloodWindow       time.Duration `mapstructure:"flood_window"`
	FloodThreshold    int           `mapstructure:"flood_threshold"`
	FloodDebounce     time.Duration `mapstructure:"flood_debounce"`
	FloodMuteDuration time.Duration `mapstructure:"flood_mute_duration"`

	AutoMuteDuration time.Duration      `mapstructure:"auto_mute_duration"`
	Punishments      []PunishmentConfig `mapstructure:"punishments"`

	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	RejoinDelay   time.Duration `mapstructure:"rejoin_delay"`

	DefaultAllowedDomains []string `mapstructure:"default_allowed_domains"`
	DefaultBlockedDomains []string `mapstructure:"default_blocked_domains"`
}

// KnownActions lists the punishment keywords the service knows how to apply.
var KnownActions = map[string]bool{
	"mute": true,
}

var cfg *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	log.Printf("Using config file: %s", v.ConfigFileUsed())

	loaded, err := decode(v)
	if err != nil {
		return nil, err
	}

	cfg = loaded
	return cfg, nil
}

// Default returns a configuration populated only with default values.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	c, err := decode(v)
	if err != nil {
		// defaults are static; failing here is a programming error
		panic(err)
	}
	return c
}

func decode(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if c.Moderation.FloodDebounce <= 0 {
		c.Moderation.FloodDebounce = c.Moderation.FloodWindow
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func Get() *Config {
	if cfg == nil {
		log.Fatal("Configuration not initialized, call Load() first")
	}
	return cfg
}

// Validate checks the moderation thresholds and punishment table.
func (c *Config) Validate() error {
	m := c.Moderation
	var errs []error
	if m.CapsMinLetters <= 0 {
		errs = append(errs, errors.New("moderation.caps_min_letters must be positive"))
	}
	if m.CapsRatio <= 0 || m.CapsRatio > 1 {
		errs = append(errs, errors.New("moderation.caps_ratio must be in (0, 1]"))
	}
	if m.FloodWindow <= 0 {
		errs = append(errs, errors.New("moderation.flood_window must be positive"))
	}
	if m.FloodThreshold <= 0 {
		errs = append(errs, errors.New("moderation.flood_threshold must be positive"))
	}
	if m.SweepInterval <= 0 {
		errs = append(errs, errors.New("moderation.sweep_interval must be positive"))
	}
	if len(m.Punishments) == 0 {
		errs = append(errs, errors.New("moderation.punishments must not be empty"))
	}
	seen := make(map[int]bool)
	for _, p := range m.Punishments {
		if p.Warnings <= 0 {
			errs = append(errs, fmt.Errorf("punishment threshold %d must be positive", p.Warnings))
		}
		if seen[p.Warnings] {
			errs = append(errs, fmt.Errorf("duplicate punishment threshold %d", p.Warnings))
		}
		seen[p.Warnings] = true
		if !KnownActions[p.Action] {
			errs = append(errs, fmt.Errorf("unknown punishment action %q", p.Action))
		}
	}
	if c.Database.Enabled && c.Database.Driver != "mysql" && c.Database.Driver != "sqlite" {
		errs = append(errs, fmt.Errorf("unsupported database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bot.webhook.listen_port", "8443")
	v.SetDefault("bot.webhook.debug_path", "/debug")
	v.SetDefault("bot.webhook.metrics_path", "/metrics")
	v.SetDefault("bot.webhook.cert_file", "")
	v.SetDefault("bot.webhook.key_file", "")

	v.SetDefault("logger.directory", "logs")
	v.SetDefault("logger.rotation.max_size", 10)
	v.SetDefault("logger.rotation.max_backups", 30)
	v.SetDefault("logger.rotation.max_age", 90)
	v.SetDefault("logger.rotation.compress", true)
	v.SetDefault("logger.level", "INFO")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.path", "data/automod.db")

	v.SetDefault("storage.data_dir", "data")

	v.SetDefault("moderation.language", "en")
	v.SetDefault("moderation.command_prefixes", []string{"!", "/", ".", "?", "-"})
	v.SetDefault("moderation.caps_min_letters", 10)
	v.SetDefault("moderation.caps_ratio", 0.7)
	v.SetDefault("moderation.flood_window", "5s")
	v.SetDefault("moderation.flood_threshold", 3)
	v.SetDefault("moderation.flood_debounce", "0s")
	v.SetDefault("moderation.flood_mute_duration", "5m")
	v.SetDefault("moderation.auto_mute_duration", "10m")
	v.SetDefault("moderation.punishments", []map[string]any{
		{"warnings": 3, "action": "mute"},
	})
	v.SetDefault("moderation.sweep_interval", "5s")
	v.SetDefault("moderation.rejoin_delay", "1s")
	v.SetDefault("moderation.default_allowed_domains", []string{
		"discord.com",
		"discord.gg",
		"media.discordapp.net",
		"tenor.com",
		"youtube.com",
		"youtu.be",
	})
	v.SetDefault("moderation.default_blocked_domains", []string{
		"t.me",
		"telegraph.ph",
		"vk.com",
		"ok.ru",
	})
}
