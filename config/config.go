package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig groups HTTP server settings.
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug, test, release
}

// DatabaseConfig groups MySQL connection settings. URI, when set, wins over
// the individual fields.
type DatabaseConfig struct {
	URI          string `mapstructure:"uri"`
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
}

// LogConfig groups zap + lumberjack settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"maxSizeMB"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAgeDays"`
	Compress   bool   `mapstructure:"compress"`
}

// JWTConfig holds the bearer-token signing secret.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

// AppConfig is the root configuration object.
type AppConfig struct {
	Server             ServerConfig   `mapstructure:"server"`
	Database           DatabaseConfig `mapstructure:"database"`
	Log                LogConfig      `mapstructure:"log"`
	JWT                JWTConfig      `mapstructure:"jwt"`
	RateLimitPerMinute int            `mapstructure:"rateLimitPerMinute"`
	AllowedOrigins     []string       `mapstructure:"allowedOrigins"`
	// FallbackUserID is the post author used when a request carries no
	// authenticated identity. Deliberate anonymous/demo behavior, not a
	// security control.
	FallbackUserID uint `mapstructure:"fallbackUserId"`
}

var (
	cfg    AppConfig
	loaded bool
)

// Load reads config/config.yaml (if present), applies defaults, then lets
// FORUMHUB_* environment variables override. Call once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "3306")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "forumhub")
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxOpenConns", 20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.maxSizeMB", 100)
	v.SetDefault("log.maxBackups", 3)
	v.SetDefault("log.maxAgeDays", 7)
	v.SetDefault("rateLimitPerMinute", 60)
	v.SetDefault("allowedOrigins", []string{"*"})
	v.SetDefault("fallbackUserId", 1)

	v.SetEnvPrefix("FORUMHUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Fatalf("invalid configuration file: %v", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to decode configuration: %v", err)
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// SetForTesting replaces the cached configuration. Test helper only.
func SetForTesting(c AppConfig) {
	cfg = c
	loaded = true
}
