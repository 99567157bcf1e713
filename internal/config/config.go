package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Realtime  RealtimeConfig  `mapstructure:"realtime"`
	Session   SessionConfig   `mapstructure:"session"`
	UI        UIConfig        `mapstructure:"ui"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// APIConfig holds backend endpoints
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"` // REST base, e.g. http://localhost:8080/api/v1
	WSURL   string        `mapstructure:"ws_url"`   // Realtime endpoint; derived from BaseURL when empty
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the facade cache settings
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig controls 429 handling
type RateLimitConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"` // Used when the response has no Retry-After
}

// RealtimeConfig holds the notification channel settings
type RealtimeConfig struct {
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
	Heartbeat      time.Duration `mapstructure:"heartbeat"`
	Topics         []string      `mapstructure:"topics"`
}

// SessionConfig holds where the session is persisted
type SessionConfig struct {
	File string `mapstructure:"file"` // Empty keeps the session in memory only
}

// UIConfig holds UI configuration
type UIConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api/v1",
			Timeout: 30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			MaxRetries: 2,
			BaseDelay:  10 * time.Second,
		},
		Realtime: RealtimeConfig{
			ReconnectDelay: 5 * time.Second,
			Heartbeat:      10 * time.Second,
			Topics:         []string{"/topic/albuns", "/topic/artistas"},
		},
		Session: SessionConfig{
			File: filepath.Join(defaultDataPath(), "session.db"),
		},
		UI: UIConfig{
			PageSize: 10,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "discoteca.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the default data directory for the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "discoteca")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "discoteca")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "discoteca")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "discoteca")
	}
}

// LoadConfig loads configuration from the default locations and environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(defaultConfigPath(), ".")
}

// LoadConfigFrom loads config.yaml from the first directory that has one.
// DISCOTECA_* environment variables override file values.
func LoadConfigFrom(dirs ...string) (*Config, error) {
	cfg := DefaultConfig()
	v := newViper(cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper registers every key with its default so AutomaticEnv can
// resolve nested keys like DISCOTECA_API_BASE_URL.
func newViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DISCOTECA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, val := range settings(cfg) {
		v.SetDefault(key, val)
	}
	return v
}

func settings(cfg *Config) map[string]any {
	return map[string]any{
		"api.base_url":             cfg.API.BaseURL,
		"api.ws_url":               cfg.API.WSURL,
		"api.timeout":              cfg.API.Timeout,
		"cache.ttl":                cfg.Cache.TTL,
		"ratelimit.max_retries":    cfg.RateLimit.MaxRetries,
		"ratelimit.base_delay":     cfg.RateLimit.BaseDelay,
		"realtime.reconnect_delay": cfg.Realtime.ReconnectDelay,
		"realtime.heartbeat":       cfg.Realtime.Heartbeat,
		"realtime.topics":          cfg.Realtime.Topics,
		"session.file":             cfg.Session.File,
		"ui.page_size":             cfg.UI.PageSize,
		"logging.file":             cfg.Logging.File,
		"logging.level":            cfg.Logging.Level,
	}
}

// SaveConfig saves the configuration to the default location
func SaveConfig(cfg *Config) error {
	return SaveConfigTo(cfg, defaultConfigPath())
}

// SaveConfigTo writes config.yaml into dir
func SaveConfigTo(cfg *Config, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, val := range settings(cfg) {
		v.Set(key, val)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the values the client cannot work without
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api.base_url %q", c.API.BaseURL)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.RateLimit.MaxRetries < 0 {
		return fmt.Errorf("ratelimit.max_retries must not be negative, got %d", c.RateLimit.MaxRetries)
	}
	return nil
}

// WebSocketURL returns the realtime endpoint. Without an explicit ws_url it
// uses the API host with a ws/wss scheme and the /ws/albuns path.
func (c *Config) WebSocketURL() string {
	if c.API.WSURL != "" {
		return c.API.WSURL
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return ""
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{Scheme: scheme, Host: u.Host, Path: "/ws/albuns"}).String()
}
