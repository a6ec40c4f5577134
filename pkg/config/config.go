// Package config loads taskboard settings from defaults, an optional TOML
// file, a .env file and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// DefaultConfigFile is read when TASKBOARD_CONFIG is unset.
const DefaultConfigFile = "taskboard.toml"

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv    string `toml:"app_env"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	// HTTP store service
	HTTPAddr           string        `toml:"http_addr"`
	CORSAllowedOrigins []string      `toml:"cors_allowed_origins"`
	ReadTimeout        time.Duration `toml:"-"`
	WriteTimeout       time.Duration `toml:"-"`
	IdleTimeout        time.Duration `toml:"-"`

	// Storage
	StoreURL string `toml:"store"`

	// Redis
	RedisURL string `toml:"redis_url"`

	// RabbitMQ
	RabbitMQURL string `toml:"rabbitmq_url"`

	// Client
	APIURL             string        `toml:"api_url"`
	ClientTimeout      time.Duration `toml:"-"`
	BreakerMaxFailures int           `toml:"breaker_max_failures"`
	BreakerTimeout     time.Duration `toml:"-"`
	ReminderTimezone   string        `toml:"timezone"`

	// MCP
	MCPAddr      string `toml:"mcp_addr"`
	MCPAuthToken string `toml:"mcp_auth_token"`

	// Source is the TOML file that was applied, if any.
	Source string `toml:"-"`
}

// fileDurations carries duration settings as strings ("15s") in TOML.
type fileDurations struct {
	ReadTimeout    string `toml:"read_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	IdleTimeout    string `toml:"idle_timeout"`
	ClientTimeout  string `toml:"client_timeout"`
	BreakerTimeout string `toml:"breaker_timeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		AppEnv:             "development",
		LogLevel:           "info",
		LogFormat:          "text",
		HTTPAddr:           ":3000",
		CORSAllowedOrigins: []string{"*"},
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		StoreURL:           "tasks.json",
		APIURL:             "http://localhost:3000",
		ClientTimeout:      10 * time.Second,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
		ReminderTimezone:   "UTC",
		MCPAddr:            "127.0.0.1:8082",
	}
}

// Load loads configuration from all layers.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is Load with an explicit config file. An empty path falls back to
// TASKBOARD_CONFIG and then DefaultConfigFile.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TASKBOARD_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	if err := cfg.applyFile(path, explicit); err != nil {
		return nil, err
	}

	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("config file %s: %w", path, err)
	}

	if _, err := toml.DecodeFile(path, c); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}

	var durations fileDurations
	if _, err := toml.DecodeFile(path, &durations); err != nil {
		return fmt.Errorf("decode config file %s: %w", path, err)
	}
	for _, d := range []struct {
		name  string
		raw   string
		field *time.Duration
	}{
		{"read_timeout", durations.ReadTimeout, &c.ReadTimeout},
		{"write_timeout", durations.WriteTimeout, &c.WriteTimeout},
		{"idle_timeout", durations.IdleTimeout, &c.IdleTimeout},
		{"client_timeout", durations.ClientTimeout, &c.ClientTimeout},
		{"breaker_timeout", durations.BreakerTimeout, &c.BreakerTimeout},
	} {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("config file %s: %s: %w", path, d.name, err)
		}
		*d.field = parsed
	}

	c.Source = path
	return nil
}

func (c *Config) applyEnv() error {
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)

	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("invalid PORT %q", port)
		}
		c.HTTPAddr = ":" + port
	}
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORSAllowedOrigins = splitList(origins)
	}
	c.ReadTimeout = getDurationEnv("HTTP_READ_TIMEOUT", c.ReadTimeout)
	c.WriteTimeout = getDurationEnv("HTTP_WRITE_TIMEOUT", c.WriteTimeout)
	c.IdleTimeout = getDurationEnv("HTTP_IDLE_TIMEOUT", c.IdleTimeout)

	c.StoreURL = getEnv("TASKBOARD_STORE", c.StoreURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.RabbitMQURL = getEnv("RABBITMQ_URL", c.RabbitMQURL)

	c.APIURL = getEnv("TASKBOARD_API_URL", c.APIURL)
	c.ClientTimeout = getDurationEnv("TASKBOARD_CLIENT_TIMEOUT", c.ClientTimeout)
	c.BreakerMaxFailures = getIntEnv("TASKBOARD_BREAKER_MAX_FAILURES", c.BreakerMaxFailures)
	c.BreakerTimeout = getDurationEnv("TASKBOARD_BREAKER_TIMEOUT", c.BreakerTimeout)
	c.ReminderTimezone = getEnv("TASKBOARD_TZ", c.ReminderTimezone)

	c.MCPAddr = getEnv("MCP_ADDR", c.MCPAddr)
	c.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", c.MCPAuthToken)
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Location resolves the time zone used to decide which tasks are due today.
func (c *Config) Location() (*time.Location, error) {
	if c.ReminderTimezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.ReminderTimezone, err)
	}
	return loc, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
