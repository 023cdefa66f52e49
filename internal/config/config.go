// Package config loads the server configuration.
//
// PRECEDENCE (lowest to highest):
//
//	DefaultConfig() → YAML file (--config) → environment variables → CLI flags
//
// Flags are applied by cmd/server; everything else lives here.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Auth modes.
const (
	AuthStub = "stub"
	AuthJWT  = "jwt"
)

// Config is the complete server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Auth   AuthConfig   `yaml:"auth"`
	Upload UploadConfig `yaml:"upload"`
	Log    LogConfig    `yaml:"log"`
	Test   TestConfig   `yaml:"test"`
}

type ServerConfig struct {
	// Host is the listen address. The stub is meant for local test runs, so
	// it defaults to loopback.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StoreConfig struct {
	// Driver is "memory" or "sqlite".
	Driver string `yaml:"driver"`
	// Path is the SQLite database file; ":memory:" keeps it in process.
	Path string `yaml:"path"`
}

type AuthConfig struct {
	// Mode is "stub" (accept anything) or "jwt" (signed tokens).
	Mode      string `yaml:"mode"`
	JWTSecret string `yaml:"jwt_secret"`
	// AccessTTL is reported as expires_in; in jwt mode it is also enforced.
	AccessTTL time.Duration `yaml:"access_ttl"`
}

type UploadConfig struct {
	MaxBytes int64 `yaml:"max_bytes"`
}

type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

type TestConfig struct {
	// ResetEnabled routes POST /__test__/reset.
	ResetEnabled bool `yaml:"reset_enabled"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8000},
		Store:  StoreConfig{Driver: DriverMemory, Path: ":memory:"},
		Auth:   AuthConfig{Mode: AuthStub, AccessTTL: time.Hour},
		Upload: UploadConfig{MaxBytes: 20 << 20},
		Log:    LogConfig{Level: "info", Format: "text"},
		Test:   TestConfig{ResetEnabled: true},
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables. getenv is usually
// os.Getenv; tests pass a map lookup.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	if v := getenv("HOST"); v != "" {
		c.Server.Host = v
	}
	if v := getenv("STORE_DRIVER"); v != "" {
		c.Store.Driver = v
	}
	if v := getenv("DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := getenv("AUTH_MODE"); v != "" {
		c.Auth.Mode = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 0 and 65535"))
	}
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSQLite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", DriverMemory, DriverSQLite, c.Store.Driver))
	}
	switch c.Auth.Mode {
	case AuthStub:
	case AuthJWT:
		if len(c.Auth.JWTSecret) < 16 {
			errs = append(errs, fmt.Errorf("auth.jwt_secret must be at least 16 characters in jwt mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.mode must be %q or %q, got %q", AuthStub, AuthJWT, c.Auth.Mode))
	}
	if c.Auth.AccessTTL <= 0 {
		errs = append(errs, fmt.Errorf("auth.access_ttl must be positive"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("upload.max_bytes must be positive"))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Log.Format); f != "text" && f != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Addr is the host:port the server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// SlogLevel parses Log.Level.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
