// Package config loads the craftd server configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration. Values come from the YAML file
// with environment variables taking precedence.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Events   EventsConfig   `yaml:"events"`
}

// Duration wraps time.Duration so YAML values like "15s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig configures persistence. An empty DSN selects the in-memory
// store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// AuthConfig configures JWT verification. An empty secret disables auth,
// which is only acceptable for local development.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LogConfig configures logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// EventsConfig configures the in-process event feed.
type EventsConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration(15 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Log:    LogConfig{Level: "info"},
		Events: EventsConfig{BufferSize: 1000},
	}
}

// Load reads configuration from path and applies environment overrides. A
// missing file is not an error: defaults plus environment are used.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if cfg.Server.Addr == "" {
		return Config{}, fmt.Errorf("server addr is required")
	}
	if cfg.Events.BufferSize <= 0 {
		cfg.Events.BufferSize = 1000
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CRAFTD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CRAFTD_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("CRAFTD_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("CRAFTD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CRAFTD_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Log.JSON = b
		}
	}
	if v := os.Getenv("CRAFTD_EVENTS_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Events.BufferSize = n
		}
	}
}
