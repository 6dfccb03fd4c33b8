// Package config loads Atlas settings from defaults, an optional YAML file and
// ATLAS_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete runtime configuration.
type Config struct {
	DB            DBConfig            `mapstructure:"db" yaml:"db"`
	Absorption    AbsorptionConfig    `mapstructure:"absorption" yaml:"absorption"`
	Consolidation ConsolidationConfig `mapstructure:"consolidation" yaml:"consolidation"`
	Server        ServerConfig        `mapstructure:"server" yaml:"server"`
	Log           LogConfig           `mapstructure:"log" yaml:"log"`
	Save          SaveConfig          `mapstructure:"save" yaml:"save"`
}

// DBConfig locates the Badger database.
type DBConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// AbsorptionConfig controls polling of the absorption batch file.
type AbsorptionConfig struct {
	Path     string        `mapstructure:"path" yaml:"path"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Watch    bool          `mapstructure:"watch" yaml:"watch"` // Also poll on file change
}

type ConsolidationConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// SaveConfig sizes the background save worker pool.
type SaveConfig struct {
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size"`
}

// ValidationError names the offending key.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() *Config {
	return &Config{
		DB: DBConfig{
			Path: "atlas_data",
		},
		Absorption: AbsorptionConfig{
			Path:     "absorption_results.json",
			Interval: 30 * time.Second,
		},
		Consolidation: ConsolidationConfig{
			Interval: 5 * time.Minute,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Save: SaveConfig{
			PoolSize: 1,
		},
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.DB.Path == "" && !c.DB.InMemory {
		return &ValidationError{Field: "db.path", Message: "database path is required unless db.in_memory is set"}
	}
	if c.Absorption.Interval < time.Second {
		return &ValidationError{Field: "absorption.interval", Message: "must be at least 1s"}
	}
	if c.Consolidation.Interval < time.Second {
		return &ValidationError{Field: "consolidation.interval", Message: "must be at least 1s"}
	}
	if c.Server.Addr == "" {
		return &ValidationError{Field: "server.addr", Message: "listen address is required"}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return &ValidationError{Field: "log.level", Message: err.Error()}
	}
	if c.Save.PoolSize < 1 {
		return &ValidationError{Field: "save.pool_size", Message: "must be at least 1"}
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
	return l, nil
}

// YAML renders the configuration in config-file form.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
