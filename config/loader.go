package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	configName = "atlas"
	envPrefix  = "ATLAS"
)

// Loader handles configuration loading from multiple sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader that searches for atlas.yaml in the working
// directory and /etc/atlas.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/atlas")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// SetConfigFile uses path instead of searching. A missing explicit file is an error.
func (l *Loader) SetConfigFile(path string) {
	l.v.SetConfigFile(path)
}

// Load merges, in increasing priority, defaults, the config file and
// ATLAS_* environment variables, then validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setDefaults(cfg)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so environment overrides apply to keys
// absent from the file.
func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("db.path", cfg.DB.Path)
	l.v.SetDefault("db.in_memory", cfg.DB.InMemory)

	l.v.SetDefault("absorption.path", cfg.Absorption.Path)
	l.v.SetDefault("absorption.interval", cfg.Absorption.Interval)
	l.v.SetDefault("absorption.watch", cfg.Absorption.Watch)

	l.v.SetDefault("consolidation.interval", cfg.Consolidation.Interval)
	l.v.SetDefault("server.addr", cfg.Server.Addr)
	l.v.SetDefault("log.level", cfg.Log.Level)
	l.v.SetDefault("save.pool_size", cfg.Save.PoolSize)
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Load reads configuration from path, or searches the default locations when
// path is empty.
func Load(path string) (*Config, error) {
	loader := NewLoader()
	if path != "" {
		loader.SetConfigFile(path)
	}
	return loader.Load()
}
