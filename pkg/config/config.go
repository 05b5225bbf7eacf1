// Package config loads the ring host configuration from an optional YAML
// file, with defaults matching the reference sizing (10 slots of 64 bytes).
package config

import (
	"io/fs"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the complete host configuration.
type Config struct {
	// Capacity is the number of record slots in the ring.
	Capacity int `mapstructure:"capacity"`
	// RecordSize is the slot size in bytes; records hold RecordSize-1 bytes.
	RecordSize int `mapstructure:"record_size"`
	// Workers is the number of goroutines serving accepted connections.
	Workers int `mapstructure:"workers"`

	Socket  SocketConfig  `mapstructure:"socket"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SocketConfig describes the unix socket the host listens on.
type SocketConfig struct {
	// Path of the socket file.
	Path string `mapstructure:"path"`
	// Mode is the octal file mode applied to the socket, e.g. "0666".
	Mode string `mapstructure:"mode"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// File receives the JSON log lines; empty means stderr.
	File string `mapstructure:"file"`
}

// FileMode parses the configured octal mode string.
func (s SocketConfig) FileMode() (fs.FileMode, error) {
	mode, err := strconv.ParseUint(s.Mode, 8, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid socket mode %q", s.Mode)
	}
	if mode > 0o777 {
		return 0, errors.Errorf("invalid socket mode %q: permission bits only", s.Mode)
	}
	return fs.FileMode(mode), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("capacity", 10)
	v.SetDefault("record_size", 64)
	v.SetDefault("workers", 4)
	v.SetDefault("socket.path", "/tmp/ouroboros.sock")
	v.SetDefault("socket.mode", "0666")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.file", "")
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := Load("")
	return cfg
}

// Load reads the configuration file at path, or just the defaults when path
// is empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %q", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects sizings the ring store cannot be built with and malformed
// socket settings.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return errors.Errorf("capacity must be positive, got %d", c.Capacity)
	}
	if c.RecordSize <= 1 {
		return errors.Errorf("record_size must be at least 2, got %d", c.RecordSize)
	}
	if c.Workers <= 0 {
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Socket.Path == "" {
		return errors.New("socket.path must not be empty")
	}
	if _, err := c.Socket.FileMode(); err != nil {
		return err
	}
	return nil
}
