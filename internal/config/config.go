package config

import (
	"fmt"
	"time"

	"github.com/capwire/capwire/pkg/types"
)

// Config represents the complete configuration for capwire
type Config struct {
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`
	Socket  SocketConfig  `json:"socket" yaml:"socket" toml:"socket"`
	Relay   RelayConfig   `json:"relay" yaml:"relay" toml:"relay"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" toml:"level"`    // debug, info, warn, error
	Format string `json:"format" yaml:"format" toml:"format"` // json, text
	Output string `json:"output" yaml:"output" toml:"output"` // stdout, stderr, or file path
}

// SocketConfig contains socket handshake configuration
type SocketConfig struct {
	ConnectTimeout time.Duration `json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
}

// RelayConfig contains configuration for the TCP relay command
type RelayConfig struct {
	ListenAddr     string        `json:"listen_addr" yaml:"listen_addr" toml:"listen_addr"`
	MaxConnections int           `json:"max_connections" yaml:"max_connections" toml:"max_connections"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout" toml:"idle_timeout"`
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.Socket.ConnectTimeout < 0 {
		return types.NewError(types.ErrCodeInvalid, "socket connect_timeout cannot be negative")
	}
	if c.Relay.ListenAddr == "" {
		return types.NewError(types.ErrCodeInvalid, "relay listen_addr cannot be empty")
	}
	if c.Relay.MaxConnections < 0 {
		return types.NewError(types.ErrCodeInvalid, "relay max_connections cannot be negative")
	}
	return nil
}

// Validate checks the logging configuration
func (l *LoggingConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return types.NewError(types.ErrCodeInvalid,
			fmt.Sprintf("invalid log level: %s", l.Level))
	}
	switch l.Format {
	case "json", "text":
	default:
		return types.NewError(types.ErrCodeInvalid,
			fmt.Sprintf("invalid log format: %s (must be json or text)", l.Format))
	}
	return nil
}
