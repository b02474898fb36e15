package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Environment variable names
	EnvLogLevel       = "CAPWIRE_LOG_LEVEL"
	EnvLogFormat      = "CAPWIRE_LOG_FORMAT"
	EnvLogOutput      = "CAPWIRE_LOG_OUTPUT"
	EnvConnectTimeout = "CAPWIRE_CONNECT_TIMEOUT"
	EnvRelayAddr      = "CAPWIRE_RELAY_ADDR"
	EnvRelayMaxConns  = "CAPWIRE_RELAY_MAX_CONNS"
)

// testConfigPath is an override for the default config path used in testing
var testConfigPath string

// SetTestConfigPath sets a custom config path for testing purposes
func SetTestConfigPath(path string) {
	testConfigPath = path
}

// GetConfigDir returns the capwire configuration directory
func GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "capwire"), nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() (string, error) {
	if testConfigPath != "" {
		return testConfigPath, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// DefaultConfig returns a configuration populated with defaults
func DefaultConfig() *Config {
	return &Config{
		Logging: DefaultLoggingConfig(),
		Socket: SocketConfig{
			ConnectTimeout: 10 * time.Second,
		},
		Relay: RelayConfig{
			ListenAddr:     "127.0.0.1:7180",
			MaxConnections: 64,
			IdleTimeout:    5 * time.Minute,
		},
	}
}

// DefaultLoggingConfig returns the default logging configuration
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	}
}

// Load builds the configuration from defaults plus environment overrides.
// If the default config file exists it is loaded first.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path, err := GetDefaultConfigPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			loaded, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, loadErr
			}
			cfg = loaded
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(EnvLogOutput); v != "" {
		cfg.Logging.Output = v
	}
	if v := os.Getenv(EnvConnectTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Socket.ConnectTimeout = d
		}
	}
	if v := os.Getenv(EnvRelayAddr); v != "" {
		cfg.Relay.ListenAddr = v
	}
	if v := os.Getenv(EnvRelayMaxConns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Relay.MaxConnections = n
		}
	}
}
