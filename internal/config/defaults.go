package config

// Default values for configuration options. These are "layer 0" of the
// override chain.
const (
	defaultServerURL         = "http://127.0.0.1:8080"
	defaultStorageBackend    = BackendSQLite
	defaultRenewBefore       = "1h"
	defaultKeepaliveInterval = "5m"
	defaultLogLevel          = "info"
	defaultLogFormat         = "text"
	defaultConnectTimeout    = "10s"
	defaultDataTimeout       = "60s"
	defaultMaxRetries        = 3
)

// Storage backend names.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		ServerURL: defaultServerURL,
		Storage: StorageConfig{
			Backend: defaultStorageBackend,
		},
		Session: SessionConfig{
			RenewBefore:       defaultRenewBefore,
			KeepaliveInterval: defaultKeepaliveInterval,
		},
		Logging: LoggingConfig{
			LogLevel:  defaultLogLevel,
			LogFormat: defaultLogFormat,
		},
		Network: NetworkConfig{
			ConnectTimeout: defaultConnectTimeout,
			DataTimeout:    defaultDataTimeout,
			MaxRetries:     defaultMaxRetries,
		},
	}
}
