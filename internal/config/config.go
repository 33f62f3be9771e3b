// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for filebrowser-go. It supports a
// four-layer override chain (defaults -> config file -> environment -> CLI
// flags).
package config

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	ServerURL string        `toml:"server_url"`
	Storage   StorageConfig `toml:"storage"`
	Session   SessionConfig `toml:"session"`
	Logging   LoggingConfig `toml:"logging"`
	Network   NetworkConfig `toml:"network"`
}

// StorageConfig selects the durable key-value store that holds the
// credential between runs. An empty path means the platform data directory.
type StorageConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// SessionConfig controls background credential renewal.
type SessionConfig struct {
	RenewBefore       string `toml:"renew_before"`
	KeepaliveInterval string `toml:"keepalive_interval"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	MaxRetries     int    `toml:"max_retries"`
	UserAgent      string `toml:"user_agent"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	ServerURL  *string // --server flag
	Storage    *string // --storage flag
}
