package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Resolved is the effective configuration after the override chain has been
// applied and every string value has been parsed into its typed form.
type Resolved struct {
	ConfigPath        string
	ServerURL         string
	StorageBackend    string
	StoragePath       string
	RenewBefore       time.Duration
	KeepaliveInterval time.Duration
	LogLevel          string
	LogFormat         string
	ConnectTimeout    time.Duration
	DataTimeout       time.Duration
	MaxRetries        int
	UserAgent         string
}

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are treated as fatal errors with "did you
// mean?" suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the four-layer override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides) (*Resolved, error) {
	// 1. Resolve config path: CLI > env > default
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	// 2. Load config file (returns defaults if no file exists)
	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	// 3. Apply env overrides
	if env.ServerURL != "" {
		cfg.ServerURL = env.ServerURL
	}

	if env.Storage != "" {
		cfg.Storage.Backend = env.Storage
	}

	// 4. Apply CLI overrides (pointer fields: nil = not specified)
	if cli.ServerURL != nil {
		cfg.ServerURL = *cli.ServerURL
	}

	if cli.Storage != nil {
		cfg.Storage.Backend = *cli.Storage
	}

	// 5. Validate again: env and CLI values never went through Load.
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return resolve(cfg, cfgPath), nil
}

// resolve converts a validated Config into its typed form. Parse errors are
// impossible here because Validate has already run.
func resolve(cfg *Config, cfgPath string) *Resolved {
	r := &Resolved{
		ConfigPath:     cfgPath,
		ServerURL:      strings.TrimRight(cfg.ServerURL, "/"),
		StorageBackend: cfg.Storage.Backend,
		StoragePath:    cfg.Storage.Path,
		LogLevel:       cfg.Logging.LogLevel,
		LogFormat:      cfg.Logging.LogFormat,
		MaxRetries:     cfg.Network.MaxRetries,
		UserAgent:      cfg.Network.UserAgent,
	}

	r.RenewBefore, _ = time.ParseDuration(cfg.Session.RenewBefore)
	r.KeepaliveInterval, _ = time.ParseDuration(cfg.Session.KeepaliveInterval)
	r.ConnectTimeout, _ = time.ParseDuration(cfg.Network.ConnectTimeout)
	r.DataTimeout, _ = time.ParseDuration(cfg.Network.DataTimeout)

	if r.StoragePath == "" {
		r.StoragePath = DefaultStoragePath(r.StorageBackend)
	} else {
		r.StoragePath = expandTilde(r.StoragePath)
	}

	return r
}
