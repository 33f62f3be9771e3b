package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Validation range constants.
const (
	minRenewBefore       = 1 * time.Minute
	minKeepaliveInterval = 10 * time.Second
	minConnectTimeout    = 1 * time.Second
	minDataTimeout       = 5 * time.Second
	maxRetries           = 10
)

var validBackends = map[string]bool{
	BackendSQLite: true,
	BackendFile:   true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateServerURL(cfg.ServerURL)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateSession(&cfg.Session)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNetwork(&cfg.Network)...)

	return errors.Join(errs...)
}

func validateServerURL(raw string) []error {
	if raw == "" {
		return []error{errors.New("server_url: must not be empty")}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return []error{fmt.Errorf("server_url: %w", err)}
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return []error{fmt.Errorf("server_url: scheme must be http or https, got %q", u.Scheme)}
	}

	if u.Host == "" {
		return []error{fmt.Errorf("server_url: missing host in %q", raw)}
	}

	return nil
}

func validateStorage(s *StorageConfig) []error {
	if !validBackends[s.Backend] {
		return []error{fmt.Errorf("storage.backend: must be one of sqlite, file; got %q", s.Backend)}
	}

	return nil
}

func validateSession(s *SessionConfig) []error {
	var errs []error

	errs = append(errs, validateDuration("session.renew_before", s.RenewBefore, minRenewBefore)...)
	errs = append(errs, validateDuration("session.keepalive_interval", s.KeepaliveInterval, minKeepaliveInterval)...)

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("logging.log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("logging.log_format: must be one of text, json; got %q", l.LogFormat))
	}

	return errs
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDuration("network.connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDuration("network.data_timeout", n.DataTimeout, minDataTimeout)...)

	if n.MaxRetries < 0 || n.MaxRetries > maxRetries {
		errs = append(errs, fmt.Errorf("network.max_retries: must be between 0 and %d, got %d",
			maxRetries, n.MaxRetries))
	}

	return errs
}

// validateDuration parses s and checks it is at least minimum.
func validateDuration(field, s string, minimum time.Duration) []error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, s, err)}
	}

	if d < minimum {
		return []error{fmt.Errorf("%s: must be at least %s, got %s", field, minimum, s)}
	}

	return nil
}
