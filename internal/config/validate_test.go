package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(DefaultConfig()))
}

func TestValidate_ServerURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr string
	}{
		{"empty", "", "must not be empty"},
		{"bad scheme", "ftp://host", "scheme must be http or https"},
		{"no host", "http://", "missing host"},
		{"https ok", "https://files.example.com/base", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ServerURL = tt.url

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.LogLevel = "verbose"
	cfg.Logging.LogFormat = "xml"
	cfg.Network.MaxRetries = 99
	cfg.Session.RenewBefore = "soon"

	err := Validate(cfg)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "logging.log_level")
	assert.Contains(t, msg, "logging.log_format")
	assert.Contains(t, msg, "network.max_retries")
	assert.Contains(t, msg, "session.renew_before")
}

func TestValidate_DurationMinimums(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Session.KeepaliveInterval = "1s"
	cfg.Network.ConnectTimeout = "100ms"

	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session.keepalive_interval: must be at least")
	assert.Contains(t, err.Error(), "network.connect_timeout: must be at least")
}
