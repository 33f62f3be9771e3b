package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides_AllSet(t *testing.T) {
	t.Setenv(EnvConfig, "/custom/config.toml")
	t.Setenv(EnvServer, "https://files.example.com")
	t.Setenv(EnvStorage, "file")

	overrides := ReadEnvOverrides()
	assert.Equal(t, "/custom/config.toml", overrides.ConfigPath)
	assert.Equal(t, "https://files.example.com", overrides.ServerURL)
	assert.Equal(t, "file", overrides.Storage)
}

func TestReadEnvOverrides_NoneSet(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvServer, "")
	t.Setenv(EnvStorage, "")

	overrides := ReadEnvOverrides()
	assert.Empty(t, overrides.ConfigPath)
	assert.Empty(t, overrides.ServerURL)
	assert.Empty(t, overrides.Storage)
}

func TestEnvVarConstants(t *testing.T) {
	assert.Equal(t, "FILEBROWSER_GO_CONFIG", EnvConfig)
	assert.Equal(t, "FILEBROWSER_GO_SERVER", EnvServer)
	assert.Equal(t, "FILEBROWSER_GO_STORAGE", EnvStorage)
}
