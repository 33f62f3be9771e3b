package config

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHolder_UpdateSwapsSnapshot(t *testing.T) {
	initial := &Resolved{ConfigPath: "/etc/filebrowser-go/config.toml", RenewBefore: time.Hour}
	h := NewHolder(initial, EnvOverrides{}, CLIOverrides{})

	assert.Same(t, initial, h.Config())
	assert.Equal(t, "/etc/filebrowser-go/config.toml", h.Path())

	h.Update(&Resolved{ConfigPath: initial.ConfigPath, RenewBefore: 10 * time.Minute})
	assert.Equal(t, 10*time.Minute, h.Config().RenewBefore)
}

func TestHolder_Reload(t *testing.T) {
	path := writeTestConfig(t, "[session]\nkeepalive_interval = \"30s\"\n")
	h := NewHolder(&Resolved{ConfigPath: path}, EnvOverrides{}, CLIOverrides{ConfigPath: path})

	cfg, err := h.Reload()
	require.NoError(t, err)
	assert.Same(t, cfg, h.Config())
	assert.Equal(t, 30*time.Second, cfg.KeepaliveInterval)
	assert.Equal(t, time.Hour, cfg.RenewBefore)
}

func TestHolder_ReloadKeepsOverrides(t *testing.T) {
	path := writeTestConfig(t, "server_url = \"https://file.example.com\"\n\n[storage]\nbackend = \"sqlite\"\n")

	server := "https://flag.example.com"
	env := EnvOverrides{Storage: BackendFile}
	cli := CLIOverrides{ConfigPath: path, ServerURL: &server}

	initial, err := Resolve(env, cli)
	require.NoError(t, err)

	h := NewHolder(initial, env, cli)

	cfg, err := h.Reload()
	require.NoError(t, err)
	assert.Equal(t, "https://flag.example.com", cfg.ServerURL)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, initial, cfg)
}

func TestHolder_ReloadKeepsSnapshotOnError(t *testing.T) {
	path := writeTestConfig(t, "[session]\nrenew_befor = \"1h\"\n")
	before := &Resolved{ConfigPath: path, RenewBefore: 2 * time.Hour}
	h := NewHolder(before, EnvOverrides{}, CLIOverrides{ConfigPath: path})

	cfg, err := h.Reload()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Same(t, before, h.Config())
}

func TestHolder_ConcurrentReaders(t *testing.T) {
	h := NewHolder(&Resolved{KeepaliveInterval: time.Minute}, EnvOverrides{}, CLIOverrides{})

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			for range 50 {
				assert.Positive(t, h.Config().KeepaliveInterval)
			}
		}()

		go func() {
			defer wg.Done()

			for range 50 {
				h.Update(&Resolved{KeepaliveInterval: time.Minute})
			}
		}()
	}

	wg.Wait()
}
