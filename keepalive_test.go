package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/filebrowser-go/internal/auth"
	"github.com/tonimelisma/filebrowser-go/internal/config"
)

// fakeRenewer records each RenewIfExpiring window and returns err.
type fakeRenewer struct {
	mu      sync.Mutex
	windows []time.Duration
	err     error
}

func (f *fakeRenewer) RenewIfExpiring(_ context.Context, window time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.windows = append(f.windows, window)

	return f.err == nil, f.err
}

func (f *fakeRenewer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.windows)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fastHolder ticks every 10ms, below what a config file may set.
func fastHolder(path string) *config.Holder {
	cfg := &config.Resolved{
		ConfigPath:        path,
		KeepaliveInterval: 10 * time.Millisecond,
		RenewBefore:       45 * time.Minute,
	}

	return config.NewHolder(cfg, config.EnvOverrides{}, config.CLIOverrides{ConfigPath: path})
}

func TestKeepaliveLoop_RenewsOnEveryTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRenewer{}
	done := make(chan error, 1)

	go func() { done <- keepaliveLoop(ctx, r, fastHolder(""), nil, discardLogger()) }()

	require.Eventually(t, func() bool { return r.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.Equal(t, 45*time.Minute, r.windows[0])
}

func TestKeepaliveLoop_StopsWhenLoggedOut(t *testing.T) {
	r := &fakeRenewer{err: auth.ErrNotLoggedIn}

	err := keepaliveLoop(context.Background(), r, fastHolder(""), nil, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, r.calls())
}

func TestKeepaliveLoop_RejectedRenewalIsFatal(t *testing.T) {
	r := &fakeRenewer{err: &auth.AuthenticationError{StatusCode: 401, Message: "expired"}}

	err := keepaliveLoop(context.Background(), r, fastHolder(""), nil, discardLogger())

	var authErr *auth.AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestKeepaliveLoop_TransientErrorsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeRenewer{err: errors.New("connection refused")}
	done := make(chan error, 1)

	go func() { done <- keepaliveLoop(ctx, r, fastHolder(""), nil, discardLogger()) }()

	require.Eventually(t, func() bool { return r.calls() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
}

func TestKeepaliveLoop_ReloadUpdatesHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\nrenew_before = \"2h\"\nkeepalive_interval = \"10s\"\n"), 0o600))

	holder := fastHolder(path)
	reloads := make(chan struct{}, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- keepaliveLoop(ctx, &fakeRenewer{}, holder, reloads, discardLogger()) }()

	reloads <- struct{}{}

	require.Eventually(t, func() bool {
		return holder.Config().RenewBefore == 2*time.Hour
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestKeepaliveLoop_BadReloadKeepsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[session]\nrenew_befor = \"2h\"\n"), 0o600))

	holder := fastHolder(path)
	initial := holder.Config()
	reloads := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- keepaliveLoop(ctx, &fakeRenewer{}, holder, reloads, discardLogger()) }()

	// Unbuffered: the send completes only once the loop has taken the signal;
	// the second send waits for the first reload to finish.
	reloads <- struct{}{}
	reloads <- struct{}{}

	assert.Same(t, initial, holder.Config())

	cancel()
	require.NoError(t, <-done)
}
