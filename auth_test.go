package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/filebrowser-go/internal/auth"
	"github.com/tonimelisma/filebrowser-go/internal/config"
)

func TestDescribePermissions(t *testing.T) {
	assert.Equal(t, "none", describePermissions(auth.Permissions{}))
	assert.Equal(t, "admin, create, download",
		describePermissions(auth.Permissions{Admin: true, Create: true, Download: true}))
}

func TestPrintWhoamiText(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	id := &auth.Identity{
		ID:        3,
		Username:  "alice",
		Locale:    "en",
		Perm:      auth.Permissions{Share: true},
		ExpiresAt: now.Add(2 * time.Hour),
	}

	var buf bytes.Buffer
	printWhoamiText(&buf, id, nil, now)

	out := buf.String()
	assert.Contains(t, out, "User:        alice (id 3)")
	assert.Contains(t, out, "Permissions: share")
	assert.Contains(t, out, "(in 2h0m)")
	assert.Contains(t, out, "Keepalive:   not running")

	buf.Reset()
	printWhoamiText(&buf, id, &keepaliveRecord{PID: 4242, Started: now}, now)
	assert.Contains(t, buf.String(), "Keepalive:   running (PID 4242, since ")
}

func TestSessionKeepalive_MatchesServerAndUser(t *testing.T) {
	isolateEnv(t)

	cc := &CLIContext{
		Cfg:    &config.Resolved{ServerURL: "https://files.example.com"},
		Logger: discardLogger(),
	}
	alice := &auth.Identity{Username: "alice"}

	assert.Nil(t, sessionKeepalive(cc, alice), "no keepalive running")

	lock, err := acquireKeepaliveLock(config.KeepalivePIDPath())
	require.NoError(t, err)
	defer lock.Release()

	require.NoError(t, lock.Record(keepaliveRecord{PID: 77, Server: "https://files.example.com", Username: "alice"}))

	rec := sessionKeepalive(cc, alice)
	require.NotNil(t, rec)
	assert.Equal(t, 77, rec.PID)

	assert.Nil(t, sessionKeepalive(cc, &auth.Identity{Username: "bob"}))

	cc.Cfg.ServerURL = "https://other.example.com"
	assert.Nil(t, sessionKeepalive(cc, alice))
}

func credsCmd(stdin string) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetIn(bytes.NewBufferString(stdin))

	return cmd
}

func TestReadCredentials_PasswordStdin(t *testing.T) {
	isolateEnv(t)

	user, pw, err := readCredentials(credsCmd("hunter2\r\nignored\n"), credentialFlags{username: "alice", passwordStdin: true})
	require.NoError(t, err)
	assert.Equal(t, "alice", user)
	assert.Equal(t, "hunter2", pw)
}

func TestReadCredentials_NoTerminal(t *testing.T) {
	isolateEnv(t)

	_, _, err := readCredentials(credsCmd(""), credentialFlags{username: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--password-stdin")
}

func TestReadCredentials_EmptyPassword(t *testing.T) {
	isolateEnv(t)

	_, _, err := readCredentials(credsCmd(""), credentialFlags{username: "alice", passwordStdin: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be empty")
}
