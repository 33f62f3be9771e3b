package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_CreatesDirectoryWithPerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "dir", "session.json")
	s := NewFileStore(path, testLogger(t))

	require.NoError(t, s.Set(context.Background(), "jwt", "tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte(`{corrupt`), 0o600))

	s := NewFileStore(path, testLogger(t))

	_, err := s.Get(context.Background(), "jwt")
	require.ErrorIs(t, err, ErrCorrupt)

	// Set replaces a corrupt file instead of failing forever.
	require.NoError(t, s.Set(context.Background(), "jwt", "fresh"))

	v, err := s.Get(context.Background(), "jwt")
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestFileStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	v, err := NewFileStore(path, testLogger(t)).Get(context.Background(), "jwt")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestFileStore_SeesExternalWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	a := NewFileStore(path, testLogger(t))
	b := NewFileStore(path, testLogger(t))

	require.NoError(t, a.Set(context.Background(), "jwt", "from-a"))

	v, err := b.Get(context.Background(), "jwt")
	require.NoError(t, err)
	assert.Equal(t, "from-a", v)
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	s := NewFileStore(filepath.Join(dir, "session.json"), testLogger(t))

	for range 5 {
		require.NoError(t, s.Set(context.Background(), "jwt", "x"))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "session.json", entries[0].Name())
}
