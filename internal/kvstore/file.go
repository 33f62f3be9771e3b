package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FilePerms restricts the store file to owner-only read/write because it
// holds a bearer credential.
const FilePerms = 0o600

// DirPerms is used when creating the store directory.
const DirPerms = 0o700

// FileStore implements Store as one JSON object on disk. Every Get re-reads
// the file so values written by another process are visible immediately.
// Writes are atomic (write-to-temp + fsync + rename).
type FileStore struct {
	path   string
	logger *slog.Logger

	mu sync.Mutex // serializes read-modify-write in Set
}

// NewFileStore returns a FileStore backed by path. The file is created on the
// first Set.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the value stored under key, or "" if the file or key is absent.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	entries, err := readEntries(s.path)
	if err != nil {
		return "", err
	}

	return entries[key], nil
}

// Set stores value under key, replacing any previous value.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readEntries(s.path)
	if errors.Is(err, ErrCorrupt) {
		s.logger.Warn("overwriting corrupt session file", slog.String("path", s.path))

		entries = nil
	} else if err != nil {
		return err
	}

	if entries == nil {
		entries = make(map[string]string, 1)
	}

	entries[key] = value

	return writeEntries(s.path, entries)
}

// Close is a no-op; FileStore holds no open handles.
func (s *FileStore) Close() error {
	return nil
}

// readEntries decodes the store file. A missing file yields a nil map.
func readEntries(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("kvstore: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}

	return entries, nil
}

// writeEntries writes the store file atomically with FilePerms.
func writeEntries(path string, entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("kvstore: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("kvstore: creating directory %s: %w", dir, mkErr)
	}

	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("kvstore: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("kvstore: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("kvstore: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("kvstore: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("kvstore: renaming: %w", err)
	}

	success = true

	return nil
}
