// Package kvstore provides the client-local durable key-value storage that
// keeps the session credential across runs. Two backends are available: an
// embedded SQLite database (default) and a single JSON file that other
// processes can watch for changes.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrCorrupt is returned when the backing file cannot be decoded.
var ErrCorrupt = errors.New("kvstore: corrupt store")

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Store is a string key-value store. Get returns "" and a nil error for a
// key that has never been set.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open returns the Store for the named backend rooted at path.
func Open(ctx context.Context, backend, path string, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch backend {
	case BackendSQLite:
		return OpenSQLite(ctx, path, logger)
	case BackendFile:
		return NewFileStore(path, logger), nil
	default:
		return nil, fmt.Errorf("kvstore: unknown backend %q", backend)
	}
}
