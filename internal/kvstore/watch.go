package kvstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reports changes to key in the FileStore's file made by any process.
// The directory is watched rather than the file because atomic writes replace
// the inode. The returned channel carries each new distinct value and is
// closed when ctx is canceled or the watcher fails.
func (s *FileStore) Watch(ctx context.Context, key string) (<-chan string, error) {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return nil, fmt.Errorf("kvstore: creating directory %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("kvstore: creating watcher: %w", err)
	}

	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("kvstore: watching %s: %w", dir, err)
	}

	last, err := s.Get(ctx, key)
	if err != nil {
		s.logger.Warn("initial read for watch failed", slog.String("error", err.Error()))
	}

	out := make(chan string, 1)

	go func() {
		defer close(out)
		defer watcher.Close()

		s.watchLoop(ctx, watcher, key, last, out)
	}()

	return out, nil
}

// watchLoop forwards value changes for key until ctx is done.
func (s *FileStore) watchLoop(
	ctx context.Context, watcher *fsnotify.Watcher, key, last string, out chan<- string,
) {
	name := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(ev.Name) != name {
				continue
			}

			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
				!ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}

			value, err := s.Get(ctx, key)
			if err != nil {
				s.logger.Warn("reading watched session file",
					slog.String("path", s.path),
					slog.String("error", err.Error()),
				)

				continue
			}

			if value == last {
				continue
			}

			last = value

			select {
			case out <- value:
			case <-ctx.Done():
				return
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}

			s.logger.Warn("session file watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
