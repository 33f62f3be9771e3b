package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

const (
	lockFilePermissions = 0o600
	lockDirPermissions  = 0o700
)

// errNoKeepalive means no process holds the keepalive lock.
var errNoKeepalive = errors.New("no keepalive is running")

// keepaliveRecord is what a running keepalive writes into its lock file so
// other commands can tell which session it keeps alive.
type keepaliveRecord struct {
	PID      int       `json:"pid"`
	Server   string    `json:"server"`
	Username string    `json:"username,omitempty"`
	Started  time.Time `json:"started"`
}

// who names the session, e.g. "alice on https://files.example.com".
func (r keepaliveRecord) who() string {
	if r.Username == "" {
		return r.Server
	}

	return r.Username + " on " + r.Server
}

// keepaliveLock is the exclusive flock that allows one keepalive per data
// directory.
type keepaliveLock struct {
	f    *os.File
	path string
}

// acquireKeepaliveLock takes the lock at path without blocking. When another
// keepalive holds it, the error names that keepalive's session.
func acquireKeepaliveLock(path string) (*keepaliveLock, error) {
	if path == "" {
		return nil, errors.New("keepalive lock path is empty: cannot determine data directory")
	}

	if err := os.MkdirAll(filepath.Dir(path), lockDirPermissions); err != nil {
		return nil, fmt.Errorf("creating keepalive lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFilePermissions)
	if err != nil {
		return nil, fmt.Errorf("opening keepalive lock: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()

		if rec, readErr := readKeepaliveRecord(path); readErr == nil && rec.PID > 0 {
			return nil, fmt.Errorf("keepalive already running for %s (PID %d)", rec.who(), rec.PID)
		}

		return nil, fmt.Errorf("keepalive already running (could not lock %s)", path)
	}

	return &keepaliveLock{f: f, path: path}, nil
}

// Record replaces the lock file contents with rec.
func (l *keepaliveLock) Record(rec keepaliveRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding keepalive record: %w", err)
	}

	if err := l.f.Truncate(0); err != nil {
		return fmt.Errorf("truncating keepalive lock: %w", err)
	}

	if _, err := l.f.WriteAt(append(data, '\n'), 0); err != nil {
		return fmt.Errorf("writing keepalive lock: %w", err)
	}

	if err := l.f.Sync(); err != nil {
		return fmt.Errorf("syncing keepalive lock: %w", err)
	}

	return nil
}

// Release removes the lock file and drops the lock.
func (l *keepaliveLock) Release() {
	os.Remove(l.path)
	l.f.Close()
}

func readKeepaliveRecord(path string) (keepaliveRecord, error) {
	var rec keepaliveRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("reading keepalive lock: %w", err)
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parsing keepalive lock %s: %w", path, err)
	}

	return rec, nil
}

// runningKeepalive returns the record of the keepalive holding the lock at
// path. A lock file that nobody holds is left over from a crash and reports
// errNoKeepalive.
func runningKeepalive(path string) (keepaliveRecord, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return keepaliveRecord{}, errNoKeepalive
	}

	if err != nil {
		return keepaliveRecord{}, fmt.Errorf("opening keepalive lock: %w", err)
	}
	defer f.Close()

	// A shared lock succeeds only when no keepalive holds the exclusive one.
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH|syscall.LOCK_NB); err == nil {
		return keepaliveRecord{}, errNoKeepalive
	}

	return readKeepaliveRecord(path)
}

// reloadKeepalive asks the running keepalive to re-read its config and
// returns its record.
func reloadKeepalive(path string) (keepaliveRecord, error) {
	rec, err := runningKeepalive(path)
	if err != nil {
		return keepaliveRecord{}, err
	}

	if rec.PID <= 0 {
		return keepaliveRecord{}, fmt.Errorf("keepalive lock %s names no process", path)
	}

	if err := syscall.Kill(rec.PID, syscall.SIGHUP); err != nil {
		return keepaliveRecord{}, fmt.Errorf("sending SIGHUP to keepalive (PID %d): %w", rec.PID, err)
	}

	return rec, nil
}
