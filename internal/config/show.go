package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// summary to w. This powers the "config show" command.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (%s)\n\n", r.ConfigPath)
	ew.printf("server_url = %q\n\n", r.ServerURL)

	ew.printf("[storage]\n")
	ew.printf("  backend = %q\n", r.StorageBackend)
	ew.printf("  path    = %q\n\n", r.StoragePath)

	ew.printf("[session]\n")
	ew.printf("  renew_before       = %q\n", r.RenewBefore.String())
	ew.printf("  keepalive_interval = %q\n\n", r.KeepaliveInterval.String())

	ew.printf("[logging]\n")
	ew.printf("  log_level  = %q\n", r.LogLevel)
	ew.printf("  log_format = %q\n\n", r.LogFormat)

	ew.printf("[network]\n")
	ew.printf("  connect_timeout = %q\n", r.ConnectTimeout.String())
	ew.printf("  data_timeout    = %q\n", r.DataTimeout.String())
	ew.printf("  max_retries     = %d\n", r.MaxRetries)

	if r.UserAgent != "" {
		ew.printf("  user_agent      = %q\n", r.UserAgent)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
