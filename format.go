package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// statusf prints a status message to stderr unless quiet mode is set.
func statusf(quiet bool, format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Statusf prints a status message to stderr unless --quiet was given.
func (cc *CLIContext) Statusf(format string, args ...any) {
	statusf(cc.Flags.Quiet, format, args...)
}

// Size unit constants for human-readable formatting.
const (
	sizeKB = 1024
	sizeMB = 1024 * sizeKB
	sizeGB = 1024 * sizeMB
)

// formatSize returns a human-readable size string (e.g. "1.2 MB").
func formatSize(bytes int64) string {
	switch {
	case bytes >= sizeGB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(sizeGB))
	case bytes >= sizeMB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(sizeMB))
	case bytes >= sizeKB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(sizeKB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatTime returns a compact listing timestamp relative to now. The zero
// time renders as "-".
func formatTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	if t.Year() == now.Year() {
		return t.Format("Jan _2 15:04")
	}

	return t.Format("Jan _2  2006")
}

// formatExpiry describes a token expiry relative to now, e.g.
// "2026-01-01 14:00 (in 1h59m)".
func formatExpiry(exp, now time.Time) string {
	if exp.IsZero() {
		return "never"
	}

	stamp := exp.Local().Format("2006-01-02 15:04")
	remaining := exp.Sub(now).Round(time.Minute)

	if remaining <= 0 {
		return stamp + " (expired)"
	}

	return fmt.Sprintf("%s (in %s)", stamp, strings.TrimSuffix(remaining.String(), "0s"))
}

// column is one table column. Numeric columns are right-aligned.
type column struct {
	title string
	right bool
}

// writeTable prints rows under cols, two spaces apart. A left-aligned last
// column is not padded, so lines carry no trailing blanks.
func writeTable(w io.Writer, cols []column, rows [][]string) {
	widths := make([]int, len(cols))
	titles := make([]string, len(cols))

	for i, c := range cols {
		widths[i] = len(c.title)
		titles[i] = c.title
	}

	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	writeLine := func(cells []string) {
		var b strings.Builder

		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}

			pad := strings.Repeat(" ", widths[i]-len(cell))

			switch {
			case cols[i].right:
				b.WriteString(pad + cell)
			case i == len(cells)-1:
				b.WriteString(cell)
			default:
				b.WriteString(cell + pad)
			}
		}

		fmt.Fprintln(w, b.String())
	}

	writeLine(titles)

	for _, row := range rows {
		writeLine(row)
	}
}
