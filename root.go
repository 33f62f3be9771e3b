package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/filebrowser-go/internal/config"
	"github.com/tonimelisma/filebrowser-go/internal/metrics"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagServer     string
	flagStorage    string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
	flagMetrics    bool
)

// CLIFlags is a snapshot of the persistent flags for one invocation.
type CLIFlags struct {
	ConfigPath string
	JSON       bool
	Verbose    bool
	Quiet      bool
}

// CLIContext carries everything a subcommand needs: the flag snapshot, the
// resolved configuration with the overrides it was built from, the logger
// and the metrics recorder. It is built once in PersistentPreRunE and stored
// in the command context.
type CLIContext struct {
	Flags   CLIFlags
	Cfg     *config.Resolved
	Env     config.EnvOverrides
	CLI     config.CLIOverrides
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

type cliContextKey struct{}

// cliContextFrom returns the CLIContext stored by the root pre-run hook.
func cliContextFrom(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		return nil
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. rec may be nil.
func newRootCmd(rec *metrics.Recorder) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "filebrowser-go",
		Short:   "File Browser CLI client",
		Long:    "A command-line client for File Browser servers: sign in, keep the session alive, and browse files.",
		Version: version,
		// Silence Cobra's default error/usage printing; main handles it.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			env, cli := configOverrides(cmd)

			resolved, err := config.Resolve(env, cli)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			flags := CLIFlags{
				ConfigPath: flagConfigPath,
				JSON:       flagJSON,
				Verbose:    flagVerbose,
				Quiet:      flagQuiet,
			}

			cc := &CLIContext{
				Flags:   flags,
				Cfg:     resolved,
				Env:     env,
				CLI:     cli,
				Logger:  buildLogger(resolved, flags),
				Metrics: rec,
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagServer, "server", "", "File Browser server URL")
	cmd.PersistentFlags().StringVar(&flagStorage, "storage", "", "session storage backend (sqlite or file)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")
	cmd.PersistentFlags().BoolVar(&flagMetrics, "metrics", false, "print session metrics to stderr on exit")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newSignupCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newRenewCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newKeepaliveCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// configOverrides collects the environment and flag layers of the override
// chain. Only flags the user actually set override lower layers.
func configOverrides(cmd *cobra.Command) (config.EnvOverrides, config.CLIOverrides) {
	cli := config.CLIOverrides{
		ConfigPath: flagConfigPath,
	}

	if cmd.Flags().Changed("server") {
		server := flagServer
		cli.ServerURL = &server
	}

	if cmd.Flags().Changed("storage") {
		storage := flagStorage
		cli.Storage = &storage
	}

	return config.ReadEnvOverrides(), cli
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger(cfg *config.Resolved, flags CLIFlags) *slog.Logger {
	level := slog.LevelInfo
	format := "text"

	// Config-based log level (lower priority than CLI flags).
	if cfg != nil {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}

		format = cfg.LogFormat
	}

	// CLI flags override config (highest priority).
	if flags.Verbose {
		level = slog.LevelDebug
	}

	if flags.Quiet {
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}

	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// newHTTPClient returns the client used for every server request. The cookie
// jar carries the auth cookie alongside the X-Auth header.
func newHTTPClient(cfg *config.Resolved, jar http.CookieJar) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext

	return &http.Client{
		Transport: transport,
		Jar:       jar,
		Timeout:   cfg.DataTimeout,
	}
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
