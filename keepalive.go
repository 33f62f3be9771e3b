package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/filebrowser-go/internal/auth"
	"github.com/tonimelisma/filebrowser-go/internal/config"
	"github.com/tonimelisma/filebrowser-go/internal/kvstore"
)

func newKeepaliveCmd() *cobra.Command {
	var reload bool

	cmd := &cobra.Command{
		Use:   "keepalive",
		Short: "Keep the session alive by renewing the token before it expires",
		Long: `Run in the foreground and renew the stored token whenever it is within
session.renew_before of expiring. Only one keepalive runs per data directory.
With the file storage backend, logins and logouts made by other commands are
picked up immediately.

Send SIGHUP (or run 'keepalive --reload') to re-read the config file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if reload {
				return runKeepaliveReload(cmd)
			}

			return runKeepalive(cmd)
		},
	}

	cmd.Flags().BoolVar(&reload, "reload", false, "ask the running keepalive to reload its config and exit")

	return cmd
}

func runKeepaliveReload(cmd *cobra.Command) error {
	cc := cliContextFrom(cmd.Context())

	rec, err := reloadKeepalive(config.KeepalivePIDPath())
	if err != nil {
		return err
	}

	cc.Statusf("Reloading keepalive for %s (PID %d).\n", rec.who(), rec.PID)

	return nil
}

func runKeepalive(cmd *cobra.Command) error {
	cc := cliContextFrom(cmd.Context())
	logger := cc.Logger

	lock, err := acquireKeepaliveLock(config.KeepalivePIDPath())
	if err != nil {
		return err
	}
	defer lock.Release()

	rec := keepaliveRecord{
		PID:     os.Getpid(),
		Server:  cc.Cfg.ServerURL,
		Started: time.Now().UTC(),
	}

	if err := lock.Record(rec); err != nil {
		return err
	}

	ctx, reloads, stop := keepaliveSignals(cmd.Context(), logger)
	defer stop()

	sess, err := openSession(ctx, cc)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.requireLogin(ctx); err != nil {
		return err
	}

	rec.Username = sess.Session.Identity().Username
	if err := lock.Record(rec); err != nil {
		return err
	}

	if fs, ok := sess.Store.(*kvstore.FileStore); ok {
		changes, err := fs.Watch(ctx, auth.StoreKey)
		if err != nil {
			return err
		}

		go sess.Manager.Follow(ctx, changes)
	}

	cc.Statusf("Keeping session for %s alive. Press Ctrl-C to stop.\n", rec.who())

	holder := config.NewHolder(cc.Cfg, cc.Env, cc.CLI)

	return keepaliveLoop(ctx, sess.Manager, holder, reloads, logger)
}

// renewer is the part of auth.Manager the keepalive loop drives.
type renewer interface {
	RenewIfExpiring(ctx context.Context, window time.Duration) (bool, error)
}

// keepaliveLoop renews the session on every tick until ctx is canceled or the
// session ends. A value on reloads re-resolves the configuration behind
// holder.
func keepaliveLoop(
	ctx context.Context, mgr renewer, holder *config.Holder,
	reloads <-chan struct{}, logger *slog.Logger,
) error {
	cfg := holder.Config()
	renewBefore, interval := cfg.RenewBefore, cfg.KeepaliveInterval

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("keepalive started",
		slog.Duration("interval", interval),
		slog.Duration("renew_before", renewBefore),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info("keepalive stopped")
			return nil

		case <-reloads:
			next, err := holder.Reload()
			if err != nil {
				logger.Warn("config reload failed, keeping previous settings", slog.String("error", err.Error()))
				continue
			}

			renewBefore = next.RenewBefore

			if next.KeepaliveInterval != interval {
				interval = next.KeepaliveInterval
				ticker.Reset(interval)
			}

			logger.Info("config reloaded",
				slog.Duration("interval", interval),
				slog.Duration("renew_before", renewBefore),
			)

		case <-ticker.C:
			renewed, err := mgr.RenewIfExpiring(ctx, renewBefore)

			switch {
			case errors.Is(err, auth.ErrNotLoggedIn):
				logger.Info("session ended, stopping keepalive")
				return nil
			case ctx.Err() != nil:
				return nil
			case err != nil:
				var authErr *auth.AuthenticationError
				if errors.As(err, &authErr) {
					return fmt.Errorf("keepalive: server refused renewal: %w", err)
				}

				logger.Warn("renewal failed, will retry", slog.String("error", err.Error()))
			case renewed:
				logger.Info("token renewed")
			}
		}
	}
}
