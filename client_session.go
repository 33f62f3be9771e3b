package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/tonimelisma/filebrowser-go/internal/auth"
	"github.com/tonimelisma/filebrowser-go/internal/fbapi"
	"github.com/tonimelisma/filebrowser-go/internal/kvstore"
)

// errLoginRequired is returned by commands that need a session when none is
// stored.
var errLoginRequired = errors.New("not logged in: run 'filebrowser-go login' first")

// clientSession wires the credential manager to its collaborators for one
// command: durable store, cookie jar, API client and in-memory session.
type clientSession struct {
	Manager *auth.Manager
	Client  *fbapi.Client
	Session *auth.Session
	Store   kvstore.Store
	Cookies *auth.CookieWriter
}

// loginNavigator prints the login hint when the manager ends the session.
type loginNavigator struct {
	quiet bool
}

func (n loginNavigator) Navigate(path string) {
	if path == auth.LoginPath {
		statusf(n.quiet, "Run 'filebrowser-go login' to sign in.\n")
	}
}

// openSession opens the durable store and builds the manager for cc's
// server. The caller must Close the returned session.
func openSession(ctx context.Context, cc *CLIContext) (*clientSession, error) {
	cfg := cc.Cfg

	store, err := kvstore.Open(ctx, cfg.StorageBackend, cfg.StoragePath, cc.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	jar, err := auth.NewCookieJar()
	if err != nil {
		store.Close()
		return nil, err
	}

	cookies, err := auth.NewCookieWriter(jar, cfg.ServerURL)
	if err != nil {
		store.Close()
		return nil, err
	}

	session := auth.NewSession()
	client := fbapi.NewClient(cfg.ServerURL, newHTTPClient(cfg, jar), session, cc.Logger,
		fbapi.WithMaxRetries(cfg.MaxRetries),
		fbapi.WithUserAgent(cfg.UserAgent),
	)

	mgr := auth.NewManager(client, session, auth.NewDualPersister(store, cookies),
		loginNavigator{quiet: cc.Flags.Quiet}, cc.Metrics, cc.Logger)

	cc.Logger.Debug("session wired",
		"server", cfg.ServerURL,
		"backend", cfg.StorageBackend,
		"store", cfg.StoragePath,
	)

	return &clientSession{
		Manager: mgr,
		Client:  client,
		Session: session,
		Store:   store,
		Cookies: cookies,
	}, nil
}

// Close releases the durable store.
func (s *clientSession) Close() error {
	return s.Store.Close()
}

// requireLogin validates the stored credential and fails when there is none.
func (s *clientSession) requireLogin(ctx context.Context) error {
	if err := s.Manager.ValidateOnStartup(ctx); err != nil {
		return err
	}

	if !s.Session.LoggedIn() {
		return errLoginRequired
	}

	return nil
}
