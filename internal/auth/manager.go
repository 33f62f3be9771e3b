// Package auth manages the File Browser session credential: acquiring it,
// keeping the cookie and durable copies in step, renewing it and revoking it.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tonimelisma/filebrowser-go/internal/fbapi"
	"github.com/tonimelisma/filebrowser-go/internal/kvstore"
	"github.com/tonimelisma/filebrowser-go/internal/metrics"
)

// Auth endpoints.
const (
	loginPath  = "/api/login"
	signupPath = "/api/signup"
	renewPath  = "/api/renew"
)

// LoginPath is where the Manager sends the navigator after the session ends.
const LoginPath = "/login"

// Navigator receives navigation requests, e.g. to the login view after the
// session is revoked.
type Navigator interface {
	Navigate(path string)
}

// Manager owns the credential lifecycle for one Session.
type Manager struct {
	client    *fbapi.Client
	session   *Session
	persister Persister
	nav       Navigator
	metrics   *metrics.Recorder
	logger    *slog.Logger

	renewals    singleflight.Group
	hintPending atomic.Bool

	// nowFunc returns the current time. Tests override it.
	nowFunc func() time.Time
}

// NewManager creates a Manager. nav and rec may be nil. The manager registers
// itself for the client's renew hints.
func NewManager(
	client *fbapi.Client, session *Session, persister Persister,
	nav Navigator, rec *metrics.Recorder, logger *slog.Logger,
) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		client:    client,
		session:   session,
		persister: persister,
		nav:       nav,
		metrics:   rec,
		logger:    logger,
		nowFunc:   time.Now,
	}

	client.OnRenewHint(m.RenewHint)

	return m
}

// Session returns the session the manager maintains.
func (m *Manager) Session() *Session {
	return m.session
}

type loginRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	Recaptcha string `json:"recaptcha"`
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Acquire logs in with username and password. On success the returned
// credential is persisted and becomes the session identity. A rejected login
// returns *AuthenticationError and changes nothing.
func (m *Manager) Acquire(ctx context.Context, username, password, recaptcha string) error {
	m.logger.Info("login started", slog.String("username", username))

	resp, err := m.postJSON(ctx, loginPath, loginRequest{
		Username:  username,
		Password:  password,
		Recaptcha: recaptcha,
	})
	if err != nil {
		m.metrics.RecordAuthAttempt(metrics.OpLogin, metrics.ResultError)
		return fmt.Errorf("auth: login: %w", err)
	}

	return m.accept(ctx, metrics.OpLogin, resp)
}

// Register creates an account. It does not log in; callers follow it with
// Acquire. A rejection carries the HTTP status text as its message.
func (m *Manager) Register(ctx context.Context, username, password string) error {
	m.logger.Info("signup started", slog.String("username", username))

	resp, err := m.postJSON(ctx, signupPath, signupRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		m.metrics.RecordAuthAttempt(metrics.OpSignup, metrics.ResultError)
		return fmt.Errorf("auth: signup: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		m.metrics.RecordAuthAttempt(metrics.OpSignup, metrics.ResultRejected)
		return &AuthenticationError{StatusCode: resp.StatusCode, Message: resp.StatusText}
	}

	m.metrics.RecordAuthAttempt(metrics.OpSignup, metrics.ResultOK)
	m.logger.Info("signup successful", slog.String("username", username))

	return nil
}

// Renew exchanges token for a fresh credential. Concurrent renewals of the
// same token share one request and every caller gets its result, including
// a cancellation of the ctx that started it. Different tokens are sent
// separately.
func (m *Manager) Renew(ctx context.Context, token string) error {
	return m.renew(ctx, token, metrics.TriggerManual)
}

// RenewStored renews the durable credential.
func (m *Manager) RenewStored(ctx context.Context) error {
	token, err := m.persister.Load(ctx)
	if err != nil {
		return err
	}

	if token == "" {
		return ErrNotLoggedIn
	}

	return m.Renew(ctx, token)
}

func (m *Manager) renew(ctx context.Context, token, trigger string) error {
	_, err, shared := m.renewals.Do(token, func() (any, error) {
		m.metrics.RecordRenewal(trigger)

		resp, err := m.client.Send(ctx, http.MethodPost, renewPath,
			http.Header{fbapi.HeaderAuth: {token}}, nil)
		if err != nil {
			m.metrics.RecordAuthAttempt(metrics.OpRenew, metrics.ResultError)
			return nil, fmt.Errorf("auth: renew: %w", err)
		}

		return nil, m.accept(ctx, metrics.OpRenew, resp)
	})

	if shared {
		m.logger.Debug("joined in-flight renewal", slog.String("trigger", trigger))
	}

	return err
}

// ValidateOnStartup renews the durable credential, if there is one, so the
// session starts with a fresh token. A credential the server rejects or that
// cannot be decoded is discarded from every location. A transport failure
// leaves the durable copy in place for a later attempt. Any failure leaves
// the session logged out and sends the navigator to the login view.
func (m *Manager) ValidateOnStartup(ctx context.Context) error {
	token, err := m.persister.Load(ctx)
	if err != nil {
		m.logger.Warn("invalid token", slog.String("error", err.Error()))

		if errors.Is(err, kvstore.ErrCorrupt) {
			err = m.discard(ctx, err)
		} else {
			m.navigate(LoginPath)
		}

		return fmt.Errorf("auth: validating stored token: %w", err)
	}

	if token == "" {
		m.logger.Debug("no stored token")
		return nil
	}

	err = m.renew(ctx, token, metrics.TriggerStartup)
	if err == nil {
		return nil
	}

	m.logger.Warn("invalid token", slog.String("error", err.Error()))

	var authErr *AuthenticationError
	var decodeErr *TokenDecodeError

	if errors.As(err, &authErr) || errors.As(err, &decodeErr) {
		err = m.discard(ctx, err)
	} else {
		m.session.clear()
		m.navigate(LoginPath)
	}

	return fmt.Errorf("auth: validating stored token: %w", err)
}

// discard drops an unusable credential from every location and sends the
// navigator to the login view. It returns cause, joined with any failure to
// clear the store.
func (m *Manager) discard(ctx context.Context, cause error) error {
	if err := m.persister.Clear(ctx); err != nil {
		cause = errors.Join(cause, err)
	}

	m.session.clear()
	m.navigate(LoginPath)

	return cause
}

// Revoke ends the session: both persisted copies are cleared, the identity is
// dropped and the navigator is sent to the login view. Revoking a logged-out
// session is a no-op that yields the same end state.
func (m *Manager) Revoke(ctx context.Context) error {
	err := m.persister.Clear(ctx)

	m.session.clear()
	m.metrics.RecordRevocation()
	m.navigate(LoginPath)

	if err != nil {
		return fmt.Errorf("auth: revoke: %w", err)
	}

	m.logger.Info("session revoked")

	return nil
}

// RenewHint records that the server asked for the credential to be renewed.
// It never blocks; HandleRenewHint performs the renewal.
func (m *Manager) RenewHint() {
	if !m.hintPending.Swap(true) {
		m.logger.Debug("renewal requested by server")
	}
}

// HandleRenewHint renews the session credential if the server asked for it
// since the last call. It reports whether a renewal was attempted.
func (m *Manager) HandleRenewHint(ctx context.Context) (bool, error) {
	if !m.hintPending.Swap(false) {
		return false, nil
	}

	token, err := m.session.Token()
	if errors.Is(err, ErrNotLoggedIn) {
		return false, nil
	}

	return true, m.renew(ctx, token, metrics.TriggerHint)
}

// RenewIfExpiring renews the session credential when it expires within
// window, or carries no expiry at all. It reports whether a renewal was
// attempted.
func (m *Manager) RenewIfExpiring(ctx context.Context, window time.Duration) (bool, error) {
	token, err := m.session.Token()
	if err != nil {
		return false, err
	}

	if id := m.session.Identity(); id != nil && !id.ExpiresAt.IsZero() {
		if remaining := id.ExpiresAt.Sub(m.nowFunc()); remaining > window {
			m.logger.Debug("token not due for renewal", slog.Duration("remaining", remaining))
			return false, nil
		}
	}

	return true, m.renew(ctx, token, metrics.TriggerKeepalive)
}

// Follow adopts credential changes written to the durable store by other
// processes until ctx is done or changes is closed. A new token becomes the
// session identity; an empty one ends the session. Tokens that fail to
// decode are ignored.
func (m *Manager) Follow(ctx context.Context, changes <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case token, ok := <-changes:
			if !ok {
				return
			}

			m.adopt(ctx, token)
		}
	}
}

func (m *Manager) adopt(ctx context.Context, token string) {
	if token == "" {
		if !m.session.LoggedIn() {
			return
		}

		if err := m.persister.Clear(ctx); err != nil {
			m.logger.Warn("clearing token after external logout", slog.String("error", err.Error()))
		}

		m.session.clear()
		m.logger.Info("session ended by another process")
		m.navigate(LoginPath)

		return
	}

	if current, err := m.session.Token(); err == nil && current == token {
		return
	}

	claims, err := Decode(token)
	if err != nil {
		m.logger.Warn("ignoring undecodable token from store", slog.String("error", err.Error()))
		return
	}

	if err := m.persister.Save(ctx, token); err != nil {
		m.logger.Warn("mirroring external token", slog.String("error", err.Error()))
		return
	}

	identity := claims.Identity()
	m.session.set(token, identity)
	m.logger.Info("adopted token from another process", slog.String("username", identity.Username))
}

// accept turns an auth endpoint response into session state: decode, persist,
// then publish the identity.
func (m *Manager) accept(ctx context.Context, op string, resp *fbapi.Response) error {
	if resp.StatusCode != http.StatusOK {
		m.metrics.RecordAuthAttempt(op, metrics.ResultRejected)
		m.logger.Warn("server rejected credentials",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
		)

		return &AuthenticationError{StatusCode: resp.StatusCode, Message: string(resp.Body)}
	}

	token := strings.TrimSpace(string(resp.Body))

	claims, err := Decode(token)
	if err != nil {
		m.metrics.RecordAuthAttempt(op, metrics.ResultInvalidToken)
		return err
	}

	if err := m.persister.Save(ctx, token); err != nil {
		m.metrics.RecordAuthAttempt(op, metrics.ResultError)
		return err
	}

	identity := claims.Identity()
	m.session.set(token, identity)
	m.metrics.RecordAuthAttempt(op, metrics.ResultOK)

	m.logger.Info("session established",
		slog.String("op", op),
		slog.String("username", identity.Username),
		slog.Time("expires", identity.ExpiresAt),
	)

	return nil
}

func (m *Manager) postJSON(ctx context.Context, path string, payload any) (*fbapi.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	return m.client.Send(ctx, http.MethodPost, path,
		http.Header{"Content-Type": {"application/json"}}, bytes.NewReader(body))
}

func (m *Manager) navigate(path string) {
	if m.nav != nil {
		m.nav.Navigate(path)
	}
}
