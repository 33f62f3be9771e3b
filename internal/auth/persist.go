package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"

	"github.com/tonimelisma/filebrowser-go/internal/kvstore"
)

// Persisted names of the credential.
const (
	CookieName = "auth"
	StoreKey   = "jwt"
)

// Persister keeps the persisted copies of the credential. Save and Clear
// update every copy together.
type Persister interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// NewCookieJar returns an in-memory cookie jar that honors the public suffix
// list.
func NewCookieJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("auth: creating cookie jar: %w", err)
	}

	return jar, nil
}

// CookieWriter sets the auth cookie for the server origin in a jar. The same
// jar is installed on HTTP clients that stream or download content, which
// authenticate by cookie instead of header.
type CookieWriter struct {
	jar    http.CookieJar
	server *url.URL
}

// NewCookieWriter scopes cookie writes in jar to serverURL.
func NewCookieWriter(jar http.CookieJar, serverURL string) (*CookieWriter, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing server URL: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("auth: server URL %q must be absolute", serverURL)
	}

	return &CookieWriter{jar: jar, server: u}, nil
}

// Set stores token as the auth cookie.
func (w *CookieWriter) Set(token string) {
	w.jar.SetCookies(w.server, []*http.Cookie{{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		SameSite: http.SameSiteStrictMode,
	}})
}

// Clear expires the auth cookie immediately.
func (w *CookieWriter) Clear() {
	w.jar.SetCookies(w.server, []*http.Cookie{{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		SameSite: http.SameSiteStrictMode,
	}})
}

// Value returns the auth cookie the jar would send to the server, or "".
func (w *CookieWriter) Value() string {
	for _, c := range w.jar.Cookies(w.server) {
		if c.Name == CookieName {
			return c.Value
		}
	}

	return ""
}

// DualPersister writes the credential to the durable store and the cookie jar.
// The durable store is written first; if it fails the cookie is left alone so
// the two copies never diverge.
type DualPersister struct {
	store   kvstore.Store
	cookies *CookieWriter
}

// NewDualPersister pairs a durable store with a cookie writer.
func NewDualPersister(store kvstore.Store, cookies *CookieWriter) *DualPersister {
	return &DualPersister{store: store, cookies: cookies}
}

// Load returns the durable credential, or "" when none is stored.
func (p *DualPersister) Load(ctx context.Context) (string, error) {
	token, err := p.store.Get(ctx, StoreKey)
	if err != nil {
		return "", fmt.Errorf("auth: loading token: %w", err)
	}

	return token, nil
}

// Save persists token to both locations.
func (p *DualPersister) Save(ctx context.Context, token string) error {
	if err := p.store.Set(ctx, StoreKey, token); err != nil {
		return fmt.Errorf("auth: saving token: %w", err)
	}

	p.cookies.Set(token)

	return nil
}

// Clear empties the durable entry (it is kept, set to "") and expires the
// cookie.
func (p *DualPersister) Clear(ctx context.Context) error {
	if err := p.store.Set(ctx, StoreKey, ""); err != nil {
		return fmt.Errorf("auth: clearing token: %w", err)
	}

	p.cookies.Clear()

	return nil
}
