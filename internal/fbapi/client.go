package fbapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Retry and backoff constants.
const (
	defaultMaxRetries = 3
	baseBackoff       = 1 * time.Second
	maxBackoff        = 30 * time.Second
	backoffFactor     = 2.0
	jitterFraction    = 0.25
	defaultUserAgent  = "filebrowser-go/0.1"
)

// Header names exchanged with the server.
const (
	HeaderAuth       = "X-Auth"
	HeaderRenewToken = "X-Renew-Token"
)

// TokenSource provides the credential attached to authenticated requests.
// Defined at the consumer per "accept interfaces, return structs".
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the File Browser API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string
	maxRetries int

	hintMu      sync.RWMutex
	onRenewHint func()

	// sleepFunc is called to wait between retries. Defaults to timeSleep.
	// Tests override this to avoid real delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// Option configures a Client.
type Option func(*Client)

// WithMaxRetries sets how many times Do retries transport failures and
// retryable statuses.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithUserAgent overrides the User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a File Browser API client. baseURL is the server root
// without a trailing slash, e.g. "https://files.example.com".
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  defaultUserAgent,
		maxRetries: defaultMaxRetries,
		sleepFunc:  timeSleep,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// OnRenewHint registers fn to be called whenever the server marks a response
// with X-Renew-Token: true. fn runs on the requesting goroutine and must not
// block for long.
func (c *Client) OnRenewHint(fn func()) {
	c.hintMu.Lock()
	defer c.hintMu.Unlock()

	c.onRenewHint = fn
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	StatusText string
	Header     http.Header
	Body       []byte
}

// Send performs a single request without retry or credential attachment and
// returns the complete response whatever its status. Callers that need the
// raw status (login, signup, renew) use Send; everything else uses Do.
func (c *Client) Send(ctx context.Context, method, path string, header http.Header, body io.Reader) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("fbapi: creating request: %w", err)
	}

	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fbapi: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fbapi: reading %s %s response: %w", method, path, err)
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// Do executes an authenticated request. The path is appended to the base
// URL and body, when non-nil, is sent as JSON on every attempt. Transport
// errors and retryable statuses are retried with exponential backoff; other
// non-2xx statuses return *APIError. A credential the TokenSource cannot
// provide fails immediately. The caller closes the response body on success.
func (c *Client) Do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	url := c.baseURL + path

	var attempt int
	for {
		tok, err := c.credential()
		if err != nil {
			return nil, fmt.Errorf("fbapi: %s %s: %w", method, path, err)
		}

		resp, err := c.doOnce(ctx, method, url, tok, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("fbapi: request canceled: %w", ctx.Err())
			}

			if attempt < c.maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("fbapi: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return nil, fmt.Errorf("fbapi: %s %s failed after %d retries: %w", method, path, attempt, err)
		}

		c.checkRenewHint(resp)

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		errBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < c.maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("fbapi: request canceled: %w", err)
			}

			attempt++

			continue
		}

		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(errBody),
			Err:        classifyStatus(resp.StatusCode),
		}
	}
}

// credential returns the token to attach, or "" when the client has no
// TokenSource.
func (c *Client) credential() (string, error) {
	if c.token == nil {
		return "", nil
	}

	tok, err := c.token.Token()
	if err != nil {
		return "", fmt.Errorf("obtaining token: %w", err)
	}

	return tok, nil
}

// doOnce executes a single HTTP request (no retry). The body is re-read
// from the start on each call.
func (c *Client) doOnce(ctx context.Context, method, url, tok string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if tok != "" {
		req.Header.Set(HeaderAuth, tok)
	}

	req.Header.Set("User-Agent", c.userAgent)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

// checkRenewHint fires the renew hint callback when the server asks for it.
func (c *Client) checkRenewHint(resp *http.Response) {
	if resp.Header.Get(HeaderRenewToken) != "true" {
		return
	}

	c.hintMu.RLock()
	fn := c.onRenewHint
	c.hintMu.RUnlock()

	if fn == nil {
		return
	}

	c.logger.Debug("server requested token renewal")
	fn()
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
