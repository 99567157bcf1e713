package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seplag/discoteca/internal/cache"
	"github.com/seplag/discoteca/internal/domain"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultMaxRetries = 2
	defaultBaseDelay  = 10 * time.Second
)

var (
	_ domain.ArtistRepository   = (*Client)(nil)
	_ domain.AlbumRepository    = (*Client)(nil)
	_ domain.RegionalRepository = (*Client)(nil)
	_ domain.AuthRepository     = (*Client)(nil)
)

// Endpoints whose 401 means bad input rather than an expired session
var authEndpoints = []string{"/auth/login", "/auth/register", "/auth/refresh"}

// TokenStore holds the session tokens used to authenticate requests
type TokenStore interface {
	AccessToken() string
	RefreshToken() string
	SaveTokens(access, refresh string) error
	Clear() error
}

// Options configures a Client
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int           // Retries after a 429; zero uses the default, negative disables
	BaseDelay  time.Duration // 429 delay when the response has no Retry-After
	CacheTTL   time.Duration // Freshness of CachedGet entries

	HTTPClient *http.Client
	Notifier   domain.Notifier

	// Sleep waits between rate-limit retries. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client is the single path for REST traffic to the catalog backend.
// It attaches credentials, refreshes an expired session once per request,
// and retries rate-limited calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	notifier   domain.Notifier
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	raw        *cache.Cache[[]byte]
	logger     *slog.Logger

	refreshMu sync.Mutex // one refresh at a time

	mu        sync.RWMutex
	onExpired func()
}

// NewClient creates a new API client
func NewClient(opts Options, tokens TokenStore, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	maxRetries := opts.MaxRetries
	switch {
	case maxRetries == 0:
		maxRetries = defaultMaxRetries
	case maxRetries < 0:
		maxRetries = 0
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = logNotifier{logger: logger}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		notifier:   notifier,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		sleep:      sleep,
		raw:        cache.New[[]byte](opts.CacheTTL),
		logger:     logger,
	}
}

// SetSessionExpiredHandler registers fn to run after a failed refresh has
// cleared the stored credentials.
func (c *Client) SetSessionExpiredHandler(fn func()) {
	c.mu.Lock()
	c.onExpired = fn
	c.mu.Unlock()
}

// BaseURL returns the configured REST base
func (c *Client) BaseURL() string {
	return c.baseURL
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        []byte
	contentType string
	token       string // overrides the stored access token; no refresh on 401
	retried     bool   // already replayed after a refresh
}

type response struct {
	status int
	header http.Header
	body   []byte
	token  string // access token the request was sent with
}

func newJSONRequest(method, path string, query url.Values, payload any) (*request, error) {
	req := &request{method: method, path: path, query: query}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		req.body = data
		req.contentType = "application/json"
	}
	return req, nil
}

// getJSON performs a GET and decodes the response into dest
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	return c.sendJSON(ctx, http.MethodGet, path, query, nil, dest)
}

// sendJSON encodes payload, performs the request and decodes into dest (if non-nil)
func (c *Client) sendJSON(ctx context.Context, method, path string, query url.Values, payload, dest any) error {
	req, err := newJSONRequest(method, path, query, payload)
	if err != nil {
		return err
	}
	body, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	return decode(body, dest)
}

func decode(body []byte, dest any) error {
	if dest == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// do runs req through the 401 and 429 policies and returns the body of a
// 2xx response.
func (c *Client) do(ctx context.Context, req *request) ([]byte, error) {
	rateRetries := 0
	for {
		resp, err := c.send(ctx, req)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.status >= 200 && resp.status < 300:
			return resp.body, nil

		case resp.status == http.StatusUnauthorized && !req.retried && req.token == "" && !isAuthEndpoint(req.path):
			req.retried = true
			if err := c.refreshSession(ctx, resp.token); err != nil {
				return nil, err
			}
			c.logger.Debug("replaying request after refresh", "method", req.method, "path", req.path)

		case resp.status == http.StatusTooManyRequests && rateRetries < c.maxRetries:
			rateRetries++
			delay := retryAfter(resp.header, c.baseDelay) * time.Duration(rateRetries)
			c.logger.Warn("rate limited, will retry",
				"path", req.path,
				"attempt", rateRetries,
				"maxRetries", c.maxRetries,
				"delay", delay,
			)
			c.notifier.Warn(fmt.Sprintf("Too many requests. Retrying in %ds (attempt %d/%d)",
				int(delay.Round(time.Second)/time.Second), rateRetries, c.maxRetries))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}

		case resp.status == http.StatusTooManyRequests:
			apiErr := newError(req, resp)
			apiErr.Surfaced = true
			c.logger.Error("rate limit retries exhausted", "path", req.path, "attempts", rateRetries+1)
			c.notifier.Error("Rate limit exceeded. Please wait a moment and try again.")
			return nil, apiErr

		default:
			apiErr := newError(req, resp)
			c.logger.Debug("request failed", "method", req.method, "path", req.path, "status", resp.status)
			return nil, apiErr
		}
	}
}

// send performs a single HTTP exchange
func (c *Client) send(ctx context.Context, req *request) (*response, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	reqURL := c.url(req.path, req.query)
	var body io.Reader
	if req.body != nil {
		body = bytes.NewReader(req.body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	token := req.token
	if token == "" {
		token = c.tokens.AccessToken()
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("api request", "method", req.method, "url", reqURL, "retried", req.retried)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.Error("api request failed", "error", err, "method", req.method, "path", req.path)
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return &response{status: resp.StatusCode, header: resp.Header, body: data, token: token}, nil
}

// refreshSession exchanges the refresh token for a new pair. staleToken is
// the access token the failed request carried; if another request already
// rotated it, the new one is reused without calling the backend again.
func (c *Client) refreshSession(ctx context.Context, staleToken string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.tokens.AccessToken(); current != "" && current != staleToken {
		return nil
	}

	refresh := c.tokens.RefreshToken()
	if refresh == "" {
		c.expireSession(domain.ErrNoRefreshToken)
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, domain.ErrNoRefreshToken)
	}

	auth, err := c.Refresh(ctx, refresh)
	if err != nil {
		c.expireSession(err)
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	if err := c.tokens.SaveTokens(auth.AccessToken, auth.RefreshToken); err != nil {
		c.expireSession(err)
		return fmt.Errorf("%w: %w", domain.ErrSessionExpired, err)
	}
	c.logger.Info("session refreshed")
	return nil
}

// Refresh calls /auth/refresh directly, outside the retry policies
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.AuthResponse, error) {
	req := &request{
		method:      http.MethodPost,
		path:        "/auth/refresh",
		body:        []byte("{}"),
		contentType: "application/json",
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.url(req.path, nil), bytes.NewReader(req.body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", req.contentType)
	httpReq.Header.Set("X-Request-ID", uuid.NewString())
	httpReq.Header.Set("Authorization", "Bearer "+refreshToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrServerOffline, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(req, &response{status: resp.StatusCode, header: resp.Header, body: body})
	}

	var auth domain.AuthResponse
	if err := decode(body, &auth); err != nil {
		return nil, err
	}
	if auth.AccessToken == "" {
		return nil, errors.New("refresh response has no access token")
	}
	return &auth, nil
}

func (c *Client) expireSession(cause error) {
	c.logger.Warn("session expired, clearing credentials", "error", cause)
	if err := c.tokens.Clear(); err != nil {
		c.logger.Error("failed to clear credentials", "error", err)
	}
	c.raw.Clear()

	c.mu.RLock()
	fn := c.onExpired
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// CachedGet performs a GET through a short-lived read-through cache keyed by
// key and decodes the body into dest.
func (c *Client) CachedGet(ctx context.Context, key, path string, query url.Values, dest any) error {
	body, hit, err := cache.Fetch(ctx, c.raw, key, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, &request{method: http.MethodGet, path: path, query: query})
	})
	if err != nil {
		return err
	}
	if hit {
		c.logger.Debug("cache hit", "key", key)
	}
	return decode(body, dest)
}

// InvalidateCached drops CachedGet entries whose key starts with prefix
func (c *Client) InvalidateCached(prefix string) {
	c.raw.DeletePrefix(prefix)
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func isAuthEndpoint(path string) bool {
	for _, p := range authEndpoints {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// retryAfter reads Retry-After as seconds or an HTTP date
func retryAfter(h http.Header, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return fallback
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// logNotifier is used when no UI notifier is wired
type logNotifier struct{ logger *slog.Logger }

func (n logNotifier) Info(msg string)  { n.logger.Info(msg) }
func (n logNotifier) Warn(msg string)  { n.logger.Warn(msg) }
func (n logNotifier) Error(msg string) { n.logger.Error(msg) }
