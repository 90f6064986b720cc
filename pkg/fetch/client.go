package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ffs-ui/ffs/pkg/buildinfo"
	"github.com/ffs-ui/ffs/pkg/cache"
	"github.com/ffs-ui/ffs/pkg/observability"
)

const (
	httpTimeout = 10 * time.Second

	defaultAttempts = 3
	defaultDelay    = time.Second

	// maxBodySize caps resource bodies; component bundles are small.
	maxBodySize = 8 << 20
)

var (
	// ErrNotFound is returned when a resource doesn't exist on the asset host.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors,
	// non-200 responses).
	ErrNetwork = errors.New("network error")

	// ErrTooLarge is returned for bodies over the size cap. Nothing is cached.
	ErrTooLarge = errors.New("resource too large")
)

// Client performs GET requests with caching, retry and default headers.
// It is safe for concurrent use.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
	maxBody  int64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRetry sets the retry budget. Tests use WithRetry(1, 0) to fail fast.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.delay = delay
	}
}

// WithKeyer sets the cache key scheme.
func WithKeyer(k cache.Keyer) Option {
	return func(c *Client) { c.keyer = k }
}

// NewClient creates a Client backed by the given cache. A nil cache
// disables caching. Headers are applied to all requests; a User-Agent is
// always set.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string, opts ...Option) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	h := map[string]string{"User-Agent": buildinfo.UserAgent()}
	for k, v := range headers {
		h[k] = v
	}
	client := &Client{
		http:     &http.Client{Timeout: httpTimeout},
		cache:    c,
		keyer:    cache.NewDefaultKeyer(),
		ttl:      ttl,
		headers:  h,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		maxBody:  maxBodySize,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Cached retrieves raw bytes from cache or executes fetch and caches the
// result. If refresh is true, the cache is bypassed and fetch is always
// called. Cache errors are treated as misses.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, fetch func() ([]byte, error)) ([]byte, error) {
	if !refresh {
		if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}

	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		var err error
		data, err = fetch()
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return data, nil
}

// GetBytes fetches rawURL and returns the body, using the resource cache.
func (c *Client) GetBytes(ctx context.Context, rawURL string) ([]byte, error) {
	return c.Cached(ctx, c.keyer.ResourceKey(rawURL), false, func() ([]byte, error) {
		return c.fetch(ctx, rawURL)
	})
}

// GetText fetches rawURL and returns the body as a string.
func (c *Client) GetText(ctx context.Context, rawURL string) (string, error) {
	data, err := c.GetBytes(ctx, rawURL)
	return string(data), err
}

// Get fetches rawURL and JSON-decodes the response into v.
// A body that does not decode is not cached.
func (c *Client) Get(ctx context.Context, rawURL string, v any) error {
	key := c.keyer.ResourceKey(rawURL)
	data, err := c.Cached(ctx, key, false, func() ([]byte, error) {
		body, err := c.fetch(ctx, rawURL)
		if err != nil {
			return nil, err
		}
		if !json.Valid(body) {
			return nil, fmt.Errorf("decode %s: invalid JSON", rawURL)
		}
		return body, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.cache.Delete(ctx, key)
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// Invalidate drops the cached body of rawURL.
func (c *Client) Invalidate(ctx context.Context, rawURL string) error {
	return c.cache.Delete(ctx, c.keyer.ResourceKey(rawURL))
}

func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	host, path := splitURL(rawURL)
	observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("%w: read %s: %v", ErrNetwork, rawURL, err)}
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("GET %s: %w", rawURL, ErrTooLarge)
	}
	return body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests, code >= 500:
		return &RetryableError{
			Err:   fmt.Errorf("%w: status %d", ErrNetwork, code),
			After: retryAfter(resp.Header),
		}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", rawURL
	}
	return u.Host, u.Path
}

func keyType(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
