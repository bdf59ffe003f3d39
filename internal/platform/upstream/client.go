package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxBytes = 5 << 20
	defaultBackoff  = time.Second
	maxRedirects    = 10
)

var (
	ErrBodyTooLarge     = errors.New("upstream: response body exceeds limit")
	ErrRedirectRejected = errors.New("upstream: redirect rejected")
)

// StatusError is returned for any non-2xx upstream response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d from %s", e.Code, e.URL)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

type Options struct {
	Timeout    time.Duration
	RPS        float64
	Burst      int
	MaxRetries int
	MaxBytes   int64
	Backoff    time.Duration
	UserAgents []string
}

// Client is the shared outbound HTTP client for feeds and cover images.
type Client struct {
	httpClient *http.Client
	agents     *UserAgentPool
	limiter    *HostLimiter
	maxRetries int
	maxBytes   int64
	backoff    time.Duration
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = defaultMaxBytes
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:       opts.Timeout,
			CheckRedirect: checkRedirect,
		},
		agents:     NewUserAgentPool(opts.UserAgents),
		limiter:    NewHostLimiter(opts.RPS, opts.Burst),
		maxRetries: opts.MaxRetries,
		maxBytes:   opts.MaxBytes,
		backoff:    opts.Backoff,
	}
}

// Response is a fully buffered upstream response.
type Response struct {
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

func (r *Response) ContentType() string {
	return r.Header.Get("Content-Type")
}

type requestConfig struct {
	header        http.Header
	retries       int
	maxBytes      int64
	redirectCheck func(*url.URL) error
}

type redirectCheckKey struct{}

// checkRedirect caps the hop count and runs the per-request check, if any,
// against every redirect target before it is dialled.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: stopped after %d redirects", ErrRedirectRejected, maxRedirects)
	}
	check, _ := req.Context().Value(redirectCheckKey{}).(func(*url.URL) error)
	if check == nil {
		return nil
	}
	if err := check(req.URL); err != nil {
		return fmt.Errorf("%w: %w", ErrRedirectRejected, err)
	}
	return nil
}

type RequestOption func(*requestConfig)

func WithReferer(referer string) RequestOption {
	return func(c *requestConfig) {
		if referer != "" {
			c.header.Set("Referer", referer)
		}
	}
}

func WithHeader(key, value string) RequestOption {
	return func(c *requestConfig) {
		c.header.Set(key, value)
	}
}

// WithRetries overrides the client's retry budget for a single call.
func WithRetries(n int) RequestOption {
	return func(c *requestConfig) {
		if n >= 0 {
			c.retries = n
		}
	}
}

func WithMaxBytes(n int64) RequestOption {
	return func(c *requestConfig) {
		if n > 0 {
			c.maxBytes = n
		}
	}
}

// WithRedirectCheck validates each redirect target. A non-nil error aborts
// the request without following the hop.
func WithRedirectCheck(check func(*url.URL) error) RequestOption {
	return func(c *requestConfig) {
		c.redirectCheck = check
	}
}

// Get fetches rawURL, retrying transport errors, 429 and 5xx with exponential backoff.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	cfg := requestConfig{
		header:   make(http.Header),
		retries:  c.maxRetries,
		maxBytes: c.maxBytes,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var lastErr error
	for i := 0; i <= cfg.retries; i++ {
		if i > 0 {
			// Backoff: base, 2*base, 4*base...
			wait := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		resp, err := c.do(ctx, rawURL, cfg)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return resp, err
		}
		if errors.Is(err, ErrBodyTooLarge) || errors.Is(err, ErrRedirectRejected) || ctx.Err() != nil {
			return resp, err
		}
	}
	if cfg.retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("after %d retries: %w", cfg.retries, lastErr)
}

func (c *Client) do(ctx context.Context, rawURL string, cfg requestConfig) (*Response, error) {
	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}
	if cfg.redirectCheck != nil {
		ctx = context.WithValue(ctx, redirectCheckKey{}, cfg.redirectCheck)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.agents.Next())
	for key, values := range cfg.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out := &Response{
		URL:    rawURL,
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return out, &StatusError{URL: rawURL, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > cfg.maxBytes {
		return nil, ErrBodyTooLarge
	}
	out.Body = body
	return out, nil
}
