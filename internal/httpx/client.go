// Package httpx issues single HTTP requests on behalf of the contents
// client. Each call produces exactly one outcome: a Result for an accepted
// response, an *HTTPError for a 4xx/5xx response, or the transport error
// itself when the request never completed.
package httpx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy controls optional retries for transient failures. The zero
// value disables retries entirely, which is what the contents client uses:
// one request, one outcome.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithHeaders assigns default headers added to every request.
func WithHeaders(h http.Header) Option {
	return func(c *Client) {
		for k, values := range h {
			for _, v := range values {
				c.headers.Add(k, v)
			}
		}
	}
}

// WithRetryPolicy enables retries for callers that want them.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) {
		c.retryPolicy = policy
	}
}

// WithLogger attaches a zap logger; requests are traced at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client executes requests against a fixed base URL.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	headers     http.Header
	retryPolicy RetryPolicy
	log         *zap.Logger
}

// Request describes one outbound request. Path may carry a query string;
// both are taken as already encoded.
type Request struct {
	Method      string
	Path        string
	Header      http.Header
	ContentType string
	Body        []byte
}

// Result is the success outcome of a request: the response status, status
// text, headers, and fully-read body.
type Result struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// NewClient creates a Client for the provided base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("httpx: base URL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("httpx: invalid base URL: %w", err)
	}

	c := &Client{
		baseURL: parsed,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: make(http.Header),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retryPolicy.MaxRetries < 0 {
		c.retryPolicy.MaxRetries = 0
	}
	return c, nil
}

// BaseURL returns the configured base URL string.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Do executes the request. Responses below 400 come back as a Result with
// the body drained and closed; responses of 400 and above come back as an
// *HTTPError carrying status, status text, and body.
func (c *Client) Do(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errors.New("httpx: request is nil")
	}
	if req.Method == "" {
		return nil, errors.New("httpx: HTTP method is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fullURL, err := c.buildURL(req.Path)
	if err != nil {
		return nil, err
	}

	attempt := 0
	for {
		result, err := c.doOnce(ctx, req, fullURL)
		if err == nil {
			return result, nil
		}
		if !c.shouldRetry(attempt, err) {
			return nil, err
		}
		delay := c.retryPolicy.delayFor(attempt)
		attempt++
		c.log.Debug("retrying request",
			zap.String("method", req.Method),
			zap.String("url", fullURL),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *Client) doOnce(ctx context.Context, req *Request, fullURL string) (*Result, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header = c.headers.Clone()
	if httpReq.Header == nil {
		httpReq.Header = make(http.Header)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", zap.String("method", req.Method), zap.String("url", fullURL), zap.Error(err))
		return nil, err
	}

	payload, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("httpx: read response body: %w", err)
	}

	c.log.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("url", fullURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(payload)),
	)

	if resp.StatusCode >= 400 {
		return nil, newHTTPError(resp, payload)
	}
	return &Result{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header.Clone(),
		Body:       payload,
	}, nil
}

func (c *Client) buildURL(path string) (string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func (c *Client) shouldRetry(attempt int, err error) bool {
	if attempt >= c.retryPolicy.MaxRetries {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Retryable()
	}
	return true
}

func (p RetryPolicy) delayFor(attempt int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	ceiling := p.MaxDelay
	if ceiling <= 0 {
		ceiling = 2 * time.Second
	}

	delay := time.Duration(float64(base) * float64(uint(1)<<uint(attempt)))
	if delay <= 0 || delay > ceiling {
		delay = ceiling
	}
	if p.Jitter > 0 {
		factor := 1 + (rand.Float64()*2-1)*math.Min(p.Jitter, 1)
		if factor < 0 {
			factor = 0
		}
		delay = time.Duration(float64(delay) * factor)
	}
	return delay
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
