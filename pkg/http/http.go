// Package http is the outgoing HTTP client for webhooks. It retries
// transport failures and 5xx answers with doubling backoff.
//
//	c := http.NewClient(http.WithRetry(3, 500*time.Millisecond))
//	resp, err := c.PostJSON(ctx, webhookURL, payload)
//	if err == nil {
//	    err = resp.Err()
//	}
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	gohttp "net/http"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// maxBody caps how much of a response is kept.
const maxBody = 1 << 20

var sharedTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        50,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
}

// Client sends requests with a per-attempt timeout and a retry policy.
type Client struct {
	doer     *gohttp.Client
	timeout  time.Duration
	attempts int
	backoff  time.Duration
	header   gohttp.Header
}

type Option func(*Client)

// WithRetry sets total attempts (1 means no retry) and the first backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = max(attempts, 1)
		c.backoff = backoff
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.header.Set(key, value) }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		doer:     &gohttp.Client{Transport: sharedTransport},
		timeout:  10 * time.Second,
		attempts: 1,
		backoff:  500 * time.Millisecond,
		header:   gohttp.Header{"Accept": []string{"application/json"}},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, gohttp.MethodGet, url, "", nil)
}

// PostJSON sends v marshalled as JSON.
func (c *Client) PostJSON(ctx context.Context, url string, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("http: marshal body: %w", err)
	}
	return c.Do(ctx, gohttp.MethodPost, url, "application/json", body)
}

// Do runs the request under the retry policy. When every attempt ends in a
// 5xx the last response is returned with a nil error; transport failures on
// every attempt return an error.
func (c *Client) Do(ctx context.Context, method, url, contentType string, body []byte) (*Response, error) {
	log := logger.WithCtx(ctx)
	wait := c.backoff
	var lastErr error
	for attempt := 1; ; attempt++ {
		resp, err := c.once(ctx, method, url, contentType, body)
		final := attempt >= c.attempts
		switch {
		case err == nil && (resp.Status < 500 || final):
			return resp, nil
		case err == nil:
			lastErr = fmt.Errorf("http: %s %s answered %d", method, url, resp.Status)
		default:
			lastErr = err
		}
		if final {
			return nil, fmt.Errorf("http: %s %s failed after %d attempts: %w", method, url, attempt, lastErr)
		}

		log.Warn("http: retrying", "url", url, "attempt", attempt, "backoff", wait, "error", lastErr)
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		wait *= 2
	}
}

func (c *Client) once(ctx context.Context, method, url, contentType string, body []byte) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := gohttp.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}
	req.Header = c.header.Clone()
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	res, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: data}, nil
}

// Response is a fully read answer, body capped at 1MB.
type Response struct {
	Status int
	Header gohttp.Header
	Body   []byte
}

// Err is nil for 2xx and describes the failure otherwise.
func (r *Response) Err() error {
	if r.Status >= 200 && r.Status < 300 {
		return nil
	}
	snippet := r.Body
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	return fmt.Errorf("http: status %d: %s", r.Status, bytes.TrimSpace(snippet))
}

// Decode unmarshals a JSON body into dest.
func (r *Response) Decode(dest any) error {
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}
