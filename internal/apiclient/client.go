// Package apiclient talks to the LifeLine REST backend. Every request from a
// session-bound client carries the session's bearer token, and every 401 from
// a backend-owned endpoint revokes the session.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"golang.org/x/oauth2"
)

var logger = loggo.GetLogger("lifeline.apiclient")

const (
	// DefaultTimeout bounds every backend call
	DefaultTimeout = 15 * time.Second

	maxBodySize = 1 << 20
)

// RevokeFunc is invoked once when the backend rejects the session token
type RevokeFunc func(ctx context.Context)

// Client is a JSON client for the LifeLine backend
type Client struct {
	baseURL *url.URL
	http    *http.Client
	metrics *Collector

	bearer    bool
	onRevoked RevokeFunc
	revoke    *sync.Once
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithMetrics records request counts and latency in m
func WithMetrics(m *Collector) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates an unauthenticated client for the backend at baseURL
func New(baseURL *url.URL, opts ...Option) *Client {
	u := *baseURL
	u.Path = strings.TrimRight(u.Path, "/")
	c := &Client{
		baseURL: &u,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithSession returns a copy of c that authenticates as token. onRevoked runs
// at most once, the first time a backend-owned endpoint answers 401.
func (c *Client) WithSession(token string, onRevoked RevokeFunc) *Client {
	cp := *c
	cp.http = &http.Client{
		Timeout: c.http.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   c.http.Transport,
		},
	}
	cp.bearer = true
	cp.onRevoked = onRevoked
	cp.revoke = &sync.Once{}
	return &cp
}

// IsGoogleProxied reports whether path is forwarded to Google by the backend.
// A 401 from these endpoints reflects Google credentials, not the LifeLine session.
func IsGoogleProxied(path string) bool {
	return strings.Contains(path, "/drive") || strings.Contains(path, "/calendar")
}

// Do sends a JSON request. in and out may be nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, path, out)
}

// Upload sends r as a single multipart file field
func (c *Client) Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve(path, nil), &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.send(req, path, out)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = c.baseURL.Path + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) send(req *http.Request, path string, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(req.Method, path, 0, time.Since(start))
		return fmt.Errorf("failed to call %s %s: %w", req.Method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.observe(req.Method, path, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("failed to read response of %s %s: %w", req.Method, path, err)
	}
	logger.Debugf("%s %s -> %d (%s)", req.Method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(raw),
			Path:       path,
		}
		if resp.StatusCode == http.StatusUnauthorized && c.bearer && !IsGoogleProxied(path) {
			c.revokeSession(req.Context(), path)
			return fmt.Errorf("%w: %w", ErrSessionRevoked, apiErr)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Annotatef(err, "decoding response of %s %s", req.Method, path)
	}
	return nil
}

func (c *Client) revokeSession(ctx context.Context, path string) {
	c.revoke.Do(func() {
		logger.Warningf("backend rejected session token on %s; logging out", path)
		if c.onRevoked != nil {
			c.onRevoked(context.WithoutCancel(ctx))
		}
	})
}
