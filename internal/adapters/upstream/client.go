// Package upstream is the REST client for the dashboard backend: paginated
// evaluation reports, week lookups, duplicate checks and login.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okian/perfboard/internal/session"
	"github.com/okian/perfboard/pkg/logger"
	"github.com/okian/perfboard/pkg/metrics"
)

// Client defaults.
const (
	defaultTimeout     = 10 * time.Second
	defaultPageSize    = 50
	defaultMaxPages    = 200
	defaultConcurrency = 4
	errorBodyLimit     = 4096
	errorBodyShown     = 512
)

// Client talks to the dashboard backend. It is safe for concurrent use.
type Client struct {
	base        *url.URL
	http        *http.Client
	timeout     time.Duration
	pageSize    int
	maxPages    int
	concurrency int
	log         logger.Logger
	metrics     *metrics.Manager
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: base url %q", ErrInvalidConfig, baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	c := &Client{
		base:        u,
		http:        &http.Client{},
		timeout:     defaultTimeout,
		pageSize:    defaultPageSize,
		maxPages:    defaultMaxPages,
		concurrency: defaultConcurrency,
		metrics:     metrics.Global(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Named("upstream")
	}
	return c, nil
}

// PageSize returns the default page size.
func (c *Client) PageSize() int { return c.pageSize }

// request performs one call and decodes a JSON body into out. Numbers are kept
// as json.Number when out is an interface value.
func (c *Client) request(ctx context.Context, sess session.Session, method, endpoint string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.base.JoinPath(endpoint)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream: encode %s body: %w", endpoint, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return fmt.Errorf("upstream: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth := sess.Authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}
	if id := logger.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamRequest(endpoint, 0, time.Since(start))
		c.metrics.RecordUpstreamError(endpoint, KindTransport)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	c.metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		c.metrics.RecordUpstreamError(endpoint, KindStatus)
		return &StatusError{Code: resp.StatusCode, Endpoint: endpoint, Body: truncate(strings.TrimSpace(string(raw)), errorBodyShown)}
	}

	if out == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.RecordUpstreamError(endpoint, KindTransport)
			return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, endpoint, ctxErr)
		}
		c.metrics.RecordUpstreamError(endpoint, KindMalformed)
		return fmt.Errorf("%w: %s: %w", ErrMalformed, endpoint, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, sess session.Session, endpoint string, query url.Values, out any) error {
	return c.request(ctx, sess, http.MethodGet, endpoint, query, nil, out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsCanceled reports whether err came from the caller's context ending.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
