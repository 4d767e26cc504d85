// Package confluence talks to the Confluence Cloud REST API. A Client holds
// the transport and credentials; a Session binds it to one space and
// implements interfaces.PageDirectory.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-wikisync/internal/logging"
	"github.com/goliatone/go-wikisync/pkg/interfaces"
)

const (
	defaultCacheSize = 1024
	userAgent        = "go-wikisync"
)

// Config holds the connection settings for a Client.
type Config struct {
	BaseURL   string
	Username  string
	APIToken  string
	// Timeout bounds each request. Zero means no client timeout.
	Timeout   time.Duration
	CacheSize int
}

// Observer receives one callback per remote call. The metrics recorder
// implements it.
type Observer interface {
	ObserveCall(operation string, status int, duration time.Duration)
}

// Client performs authenticated requests against one Confluence site.
type Client struct {
	baseURL    *url.URL
	username   string
	apiToken   string
	httpClient *http.Client
	logger     interfaces.Logger
	observer   Observer
	strategies []RestrictionStrategy
	cacheSize  int
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers a call observer.
func WithObserver(observer Observer) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithRestrictionStrategies overrides the ordered restriction strategies.
func WithRestrictionStrategies(strategies ...RestrictionStrategy) Option {
	return func(c *Client) {
		if len(strategies) > 0 {
			c.strategies = append([]RestrictionStrategy(nil), strategies...)
		}
	}
}

// NewClient validates cfg and builds a client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, ErrMissingBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("confluence: parse base url: %w", err)
	}

	cacheSize := cfg.CacheSize
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}

	c := &Client{
		baseURL:    base,
		username:   cfg.Username,
		apiToken:   cfg.APIToken,
		httpClient: &http.Client{Timeout: max(cfg.Timeout, 0)},
		logger:     logging.NoOp(),
		strategies: DefaultRestrictionStrategies(),
		cacheSize:  cacheSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request is one REST call. Path is relative to the site root.
type Request struct {
	Operation   string
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     io.Reader
	ContentType string
	Header      http.Header
}

// resolve joins an escaped request path onto the base URL.
func (c *Client) resolve(path string, query url.Values) string {
	escaped := strings.TrimLeft(path, "/")
	ref := &url.URL{Path: escaped}
	if unescaped, err := url.PathUnescape(escaped); err == nil {
		ref = &url.URL{Path: unescaped, RawPath: escaped}
	}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	return c.baseURL.ResolveReference(ref).String()
}

// resolveLink resolves a pagination link returned by the API. Links are
// absolute paths starting at /wiki.
func (c *Client) resolveLink(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("confluence: parse link %q: %w", link, err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}
	ref.Path = strings.TrimLeft(ref.Path, "/")
	return c.baseURL.ResolveReference(ref).String(), nil
}

// do executes req and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, req Request, out any) error {
	return c.doURL(ctx, req, c.resolve(req.Path, req.Query), out)
}

func (c *Client) doURL(ctx context.Context, req Request, target string, out any) error {
	var body io.Reader = req.RawBody
	contentType := req.ContentType
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("confluence: encode %s body: %w", req.Operation, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return fmt.Errorf("confluence: build %s request: %w", req.Operation, err)
	}
	httpReq.SetBasicAuth(c.username, c.apiToken)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Operation, 0, started)
		return wrapTransportError(err, req.Method, req.Path)
	}
	defer resp.Body.Close()
	c.observe(req.Operation, resp.StatusCode, started)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		apiErr := &APIError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   truncateBody(raw),
		}
		c.logger.WithContext(ctx).Debug("confluence.request.failed",
			"operation", req.Operation,
			"status", resp.StatusCode,
			"response", apiErr.Body,
		)
		return wrapAPIError(apiErr)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("confluence: decode %s response: %w", req.Operation, err)
	}
	return nil
}

func (c *Client) observe(operation string, status int, started time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveCall(operation, status, time.Since(started))
}
