package confluence

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"confclient/pkg/logger"
	"confclient/pkg/version"
)

const (
	apiPath = "/rest/api"

	// DefaultTimeout bounds every request issued by the client.
	DefaultTimeout = 10 * time.Second
	// DefaultPageSize is the limit sent when listing content.
	DefaultPageSize = 25
)

// Client talks to the Confluence REST API over a single authenticated
// session. It is safe for sequential use; callers needing concurrency should
// serialize access or create one client per goroutine.
type Client struct {
	apiBaseURL string
	username   string
	apiToken   string
	client     *http.Client
	timeout    time.Duration
	pageSize   int
	insecure   bool
	userAgent  string
	logger     *logger.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize overrides DefaultPageSize for listings.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithInsecureSkipVerify disables TLS certificate verification for this
// client only. New rejects it in combination with WithHTTPClient, whose
// transport the client does not own.
func WithInsecureSkipVerify(insecure bool) Option {
	return func(c *Client) {
		c.insecure = insecure
	}
}

// WithHTTPClient replaces the session's underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.logger = log
		}
	}
}

// New builds a client rooted at baseURL + "/rest/api". It only fails when the
// base URL cannot be used to build a session.
func New(baseURL, username, apiToken string, opts ...Option) (*Client, error) {
	root, err := apiRoot(baseURL)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiBaseURL: root,
		username:   username,
		apiToken:   apiToken,
		timeout:    DefaultTimeout,
		pageSize:   DefaultPageSize,
		userAgent:  version.Get().UserAgent(),
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.client == nil:
		c.client = newSession(c.insecure)
	case c.insecure:
		return nil, fmt.Errorf("%w: insecure TLS cannot be applied to a caller-supplied HTTP client; configure its transport instead", ErrInvalidConfig)
	}
	if c.insecure {
		c.logger.Warn("TLS certificate verification disabled for %s", root)
	}

	return c, nil
}

func apiRoot(baseURL string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", fmt.Errorf("%w: base URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base URL: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: base URL must use http or https, got %q", ErrInvalidConfig, baseURL)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: base URL has no host: %q", ErrInvalidConfig, baseURL)
	}
	return strings.TrimRight(baseURL, "/") + apiPath, nil
}

func newSession(insecure bool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // opt-in only
	}
	return &http.Client{Transport: transport}
}

// APIBaseURL returns the REST root every request is built from.
func (c *Client) APIBaseURL() string {
	return c.apiBaseURL
}

// do sends one request and decodes a successful JSON response into out.
// Non-2xx responses are returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.apiBaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.SetBasicAuth(c.username, c.apiToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	c.logger.Zerolog().Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("confluence request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp, respBody)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
