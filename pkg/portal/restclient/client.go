// Package restclient is the HTTP plumbing shared by the REST content adapters.
// It owns authentication, JSON encoding and the mapping of HTTP failures onto
// the portal error taxonomy.
package restclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
)

// maxErrorBody caps how much of a failed response body is kept in the error
const maxErrorBody = 512

// Auth decorates an outgoing request with credentials
type Auth func(*http.Request)

// Bearer authenticates with an API token
func Bearer(token string) Auth {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// Basic authenticates with a username and password (or application password)
func Basic(username, password string) Auth {
	return func(r *http.Request) {
		creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		r.Header.Set("Authorization", "Basic "+creds)
	}
}

// Client issues requests against one backend base URL
type Client struct {
	provider   string
	baseURL    *url.URL
	httpClient *http.Client
	auth       Auth
	logger     *slog.Logger
	expected   map[string]bool
}

// Option is a functional option for configuring a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithAuth sets the credential decorator
func WithAuth(auth Auth) Option {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithLogger sets the logger used for failed requests
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithExpectedErrors names backend error codes the adapter recovers from.
// Responses carrying them are logged at debug instead of error.
func WithExpectedErrors(codes ...string) Option {
	return func(c *Client) {
		if c.expected == nil {
			c.expected = map[string]bool{}
		}
		for _, code := range codes {
			c.expected[code] = true
		}
	}
}

// New creates a client for the backend at baseURL. provider names the
// adapter in errors and logs.
func New(provider, baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, &portal.ValidationError{Field: "baseUrl", Reason: "is required"}
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &portal.ValidationError{Field: "baseUrl", Reason: "must be an absolute URL"}
	}

	c := &Client{
		provider: provider,
		baseURL:  u,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured base URL without a trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Provider returns the adapter name used in errors
func (c *Client) Provider() string {
	return c.provider
}

// Logger returns the logger the client reports failures to
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// ResolveURL makes a possibly relative asset reference absolute against the
// base URL. Empty input stays empty.
func (c *Client) ResolveURL(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	return c.baseURL.ResolveReference(u).String()
}

// Request describes one call. Body is JSON-encoded unless RawBody is set.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Header      http.Header
	Body        interface{}
	RawBody     io.Reader
	ContentType string
}

// Get issues a GET and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, op, path string, query url.Values, out interface{}) (http.Header, error) {
	return c.Do(ctx, op, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Do executes req and decodes a JSON response into out when out is non-nil.
// Failures come back as *portal.ProviderError wrapping ErrUnauthorized,
// ErrNotFound or ErrTransport.
func (c *Client) Do(ctx context.Context, op string, req Request, out interface{}) (http.Header, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, c.transportError(op, 0, err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return resp.Header, c.statusError(op, httpReq, resp.StatusCode, body)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.Header, c.transportError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
		}
	}
	return resp.Header, nil
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	target := c.baseURL.String() + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	contentType := req.ContentType
	switch {
	case req.RawBody != nil:
		body = req.RawBody
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if c.auth != nil {
		c.auth(httpReq)
	}
	return httpReq, nil
}

func (c *Client) statusError(op string, req *http.Request, status int, body []byte) error {
	var sentinel error
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		sentinel = portal.ErrUnauthorized
	case status == http.StatusNotFound:
		sentinel = portal.ErrNotFound
	default:
		sentinel = portal.ErrTransport
	}

	detail := strings.TrimSpace(string(body))
	code := errorCode(body)
	if sentinel == portal.ErrNotFound || c.expected[code] {
		c.logger.Debug("backend returned expected error",
			"provider", c.provider,
			"op", op,
			"url", req.URL.Path,
			"status", status,
			"code", code)
	} else {
		c.logger.Error("backend request failed",
			"provider", c.provider,
			"op", op,
			"method", req.Method,
			"url", req.URL.Path,
			"status", status,
			"body", detail)
	}

	err := fmt.Errorf("%w", sentinel)
	if detail != "" {
		err = fmt.Errorf("%w: %s", sentinel, detail)
	}
	return &portal.ProviderError{
		Provider: c.provider,
		Op:       op,
		Status:   status,
		Code:     code,
		Err:      err,
	}
}

// errorBody covers the WordPress ({"code": ...}) and Strapi
// ({"error": {"name": ...}}) error envelopes.
type errorBody struct {
	Code  string          `json:"code"`
	Error json.RawMessage `json:"error"`
}

func errorCode(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Code != "" {
		return eb.Code
	}
	var nested struct {
		Name string `json:"name"`
	}
	if len(eb.Error) > 0 && json.Unmarshal(eb.Error, &nested) == nil {
		return nested.Name
	}
	return ""
}

func (c *Client) transportError(op string, status int, cause error) error {
	c.logger.Error("backend transport failure", "provider", c.provider, "op", op, "error", cause)
	return &portal.ProviderError{
		Provider: c.provider,
		Op:       op,
		Status:   status,
		Err:      fmt.Errorf("%w: %v", portal.ErrTransport, cause),
	}
}
