// Package wordpress adapts the WordPress REST API (wp/v2) to portal.Provider.
//
// Posts map to articles, categories and users map directly, and the extra
// article fields (views, breaking flag, video, SEO) travel as registered post
// meta. Listing totals come from the X-WP-Total header.
package wordpress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/restclient"
)

// Name is the provider kind served by this package
const Name = "wordpress"

// APIPrefix is the path of the core REST namespace
const APIPrefix = "/wp-json/wp/v2"

// MaxPerPage is the largest page size WordPress accepts
const MaxPerPage = 100

// Auth methods accepted in Config.AuthMethod
const (
	AuthBearer = "bearer"
	AuthBasic  = "basic"
)

// Config holds the connection parameters for a WordPress site
type Config struct {
	BaseURL    string
	APIKey     string
	AuthMethod string
	// Username pairs with APIKey as an application password for basic auth
	Username string
	// TrendingOrderBy is the orderby value used for trending articles, e.g.
	// comment_count on sites that allow it. Empty falls back to date.
	TrendingOrderBy string
}

// Provider implements portal.Provider against a WordPress site
type Provider struct {
	client          *restclient.Client
	logger          *slog.Logger
	editContext     bool
	trendingOrderBy string

	// catMu guards catIDs. Category writes hold it until the cache is
	// cleared so no lookup can observe a stale id.
	catMu  sync.Mutex
	catIDs map[string]int
}

var _ portal.Provider = (*Provider)(nil)

// Option is a functional option for configuring the provider
type Option func(*options)

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets the logger for request failures and degraded queries
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a WordPress provider
func New(config Config, opts ...Option) (*Provider, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	client, err := newClient(config, o)
	if err != nil {
		return nil, err
	}
	return &Provider{
		client:          client,
		logger:          o.logger,
		editContext:     config.APIKey != "",
		trendingOrderBy: config.TrendingOrderBy,
		catIDs:          make(map[string]int),
	}, nil
}

// NewClient builds the authenticated REST client New uses, for packages that
// talk to other endpoints of the same site.
func NewClient(config Config, opts ...Option) (*restclient.Client, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return newClient(config, o)
}

func newClient(config Config, o *options) (*restclient.Client, error) {
	var auth restclient.Auth
	switch strings.ToLower(config.AuthMethod) {
	case "", AuthBearer:
		auth = restclient.Bearer(config.APIKey)
	case AuthBasic:
		if config.Username == "" {
			return nil, &portal.ValidationError{Field: "username", Reason: "is required for basic auth"}
		}
		auth = restclient.Basic(config.Username, config.APIKey)
	default:
		return nil, &portal.ValidationError{Field: "auth_method", Reason: "must be bearer or basic"}
	}

	clientOpts := []restclient.Option{
		restclient.WithAuth(auth),
		restclient.WithLogger(o.logger),
		restclient.WithExpectedErrors(CodeInvalidPage, CodeTermExists),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, restclient.WithHTTPClient(o.httpClient))
	}
	return restclient.New(Name, config.BaseURL, clientOpts...)
}

// Name returns the provider kind
func (p *Provider) Name() string {
	return Name
}

// BaseURL returns the site the provider talks to
func (p *Provider) BaseURL() string {
	return p.client.BaseURL()
}

// TestConnection checks the credentials against /users/me, or the public
// post index when no credentials are configured.
func (p *Provider) TestConnection(ctx context.Context) error {
	if p.editContext {
		_, err := p.client.Get(ctx, "test connection", APIPrefix+"/users/me", url.Values{"context": {"edit"}}, nil)
		return err
	}
	_, err := p.client.Get(ctx, "test connection", APIPrefix+"/posts", url.Values{"per_page": {"1"}}, nil)
	return err
}

func (p *Provider) baseQuery() url.Values {
	q := url.Values{"_embed": {"1"}}
	if p.editContext {
		q.Set("context", "edit")
	}
	return q
}

// write issues a POST, tunnelling other verbs through X-HTTP-Method-Override
func (p *Provider) write(ctx context.Context, op, method, path string, query url.Values, body, out interface{}) error {
	req := restclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Query:  query,
		Body:   body,
	}
	if method != http.MethodPost {
		req.Header = http.Header{"X-HTTP-Method-Override": {method}}
	}
	_, err := p.client.Do(ctx, op, req, out)
	return err
}

// getOne fetches a single resource by numeric id; missing ids yield (false, nil)
func (p *Provider) getOne(ctx context.Context, op, collection, id string, out interface{}) (bool, error) {
	if _, ok := parseID(id); !ok {
		return false, nil
	}
	_, err := p.client.Get(ctx, op, APIPrefix+"/"+collection+"/"+id, p.baseQuery(), out)
	if portal.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// remove force-deletes a resource. WordPress answers 404 for an id that is
// already gone, which surfaces as portal.ErrNotFound.
func (p *Provider) remove(ctx context.Context, op, collection, id string, extra url.Values) error {
	if _, ok := parseID(id); !ok {
		return portal.NotFound(Name, op, id)
	}
	q := url.Values{"force": {"true"}}
	for k, v := range extra {
		q[k] = v
	}
	return p.write(ctx, op, http.MethodDelete, APIPrefix+"/"+collection+"/"+id, q, nil, nil)
}

func parseID(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatID(id int) string {
	if id == 0 {
		return ""
	}
	return strconv.Itoa(id)
}

// totalFromHeader reads X-WP-Total, falling back to the returned item count
func totalFromHeader(h http.Header, fallback int) int {
	if h == nil {
		return fallback
	}
	raw := h.Get("X-WP-Total")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func totalPagesFromHeader(h http.Header) int {
	if h == nil {
		return 0
	}
	n, _ := strconv.Atoi(h.Get("X-WP-TotalPages"))
	return n
}

// WordPress error codes the adapters recover from
const (
	CodeInvalidPage = "rest_post_invalid_page_number"
	CodeTermExists  = "term_exists"
)

// IsErrorCode reports whether err is a WordPress 400 response carrying code
func IsErrorCode(err error, code string) bool {
	var perr *portal.ProviderError
	return errors.As(err, &perr) && perr.Status == http.StatusBadRequest && perr.Code == code
}

func perPage(limit int) int {
	if limit <= 0 {
		limit = portal.DefaultLimit
	}
	if limit > MaxPerPage {
		limit = MaxPerPage
	}
	return limit
}

func conflict(op, slug string, cause error) error {
	return &portal.ProviderError{
		Provider: Name,
		Op:       op,
		Status:   http.StatusBadRequest,
		Err:      fmt.Errorf("%w: %s: %v", portal.ErrSlugConflict, slug, cause),
	}
}
