// Package strapi adapts a Strapi v4 REST API to portal.Provider.
//
// Collection types articles, categories, authors and tags plus the setting
// single type are expected; files go through the upload plugin. Every entry
// arrives as {id, attributes} and relations as {data: null|entry|[entry]}.
package strapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/restclient"
)

// Name is the provider kind served by this package
const Name = "strapi"

// MaxPageSize is the largest pagination[pageSize] Strapi accepts by default
const MaxPageSize = 100

// Config holds the connection parameters for a Strapi instance
type Config struct {
	BaseURL string
	APIKey  string
}

// Provider implements portal.Provider against Strapi
type Provider struct {
	client *restclient.Client
	logger *slog.Logger
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

// WithLogger sets the logger for request failures
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Strapi provider authenticated with an API token
func New(config Config, opts ...Option) (*Provider, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	client, err := newClient(config, o)
	if err != nil {
		return nil, err
	}
	return &Provider{client: client, logger: o.logger}, nil
}

// NewClient builds the token-authenticated REST client New uses, for
// packages that read other collection types of the same instance.
func NewClient(config Config, opts ...Option) (*restclient.Client, error) {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return newClient(config, o)
}

func newClient(config Config, o *options) (*restclient.Client, error) {
	clientOpts := []restclient.Option{
		restclient.WithAuth(restclient.Bearer(config.APIKey)),
		restclient.WithLogger(o.logger),
	}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, restclient.WithHTTPClient(o.httpClient))
	}
	return restclient.New(Name, config.BaseURL, clientOpts...)
}

func (p *Provider) Name() string {
	return Name
}

// BaseURL returns the instance the provider talks to
func (p *Provider) BaseURL() string {
	return p.client.BaseURL()
}

// TestConnection reads one article with the configured token
func (p *Provider) TestConnection(ctx context.Context) error {
	q := url.Values{"pagination[pageSize]": {"1"}}
	_, err := p.client.Get(ctx, "test connection", "/api/articles", q, nil)
	return err
}

// entry is the {id, attributes} envelope around every Strapi record
type entry[T any] struct {
	ID         int `json:"id"`
	Attributes T   `json:"attributes"`
}

type single[T any] struct {
	Data *entry[T] `json:"data"`
}

type collection[T any] struct {
	Data []entry[T] `json:"data"`
	Meta struct {
		Pagination pagination `json:"pagination"`
	} `json:"meta"`
}

type pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// relation is a to-one relation; Data is nil when unset or not populated
type relation[T any] struct {
	Data *entry[T] `json:"data"`
}

func (r relation[T]) id() string {
	if r.Data == nil {
		return ""
	}
	return strconv.Itoa(r.Data.ID)
}

// relations is a to-many relation
type relations[T any] struct {
	Data []entry[T] `json:"data"`
}

// envelope wraps a write payload the way Strapi expects it
func envelope(data map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"data": data}
}

// getOne fetches a record; 404 and non-numeric ids yield a nil entry
func getOne[T any](ctx context.Context, p *Provider, op, path, id string, query url.Values) (*entry[T], error) {
	if _, ok := parseID(id); !ok {
		return nil, nil
	}
	var out single[T]
	_, err := p.client.Get(ctx, op, path+"/"+id, query, &out)
	if portal.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// list fetches one page of a collection
func list[T any](ctx context.Context, p *Provider, op, path string, query url.Values) (*collection[T], error) {
	var out collection[T]
	if _, err := p.client.Get(ctx, op, path, query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// listAll walks every page of a collection
func listAll[T any](ctx context.Context, p *Provider, op, path string, query url.Values) ([]entry[T], error) {
	var all []entry[T]
	for page := 1; ; page++ {
		q := cloneValues(query)
		q.Set("pagination[page]", strconv.Itoa(page))
		q.Set("pagination[pageSize]", strconv.Itoa(MaxPageSize))
		out, err := list[T](ctx, p, op, path, q)
		if err != nil {
			return nil, err
		}
		all = append(all, out.Data...)
		if page >= out.Meta.Pagination.PageCount || len(out.Data) == 0 {
			return all, nil
		}
	}
}

// write sends a JSON write and decodes the single-entry response
func write[T any](ctx context.Context, p *Provider, op, method, path string, query url.Values, data map[string]interface{}) (*entry[T], error) {
	var out single[T]
	_, err := p.client.Do(ctx, op, restclient.Request{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   envelope(data),
	}, &out)
	if err != nil {
		if IsUniqueViolation(err) {
			return nil, &portal.ProviderError{
				Provider: Name,
				Op:       op,
				Status:   http.StatusBadRequest,
				Err:      fmt.Errorf("%w: %v", portal.ErrSlugConflict, err),
			}
		}
		return nil, err
	}
	if out.Data == nil {
		return nil, &portal.ProviderError{Provider: Name, Op: op, Err: fmt.Errorf("%w: empty response", portal.ErrTransport)}
	}
	return out.Data, nil
}

func (p *Provider) remove(ctx context.Context, op, path, id string) error {
	if _, ok := parseID(id); !ok {
		return portal.NotFound(Name, op, id)
	}
	_, err := p.client.Do(ctx, op, restclient.Request{Method: http.MethodDelete, Path: path + "/" + id}, nil)
	return err
}

// lookupID finds the id of the record whose field equals value
func (p *Provider) lookupID(ctx context.Context, op, path, field, value string) (int, bool, error) {
	q := url.Values{}
	SetFilter(q, value, field, "$eq")
	q.Set("pagination[pageSize]", "1")
	out, err := list[map[string]interface{}](ctx, p, op, path, q)
	if err != nil {
		return 0, false, err
	}
	if len(out.Data) == 0 {
		return 0, false, nil
	}
	return out.Data[0].ID, true, nil
}

// IsUniqueViolation reports whether err is Strapi rejecting a duplicate unique field
func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "must be unique")
}

func parseID(id string) (int, bool) {
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// relationID converts a canonical id for a relation write; empty clears it
func relationID(field, id string) (interface{}, error) {
	if id == "" {
		return nil, nil
	}
	n, ok := parseID(id)
	if !ok {
		return nil, &portal.ValidationError{Field: field, Reason: "must be a numeric Strapi id"}
	}
	return n, nil
}

func cloneValues(v url.Values) url.Values {
	out := url.Values{}
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
