package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/portal-content/pkg/portal"
)

// Name is the provider kind served by this package
const Name = "reference"

// Store keys. Each holds one JSON document, read and written wholesale.
const (
	KeyArticles       = "portal_articles"
	KeyCategories     = "portal_categories"
	KeyAuthors        = "portal_authors"
	KeyMedia          = "portal_media"
	KeySettings       = "portal_settings"
	KeyConnectionTest = "portal_connection_test"
)

// Provider implements portal.Provider over a portal.Store
type Provider struct {
	// mu serializes read-modify-write cycles on the store
	mu     sync.Mutex
	store  portal.Store
	seed   *Seed
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

var _ portal.Provider = (*Provider)(nil)

// Option represents a functional option for configuring the provider
type Option func(*Provider)

// WithLogger sets the logger used for store failures
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithSeed replaces the bundled sample content; nil disables seeding
func WithSeed(seed *Seed) Option {
	return func(p *Provider) {
		p.seed = seed
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// WithIDGenerator overrides identifier generation
func WithIDGenerator(newID func() string) Option {
	return func(p *Provider) {
		p.newID = newID
	}
}

// New creates a reference provider. Collections absent from the store are
// seeded from the bundled sample content on first read.
func New(store portal.Store, options ...Option) (*Provider, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	seed, err := DefaultSeed()
	if err != nil {
		return nil, err
	}
	p := &Provider{
		store:  store,
		seed:   seed,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, option := range options {
		option(p)
	}
	return p, nil
}

// Name returns the provider kind
func (p *Provider) Name() string {
	return Name
}

// TestConnection writes and reads back a marker value
func (p *Provider) TestConnection(ctx context.Context) error {
	marker := []byte(fmt.Sprintf(`{"checkedAt":%q}`, p.now().Format(time.RFC3339Nano)))
	if err := p.store.Put(ctx, KeyConnectionTest, marker); err != nil {
		return p.fail("test connection", err)
	}
	got, err := p.store.Get(ctx, KeyConnectionTest)
	if err != nil {
		return p.fail("test connection", err)
	}
	if string(got) != string(marker) {
		return p.fail("test connection", fmt.Errorf("marker mismatch"))
	}
	return nil
}

// Close releases the underlying store if it holds resources
func (p *Provider) Close() error {
	if c, ok := p.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (p *Provider) fail(op string, err error) error {
	p.logger.Error("reference store operation failed", "provider", Name, "op", op, "error", err)
	return &portal.ProviderError{
		Provider: Name,
		Op:       op,
		Err:      fmt.Errorf("%w: %v", portal.ErrTransport, err),
	}
}

func conflict(op, slug string) error {
	return &portal.ProviderError{
		Provider: Name,
		Op:       op,
		Err:      fmt.Errorf("%w: %s", portal.ErrSlugConflict, slug),
	}
}

// loadList reads a JSON array collection, seeding it when the key is absent
func loadList[T any](ctx context.Context, p *Provider, key string, seed func(*Seed) []T) ([]T, error) {
	data, err := p.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		var initial []T
		if p.seed != nil {
			initial = append(initial, seed(p.seed)...)
		}
		if initial == nil {
			initial = []T{}
		}
		if err := saveList(ctx, p, key, initial); err != nil {
			return nil, err
		}
		return initial, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("corrupt %s collection: %w", key, err)
	}
	return items, nil
}

func saveList[T any](ctx context.Context, p *Provider, key string, items []T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return p.store.Put(ctx, key, data)
}
