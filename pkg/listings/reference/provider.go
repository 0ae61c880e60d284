package reference

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
)

// Name is the provider kind served by this package
const Name = "reference"

// Store keys, one JSON array per listing kind
const (
	KeyExams           = "listings_exams"
	KeyResults         = "listings_results"
	KeyInstitutions    = "listings_institutions"
	KeyHolidays        = "listings_holidays"
	KeyRestaurants     = "listings_restaurants"
	KeyFashionStores   = "listings_fashion_stores"
	KeyShoppingCentres = "listings_shopping_centres"
	KeyFamousPlaces    = "listings_famous_places"
	KeyEvents          = "listings_events"
	KeyConnectionTest  = "listings_connection_test"
)

// Provider implements listings.Provider over a portal.Store
type Provider struct {
	// mu serializes read-modify-write cycles across all collections
	mu     sync.Mutex
	store  portal.Store
	seed   *Seed
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	exams           *collection[listings.Exam, *listings.Exam]
	results         *collection[listings.Result, *listings.Result]
	institutions    *collection[listings.Institution, *listings.Institution]
	holidays        *collection[listings.Holiday, *listings.Holiday]
	restaurants     *collection[listings.Restaurant, *listings.Restaurant]
	fashionStores   *collection[listings.FashionStore, *listings.FashionStore]
	shoppingCentres *collection[listings.ShoppingCentre, *listings.ShoppingCentre]
	famousPlaces    *collection[listings.FamousPlace, *listings.FamousPlace]
	events          *collection[listings.Event, *listings.Event]
}

var _ listings.Provider = (*Provider)(nil)

// Option represents a functional option for configuring the provider
type Option func(*Provider)

// WithLogger sets the logger used for store failures
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithSeed replaces the bundled sample listings; nil disables seeding
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

// New creates a reference listings provider
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

	p.exams = newCollection(p, listings.KindExam, KeyExams, func(s *Seed) []listings.Exam { return s.Exams })
	p.results = newCollection(p, listings.KindResult, KeyResults, func(s *Seed) []listings.Result { return s.Results })
	p.institutions = newCollection(p, listings.KindInstitution, KeyInstitutions, func(s *Seed) []listings.Institution { return s.Institutions })
	p.holidays = newCollection(p, listings.KindHoliday, KeyHolidays, func(s *Seed) []listings.Holiday { return s.Holidays })
	p.restaurants = newCollection(p, listings.KindRestaurant, KeyRestaurants, func(s *Seed) []listings.Restaurant { return s.Restaurants })
	p.fashionStores = newCollection(p, listings.KindFashionStore, KeyFashionStores, func(s *Seed) []listings.FashionStore { return s.FashionStores })
	p.shoppingCentres = newCollection(p, listings.KindShoppingCentre, KeyShoppingCentres, func(s *Seed) []listings.ShoppingCentre { return s.ShoppingCentres })
	p.famousPlaces = newCollection(p, listings.KindFamousPlace, KeyFamousPlaces, func(s *Seed) []listings.FamousPlace { return s.FamousPlaces })
	p.events = newCollection(p, listings.KindEvent, KeyEvents, func(s *Seed) []listings.Event { return s.Events })
	return p, nil
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Exams() listings.Collection[listings.Exam]               { return p.exams }
func (p *Provider) Results() listings.Collection[listings.Result]           { return p.results }
func (p *Provider) Institutions() listings.Collection[listings.Institution] { return p.institutions }
func (p *Provider) Holidays() listings.Collection[listings.Holiday]         { return p.holidays }
func (p *Provider) Restaurants() listings.Collection[listings.Restaurant]   { return p.restaurants }
func (p *Provider) FashionStores() listings.Collection[listings.FashionStore] {
	return p.fashionStores
}
func (p *Provider) ShoppingCentres() listings.Collection[listings.ShoppingCentre] {
	return p.shoppingCentres
}
func (p *Provider) FamousPlaces() listings.Collection[listings.FamousPlace] { return p.famousPlaces }
func (p *Provider) Events() listings.Collection[listings.Event]             { return p.events }

// GetCalendarEvents returns the month view across exams, results, holidays and events
func (p *Provider) GetCalendarEvents(ctx context.Context, year int, month time.Month) ([]listings.CalendarEvent, error) {
	return listings.CalendarEvents(ctx, p, year, month, p.logger)
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
	p.logger.Error("listings store operation failed", "provider", Name, "op", op, "error", err)
	return &portal.ProviderError{
		Provider: Name,
		Op:       op,
		Err:      fmt.Errorf("%w: %v", portal.ErrTransport, err),
	}
}
