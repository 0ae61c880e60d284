// Package strapi serves listings from Strapi v4 collection types.
//
// Each kind is its own collection type (exams, results, institutions,
// holidays, restaurants, fashion-stores, shopping-centres, famous-places,
// events). Attributes use the listing JSON keys, with the Hindi halves of
// title and description in titleHi and descriptionHi, and images as a JSON
// list of URLs.
package strapi

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal/restclient"
	"github.com/tendant/portal-content/pkg/portal/strapi"
)

// Name is the provider kind served by this package
const Name = strapi.Name

// Collection type API paths
const (
	PathExams           = "/api/exams"
	PathResults         = "/api/results"
	PathInstitutions    = "/api/institutions"
	PathHolidays        = "/api/holidays"
	PathRestaurants     = "/api/restaurants"
	PathFashionStores   = "/api/fashion-stores"
	PathShoppingCentres = "/api/shopping-centres"
	PathFamousPlaces    = "/api/famous-places"
	PathEvents          = "/api/events"
)

// Provider implements listings.Provider against Strapi
type Provider struct {
	client *restclient.Client
	logger *slog.Logger
	now    func() time.Time

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

// New creates a Strapi listings provider
func New(config strapi.Config, opts ...strapi.Option) (*Provider, error) {
	client, err := strapi.NewClient(config, opts...)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		client: client,
		logger: client.Logger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	p.exams = newCollection[listings.Exam](p, listings.KindExam, PathExams)
	p.results = newCollection[listings.Result](p, listings.KindResult, PathResults)
	p.institutions = newCollection[listings.Institution](p, listings.KindInstitution, PathInstitutions)
	p.holidays = newCollection[listings.Holiday](p, listings.KindHoliday, PathHolidays)
	p.restaurants = newCollection[listings.Restaurant](p, listings.KindRestaurant, PathRestaurants)
	p.fashionStores = newCollection[listings.FashionStore](p, listings.KindFashionStore, PathFashionStores)
	p.shoppingCentres = newCollection[listings.ShoppingCentre](p, listings.KindShoppingCentre, PathShoppingCentres)
	p.famousPlaces = newCollection[listings.FamousPlace](p, listings.KindFamousPlace, PathFamousPlaces)
	p.events = newCollection[listings.Event](p, listings.KindEvent, PathEvents)
	return p, nil
}

func (p *Provider) Name() string { return Name }

// BaseURL returns the instance the provider talks to
func (p *Provider) BaseURL() string { return p.client.BaseURL() }

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

// TestConnection reads one exam with the configured token
func (p *Provider) TestConnection(ctx context.Context) error {
	q := url.Values{"pagination[pageSize]": {"1"}}
	_, err := p.client.Get(ctx, "test connection", PathExams, q, nil)
	return err
}
