// Package wordpress serves listings from WordPress custom post types.
//
// Every listing kind is a custom post type exposed under wp/v2 (exams,
// results, institutions, holidays, restaurants, fashion-stores,
// shopping-centres, famous-places, events). The post title and content hold
// the English title and description; every other field is an ACF field
// named after its JSON key (organization, startDate, titleHi, images, ...).
package wordpress

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal/restclient"
	"github.com/tendant/portal-content/pkg/portal/wordpress"
)

// Name is the provider kind served by this package
const Name = wordpress.Name

// Custom post type REST bases
const (
	TypeExams           = "exams"
	TypeResults         = "results"
	TypeInstitutions    = "institutions"
	TypeHolidays        = "holidays"
	TypeRestaurants     = "restaurants"
	TypeFashionStores   = "fashion-stores"
	TypeShoppingCentres = "shopping-centres"
	TypeFamousPlaces    = "famous-places"
	TypeEvents          = "events"
)

// Provider implements listings.Provider against a WordPress site
type Provider struct {
	client      *restclient.Client
	logger      *slog.Logger
	editContext bool

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

// New creates a WordPress listings provider. It accepts the same
// configuration and options as the content provider.
func New(config wordpress.Config, opts ...wordpress.Option) (*Provider, error) {
	client, err := wordpress.NewClient(config, opts...)
	if err != nil {
		return nil, err
	}
	p := &Provider{
		client:      client,
		logger:      client.Logger(),
		editContext: config.APIKey != "",
	}
	p.exams = newCollection[listings.Exam](p, listings.KindExam, TypeExams)
	p.results = newCollection[listings.Result](p, listings.KindResult, TypeResults)
	p.institutions = newCollection[listings.Institution](p, listings.KindInstitution, TypeInstitutions)
	p.holidays = newCollection[listings.Holiday](p, listings.KindHoliday, TypeHolidays)
	p.restaurants = newCollection[listings.Restaurant](p, listings.KindRestaurant, TypeRestaurants)
	p.fashionStores = newCollection[listings.FashionStore](p, listings.KindFashionStore, TypeFashionStores)
	p.shoppingCentres = newCollection[listings.ShoppingCentre](p, listings.KindShoppingCentre, TypeShoppingCentres)
	p.famousPlaces = newCollection[listings.FamousPlace](p, listings.KindFamousPlace, TypeFamousPlaces)
	p.events = newCollection[listings.Event](p, listings.KindEvent, TypeEvents)
	return p, nil
}

func (p *Provider) Name() string { return Name }

// BaseURL returns the site the provider talks to
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

// TestConnection lists one exam, which needs the custom post types registered
func (p *Provider) TestConnection(ctx context.Context) error {
	_, err := p.client.Get(ctx, "test connection", wordpress.APIPrefix+"/"+TypeExams, url.Values{"per_page": {"1"}}, nil)
	return err
}
