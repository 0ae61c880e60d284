package listings

import (
	"context"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
)

// Record is satisfied by pointers to listing types, giving generic code
// access to the embedded Base.
type Record[T any] interface {
	*T
	Common() *Base
}

// Dated is a Record with a calendar span
type Dated[T any] interface {
	Record[T]
	Span() (time.Time, time.Time)
}

// Collection gives access to one listing kind.
//
// Get and GetBySlug return (nil, nil) when nothing matches. Update loads the
// current value, hands it to fn and writes the result; fn must not change
// the ID.
type Collection[T any] interface {
	List(ctx context.Context, q Query) (*portal.Page[T], error)
	Get(ctx context.Context, id string) (*T, error)
	GetBySlug(ctx context.Context, slug string) (*T, error)
	Create(ctx context.Context, item T) (*T, error)
	Update(ctx context.Context, id string, fn func(*T)) (*T, error)
	Delete(ctx context.Context, id string) error
}

// Provider is the contract every listings backend implements
type Provider interface {
	Exams() Collection[Exam]
	Results() Collection[Result]
	Institutions() Collection[Institution]
	Holidays() Collection[Holiday]
	Restaurants() Collection[Restaurant]
	FashionStores() Collection[FashionStore]
	ShoppingCentres() Collection[ShoppingCentre]
	FamousPlaces() Collection[FamousPlace]
	Events() Collection[Event]

	// GetCalendarEvents returns exams, results, holidays and events touching
	// the given month, sorted by start date.
	GetCalendarEvents(ctx context.Context, year int, month time.Month) ([]CalendarEvent, error)

	Name() string
	TestConnection(ctx context.Context) error
}

// Prepare validates the shared fields of a new listing and derives its slug
func Prepare(b *Base) error {
	if b.Title.EN == "" && b.Title.HI == "" {
		return &portal.ValidationError{Field: "title", Reason: "is required"}
	}
	if b.Slug == "" {
		b.Slug = portal.Slugify(b.Title.String())
	}
	return CheckSlug(b.Slug)
}

// CheckSlug rejects slugs that are not already in normalized form
func CheckSlug(slug string) error {
	if slug == "" {
		return &portal.ValidationError{Field: "slug", Reason: "is required"}
	}
	if slug != portal.Slugify(slug) {
		return &portal.ValidationError{Field: "slug", Reason: "must be lowercase words joined by hyphens"}
	}
	return nil
}
