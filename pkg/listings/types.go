package listings

import (
	"strings"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
)

// Kind names a listing entity type
type Kind string

const (
	KindExam           Kind = "exam"
	KindResult         Kind = "result"
	KindInstitution    Kind = "institution"
	KindHoliday        Kind = "holiday"
	KindRestaurant     Kind = "restaurant"
	KindFashionStore   Kind = "fashion-store"
	KindShoppingCentre Kind = "shopping-centre"
	KindFamousPlace    Kind = "famous-place"
	KindEvent          Kind = "event"
)

// Kinds lists every listing kind in display order
var Kinds = []Kind{
	KindExam, KindResult, KindInstitution, KindHoliday, KindRestaurant,
	KindFashionStore, KindShoppingCentre, KindFamousPlace, KindEvent,
}

// Base holds the fields every listing shares
type Base struct {
	ID          string               `json:"id"`
	Slug        string               `json:"slug"`
	Title       portal.LocalizedText `json:"title"`
	Description portal.LocalizedText `json:"description"`
	Category    string               `json:"category,omitempty"`
	Images      []string             `json:"images"`
	Featured    bool                 `json:"featured"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Common exposes the shared fields of any listing embedding Base
func (b *Base) Common() *Base {
	return b
}

// Contact is the address block of place-like listings
type Contact struct {
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Website string `json:"website,omitempty"`
	MapURL  string `json:"mapUrl,omitempty"`
}

// Exam is a competitive or board examination
type Exam struct {
	Base
	Organization     string    `json:"organization"`
	StartDate        time.Time `json:"startDate"`
	EndDate          time.Time `json:"endDate"`
	RegistrationURL  string    `json:"registrationUrl,omitempty"`
	LastDateToApply  time.Time `json:"lastDateToApply"`
	EligibilityNotes string    `json:"eligibility,omitempty"`
}

// Span returns the exam window; single-day exams end on their start date
func (e Exam) Span() (time.Time, time.Time) {
	return span(e.StartDate, e.EndDate)
}

// Result is a published examination result
type Result struct {
	Base
	Organization string    `json:"organization"`
	ExamName     string    `json:"examName"`
	ResultDate   time.Time `json:"resultDate"`
	ResultURL    string    `json:"resultUrl,omitempty"`
}

// Span returns the declaration date
func (r Result) Span() (time.Time, time.Time) {
	return span(r.ResultDate, time.Time{})
}

// Institution is a school, college or coaching centre
type Institution struct {
	Base
	Contact
	Type        string   `json:"type"` // school, college, university, coaching
	Affiliation string   `json:"affiliation,omitempty"`
	Courses     []string `json:"courses"`
}

// Holiday is a public or local holiday
type Holiday struct {
	Base
	Date    time.Time `json:"date"`
	EndDate time.Time `json:"endDate"`
	Type    string    `json:"type"` // national, state, religious, local
}

// Span returns the holiday period
func (h Holiday) Span() (time.Time, time.Time) {
	return span(h.Date, h.EndDate)
}

// Restaurant is a place to eat
type Restaurant struct {
	Base
	Contact
	Cuisine      []string `json:"cuisine"`
	PriceRange   string   `json:"priceRange,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Vegetarian   bool     `json:"vegetarian"`
	OpeningHours string   `json:"openingHours,omitempty"`
}

// FashionStore is a clothing or accessories shop
type FashionStore struct {
	Base
	Contact
	Brands       []string `json:"brands"`
	Segment      string   `json:"segment,omitempty"` // men, women, kids, ethnic
	OpeningHours string   `json:"openingHours,omitempty"`
}

// ShoppingCentre is a mall or market complex
type ShoppingCentre struct {
	Base
	Contact
	StoreCount   int      `json:"storeCount,omitempty"`
	Facilities   []string `json:"facilities"`
	OpeningHours string   `json:"openingHours,omitempty"`
}

// FamousPlace is a landmark or tourist attraction
type FamousPlace struct {
	Base
	Contact
	History         string `json:"history,omitempty"`
	BestTimeToVisit string `json:"bestTimeToVisit,omitempty"`
	EntryFee        string `json:"entryFee,omitempty"`
	Timings         string `json:"timings,omitempty"`
}

// Event is a dated public event
type Event struct {
	Base
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Venue     string    `json:"venue,omitempty"`
	Organizer string    `json:"organizer,omitempty"`
	TicketURL string    `json:"ticketUrl,omitempty"`
}

// Span returns the event period
func (e Event) Span() (time.Time, time.Time) {
	return span(e.StartDate, e.EndDate)
}

func span(start, end time.Time) (time.Time, time.Time) {
	if end.IsZero() || end.Before(start) {
		return start, start
	}
	return start, end
}

// Query filters a listing collection
type Query struct {
	Category string `json:"category,omitempty"`
	Featured *bool  `json:"featured,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// Normalized returns q with the default page size applied
func (q Query) Normalized() Query {
	if q.Limit <= 0 {
		q.Limit = portal.DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Match reports whether the shared fields of b satisfy q
func (q Query) Match(b *Base) bool {
	if q.Category != "" && !strings.EqualFold(b.Category, q.Category) {
		return false
	}
	if q.Featured != nil && b.Featured != *q.Featured {
		return false
	}
	if q.Search != "" &&
		!portal.ContainsFold(b.Title.EN, q.Search) &&
		!portal.ContainsFold(b.Title.HI, q.Search) &&
		!portal.ContainsFold(b.Description.EN, q.Search) {
		return false
	}
	return true
}
