package wordpress_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/portal-content/pkg/listings"
	listingswp "github.com/tendant/portal-content/pkg/listings/wordpress"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/wordpress"
)

func newProvider(t *testing.T) (*fakeSite, *listingswp.Provider) {
	t.Helper()
	f, srv := newFakeSite(t)
	p, err := listingswp.New(wordpress.Config{BaseURL: srv.URL, APIKey: "token"})
	require.NoError(t, err)
	return f, p
}

func day(month time.Month, d int) time.Time {
	return time.Date(2025, month, d, 0, 0, 0, 0, time.UTC)
}

func TestExamRoundTrip(t *testing.T) {
	ctx := context.Background()
	f, p := newProvider(t)

	created, err := p.Exams().Create(ctx, listings.Exam{
		Base: listings.Base{
			Title:       portal.LocalizedText{EN: "Police Constable Exam", HI: "पुलिस कांस्टेबल परीक्षा"},
			Description: portal.LocalizedText{EN: "Written test at Rampur centres"},
			Category:    "recruitment",
			Images:      []string{"https://cdn.example/exam.jpg"},
			Featured:    true,
		},
		Organization:    "UPPRPB",
		StartDate:       day(time.March, 3),
		EndDate:         day(time.March, 5),
		RegistrationURL: "https://uppbpb.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "police-constable-exam", created.Slug)

	stored := f.find(listingswp.TypeExams, created.ID)
	require.NotNil(t, stored)
	assert.Equal(t, "20250303", stored.ACF["startDate"])
	assert.Equal(t, "पुलिस कांस्टेबल परीक्षा", stored.ACF["titleHi"])

	got, err := p.Exams().Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Police Constable Exam", got.Title.EN)
	assert.Equal(t, "पुलिस कांस्टेबल परीक्षा", got.Title.HI)
	assert.Equal(t, "Written test at Rampur centres", got.Description.EN)
	assert.Equal(t, "recruitment", got.Category)
	assert.Equal(t, []string{"https://cdn.example/exam.jpg"}, got.Images)
	assert.True(t, got.Featured)
	assert.Equal(t, "UPPRPB", got.Organization)
	assert.Equal(t, day(time.March, 3), got.StartDate)
	assert.Equal(t, day(time.March, 5), got.EndDate)
	assert.True(t, got.LastDateToApply.IsZero())
	assert.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), got.CreatedAt)

	bySlug, err := p.Exams().GetBySlug(ctx, "police-constable-exam")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, created.ID, bySlug.ID)
}

func TestNonASCIISlug(t *testing.T) {
	ctx := context.Background()
	f, p := newProvider(t)

	created, err := p.Exams().Create(ctx, listings.Exam{
		Base: listings.Base{
			Slug:  "पुलिस-परीक्षा",
			Title: portal.LocalizedText{EN: "Police Exam", HI: "पुलिस परीक्षा"},
		},
		StartDate: day(time.April, 1),
		EndDate:   day(time.April, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, "पुलिस-परीक्षा", created.Slug)

	stored := f.find(listingswp.TypeExams, created.ID)
	require.NotNil(t, stored)
	assert.True(t, strings.HasPrefix(stored.Slug, "%e0%a4"))

	bySlug, err := p.Exams().GetBySlug(ctx, "पुलिस-परीक्षा")
	require.NoError(t, err)
	require.NotNil(t, bySlug)
	assert.Equal(t, "पुलिस-परीक्षा", bySlug.Slug)
}

func TestMissingItems(t *testing.T) {
	ctx := context.Background()
	_, p := newProvider(t)

	got, err := p.Events().Get(ctx, "9999")
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = p.Events().Get(ctx, "not-a-number")
	require.NoError(t, err)
	assert.Nil(t, got)

	bySlug, err := p.Events().GetBySlug(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Nil(t, bySlug)

	_, err = p.Events().Update(ctx, "9999", func(e *listings.Event) {})
	assert.True(t, portal.IsNotFound(err))
}

func TestUpdateAndDoubleDelete(t *testing.T) {
	ctx := context.Background()
	_, p := newProvider(t)

	created, err := p.Restaurants().Create(ctx, listings.Restaurant{
		Base:    listings.Base{Title: portal.LocalizedText{EN: "Kebab Corner"}},
		Cuisine: []string{"Mughlai"},
		Rating:  4.2,
	})
	require.NoError(t, err)

	updated, err := p.Restaurants().Update(ctx, created.ID, func(r *listings.Restaurant) {
		r.Rating = 4.6
		r.Vegetarian = false
		r.Phone = "+91-595-000000"
	})
	require.NoError(t, err)
	assert.Equal(t, 4.6, updated.Rating)
	assert.Equal(t, "+91-595-000000", updated.Phone)
	assert.Equal(t, []string{"Mughlai"}, updated.Cuisine)

	require.NoError(t, p.Restaurants().Delete(ctx, created.ID))
	err = p.Restaurants().Delete(ctx, created.ID)
	assert.True(t, portal.IsNotFound(err))
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	_, p := newProvider(t)
	for i := 0; i < 12; i++ {
		_, err := p.Holidays().Create(ctx, listings.Holiday{
			Base: listings.Base{Title: portal.LocalizedText{EN: fmt.Sprintf("Holiday %d", i)}},
			Date: day(time.April, i+1),
		})
		require.NoError(t, err)
	}

	page, err := p.Holidays().List(ctx, listings.Query{Limit: 5, Offset: 10})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 12, page.Total)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)

	page, err = p.Holidays().List(ctx, listings.Query{Limit: 5, Offset: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 12, page.Total)

	page, err = p.Holidays().List(ctx, listings.Query{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, page.Items, 12)
	assert.Equal(t, 1, page.TotalPages)
}

func TestCategoryFilterRunsLocally(t *testing.T) {
	ctx := context.Background()
	f, p := newProvider(t)
	for i := 0; i < 6; i++ {
		category := "coaching"
		if i%2 == 0 {
			category = "school"
		}
		_, err := p.Institutions().Create(ctx, listings.Institution{
			Base: listings.Base{Title: portal.LocalizedText{EN: fmt.Sprintf("Institute %d", i)}, Category: category},
			Type: category,
		})
		require.NoError(t, err)
	}

	page, err := p.Institutions().List(ctx, listings.Query{Category: "school", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 2)
	for _, item := range page.Items {
		assert.Equal(t, "school", item.Category)
	}
	assert.Contains(t, f.queries[len(f.queries)-1], "per_page=100")
}

func TestEmptyACFIsTolerated(t *testing.T) {
	ctx := context.Background()
	f, p := newProvider(t)
	f.add(listingswp.TypeFamousPlaces, &fakeListing{Slug: "old-fort", Title: "Old Fort", Content: "Ruins"})

	place, err := p.FamousPlaces().GetBySlug(ctx, "old-fort")
	require.NoError(t, err)
	require.NotNil(t, place)
	assert.Equal(t, "Old Fort", place.Title.EN)
	assert.Equal(t, "Ruins", place.Description.EN)
	assert.Equal(t, []string{}, place.Images)
}

func TestCalendarOverWordPress(t *testing.T) {
	ctx := context.Background()
	_, p := newProvider(t)

	_, err := p.Events().Create(ctx, listings.Event{
		Base:      listings.Base{Title: portal.LocalizedText{EN: "Urs Mela"}},
		StartDate: day(time.June, 20),
		EndDate:   day(time.June, 24),
	})
	require.NoError(t, err)
	_, err = p.Results().Create(ctx, listings.Result{
		Base:       listings.Base{Title: portal.LocalizedText{EN: "Intermediate Result"}},
		ResultDate: day(time.June, 2),
	})
	require.NoError(t, err)
	_, err = p.Exams().Create(ctx, listings.Exam{
		Base:      listings.Base{Title: portal.LocalizedText{EN: "July Exam"}},
		StartDate: day(time.July, 2),
	})
	require.NoError(t, err)

	events, err := p.GetCalendarEvents(ctx, 2025, time.June)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Intermediate Result", events[0].Title.EN)
	assert.Equal(t, listings.KindResult, events[0].Kind)
	assert.Equal(t, "/events/urs-mela", events[1].Link)
}

func TestAuthFailure(t *testing.T) {
	f, p := newProvider(t)
	f.rejectAuth = true

	_, err := p.Exams().List(context.Background(), listings.Query{})
	require.Error(t, err)
	assert.True(t, portal.IsAuthError(err))
	assert.False(t, errors.Is(err, portal.ErrNotFound))

	err = p.TestConnection(context.Background())
	assert.True(t, portal.IsAuthError(err))
}
