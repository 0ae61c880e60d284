package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
)

// ListingRoutes returns one sub-router per listing kind:
//
//	/exams /results /institutions /holidays /restaurants
//	/fashion-stores /shopping-centres /famous-places /events
func (h *Handler) ListingRoutes() chi.Router {
	r := chi.NewRouter()
	mountCollection(h, r, "/exams", listings.KindExam, listings.Provider.Exams)
	mountCollection(h, r, "/results", listings.KindResult, listings.Provider.Results)
	mountCollection(h, r, "/institutions", listings.KindInstitution, listings.Provider.Institutions)
	mountCollection(h, r, "/holidays", listings.KindHoliday, listings.Provider.Holidays)
	mountCollection(h, r, "/restaurants", listings.KindRestaurant, listings.Provider.Restaurants)
	mountCollection(h, r, "/fashion-stores", listings.KindFashionStore, listings.Provider.FashionStores)
	mountCollection(h, r, "/shopping-centres", listings.KindShoppingCentre, listings.Provider.ShoppingCentres)
	mountCollection(h, r, "/famous-places", listings.KindFamousPlace, listings.Provider.FamousPlaces)
	mountCollection(h, r, "/events", listings.KindEvent, listings.Provider.Events)
	return r
}

// collectionHandler serves one listing kind
type collectionHandler[T any] struct {
	h    *Handler
	kind listings.Kind
	pick func(listings.Provider) listings.Collection[T]
}

func mountCollection[T any](h *Handler, r chi.Router, pattern string, kind listings.Kind, pick func(listings.Provider) listings.Collection[T]) {
	c := &collectionHandler[T]{h: h, kind: kind, pick: pick}
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", c.list)
		r.Post("/", c.create)
		r.Get("/slug/{slug}", c.getBySlug)
		r.Get("/{id}", c.get)
		r.Patch("/{id}", c.update)
		r.Delete("/{id}", c.remove)
	})
}

func (c *collectionHandler[T]) collection(w http.ResponseWriter, r *http.Request) (listings.Collection[T], bool) {
	p, ok := c.h.listingsProvider(w, r)
	if !ok {
		return nil, false
	}
	return c.pick(p), true
}

func (c *collectionHandler[T]) op(verb string) string {
	return verb + " " + string(c.kind)
}

func (c *collectionHandler[T]) list(w http.ResponseWriter, r *http.Request) {
	query, err := listingQuery(r)
	if err != nil {
		c.h.fail(w, r, c.op("list"), err)
		return
	}
	coll, ok := c.collection(w, r)
	if !ok {
		return
	}
	page, err := coll.List(r.Context(), query)
	if err != nil {
		c.h.fail(w, r, c.op("list"), err)
		return
	}
	render.JSON(w, r, page)
}

func (c *collectionHandler[T]) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	coll, ok := c.collection(w, r)
	if !ok {
		return
	}
	item, err := coll.Get(r.Context(), id)
	if err != nil {
		c.h.fail(w, r, c.op("get"), err)
		return
	}
	if item == nil {
		c.h.notFound(w, r, string(c.kind), id)
		return
	}
	render.JSON(w, r, item)
}

func (c *collectionHandler[T]) getBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	coll, ok := c.collection(w, r)
	if !ok {
		return
	}
	item, err := coll.GetBySlug(r.Context(), slug)
	if err != nil {
		c.h.fail(w, r, c.op("get by slug"), err)
		return
	}
	if item == nil {
		c.h.notFound(w, r, string(c.kind), slug)
		return
	}
	render.JSON(w, r, item)
}

func (c *collectionHandler[T]) create(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := decodeJSON(w, r, &item); err != nil {
		c.h.badRequest(w, r, err)
		return
	}
	coll, ok := c.collection(w, r)
	if !ok {
		return
	}
	created, err := coll.Create(r.Context(), item)
	if err != nil {
		c.h.fail(w, r, c.op("create"), err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, created)
}

// update merges the JSON body over the stored item; absent fields keep their values
func (c *collectionHandler[T]) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		c.h.badRequest(w, r, err)
		return
	}
	var probe T
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&probe); err != nil {
		c.h.badRequest(w, r, err)
		return
	}

	coll, ok := c.collection(w, r)
	if !ok {
		return
	}
	updated, err := coll.Update(r.Context(), id, func(item *T) {
		_ = json.Unmarshal(raw, item)
	})
	if err != nil {
		c.h.fail(w, r, c.op("update"), err)
		return
	}
	render.JSON(w, r, updated)
}

func (c *collectionHandler[T]) remove(w http.ResponseWriter, r *http.Request) {
	coll, ok := c.collection(w, r)
	if !ok {
		return
	}
	if err := coll.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		c.h.fail(w, r, c.op("delete"), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCalendar returns the month view, ?year=&month= (defaults to the current month)
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	q := r.URL.Query()
	year, month := now.Year(), int(now.Month())
	if v := q.Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, "calendar", &portal.ValidationError{Field: "year", Reason: "must be an integer"})
			return
		}
		year = n
	}
	if v := q.Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, "calendar", &portal.ValidationError{Field: "month", Reason: "must be an integer"})
			return
		}
		month = n
	}

	p, ok := h.listingsProvider(w, r)
	if !ok {
		return
	}
	events, err := p.GetCalendarEvents(r.Context(), year, time.Month(month))
	if err != nil {
		h.fail(w, r, "calendar", err)
		return
	}
	render.JSON(w, r, events)
}
