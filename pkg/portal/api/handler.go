// Package api exposes the content and listings contracts as a JSON HTTP API.
//
// Handlers resolve the active provider from a registry on every request, so
// reconfiguring the backend through the admin endpoints takes effect on the
// next call without restarting the server.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
)

// ProviderSource is the registry surface the handlers need
type ProviderSource[P any] interface {
	Active() (P, error)
	Configure(cfg portal.ProviderConfig) error
	Current() portal.ProviderConfig
}

// Handler serves the content and listings APIs
type Handler struct {
	content   ProviderSource[portal.Provider]
	listings  ProviderSource[listings.Provider]
	logger    *slog.Logger
	maxUpload int64
	adminMW   []func(http.Handler) http.Handler
}

// Option configures a Handler
type Option func(*Handler)

// WithLogger sets the logger used for request failures
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithMaxUpload caps the size of multipart media uploads in bytes
func WithMaxUpload(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

// WithAdminMiddleware guards the /admin routes, e.g. with an API key check
func WithAdminMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(h *Handler) {
		h.adminMW = append(h.adminMW, mw...)
	}
}

const defaultMaxUpload = 32 << 20

// NewHandler creates a handler over the two registries. listingsSource may be
// nil, in which case the listings and calendar routes are not mounted.
func NewHandler(contentSource ProviderSource[portal.Provider], listingsSource ProviderSource[listings.Provider], opts ...Option) *Handler {
	h := &Handler{
		content:   contentSource,
		listings:  listingsSource,
		logger:    slog.Default(),
		maxUpload: defaultMaxUpload,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the full API router
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Mount("/articles", h.ArticleRoutes())
	r.Mount("/categories", h.CategoryRoutes())
	r.Mount("/authors", h.AuthorRoutes())
	r.Mount("/media", h.MediaRoutes())
	r.Get("/settings", h.GetSettings)
	r.Patch("/settings", h.UpdateSettings)

	if h.listings != nil {
		r.Mount("/listings", h.ListingRoutes())
		r.Get("/calendar", h.GetCalendar)
	}

	r.With(h.adminMW...).Mount("/admin", h.AdminRoutes())
	return r
}

// provider resolves the active content provider, writing the failure itself
func (h *Handler) provider(w http.ResponseWriter, r *http.Request) (portal.Provider, bool) {
	p, err := h.content.Active()
	if err != nil {
		h.unavailable(w, r, "content", err)
		return nil, false
	}
	return p, true
}

func (h *Handler) listingsProvider(w http.ResponseWriter, r *http.Request) (listings.Provider, bool) {
	p, err := h.listings.Active()
	if err != nil {
		h.unavailable(w, r, "listings", err)
		return nil, false
	}
	return p, true
}
