package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/config"
)

// connectionTestTimeout bounds POST .../test
const connectionTestTimeout = 15 * time.Second

// ConnectionStatus is the response body of a connection test
type ConnectionStatus struct {
	Kind    string `json:"kind"`
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Elapsed string `json:"elapsed"`
}

// AdminRoutes returns the provider administration routes:
//
//	GET  /provider        active content provider config (API key redacted)
//	PUT  /provider        switch the content provider
//	POST /provider/test   test the active content provider
//	GET|PUT /listings, POST /listings/test for the listings provider
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()

	content := providerAdmin[portal.Provider]{h: h, family: "content", source: h.content}
	r.Get("/provider", content.get)
	r.Put("/provider", content.put)
	r.Post("/provider/test", content.test)

	if h.listings != nil {
		l := providerAdmin[listings.Provider]{h: h, family: "listings", source: h.listings}
		r.Get("/listings", l.get)
		r.Put("/listings", l.put)
		r.Post("/listings/test", l.test)
	}
	return r
}

// connectionTester is what both provider families share for admin use
type connectionTester interface {
	Name() string
	TestConnection(ctx context.Context) error
}

type providerAdmin[P any] struct {
	h      *Handler
	family string
	source ProviderSource[P]
}

func (a providerAdmin[P]) get(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, a.source.Current().Redacted())
}

// put validates the new config, switches to it and builds the adapter. A
// config whose adapter cannot be built is rolled back.
func (a providerAdmin[P]) put(w http.ResponseWriter, r *http.Request) {
	op := "configure " + a.family + " provider"
	var cfg portal.ProviderConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		a.h.badRequest(w, r, err)
		return
	}
	previous := a.source.Current()
	// The redacted key from GET means "keep the current one"
	if (cfg.APIKey == "" || cfg.APIKey == "***") && cfg.Kind == previous.Kind && cfg.BaseURL == previous.BaseURL {
		cfg.APIKey = previous.APIKey
	}
	if err := config.ValidateProvider(cfg); err != nil {
		a.h.fail(w, r, op, err)
		return
	}
	if err := a.source.Configure(cfg); err != nil {
		a.h.fail(w, r, op, err)
		return
	}
	if _, err := a.source.Active(); err != nil {
		if rollbackErr := a.source.Configure(previous); rollbackErr != nil {
			a.h.logger.Error("Provider rollback failed", "family", a.family, "error", rollbackErr)
		}
		a.h.fail(w, r, op, fmt.Errorf("%w: %v", portal.ErrValidation, err))
		return
	}

	a.h.logger.Info("Provider reconfigured", "family", a.family, "kind", cfg.Kind, "base_url", cfg.BaseURL)
	render.JSON(w, r, a.source.Current().Redacted())
}

func (a providerAdmin[P]) test(w http.ResponseWriter, r *http.Request) {
	p, err := a.source.Active()
	if err != nil {
		a.h.unavailable(w, r, a.family, err)
		return
	}
	tester, ok := any(p).(connectionTester)
	if !ok {
		a.h.fail(w, r, "test connection", fmt.Errorf("%s provider cannot test its connection", a.family))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), connectionTestTimeout)
	defer cancel()
	start := time.Now()
	err = tester.TestConnection(ctx)
	status := ConnectionStatus{Kind: tester.Name(), OK: err == nil, Elapsed: time.Since(start).Round(time.Millisecond).String()}
	if err != nil {
		_, status.Code = statusFor(err)
		status.Error = err.Error()
		a.h.logger.Warn("Connection test failed", "family", a.family, "kind", tester.Name(), "error", err)
	}
	render.JSON(w, r, status)
}
