package config

import (
	"log/slog"

	"github.com/tendant/portal-content/pkg/listings"
	listingsref "github.com/tendant/portal-content/pkg/listings/reference"
	listingsstrapi "github.com/tendant/portal-content/pkg/listings/strapi"
	listingswp "github.com/tendant/portal-content/pkg/listings/wordpress"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/registry"
	"github.com/tendant/portal-content/pkg/portal/strapi"
	"github.com/tendant/portal-content/pkg/portal/wordpress"
)

// ListingFactories returns a factory per listings provider kind. Options
// match PortalFactories.
func ListingFactories(logger *slog.Logger) map[string]registry.Factory[listings.Provider] {
	if logger == nil {
		logger = slog.Default()
	}
	return map[string]registry.Factory[listings.Provider]{
		KindReference: func(cfg portal.ProviderConfig) (listings.Provider, error) {
			store, err := openStore(cfg)
			if err != nil {
				return nil, err
			}
			opts := []listingsref.Option{listingsref.WithLogger(logger)}
			if !getBool(cfg.Options, "seed", true) {
				opts = append(opts, listingsref.WithSeed(nil))
			}
			return listingsref.New(store, opts...)
		},
		KindWordPress: func(cfg portal.ProviderConfig) (listings.Provider, error) {
			return listingswp.New(wordpress.Config{
				BaseURL:    cfg.BaseURL,
				APIKey:     cfg.APIKey,
				AuthMethod: getString(cfg.Options, "auth_method", wordpress.AuthBearer),
				Username:   getString(cfg.Options, "username", ""),
			},
				wordpress.WithLogger(logger),
				wordpress.WithHTTPClient(httpClient(cfg)),
			)
		},
		KindStrapi: func(cfg portal.ProviderConfig) (listings.Provider, error) {
			return listingsstrapi.New(strapi.Config{
				BaseURL: cfg.BaseURL,
				APIKey:  cfg.APIKey,
			},
				strapi.WithLogger(logger),
				strapi.WithHTTPClient(httpClient(cfg)),
			)
		},
	}
}
