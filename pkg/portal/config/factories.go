package config

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/reference"
	"github.com/tendant/portal-content/pkg/portal/registry"
	"github.com/tendant/portal-content/pkg/portal/strapi"
	"github.com/tendant/portal-content/pkg/portal/wordpress"
)

const storeOpenTimeout = 10 * time.Second

// PortalFactories returns a factory per content provider kind.
//
// Recognised options:
//
//	reference: store (store URL), seed (bool, default true)
//	wordpress: auth_method, username, trending_orderby, timeout_seconds
//	strapi:    timeout_seconds
func PortalFactories(logger *slog.Logger) map[string]registry.Factory[portal.Provider] {
	if logger == nil {
		logger = slog.Default()
	}
	return map[string]registry.Factory[portal.Provider]{
		KindReference: func(cfg portal.ProviderConfig) (portal.Provider, error) {
			store, err := openStore(cfg)
			if err != nil {
				return nil, err
			}
			opts := []reference.Option{reference.WithLogger(logger)}
			if !getBool(cfg.Options, "seed", true) {
				opts = append(opts, reference.WithSeed(nil))
			}
			return reference.New(store, opts...)
		},
		KindWordPress: func(cfg portal.ProviderConfig) (portal.Provider, error) {
			return wordpress.New(wordpress.Config{
				BaseURL:         cfg.BaseURL,
				APIKey:          cfg.APIKey,
				AuthMethod:      getString(cfg.Options, "auth_method", wordpress.AuthBearer),
				Username:        getString(cfg.Options, "username", ""),
				TrendingOrderBy: getString(cfg.Options, "trending_orderby", ""),
			},
				wordpress.WithLogger(logger),
				wordpress.WithHTTPClient(httpClient(cfg)),
			)
		},
		KindStrapi: func(cfg portal.ProviderConfig) (portal.Provider, error) {
			return strapi.New(strapi.Config{
				BaseURL: cfg.BaseURL,
				APIKey:  cfg.APIKey,
			},
				strapi.WithLogger(logger),
				strapi.WithHTTPClient(httpClient(cfg)),
			)
		},
	}
}

func openStore(cfg portal.ProviderConfig) (portal.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeOpenTimeout)
	defer cancel()
	return BuildStore(ctx, getString(cfg.Options, "store", "memory://"))
}

func httpClient(cfg portal.ProviderConfig) *http.Client {
	return &http.Client{
		Timeout: time.Duration(getInt(cfg.Options, "timeout_seconds", 30)) * time.Second,
	}
}
