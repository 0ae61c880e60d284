package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/config"
	"github.com/tendant/portal-content/pkg/portal/registry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const envPrefix = "PORTAL_"

func main() {
	_ = godotenv.Load()

	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand
type globalFlags struct {
	configFile string
	provider   string
	baseURL    string
	apiKey     string
	store      string
	jsonOutput bool
	verbose    bool
}

func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Query the news portal content providers",
		Long: `portalctl talks to the configured content and listings providers
directly, the same way the server does.

Provider settings come from --config, then PORTAL_* environment variables,
then the flags below. With nothing configured it uses the seeded in-memory
reference provider.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configFile, "config", "c", "", "YAML config file (optional)")
	pf.StringVar(&flags.provider, "provider", "", "provider kind: reference, wordpress or strapi")
	pf.StringVar(&flags.baseURL, "base-url", "", "backend base URL")
	pf.StringVar(&flags.apiKey, "api-key", "", "backend API key or application password")
	pf.StringVar(&flags.store, "store", "", "reference store URL, e.g. file:///var/lib/portal")
	pf.BoolVar(&flags.jsonOutput, "json", false, "print JSON instead of a table")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewArticlesCommand(flags))
	rootCmd.AddCommand(NewCalendarCommand(flags))
	rootCmd.AddCommand(NewPingCommand(flags))

	return rootCmd
}

// load resolves the configuration for one invocation
func (f *globalFlags) load() (*config.Config, error) {
	opts := []config.Option{}
	if f.configFile != "" {
		opts = append(opts, config.WithFile(f.configFile))
	}
	opts = append(opts, config.WithEnv(envPrefix), f.overrides())
	return config.Load(opts...)
}

// overrides applies the provider flags to both families
func (f *globalFlags) overrides() config.Option {
	return func(c *config.Config) error {
		apply := func(p portal.ProviderConfig) portal.ProviderConfig {
			if f.provider != "" && f.provider != p.Kind {
				p = portal.ProviderConfig{Kind: f.provider}
			}
			if f.baseURL != "" {
				p.BaseURL = f.baseURL
			}
			if f.apiKey != "" {
				p.APIKey = f.apiKey
			}
			if f.store != "" {
				p = p.Clone()
				if p.Options == nil {
					p.Options = map[string]interface{}{}
				}
				p.Options["store"] = f.store
			}
			return p
		}
		c.Provider = apply(c.Provider)
		c.Listings = apply(c.Listings)
		return nil
	}
}

func (f *globalFlags) logger(cmd *cobra.Command) *slog.Logger {
	if !f.verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// contentProvider builds the active content provider
func (f *globalFlags) contentProvider(cmd *cobra.Command) (portal.Provider, func() error, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	logger := f.logger(cmd)
	reg := registry.New(cfg.Provider, config.PortalFactories(logger), registry.WithLogger(logger))
	p, err := reg.Active()
	if err != nil {
		_ = reg.Close()
		return nil, nil, err
	}
	return p, reg.Close, nil
}

// listingsProvider builds the active listings provider
func (f *globalFlags) listingsProvider(cmd *cobra.Command) (listings.Provider, func() error, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, nil, err
	}
	logger := f.logger(cmd)
	reg := registry.New(cfg.Listings, config.ListingFactories(logger), registry.WithLogger(logger))
	p, err := reg.Active()
	if err != nil {
		_ = reg.Close()
		return nil, nil, err
	}
	return p, reg.Close, nil
}
