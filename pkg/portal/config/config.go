package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tendant/portal-content/pkg/portal"
	"gopkg.in/yaml.v3"
)

// Provider kinds understood by the factories in this package
const (
	KindReference = "reference"
	KindWordPress = "wordpress"
	KindStrapi    = "strapi"
)

// Option applies configuration to a Config instance.
type Option func(*Config) error

// Config is the process configuration: where to listen and which backends
// serve content and listings.
type Config struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"` // development, production, testing

	// Provider selects the content backend
	Provider portal.ProviderConfig `yaml:"provider"`

	// Listings selects the structured listings backend
	Listings portal.ProviderConfig `yaml:"listings"`
}

// Load constructs a Config by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() Config {
	return Config{
		Port:        "8080",
		Environment: "development",
		Provider: portal.ProviderConfig{
			Kind:    KindReference,
			Options: map[string]interface{}{"store": "memory://"},
		},
		Listings: portal.ProviderConfig{
			Kind:    KindReference,
			Options: map[string]interface{}{"store": "memory://"},
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if err := ValidateProvider(c.Provider); err != nil {
		return fmt.Errorf("provider: %w", err)
	}
	if err := ValidateProvider(c.Listings); err != nil {
		return fmt.Errorf("listings: %w", err)
	}
	return nil
}

// ValidateProvider checks the parts of a provider config every kind shares.
// Kind-specific checks happen when the adapter is built.
func ValidateProvider(p portal.ProviderConfig) error {
	switch p.Kind {
	case KindReference:
		return nil
	case KindWordPress, KindStrapi:
		if p.BaseURL == "" {
			return &portal.ValidationError{Field: "baseUrl", Reason: "is required for " + p.Kind}
		}
		return nil
	case "":
		return &portal.ValidationError{Field: "kind", Reason: "is required"}
	default:
		return fmt.Errorf("%w: %s", portal.ErrUnknownProvider, p.Kind)
	}
}

// WithProvider replaces the content provider configuration
func WithProvider(p portal.ProviderConfig) Option {
	return func(c *Config) error {
		if p.Kind == "" {
			return fmt.Errorf("provider kind cannot be empty")
		}
		c.Provider = p.Clone()
		return nil
	}
}

// WithListings replaces the listings provider configuration
func WithListings(p portal.ProviderConfig) Option {
	return func(c *Config) error {
		if p.Kind == "" {
			return fmt.Errorf("listings kind cannot be empty")
		}
		c.Listings = p.Clone()
		return nil
	}
}

// WithOption sets one entry of the content provider's options map
func WithOption(key string, value interface{}) Option {
	return func(c *Config) error {
		if key == "" {
			return fmt.Errorf("option key cannot be empty")
		}
		c.Provider = c.Provider.Clone()
		if c.Provider.Options == nil {
			c.Provider.Options = map[string]interface{}{}
		}
		c.Provider.Options[key] = value
		return nil
	}
}

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *Config) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithFile overlays settings read from a YAML file. Fields absent from the
// file keep their current values.
//
//	port: "8080"
//	provider:
//	  kind: wordpress
//	  base_url: https://news.example.com
//	  api_key: secret
//	  options:
//	    auth_method: basic
//	    username: editor
func WithFile(path string) Option {
	return func(c *Config) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if file.Port != "" {
			c.Port = file.Port
		}
		if file.Environment != "" {
			c.Environment = file.Environment
		}
		c.Provider = mergeProvider(c.Provider, file.Provider)
		c.Listings = mergeProvider(c.Listings, file.Listings)
		return nil
	}
}

// WithEnv applies environment variable overrides using the provided prefix.
//
// Content provider:
//
//	PROVIDER          - reference, wordpress or strapi
//	PROVIDER_BASE_URL - Backend base URL
//	PROVIDER_API_KEY  - Bearer token or application password
//	PROVIDER_AUTH_METHOD, PROVIDER_USERNAME - WordPress basic auth
//	STORE_URL         - Reference store (memory://, file://, s3://, postgres://, redis://, sqlite://)
//
// Listings provider:
//
//	LISTINGS_PROVIDER, LISTINGS_BASE_URL, LISTINGS_API_KEY, LISTINGS_STORE_URL
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		if v, ok := lookupEnv(prefix, "PORT"); ok && v != "" {
			c.Port = v
		}
		if v, ok := lookupEnv(prefix, "ENVIRONMENT"); ok && v != "" {
			c.Environment = v
		}

		c.Provider = applyProviderEnv(prefix, "PROVIDER", c.Provider)
		if v, ok := lookupEnv(prefix, "STORE_URL"); ok && v != "" {
			c.Provider = withOption(c.Provider, "store", v)
		}
		if v, ok := lookupEnv(prefix, "PROVIDER_AUTH_METHOD"); ok && v != "" {
			c.Provider = withOption(c.Provider, "auth_method", v)
		}
		if v, ok := lookupEnv(prefix, "PROVIDER_USERNAME"); ok && v != "" {
			c.Provider = withOption(c.Provider, "username", v)
		}

		c.Listings = applyProviderEnv(prefix, "LISTINGS", c.Listings)
		if v, ok := lookupEnv(prefix, "LISTINGS_STORE_URL"); ok && v != "" {
			c.Listings = withOption(c.Listings, "store", v)
		}
		return nil
	}
}

func applyProviderEnv(prefix, name string, p portal.ProviderConfig) portal.ProviderConfig {
	kindKey := name
	if name == "LISTINGS" {
		kindKey = "LISTINGS_PROVIDER"
	}
	if v, ok := lookupEnv(prefix, kindKey); ok && v != "" {
		kind := strings.ToLower(v)
		if kind != p.Kind {
			// options belong to the previous kind
			p = portal.ProviderConfig{Kind: kind}
		}
	}
	if v, ok := lookupEnv(prefix, name+"_BASE_URL"); ok && v != "" {
		p.BaseURL = v
	}
	if v, ok := lookupEnv(prefix, name+"_API_KEY"); ok && v != "" {
		p.APIKey = v
	}
	return p
}

func mergeProvider(base, overlay portal.ProviderConfig) portal.ProviderConfig {
	if overlay.Kind != "" && overlay.Kind != base.Kind {
		return overlay.Clone()
	}
	out := base.Clone()
	if overlay.BaseURL != "" {
		out.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		out.APIKey = overlay.APIKey
	}
	for k, v := range overlay.Options {
		out = withOption(out, k, v)
	}
	return out
}

func withOption(p portal.ProviderConfig, key string, value interface{}) portal.ProviderConfig {
	p = p.Clone()
	if p.Options == nil {
		p.Options = map[string]interface{}{}
	}
	p.Options[key] = value
	return p
}

func lookupEnv(prefix, key string) (string, bool) {
	return os.LookupEnv(prefix + key)
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		if i, ok := value.(int); ok {
			return i
		}
		if str, ok := value.(string); ok {
			if i, err := strconv.Atoi(str); err == nil {
				return i
			}
		}
		if f, ok := value.(float64); ok {
			return int(f)
		}
	}
	return defaultValue
}
