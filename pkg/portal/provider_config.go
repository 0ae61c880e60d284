package portal

import (
	"reflect"
)

// ProviderConfig selects a backend and carries its connection parameters
type ProviderConfig struct {
	Kind    string                 `json:"kind" yaml:"kind"`
	BaseURL string                 `json:"baseUrl,omitempty" yaml:"base_url"`
	APIKey  string                 `json:"apiKey,omitempty" yaml:"api_key"`
	Options map[string]interface{} `json:"options,omitempty" yaml:"options"`
}

// Equal reports whether both configs would build the same adapter
func (c ProviderConfig) Equal(other ProviderConfig) bool {
	if c.Kind != other.Kind || c.BaseURL != other.BaseURL || c.APIKey != other.APIKey {
		return false
	}
	if len(c.Options) == 0 && len(other.Options) == 0 {
		return true
	}
	return reflect.DeepEqual(c.Options, other.Options)
}

// Clone returns a copy whose Options map can be modified independently
func (c ProviderConfig) Clone() ProviderConfig {
	out := c
	if c.Options != nil {
		out.Options = make(map[string]interface{}, len(c.Options))
		for k, v := range c.Options {
			out.Options[k] = v
		}
	}
	return out
}

// Redacted returns a copy safe to log or return to clients
func (c ProviderConfig) Redacted() ProviderConfig {
	out := c.Clone()
	if out.APIKey != "" {
		out.APIKey = "***"
	}
	return out
}
