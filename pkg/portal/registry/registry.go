// Package registry holds the active provider configuration and the adapter
// instances built from it. It is generic over the provider interface so the
// article and listing families share one implementation.
package registry

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/tendant/portal-content/pkg/portal"
)

// Factory builds a provider from its configuration
type Factory[P any] func(cfg portal.ProviderConfig) (P, error)

type instance[P any] struct {
	cfg      portal.ProviderConfig
	provider P
	injected bool
}

// Registry hands out the provider for the current configuration, building
// it lazily and caching one instance per kind.
type Registry[P any] struct {
	mu        sync.Mutex
	current   portal.ProviderConfig
	factories map[string]Factory[P]
	instances map[string]instance[P]
	logger    *slog.Logger
}

// Option is a functional option for configuring the registry
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for instance lifecycle events
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a registry starting at initial. factories is copied.
func New[P any](initial portal.ProviderConfig, factories map[string]Factory[P], opts ...Option) *Registry[P] {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	r := &Registry[P]{
		current:   initial.Clone(),
		factories: make(map[string]Factory[P], len(factories)),
		instances: make(map[string]instance[P]),
		logger:    o.logger,
	}
	for kind, f := range factories {
		r.factories[kind] = f
	}
	return r
}

// Active returns the provider for the current configuration. The first call
// per kind builds the instance; later calls return the cached one until
// Configure changes the parameters.
func (r *Registry[P]) Active() (P, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kind := r.current.Kind
	if inst, ok := r.instances[kind]; ok && (inst.injected || inst.cfg.Equal(r.current)) {
		return inst.provider, nil
	}

	var zero P
	factory, ok := r.factories[kind]
	if !ok {
		return zero, fmt.Errorf("%w: %q", portal.ErrUnknownProvider, kind)
	}
	provider, err := factory(r.current.Clone())
	if err != nil {
		return zero, fmt.Errorf("build %s provider: %w", kind, err)
	}
	r.instances[kind] = instance[P]{cfg: r.current.Clone(), provider: provider}
	r.logger.Info("provider instance created", "kind", kind, "base_url", r.current.BaseURL)
	return provider, nil
}

// Configure makes cfg the active configuration. A cached instance of the
// same kind built from different parameters is dropped and closed.
func (r *Registry[P]) Configure(cfg portal.ProviderConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	inst, cached := r.instances[cfg.Kind]
	if _, ok := r.factories[cfg.Kind]; !ok && !(cached && inst.injected) {
		return fmt.Errorf("%w: %q", portal.ErrUnknownProvider, cfg.Kind)
	}
	if cached && !inst.injected && !inst.cfg.Equal(cfg) {
		delete(r.instances, cfg.Kind)
		r.closeInstance(cfg.Kind, inst.provider)
	}
	r.current = cfg.Clone()
	r.logger.Info("provider configured", "kind", cfg.Kind, "base_url", cfg.BaseURL)
	return nil
}

// Register injects a ready-made provider for kind. It is returned for that
// kind regardless of connection parameters until replaced.
func (r *Registry[P]) Register(kind string, provider P) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[kind]; ok && !inst.injected {
		r.closeInstance(kind, inst.provider)
	}
	r.instances[kind] = instance[P]{cfg: portal.ProviderConfig{Kind: kind}, provider: provider, injected: true}
}

// RegisterFactory adds or replaces the factory for kind, dropping any
// instance built by the previous one
func (r *Registry[P]) RegisterFactory(kind string, factory Factory[P]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if inst, ok := r.instances[kind]; ok && !inst.injected {
		delete(r.instances, kind)
		r.closeInstance(kind, inst.provider)
	}
	r.factories[kind] = factory
}

// Current returns a copy of the active configuration
func (r *Registry[P]) Current() portal.ProviderConfig {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.Clone()
}

// Kinds lists the provider kinds that can be configured
func (r *Registry[P]) Kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool)
	for kind := range r.factories {
		seen[kind] = true
	}
	for kind, inst := range r.instances {
		if inst.injected {
			seen[kind] = true
		}
	}
	kinds := make([]string, 0, len(seen))
	for kind := range seen {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Close releases every built instance that holds resources
func (r *Registry[P]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for kind, inst := range r.instances {
		if inst.injected {
			continue
		}
		if c, ok := any(inst.provider).(io.Closer); ok {
			if err := c.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		delete(r.instances, kind)
	}
	return firstErr
}

func (r *Registry[P]) closeInstance(kind string, provider P) {
	c, ok := any(provider).(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		r.logger.Warn("failed to close provider instance", "kind", kind, "error", err)
	}
}
