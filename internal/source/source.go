package source

import (
	"fmt"
	"log/slog"

	"sportswire/internal/config"
	"sportswire/internal/ports"
)

// Factory builds a source adapter from its config block.
type Factory func(cfg config.SourceConfig, logger *slog.Logger) (ports.SourceAdapter, error)

// Registry keeps a mapping from source kinds to their factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register adds or replaces a factory for a source kind.
func (r *Registry) Register(kind string, factory Factory) {
	if r.factories == nil {
		r.factories = map[string]Factory{}
	}
	r.factories[kind] = factory
}

// Build instantiates adapters for every configured source, preserving the
// configured order. The order is part of the analysis prompt contract, so it
// must never be changed downstream.
func (r *Registry) Build(cfgs []config.SourceConfig, logger *slog.Logger) ([]ports.SourceAdapter, error) {
	adapters := make([]ports.SourceAdapter, 0, len(cfgs))
	for _, cfg := range cfgs {
		factory, ok := r.factories[cfg.Kind]
		if !ok {
			return nil, fmt.Errorf("source %s: kind %q is not registered", cfg.Name, cfg.Kind)
		}

		adapter, err := factory(cfg, logger.With("component", "source."+cfg.Name))
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", cfg.Name, err)
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
