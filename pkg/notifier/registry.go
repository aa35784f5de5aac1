package notifier

import (
	"fmt"
	"sync"

	"github.com/kart-io/chatpush/pkg/config"
	"github.com/kart-io/chatpush/pkg/errors"
	"github.com/kart-io/chatpush/pkg/logger"
	"github.com/kart-io/chatpush/pkg/schema"
)

// Factory creates a notifier bound to the given service config.
type Factory func(cfg config.ServiceConfig, log logger.Logger) *Notifier

// Registry is the compile-time mapping from provider name to factory.
// Providers register explicitly at startup; there is no runtime lookup of
// transport code by name beyond this map.
type Registry struct {
	mu        sync.RWMutex
	order     []string
	factories map[string]Factory
	schemas   map[string]*schema.Schema
	log       logger.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log logger.Logger) *Registry {
	if log == nil {
		log = logger.Discard
	}
	return &Registry{
		factories: make(map[string]Factory),
		schemas:   make(map[string]*schema.Schema),
		log:       log,
	}
}

// Register adds a provider schema and factory under the schema's name.
func (r *Registry) Register(s *schema.Schema, factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.order = append(r.order, name)
	r.factories[name] = factory
	r.schemas[name] = s
	r.log.Debug("Provider registered", "provider", name)
	return nil
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Has reports whether the named provider is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Schema returns the registered schema for introspection without
// constructing a notifier.
func (r *Registry) Schema(name string) (*schema.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	if !ok {
		return nil, errors.NewUnknownProvider(name)
	}
	return s, nil
}

// Build constructs a notifier for the named provider bound to cfg.
func (r *Registry) Build(name string, cfg config.ServiceConfig, log logger.Logger) (*Notifier, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, errors.NewUnknownProvider(name)
	}
	return factory(cfg, log), nil
}
