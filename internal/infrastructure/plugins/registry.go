// Package plugins holds the capability registry/router and the built-in
// reference handlers. Handlers are registered explicitly at startup in a
// fixed order; there is no runtime discovery or reflection.
package plugins

import (
	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

type registration struct {
	descriptor domain.PluginDescriptor
	handler    ports.Handler
}

// Registry is an ordered registration table. Routing is deterministic:
// the first registered handler whose category matches wins.
type Registry struct {
	entries []registration
	logger  ports.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(logger ports.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register implements ports.Registry.
func (r *Registry) Register(descriptor domain.PluginDescriptor, handler ports.Handler) {
	r.entries = append(r.entries, registration{descriptor: descriptor, handler: handler})
	r.logger.Info("registered plugin", map[string]any{
		"plugin":   descriptor.Name,
		"category": string(descriptor.Category),
	})
}

// Route implements ports.Registry. A missing handler is a normal outcome
// reported through a NO_HANDLER error, not a fault.
func (r *Registry) Route(command domain.Command) (ports.Handler, domain.PluginDescriptor, error) {
	for _, entry := range r.entries {
		if entry.descriptor.Category == command.Category {
			return entry.handler, entry.descriptor, nil
		}
	}
	return nil, domain.PluginDescriptor{}, domain.Errorf(domain.ErrNoHandler,
		"no handler registered for category %s", command.Category)
}

// Descriptors returns the registration table in order.
func (r *Registry) Descriptors() []domain.PluginDescriptor {
	out := make([]domain.PluginDescriptor, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.descriptor)
	}
	return out
}

var _ ports.Registry = (*Registry)(nil)
