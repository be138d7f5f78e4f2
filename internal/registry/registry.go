package registry

import (
	"errors"
	"fmt"

	"modelrouter/internal/models"
)

// ErrUnknownModel is returned when a referenced model identifier is not in
// the registry.
var ErrUnknownModel = errors.New("unknown model")

// Registry is the authoritative, immutable set of callable backend models.
// It is built once at startup and is safe for unsynchronized concurrent
// reads; no mutation API is exposed.
type Registry struct {
	entries map[string]models.ModelEntry
	order   []string
}

// New builds a registry from the configured entries. Every entry is
// validated and duplicate identifiers are rejected.
func New(entries []models.ModelEntry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]models.ModelEntry, len(entries)),
		order:   make([]string, 0, len(entries)),
	}
	for _, entry := range entries {
		if err := entry.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.entries[entry.ID]; exists {
			return nil, fmt.Errorf("duplicate model id %q", entry.ID)
		}
		r.entries[entry.ID] = entry
		r.order = append(r.order, entry.ID)
	}
	return r, nil
}

// Resolve looks up a model by identifier.
func (r *Registry) Resolve(id string) (models.ModelEntry, error) {
	entry, ok := r.entries[id]
	if !ok {
		return models.ModelEntry{}, fmt.Errorf("%w: %s", ErrUnknownModel, id)
	}
	return entry, nil
}

// List returns the entries in configured order.
func (r *Registry) List() []models.ModelEntry {
	out := make([]models.ModelEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	return len(r.entries)
}
