// Package apiroutes keeps the list of public endpoints served at GET /api.
package apiroutes

import (
	"sort"
	"sync"
)

// APIRoute defines the structure for an API route entry.
type APIRoute struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
	Module      string `json:"module,omitempty"`
}

// Registry is a concurrency-safe set of routes keyed by method and path.
type Registry struct {
	mu     sync.RWMutex
	routes map[string]APIRoute
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{routes: make(map[string]APIRoute)}
}

// Register adds a route. Registering the same method and path again
// replaces the earlier entry.
func (r *Registry) Register(route APIRoute) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route.Method+" "+route.Path] = route
}

// Get returns a copy of the registered routes sorted by path, then method.
func (r *Registry) Get() []APIRoute {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]APIRoute, 0, len(r.routes))
	for _, route := range r.routes {
		out = append(out, route)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}
