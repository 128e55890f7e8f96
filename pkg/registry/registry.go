package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ActionFunc defines the signature of a named transition action.
// It receives private copies of the machine context and the event input and
// returns the replacement context.
type ActionFunc func(ctx context.Context, machineCtx any, input any) (any, error)

// Registry manages the named actions an embedding application exposes to configurations.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]ActionFunc),
	}
}

// Register adds an action to the registry.
// If an action with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (ActionFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	return fn, ok
}

// Execute looks up an action by name and executes it.
// Returns an error if the action is not found.
func (r *Registry) Execute(ctx context.Context, name string, machineCtx any, input any) (any, error) {
	fn, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("action not found: %s", name)
	}
	return fn(ctx, machineCtx, input)
}

// Names returns the registered action names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
