package dsl

import (
	"fmt"

	"github.com/aretw0/statelab/pkg/adapters/memory"
	"github.com/aretw0/statelab/pkg/domain"
)

// Builder manages the configuration construction.
type Builder struct {
	id      string
	initial string
	context any
	order   []string
	states  map[string]*StateBuilder
}

// New creates a new builder for the configuration id.
func New(id string) *Builder {
	return &Builder{
		id:     id,
		states: make(map[string]*StateBuilder),
	}
}

// Initial sets the initial state. Defaults to the first state added.
func (b *Builder) Initial(stateID string) *Builder {
	b.initial = stateID
	return b
}

// Context sets the default context.
func (b *Builder) Context(value any) *Builder {
	b.context = value
	return b
}

// State creates a new state in the configuration.
// If the state already exists, it returns the existing builder.
func (b *Builder) State(id string) *StateBuilder {
	if sb, ok := b.states[id]; ok {
		return sb
	}
	sb := &StateBuilder{
		id:      id,
		node:    domain.StateNode{On: make(map[string]domain.Transition)},
		builder: b,
	}
	b.states[id] = sb
	b.order = append(b.order, id)
	return sb
}

// Build assembles the configuration.
// Transitions to states that were never declared are rejected.
func (b *Builder) Build() (*domain.Configuration, error) {
	if len(b.states) == 0 {
		return nil, fmt.Errorf("configuration %q has no states", b.id)
	}

	initial := b.initial
	if initial == "" {
		initial = b.order[0]
	}
	if _, ok := b.states[initial]; !ok {
		return nil, fmt.Errorf("initial state %q is not declared", initial)
	}

	states := make(map[string]domain.StateNode, len(b.states))
	for _, id := range b.order {
		sb := b.states[id]
		for event, t := range sb.node.On {
			if _, ok := b.states[t.To]; !ok {
				return nil, fmt.Errorf("state %q: event %q targets undeclared state %q", id, event, t.To)
			}
		}
		node := sb.node
		node.On = make(map[string]domain.Transition, len(sb.node.On))
		for event, t := range sb.node.On {
			node.On[event] = t
		}
		states[id] = node
	}

	return &domain.Configuration{
		ID:           b.id,
		InitialState: initial,
		Context:      b.context,
		States:       states,
	}, nil
}

// Loader builds the configuration and wraps it in an in-memory loader.
func (b *Builder) Loader() (*memory.Loader, error) {
	cfg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return memory.NewLoader(*cfg), nil
}
