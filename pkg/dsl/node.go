package dsl

import "github.com/aretw0/statelab/pkg/domain"

// StateBuilder provides a fluent API for configuring a state.
type StateBuilder struct {
	id      string
	node    domain.StateNode
	builder *Builder
	last    string
}

// Label sets the display label of the state.
func (s *StateBuilder) Label(label string) *StateBuilder {
	s.node.Label = label
	return s
}

// On adds a transition to target for event, replacing any previous one.
func (s *StateBuilder) On(event, target string) *StateBuilder {
	s.node.On[event] = domain.Transition{To: target}
	s.last = event
	return s
}

// Do attaches an action to the transition added last.
func (s *StateBuilder) Do(action string) *StateBuilder {
	if t, ok := s.node.On[s.last]; ok {
		t.Action = action
		s.node.On[s.last] = t
	}
	return s
}

// As sets the label of the transition added last.
func (s *StateBuilder) As(label string) *StateBuilder {
	if t, ok := s.node.On[s.last]; ok {
		t.Label = label
		s.node.On[s.last] = t
	}
	return s
}

// State switches to another state of the same configuration.
func (s *StateBuilder) State(id string) *StateBuilder {
	return s.builder.State(id)
}

// Build builds the whole configuration.
func (s *StateBuilder) Build() (*domain.Configuration, error) {
	return s.builder.Build()
}

// Builder returns the configuration builder.
func (s *StateBuilder) Builder() *Builder {
	return s.builder
}
