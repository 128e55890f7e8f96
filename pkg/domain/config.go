package domain

// Configuration describes a finite-state machine.
type Configuration struct {
	ID           string               `json:"id" yaml:"id" mapstructure:"id"`
	InitialState string               `json:"initialState" yaml:"initialState" mapstructure:"initialState"`
	Context      any                  `json:"context,omitempty" yaml:"context,omitempty" mapstructure:"context"`
	States       map[string]StateNode `json:"states" yaml:"states" mapstructure:"states"`
}

// StateNode is a single state and its outgoing transitions, keyed by event id.
type StateNode struct {
	Label string                `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`
	On    map[string]Transition `json:"on,omitempty" yaml:"on,omitempty" mapstructure:"on"`
}

// Transition moves the machine to To when its event is sent.
type Transition struct {
	To    string `json:"to" yaml:"to" mapstructure:"to"`
	Label string `json:"label,omitempty" yaml:"label,omitempty" mapstructure:"label"`

	// Action is either the name of a registered action function or a program
	// of assignments to context, e.g. "context.count = (context.count ?? 0) + 1".
	Action string `json:"action,omitempty" yaml:"action,omitempty" mapstructure:"action"`
}

// DisplayLabel returns the label of the state, falling back to id.
func (n StateNode) DisplayLabel(id string) string {
	if n.Label != "" {
		return n.Label
	}
	return id
}

// DisplayLabel returns the label of the transition, falling back to the event id.
func (t Transition) DisplayLabel(event string) string {
	if t.Label != "" {
		return t.Label
	}
	return event
}
