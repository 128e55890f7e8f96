package domain

import "time"

// InitialEvent tags the history entry recorded when a configuration is loaded.
const InitialEvent = "Initial State"

// HistoryEntry is a snapshot of the machine taken after a committed step.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	State     string    `json:"state"`
	Event     string    `json:"event"`
	Context   any       `json:"context"`
	Input     any       `json:"input"`
}

// ReplayStep is one scripted event of a replay.
type ReplayStep struct {
	Event string `json:"event" yaml:"event" mapstructure:"event"`
	Input any    `json:"input,omitempty" yaml:"input,omitempty" mapstructure:"input"`
}
