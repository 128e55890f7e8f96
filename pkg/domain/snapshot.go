package domain

// Snapshot is the public, read-only view of the engine.
// Every value reachable from a Snapshot is a copy owned by the receiver.
type Snapshot struct {
	// ID is the current state id. Empty before the first load.
	ID string `json:"id"`

	// Data is the current state node, nil when the id is not part of the configuration.
	Data *StateNode `json:"data"`

	Context         any                   `json:"context"`
	AvailableEvents map[string]Transition `json:"availableEvents"`
	DiagramSource   string                `json:"diagramSource"`
	History         []HistoryEntry        `json:"history"`
}

// CanUndo reports whether an undo would change the machine.
func (s Snapshot) CanUndo() bool {
	return len(s.History) > 1
}
