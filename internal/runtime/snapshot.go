package runtime

import (
	"github.com/aretw0/statelab/pkg/domain"
)

// GetState returns a snapshot of the machine. Every value in it is a copy.
func (e *Engine) GetState() domain.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := domain.Snapshot{
		ID:              e.currentID,
		AvailableEvents: map[string]domain.Transition{},
	}
	if e.config == nil {
		return snap
	}

	if node, ok := e.config.States[e.currentID]; ok {
		data := clone(node).(domain.StateNode)
		snap.Data = &data
		for event, t := range node.On {
			snap.AvailableEvents[event] = t
		}
	} else {
		e.logger.Warn("State not found in config", "state", e.currentID)
	}

	snap.Context = clone(e.context)
	snap.History = cloneHistory(e.history)
	if e.renderer != nil {
		snap.DiagramSource = e.renderer(e.config.States, e.currentID)
	}
	return snap
}

// Diagram renders the current configuration without building a full snapshot.
func (e *Engine) Diagram() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.config == nil || e.renderer == nil {
		return ""
	}
	return e.renderer(e.config.States, e.currentID)
}
