package runtime

import (
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/mohae/deepcopy"
)

// clone returns a structurally independent copy of v.
// Contexts, inputs and history snapshots never share memory.
func clone(v any) any {
	return deepcopy.Copy(v)
}

func cloneConfig(cfg *domain.Configuration) *domain.Configuration {
	c := deepcopy.Copy(*cfg).(domain.Configuration)
	return &c
}

func cloneHistory(h []domain.HistoryEntry) []domain.HistoryEntry {
	if h == nil {
		return nil
	}
	return deepcopy.Copy(h).([]domain.HistoryEntry)
}

// orEmpty mirrors the `{}` default for absent contexts and inputs.
func orEmpty(v any) any {
	if v == nil {
		return map[string]any{}
	}
	return v
}

// recordHistory appends an entry for the committed state. Callers hold mu.
func (e *Engine) recordHistory(event string, input any) {
	e.history = append(e.history, domain.HistoryEntry{
		Timestamp: e.now(),
		State:     e.currentID,
		Event:     event,
		Context:   clone(e.context),
		Input:     clone(orEmpty(input)),
	})
}
