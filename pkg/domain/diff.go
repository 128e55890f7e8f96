package domain

import (
	"reflect"
)

// SnapshotDiff represents the changes between two snapshots.
// It is designed to be serialized to JSON for partial updates on a client.
type SnapshotDiff struct {
	// StateID is set when the current state changed.
	StateID *string `json:"state_id,omitempty"`

	// Context contains only changed, added or deleted top-level keys.
	// For deletions, the key is present with a nil value.
	// A context that is not an object is reported under the empty key.
	Context map[string]any `json:"context,omitempty"`

	History *HistoryDelta `json:"history,omitempty"`
}

// HistoryDelta represents changes to the history stack.
type HistoryDelta struct {
	Appended []HistoryEntry `json:"appended,omitempty"`
	// Removed counts entries dropped from the tail (undo).
	Removed int `json:"removed,omitempty"`
	// Reset is true when the history was rebuilt (load or reset).
	Reset bool `json:"reset,omitempty"`
}

// Diff calculates the difference between oldSnap and newSnap.
// If oldSnap is nil, it returns a diff representing the entire newSnap.
// It returns nil when nothing changed.
func Diff(oldSnap, newSnap *Snapshot) *SnapshotDiff {
	if newSnap == nil {
		return nil
	}

	diff := &SnapshotDiff{}

	if oldSnap == nil || oldSnap.ID != newSnap.ID {
		id := newSnap.ID
		diff.StateID = &id
	}

	diff.Context = diffContext(oldSnap, newSnap)
	diff.History = diffHistory(oldSnap, newSnap)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffContext(old *Snapshot, new *Snapshot) map[string]any {
	newMap, newIsMap := new.Context.(map[string]any)

	if old == nil {
		if !newIsMap {
			if new.Context == nil {
				return nil
			}
			return map[string]any{"": new.Context}
		}
		if len(newMap) == 0 {
			return nil
		}
		delta := make(map[string]any, len(newMap))
		for k, v := range newMap {
			delta[k] = v
		}
		return delta
	}

	oldMap, oldIsMap := old.Context.(map[string]any)
	if !newIsMap || !oldIsMap {
		if reflect.DeepEqual(old.Context, new.Context) {
			return nil
		}
		return map[string]any{"": new.Context}
	}

	delta := make(map[string]any)

	// Added or modified
	for k, newVal := range newMap {
		oldVal, exists := oldMap[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	// Deleted
	for k := range oldMap {
		if _, exists := newMap[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffHistory(old *Snapshot, new *Snapshot) *HistoryDelta {
	if old == nil {
		if len(new.History) == 0 {
			return nil
		}
		return &HistoryDelta{Appended: new.History, Reset: true}
	}

	oldLen := len(old.History)
	newLen := len(new.History)

	// The shared prefix must be identical, otherwise the history was rebuilt.
	common := min(oldLen, newLen)
	for i := 0; i < common; i++ {
		if !old.History[i].Timestamp.Equal(new.History[i].Timestamp) ||
			old.History[i].State != new.History[i].State ||
			old.History[i].Event != new.History[i].Event {
			return &HistoryDelta{Appended: new.History, Reset: true}
		}
	}

	switch {
	case newLen > oldLen:
		return &HistoryDelta{Appended: new.History[oldLen:]}
	case newLen < oldLen:
		return &HistoryDelta{Removed: oldLen - newLen}
	}
	return nil
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SnapshotDiff) IsEmpty() bool {
	return d.StateID == nil &&
		len(d.Context) == 0 &&
		d.History == nil
}
