package runtime

import (
	"context"
)

// Undo drops the most recent history entry and restores state and context
// from the entry before it. Actions are never re-run.
// It is a no-op while the history holds a single entry.
func (e *Engine) Undo(ctx context.Context) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.opMu.Unlock()

	e.mu.Lock()
	if len(e.history) <= 1 {
		e.mu.Unlock()
		return nil
	}
	e.history = e.history[:len(e.history)-1]
	prev := e.history[len(e.history)-1]
	e.currentID = prev.State
	e.context = clone(prev.Context)
	state := e.currentID
	e.mu.Unlock()

	e.logger.Info("Undo to", "state", state)
	if e.hooks.OnUndo != nil {
		e.hooks.OnUndo(ctx, state)
	}
	e.notify()
	return nil
}
