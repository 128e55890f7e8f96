package runtime

import (
	"context"
	"time"

	"github.com/aretw0/statelab/pkg/domain"
)

// Send triggers the transition registered for event in the current state.
//
// The returned error is reserved for engine rejections (domain.ErrNotLoaded,
// domain.ErrReplayInProgress). Missing transitions and failing actions are
// reported through the result and leave the machine unchanged.
func (e *Engine) Send(ctx context.Context, event string, input any) (domain.SendResult, error) {
	if err := e.lock(); err != nil {
		return domain.NoTransition(), err
	}
	defer e.opMu.Unlock()
	return e.send(ctx, event, input)
}

func (e *Engine) send(ctx context.Context, event string, input any) (domain.SendResult, error) {
	if e.config == nil {
		return domain.NoTransition(), domain.ErrNotLoaded
	}
	input = orEmpty(input)
	from := e.currentID

	node, ok := e.config.States[from]
	if !ok {
		e.logger.Error("Current state not found in config", "state", from, "event", event)
		e.noTransition(ctx, from, event)
		return domain.NoTransition(), nil
	}
	transition, ok := node.On[event]
	if !ok {
		e.logger.Error("No transition found for event", "state", from, "event", event)
		e.noTransition(ctx, from, event)
		return domain.NoTransition(), nil
	}

	next := e.context
	var elapsed time.Duration
	if transition.Action != "" {
		start := time.Now()
		out, err := e.sandbox.Run(ctx, transition.Action, clone(e.context), clone(input))
		elapsed = time.Since(start)
		if err != nil {
			e.logger.Error("Action failed", "state", from, "event", event, "err", err)
			if e.hooks.OnActionError != nil {
				e.hooks.OnActionError(ctx, &domain.ActionErrorEvent{
					Timestamp: e.now(),
					State:     from,
					Event:     event,
					Err:       err,
					Duration:  elapsed,
				})
			}
			return domain.ActionFailed(err.Error()), nil
		}
		next = clone(out)
	}

	e.mu.Lock()
	e.context = next
	e.currentID = transition.To
	e.recordHistory(event, input)
	e.mu.Unlock()

	e.logger.Debug("Transition applied", "from", from, "to", transition.To, "event", event)
	if e.hooks.OnTransition != nil {
		e.hooks.OnTransition(ctx, &domain.TransitionEvent{
			Timestamp:      e.now(),
			From:           from,
			To:             transition.To,
			Event:          event,
			ActionDuration: elapsed,
		})
	}
	e.notify()
	return domain.Applied(), nil
}

func (e *Engine) noTransition(ctx context.Context, state, event string) {
	if e.hooks.OnNoTransition != nil {
		e.hooks.OnNoTransition(ctx, state, event)
	}
}
