package runtime

import (
	"context"
	"time"

	"github.com/aretw0/statelab/pkg/domain"
	"github.com/google/uuid"
)

type replayIDKey struct{}

// ContextWithReplayID tags the replay started with ctx, so callers can correlate logs.
func ContextWithReplayID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, replayIDKey{}, id)
}

// ReplayIDFromContext returns the id set by ContextWithReplayID.
func ReplayIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(replayIDKey{}).(string)
	return id, ok && id != ""
}

// Replay resets the machine, then sends each step in order, waiting delay
// after the previous send completed. A non-positive delay does not wait.
//
// While a replay runs, every other mutating call returns
// domain.ErrReplayInProgress. Cancelling ctx stops the replay and returns
// the results collected so far with ctx.Err().
func (e *Engine) Replay(ctx context.Context, steps []domain.ReplayStep, delay time.Duration) ([]domain.SendResult, error) {
	if !e.replaying.CompareAndSwap(false, true) {
		return nil, domain.ErrReplayInProgress
	}
	defer e.replaying.Store(false)

	id, ok := ReplayIDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
	}
	logger := e.logger.With("replay_id", id)

	e.opMu.Lock()
	if e.config == nil {
		e.opMu.Unlock()
		return nil, domain.ErrNotLoaded
	}
	logger.Info("Starting replay", "events", len(steps), "delay", delay)
	err := e.reset(ctx)
	e.opMu.Unlock()
	if err != nil {
		return nil, err
	}

	results := make([]domain.SendResult, 0, len(steps))
	for i, step := range steps {
		if err := sleep(ctx, delay); err != nil {
			logger.Warn("Replay canceled", "step", i, "err", err)
			return results, err
		}

		e.opMu.Lock()
		res, err := e.send(ctx, step.Event, step.Input)
		e.opMu.Unlock()
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}

	logger.Info("Replay complete")
	return results, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
