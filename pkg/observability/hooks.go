package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/statelab/pkg/domain"
)

// AuditHooks returns hooks writing one structured log record per engine event.
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnLoad: func(ctx context.Context, configID string) {
			logger.InfoContext(ctx, "config_loaded", "config_id", configID)
		},
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.InfoContext(ctx, "transition",
				"from", e.From,
				"to", e.To,
				"event", e.Event,
				"action_duration", e.ActionDuration,
			)
		},
		OnActionError: func(ctx context.Context, e *domain.ActionErrorEvent) {
			logger.WarnContext(ctx, "action_failed",
				"state", e.State,
				"event", e.Event,
				"err", e.Err,
			)
		},
		OnNoTransition: func(ctx context.Context, state, event string) {
			logger.WarnContext(ctx, "event_unhandled", "state", state, "event", event)
		},
		OnUndo: func(ctx context.Context, state string) {
			logger.InfoContext(ctx, "undo", "state", state)
		},
	}
}

// Chain combines hook sets; each hook fires in argument order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnLoad = chain2(out.OnLoad, h.OnLoad)
		out.OnTransition = chain2(out.OnTransition, h.OnTransition)
		out.OnActionError = chain2(out.OnActionError, h.OnActionError)
		out.OnUndo = chain2(out.OnUndo, h.OnUndo)
		out.OnNoTransition = chain3(out.OnNoTransition, h.OnNoTransition)
	}
	return out
}

func chain2[T any](a, b func(context.Context, T)) func(context.Context, T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}

func chain3(a, b func(context.Context, string, string)) func(context.Context, string, string) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, s, e string) {
		a(ctx, s, e)
		b(ctx, s, e)
	}
}
