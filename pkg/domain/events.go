package domain

import (
	"context"
	"time"
)

// TransitionEvent describes a committed transition.
type TransitionEvent struct {
	Timestamp time.Time
	From      string
	To        string
	Event     string
	// ActionDuration is zero when the transition has no action.
	ActionDuration time.Duration
}

// ActionErrorEvent describes a transition aborted by its action.
type ActionErrorEvent struct {
	Timestamp time.Time
	State     string
	Event     string
	Err       error
	Duration  time.Duration
}

// LifecycleHooks defines callbacks for engine observability.
// Nil hooks are skipped.
type LifecycleHooks struct {
	OnLoad         func(context.Context, string)
	OnTransition   func(context.Context, *TransitionEvent)
	OnActionError  func(context.Context, *ActionErrorEvent)
	OnNoTransition func(ctx context.Context, state, event string)
	OnUndo         func(ctx context.Context, state string)
}
