package ports

import (
	"context"
	"time"

	"github.com/aretw0/statelab/pkg/domain"
)

// Engine is a single live state machine.
// This is the interface consumed by adapters (HTTP, MCP, REPL).
type Engine interface {
	// Load replaces the machine with cfg. Invalid configurations leave the prior state untouched.
	Load(ctx context.Context, cfg *domain.Configuration) error

	// Send triggers the transition of the current state for event.
	Send(ctx context.Context, event string, input any) (domain.SendResult, error)

	// Undo restores the entry preceding the most recent one.
	Undo(ctx context.Context) error

	// Reset reloads the last configuration.
	Reset(ctx context.Context) error

	// Replay resets the machine and sends steps in order, waiting delay before each.
	Replay(ctx context.Context, steps []domain.ReplayStep, delay time.Duration) ([]domain.SendResult, error)

	// GetState returns a snapshot owned by the caller.
	GetState() domain.Snapshot

	// Subscribe registers a listener and returns a function that removes it.
	Subscribe(fn func(domain.Snapshot)) func()
}
