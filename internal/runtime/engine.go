package runtime

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/internal/presentation/graph"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/ports"
	"github.com/aretw0/statelab/pkg/sandbox"
)

// DefaultReplayDelay is the pause before each replayed event when callers do not choose one.
const DefaultReplayDelay = 500 * time.Millisecond

// DiagramRenderer produces the diagram source of a snapshot.
// It must treat states as read-only.
type DiagramRenderer func(states map[string]domain.StateNode, currentID string) string

// Engine interprets one state machine instance.
//
// Mutating operations are serialized and notify listeners before returning,
// so transitions apply and notifications fire in call order. Listeners may
// call GetState but must not call mutating operations synchronously.
type Engine struct {
	logger   *slog.Logger
	sandbox  ports.Sandbox
	hooks    domain.LifecycleHooks
	renderer DiagramRenderer
	now      func() time.Time
	hub      *Hub

	// opMu serializes mutating operations together with their notification.
	opMu      sync.Mutex
	replaying atomic.Bool

	// mu guards the machine state below.
	mu        sync.RWMutex
	config    *domain.Configuration
	currentID string
	context   any
	history   []domain.HistoryEntry
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSandbox replaces the action sandbox.
func WithSandbox(sb ports.Sandbox) EngineOption {
	return func(e *Engine) {
		if sb != nil {
			e.sandbox = sb
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithDiagramRenderer replaces the Mermaid renderer. A nil renderer disables diagrams.
func WithDiagramRenderer(fn DiagramRenderer) EngineOption {
	return func(e *Engine) {
		e.renderer = fn
	}
}

// WithClock sets the time source for history timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine with nothing loaded.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   logging.NewNop(),
		sandbox:  sandbox.New(),
		renderer: graph.GenerateMermaid,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.hub = NewHub(e.logger)
	return e
}

// Subscribe registers a listener called after every state-affecting operation.
func (e *Engine) Subscribe(fn func(domain.Snapshot)) func() {
	return e.hub.Subscribe(fn)
}

// Replaying reports whether a replay is running.
func (e *Engine) Replaying() bool {
	return e.replaying.Load()
}

// lock acquires the operation mutex and rejects external calls during a replay.
// On success the caller must release opMu.
func (e *Engine) lock() error {
	e.opMu.Lock()
	if e.replaying.Load() {
		e.opMu.Unlock()
		return domain.ErrReplayInProgress
	}
	return nil
}

func (e *Engine) notify() {
	e.hub.Notify(e.GetState())
}
