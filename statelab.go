package statelab

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/internal/runtime"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/ports"
	"github.com/aretw0/statelab/pkg/registry"
	"github.com/aretw0/statelab/pkg/sandbox"
)

// DefaultReplayDelay is the pause before each replayed event used by the CLI and adapters.
const DefaultReplayDelay = runtime.DefaultReplayDelay

// DiagramRenderer produces the diagram source of a snapshot from the states and the current id.
type DiagramRenderer = runtime.DiagramRenderer

// publishTimeout bounds a single snapshot publication.
const publishTimeout = 2 * time.Second

var _ ports.Engine = (*Engine)(nil)

// Engine is the high-level entry point for the statelab library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime    *runtime.Engine
	logger     *slog.Logger
	registry   *registry.Registry
	sandbox    ports.Sandbox
	hooks      domain.LifecycleHooks
	renderer   DiagramRenderer
	noDiagram  bool
	clock      func() time.Time
	publishers []ports.SnapshotPublisher
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRegistry exposes named Go actions to configurations.
// It is ignored when WithSandbox is also given.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithSandbox replaces the default action sandbox.
func WithSandbox(sb ports.Sandbox) Option {
	return func(e *Engine) {
		e.sandbox = sb
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithDiagramRenderer replaces the Mermaid renderer. Passing nil disables diagrams.
func WithDiagramRenderer(fn DiagramRenderer) Option {
	return func(e *Engine) {
		e.renderer = fn
		e.noDiagram = fn == nil
	}
}

// WithClock sets the time source for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.clock = now
	}
}

// WithPublisher pushes every snapshot to pub. Failures are logged and never
// affect the operation that produced the snapshot.
func WithPublisher(pub ports.SnapshotPublisher) Option {
	return func(e *Engine) {
		if pub != nil {
			e.publishers = append(e.publishers, pub)
		}
	}
}

// New initializes an engine with nothing loaded.
func New(opts ...Option) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.NewNop()
	}
	if e.sandbox == nil {
		e.sandbox = sandbox.New(sandbox.WithRegistry(e.registry))
	}

	runtimeOpts := []runtime.EngineOption{
		runtime.WithLogger(e.logger),
		runtime.WithSandbox(e.sandbox),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithClock(e.clock),
	}
	if e.renderer != nil || e.noDiagram {
		runtimeOpts = append(runtimeOpts, runtime.WithDiagramRenderer(e.renderer))
	}
	e.runtime = runtime.NewEngine(runtimeOpts...)

	for _, pub := range e.publishers {
		e.runtime.Subscribe(e.publishTo(pub))
	}
	return e
}

func (e *Engine) publishTo(pub ports.SnapshotPublisher) func(domain.Snapshot) {
	return func(snap domain.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()
		if err := pub.Publish(ctx, snap); err != nil {
			e.logger.Error("Failed to publish snapshot", "state", snap.ID, "err", err)
		}
	}
}

// Load replaces the machine with cfg.
// It returns an error wrapping domain.ErrInvalidConfig when cfg is nil or has no states.
func (e *Engine) Load(ctx context.Context, cfg *domain.Configuration) error {
	return e.runtime.Load(ctx, cfg)
}

// LoadFile reads a JSON or YAML configuration and loads it.
func (e *Engine) LoadFile(ctx context.Context, path string) error {
	return e.LoadFrom(ctx, loader.FileLoader{Path: path})
}

// LoadFrom loads the configuration produced by l.
func (e *Engine) LoadFrom(ctx context.Context, l ports.ConfigLoader) error {
	cfg, err := l.Load(ctx)
	if err != nil {
		e.logger.Error("Failed to load configuration", "err", err)
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	return e.runtime.Load(ctx, cfg)
}

// Subscribe registers a listener notified after every state change and
// returns a function that removes it. Listeners run synchronously and must
// not call Load, Send, Undo, Reset or Replay themselves.
func (e *Engine) Subscribe(fn func(domain.Snapshot)) func() {
	return e.runtime.Subscribe(fn)
}

// Send triggers the transition registered for event in the current state.
func (e *Engine) Send(ctx context.Context, event string, input any) (domain.SendResult, error) {
	return e.runtime.Send(ctx, event, input)
}

// Undo reverts the most recent transition. It is a no-op at the initial entry.
func (e *Engine) Undo(ctx context.Context) error {
	return e.runtime.Undo(ctx)
}

// Reset reloads the last configuration.
func (e *Engine) Reset(ctx context.Context) error {
	return e.runtime.Reset(ctx)
}

// Replay resets the machine and sends steps in order, waiting delay before each.
func (e *Engine) Replay(ctx context.Context, steps []domain.ReplayStep, delay time.Duration) ([]domain.SendResult, error) {
	return e.runtime.Replay(ctx, steps, delay)
}

// Replaying reports whether a replay is running.
func (e *Engine) Replaying() bool {
	return e.runtime.Replaying()
}

// GetState returns a snapshot owned by the caller.
func (e *Engine) GetState() domain.Snapshot {
	return e.runtime.GetState()
}

// Diagram returns the diagram source of the current configuration.
func (e *Engine) Diagram() string {
	return e.runtime.Diagram()
}

// ContextWithReplayID tags a replay started with ctx. The id is attached to
// every log line of the replay; without it a random id is generated.
func ContextWithReplayID(ctx context.Context, id string) context.Context {
	return runtime.ContextWithReplayID(ctx, id)
}
