package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/aretw0/statelab"
	fileAdapter "github.com/aretw0/statelab/pkg/adapters/file"
	redisAdapter "github.com/aretw0/statelab/pkg/adapters/redis"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/observability"
)

// newEngine builds an engine logging through the command logger. Audit logs
// are always on; metrics are recorded when m is not nil.
func newEngine(m *observability.Metrics, opts ...statelab.Option) *statelab.Engine {
	hooks := []domain.LifecycleHooks{observability.AuditHooks(logger)}
	if m != nil {
		hooks = append(hooks, m.Hooks())
	}

	base := []statelab.Option{
		statelab.WithLogger(logger),
		statelab.WithLifecycleHooks(observability.Chain(hooks...)),
	}
	return statelab.New(append(base, opts...)...)
}

// loadEngine creates an engine and loads the configuration file at path.
func loadEngine(ctx context.Context, path string, m *observability.Metrics, opts ...statelab.Option) (*statelab.Engine, error) {
	eng := newEngine(m, opts...)
	if err := eng.LoadFile(ctx, path); err != nil {
		return nil, err
	}
	return eng, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// publishers returns the engine options for the snapshot publishers enabled
// in the settings, and a function releasing their resources.
func publishers() ([]statelab.Option, func()) {
	var (
		opts    []statelab.Option
		closers []func() error
	)
	if settings.RedisAddr != "" {
		pub := redisAdapter.New(settings.RedisAddr, settings.RedisPassword, settings.RedisDB,
			redisAdapter.WithChannel(settings.RedisChannel))
		opts = append(opts, statelab.WithPublisher(pub))
		closers = append(closers, pub.Close)
		logger.Info("Publishing snapshots to Redis", "address", settings.RedisAddr, "channel", pub.Channel())
	}
	if settings.SnapshotFile != "" {
		opts = append(opts, statelab.WithPublisher(fileAdapter.NewPublisher(settings.SnapshotFile)))
		logger.Info("Writing snapshots to file", "path", settings.SnapshotFile)
	}
	return opts, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Failed to close publisher", "err", err)
			}
		}
	}
}
