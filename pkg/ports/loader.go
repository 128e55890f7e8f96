package ports

import (
	"context"

	"github.com/aretw0/statelab/pkg/domain"
)

// ConfigLoader defines how configurations are retrieved.
// This allows the source (file, memory, network) to be decoupled from the engine.
type ConfigLoader interface {
	Load(ctx context.Context) (*domain.Configuration, error)
}

// SnapshotPublisher pushes snapshots to an external channel (e.g. Redis Pub/Sub).
type SnapshotPublisher interface {
	Publish(ctx context.Context, snap domain.Snapshot) error
}
