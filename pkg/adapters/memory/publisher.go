package memory

import (
	"context"
	"sync"

	"github.com/aretw0/statelab/pkg/domain"
)

// Publisher implements ports.SnapshotPublisher by recording snapshots in memory.
// Safe for concurrent use.
type Publisher struct {
	mu        sync.RWMutex
	snapshots []domain.Snapshot
	limit     int
}

// NewPublisher creates a publisher keeping at most limit snapshots (0 keeps all).
func NewPublisher(limit int) *Publisher {
	return &Publisher{limit: limit}
}

// Publish records snap, evicting the oldest entries beyond the limit.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots = append(p.snapshots, snap)
	if p.limit > 0 && len(p.snapshots) > p.limit {
		p.snapshots = append([]domain.Snapshot(nil), p.snapshots[len(p.snapshots)-p.limit:]...)
	}
	return nil
}

// Snapshots returns the recorded snapshots, oldest first.
func (p *Publisher) Snapshots() []domain.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.Snapshot, len(p.snapshots))
	copy(out, p.snapshots)
	return out
}

// Last returns the most recent snapshot.
func (p *Publisher) Last() (domain.Snapshot, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if len(p.snapshots) == 0 {
		return domain.Snapshot{}, false
	}
	return p.snapshots[len(p.snapshots)-1], true
}
