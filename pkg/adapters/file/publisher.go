// Package file persists snapshots to the local filesystem.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/statelab/pkg/domain"
)

// ErrNoSnapshot is returned by Latest before anything was published.
var ErrNoSnapshot = errors.New("no snapshot published")

// Publisher implements ports.SnapshotPublisher by writing the latest
// snapshot to a JSON file. Writes go to a temporary file that is renamed
// over the target, so readers never see a partial document.
type Publisher struct {
	Path string
}

// NewPublisher creates a publisher for path.
// If path is empty, it defaults to ".statelab/snapshot.json".
func NewPublisher(path string) *Publisher {
	if path == "" {
		path = filepath.Join(".statelab", "snapshot.json")
	}
	return &Publisher{Path: path}
}

// Publish replaces the file with snap.
func (p *Publisher) Publish(ctx context.Context, snap domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(p.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.Path); err != nil {
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}
	return nil
}

// Latest reads the last published snapshot.
func (p *Publisher) Latest(ctx context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Snapshot{}, ErrNoSnapshot
		}
		return domain.Snapshot{}, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return snap, nil
}
