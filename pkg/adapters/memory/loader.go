package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/statelab/pkg/domain"
	"github.com/mohae/deepcopy"
)

// Loader implements ports.ConfigLoader over a configuration held in memory.
type Loader struct {
	cfg domain.Configuration
}

// NewLoader keeps a private copy of cfg.
func NewLoader(cfg domain.Configuration) *Loader {
	return &Loader{cfg: deepcopy.Copy(cfg).(domain.Configuration)}
}

// Load returns a fresh copy on every call, so callers may mutate the result.
func (l *Loader) Load(ctx context.Context) (*domain.Configuration, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load canceled: %w", err)
	}
	c := deepcopy.Copy(l.cfg).(domain.Configuration)
	return &c, nil
}
