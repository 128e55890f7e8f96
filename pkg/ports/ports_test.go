package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/statelab"
	"github.com/aretw0/statelab/pkg/adapters/file"
	"github.com/aretw0/statelab/pkg/adapters/memory"
	"github.com/aretw0/statelab/pkg/adapters/redis"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/aretw0/statelab/pkg/ports"
	"github.com/aretw0/statelab/pkg/sandbox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ ports.Engine            = (*statelab.Engine)(nil)
	_ ports.Sandbox           = (*sandbox.Sandbox)(nil)
	_ ports.ConfigLoader      = (*memory.Loader)(nil)
	_ ports.ConfigLoader      = loader.FileLoader{}
	_ ports.SnapshotPublisher = (*memory.Publisher)(nil)
	_ ports.SnapshotPublisher = (*redis.Publisher)(nil)
	_ ports.SnapshotPublisher = (*file.Publisher)(nil)
)

// Every loader must hand out configurations the caller may mutate freely.
func TestConfigLoaderContract(t *testing.T) {
	cfg := domain.Configuration{
		ID:           "door",
		InitialState: "closed",
		Context:      map[string]any{"opens": 0},
		States: map[string]domain.StateNode{
			"closed": {On: map[string]domain.Transition{"open": {To: "opened"}}},
			"opened": {},
		},
	}

	var l ports.ConfigLoader = memory.NewLoader(cfg)
	first, err := l.Load(context.Background())
	require.NoError(t, err)
	first.States["closed"].On["open"] = domain.Transition{To: "nowhere"}
	first.Context.(map[string]any)["opens"] = 99

	second, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opened", second.States["closed"].On["open"].To)
	assert.Equal(t, map[string]any{"opens": 0}, second.Context)
}
