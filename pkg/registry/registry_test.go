package registry_test

import (
	"context"
	"testing"

	"github.com/aretw0/statelab/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	reg := registry.NewRegistry()
	reg.Register("double", func(ctx context.Context, machineCtx any, input any) (any, error) {
		m := machineCtx.(map[string]any)
		m["n"] = m["n"].(int) * 2
		return m, nil
	})

	t.Run("Execute registered", func(t *testing.T) {
		out, err := reg.Execute(context.Background(), "double", map[string]any{"n": 2}, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"n": 4}, out)
	})

	t.Run("Missing action", func(t *testing.T) {
		_, err := reg.Execute(context.Background(), "missing", nil, nil)
		assert.ErrorContains(t, err, "action not found: missing")
	})

	t.Run("Names sorted", func(t *testing.T) {
		reg.Register("add", func(ctx context.Context, machineCtx any, input any) (any, error) { return machineCtx, nil })
		assert.Equal(t, []string{"add", "double"}, reg.Names())
	})

	t.Run("Nil registry lookup", func(t *testing.T) {
		var nilReg *registry.Registry
		_, ok := nilReg.Lookup("x")
		assert.False(t, ok)
	})
}
