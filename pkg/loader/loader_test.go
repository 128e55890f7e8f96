package loader_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/statelab/internal/logging"
	"github.com/aretw0/statelab/pkg/domain"
	"github.com/aretw0/statelab/pkg/loader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toggleYAML = `
id: toggle
initialState: "off"
context:
  count: 0
  tags: [a, b]
states:
  "off":
    label: Off
    on:
      toggle:
        to: "on"
        action: context.count = (context.count ?? 0) + 1
  "on":
    on:
      toggle:
        to: "off"
        label: Switch off
`

const toggleJSON = `{
  "id": "toggle",
  "initialState": "off",
  "context": {"count": 0},
  "states": {
    "off": {"on": {"toggle": {"to": "on", "action": "context.count = (context.count ?? 0) + 1"}}},
    "on": {"on": {"toggle": {"to": "off"}}}
  }
}`

func TestParseConfig(t *testing.T) {
	t.Run("YAML", func(t *testing.T) {
		cfg, err := loader.ParseConfig([]byte(toggleYAML), loader.FormatYAML)
		require.NoError(t, err)

		assert.Equal(t, "toggle", cfg.ID)
		assert.Equal(t, "off", cfg.InitialState)
		assert.Equal(t, map[string]any{"count": 0, "tags": []any{"a", "b"}}, cfg.Context)
		require.Contains(t, cfg.States, "off")
		assert.Equal(t, "Off", cfg.States["off"].Label)
		assert.Equal(t, "on", cfg.States["off"].On["toggle"].To)
		assert.Equal(t, "context.count = (context.count ?? 0) + 1", cfg.States["off"].On["toggle"].Action)
		assert.Equal(t, "Switch off", cfg.States["on"].On["toggle"].Label)
	})

	t.Run("JSON", func(t *testing.T) {
		cfg, err := loader.ParseConfig([]byte(toggleJSON), loader.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"count": float64(0)}, cfg.Context)
		assert.Len(t, cfg.States, 2)
	})

	t.Run("Scalar Context", func(t *testing.T) {
		cfg, err := loader.ParseConfig([]byte(`{"initialState":"a","context":7,"states":{"a":{}}}`), loader.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, float64(7), cfg.Context)
	})

	t.Run("Extra Fields Are Ignored", func(t *testing.T) {
		doc := `{"description":"light","states":{"a":{"color":"red","on":{"go":{"to":"a","note":"x"}}}}}`
		cfg, err := loader.ParseConfig([]byte(doc), loader.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, "a", cfg.States["a"].On["go"].To)
	})

	t.Run("Mistyped Field", func(t *testing.T) {
		_, err := loader.ParseConfig([]byte(`{"states":{"a":{"on":"nope"}}}`), loader.FormatJSON)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("Syntax Error", func(t *testing.T) {
		_, err := loader.ParseConfig([]byte(`{"states":`), loader.FormatJSON)
		assert.Error(t, err)
	})

	t.Run("Empty Document", func(t *testing.T) {
		_, err := loader.ParseConfig([]byte(``), loader.FormatYAML)
		assert.ErrorIs(t, err, domain.ErrInvalidConfig)
	})

	t.Run("Missing States Is Left To The Engine", func(t *testing.T) {
		cfg, err := loader.ParseConfig([]byte(`id: bare`), loader.FormatYAML)
		require.NoError(t, err)
		assert.Nil(t, cfg.States)
	})
}

func TestFromMap(t *testing.T) {
	cfg, err := loader.FromMap(map[string]any{
		"initialState": "idle",
		"states": map[string]any{
			"idle": map[string]any{"on": map[string]any{"go": map[string]any{"to": "busy"}}},
			"busy": map[string]any{},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "busy", cfg.States["idle"].On["go"].To)
}

func TestParseScript(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		steps, err := loader.ParseScript([]byte(`
- event: toggle
- event: toggle
  input:
    by: alice
`), loader.FormatYAML)
		require.NoError(t, err)
		assert.Equal(t, []domain.ReplayStep{
			{Event: "toggle"},
			{Event: "toggle", Input: map[string]any{"by": "alice"}},
		}, steps)
	})

	t.Run("Steps Object", func(t *testing.T) {
		steps, err := loader.ParseScript([]byte(`{"steps":[{"event":"go","input":1}]}`), loader.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, []domain.ReplayStep{{Event: "go", Input: float64(1)}}, steps)
	})

	t.Run("Missing Event", func(t *testing.T) {
		_, err := loader.ParseScript([]byte(`[{"input":1}]`), loader.FormatJSON)
		assert.ErrorContains(t, err, "step 0 has no event")
	})

	t.Run("Empty", func(t *testing.T) {
		steps, err := loader.ParseScript([]byte(`[]`), loader.FormatJSON)
		require.NoError(t, err)
		assert.Empty(t, steps)
	})
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "toggle.yaml")
	jsonPath := filepath.Join(dir, "toggle.json")
	scriptPath := filepath.Join(dir, "script.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(toggleYAML), 0o600))
	require.NoError(t, os.WriteFile(jsonPath, []byte(toggleJSON), 0o600))
	require.NoError(t, os.WriteFile(scriptPath, []byte("- event: toggle\n"), 0o600))

	assert.Equal(t, loader.FormatJSON, loader.FormatFromPath(jsonPath))
	assert.Equal(t, loader.FormatJSON, loader.FormatFromPath("X.JSON"))
	assert.Equal(t, loader.FormatYAML, loader.FormatFromPath(yamlPath))

	fromYAML, err := loader.LoadConfigFile(yamlPath)
	require.NoError(t, err)
	fromJSON, err := loader.FileLoader{Path: jsonPath}.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fromYAML.States["off"].On, fromJSON.States["off"].On)

	steps, err := loader.LoadScriptFile(scriptPath)
	require.NoError(t, err)
	assert.Len(t, steps, 1)

	_, err = loader.LoadConfigFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "machine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("id: a\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes, err := loader.Watch(ctx, path, 10*time.Millisecond, logging.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(path, []byte("id: b\n"), 0o600))

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, open := <-changes:
			if !open {
				return
			}
		case <-deadline:
			t.Fatal("watcher did not stop")
		}
	}
}

func TestWatch_MissingDirectory(t *testing.T) {
	_, err := loader.Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "machine.yaml"), 0, logging.NewNop())
	assert.Error(t, err)
}
