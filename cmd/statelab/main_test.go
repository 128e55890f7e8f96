package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/statelab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toggleYAML = `id: toggle
initialState: "off"
context:
  count: 0
states:
  "off":
    label: Off
    on:
      toggle: {to: "on", action: "context.count = context.count + 1"}
  "on":
    on:
      toggle: {to: "off"}
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	defer rootCmd.SetArgs(nil)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "statelab version "+statelab.Version+"\n", out)
}

func TestValidateCommand(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		out, err := execute(t, "validate", writeFile(t, "toggle.yaml", toggleYAML))
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration is valid!")
	})

	t.Run("Broken target", func(t *testing.T) {
		broken := strings.Replace(toggleYAML, `toggle: {to: "off"}`, `toggle: {to: "void"}`, 1)
		out, err := execute(t, "validate", writeFile(t, "broken.yaml", broken))
		require.Error(t, err)
		assert.Contains(t, out, "void")
	})
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", writeFile(t, "toggle.yaml", toggleYAML))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "stateDiagram-v2"))
	assert.Contains(t, out, "class off current")
}

func TestReplayCommand(t *testing.T) {
	cfg := writeFile(t, "toggle.yaml", toggleYAML)
	script := writeFile(t, "script.yaml", "- event: toggle\n- event: nope\n- event: toggle\n- event: toggle\n")

	out, err := execute(t, "replay", cfg, script, "--delay", "0s", "--json")
	require.NoError(t, err)

	var resp struct {
		ReplayID string `json:"replayId"`
		Results  []struct {
			Kind string `json:"kind"`
		} `json:"results"`
		State struct {
			ID      string         `json:"id"`
			Context map[string]any `json:"context"`
		} `json:"state"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.NotEmpty(t, resp.ReplayID)
	require.Len(t, resp.Results, 4)
	assert.Equal(t, "no_transition", resp.Results[1].Kind)
	assert.Equal(t, "on", resp.State.ID)
	assert.Equal(t, float64(2), resp.State.Context["count"])
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "graph", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExampleMachines(t *testing.T) {
	for _, name := range []string{"toggle.yaml", "checkout.json"} {
		t.Run(name, func(t *testing.T) {
			out, err := execute(t, "validate", filepath.Join("..", "..", "examples", "machines", name), "--strict")
			require.NoError(t, err, out)
		})
	}

	t.Run("checkout replay", func(t *testing.T) {
		dir := filepath.Join("..", "..", "examples", "machines")
		out, err := execute(t, "replay", filepath.Join(dir, "checkout.json"), filepath.Join(dir, "checkout.script.yaml"), "--delay", "0s", "--json")
		require.NoError(t, err, out)

		var resp struct {
			State struct {
				ID      string         `json:"id"`
				Context map[string]any `json:"context"`
			} `json:"state"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
		assert.Equal(t, "done", resp.State.ID)
		assert.Equal(t, true, resp.State.Context["paid"])
		assert.Equal(t, float64(20), resp.State.Context["total"])
	})
}
