package tui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")

	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, "|___/")
	// a buffer is not a terminal, so no escape sequences
	assert.NotContains(t, out, "\x1b[")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer()
	require.NoError(t, err)

	out, err := render("## State: on\n\n- `toggle` → off\n")
	require.NoError(t, err)
	assert.Contains(t, out, "State: on")
	assert.Contains(t, out, "toggle")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(nil))

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, IsTerminal(f))
	assert.Equal(t, defaultWidth, terminalWidth(f))
}
