package tui_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/guidepost/internal/presentation/tui"
)

func TestPrint_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, tui.IsTerminal(&buf))

	require.NoError(t, tui.Print(&buf, "# Paths\n\n0. `tutorial:next`\n"))
	assert.Equal(t, "# Paths\n\n0. `tutorial:next`\n", buf.String())
}

func TestNewRenderer(t *testing.T) {
	out, err := tui.NewRenderer()("**bold**")
	require.NoError(t, err)
	assert.Contains(t, out, "bold")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
	assert.Contains(t, buf.String(), `|_|`)
}
