package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")
	out := buf.String()
	assert.Contains(t, out, "v1.2.3")
	assert.Contains(t, out, bannerLines[0])
}

func TestRenderers(t *testing.T) {
	out, err := Plain("# Title")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n", out)

	render, err := NewRenderer(40)
	require.NoError(t, err)
	out, err = render("**bold** text")
	require.NoError(t, err)
	assert.Contains(t, out, "bold")
}
