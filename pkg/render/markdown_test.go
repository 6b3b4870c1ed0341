package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown_RendersPlainStyle(t *testing.T) {
	md, err := NewMarkdown(StyleNoTTY, 60)
	require.NoError(t, err)

	out := md.Render("# Title\n\nSome **bold** text and `code`.")
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestMarkdown_ClampsWidth(t *testing.T) {
	md, err := NewMarkdown(StyleNoTTY, 3)
	require.NoError(t, err)
	assert.Equal(t, minWidth, md.Width())
}

func TestMarkdown_Resize(t *testing.T) {
	md, err := NewMarkdown(StyleNoTTY, 60)
	require.NoError(t, err)

	same, err := md.Resize(60)
	require.NoError(t, err)
	assert.Same(t, md, same)

	wider, err := md.Resize(100)
	require.NoError(t, err)
	assert.Equal(t, 100, wider.Width())
	assert.Equal(t, StyleNoTTY, wider.Style())
}

func TestMarkdown_UnknownStyleFails(t *testing.T) {
	_, err := NewMarkdown("no-such-style", 60)
	assert.Error(t, err)
}

func TestMarkdown_NilRendersRawText(t *testing.T) {
	var md *Markdown
	assert.Equal(t, "raw *text*", md.Render("raw *text*"))
}
