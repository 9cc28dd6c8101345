package processor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/value"
)

func TestMarkdownConvertsToHTML(t *testing.T) {
	m, err := NewMarkdown(nil)
	require.NoError(t, err)
	require.True(t, m.Accepts(asset.Markdown))

	a := asset.New("post.md", []byte("# Hi\n"), value.NewTable())
	result, err := m.Run(a)
	require.NoError(t, err)
	require.Equal(t, Success, result.Outcome)

	text, ok := a.Content.AsText()
	require.True(t, ok)
	require.Equal(t, "<h1>Hi</h1>\n", text)
	require.True(t, a.MediaType.Equal(asset.HTML))
	require.Equal(t, "post.html", a.TargetPath)
}
