package frontmatter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/frontmatter"
)

func TestSplitNoFrontmatter(t *testing.T) {
	table, body, had := frontmatter.Split("# Hi\n")
	assert.Nil(t, table)
	assert.Equal(t, "# Hi\n", body)
	assert.False(t, had)
}

func TestSplitExtractsTable(t *testing.T) {
	content := "title = \"Hello\"\nadmin = \"true\"\n***\nbody text"
	table, body, had := frontmatter.Split(content)
	require.True(t, had)
	assert.Equal(t, "body text", body)

	v, ok := table.Get("title")
	require.True(t, ok)
	text, _ := v.AsText()
	assert.Equal(t, "Hello", text)
}

func TestSplitTreatsInvalidTomlAsNoFrontmatter(t *testing.T) {
	content := "not : valid [ toml\n***\nbody"
	table, body, had := frontmatter.Split(content)
	assert.Nil(t, table)
	assert.False(t, had)
	assert.Equal(t, content, body)
}

func TestSplitJoinRoundTrip(t *testing.T) {
	content := "title = \"Hello\"\n***\nbody text"
	_, raw, body, had := frontmatter.SplitRaw(content)
	require.True(t, had)

	rejoined := frontmatter.Join(raw, body, had)
	assert.Equal(t, content, rejoined)
}

func TestSplitEmptyFrontmatter(t *testing.T) {
	content := "***\nbody only"
	table, body, had := frontmatter.Split(content)
	require.True(t, had)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, "body only", body)
}
