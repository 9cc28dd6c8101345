package processor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/value"
)

func TestFaviconOnlyMatchesRootFaviconPNG(t *testing.T) {
	p, err := NewFavicon(nil)
	require.NoError(t, err)

	other := asset.New("images/favicon.png", makePNG(t, 64, 64), value.NewTable())
	result, err := p.Run(other)
	require.NoError(t, err)
	require.Equal(t, Skipped, result.Outcome)
}

func TestFaviconEncodesICO(t *testing.T) {
	p, err := NewFavicon(nil)
	require.NoError(t, err)

	a := asset.New("favicon.png", makePNG(t, 64, 64), value.NewTable())
	result, err := p.Run(a)
	require.NoError(t, err)
	require.Equal(t, Success, result.Outcome)
	require.True(t, a.MediaType.Equal(asset.Icon))
	require.Equal(t, "favicon.ico", a.TargetPath)
	require.NotEmpty(t, a.Content.AsBytes())
}
