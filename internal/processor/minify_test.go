package processor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/value"
)

func TestMinifyHTMLStripsWhitespace(t *testing.T) {
	p, err := NewMinifyHTML(nil)
	require.NoError(t, err)

	a := asset.New("page.html", []byte("<html>  <body>\n  <p>Hi</p>\n </body></html>"), value.NewTable())
	result, err := p.Run(a)
	require.NoError(t, err)
	require.Equal(t, Success, result.Outcome)

	text, ok := a.Content.AsText()
	require.True(t, ok)
	require.NotContains(t, text, "\n")
}

func TestMinifyJSSkipsAlreadyMinified(t *testing.T) {
	p, err := NewMinifyJS(nil)
	require.NoError(t, err)

	a := asset.New("lib.min.js", []byte("function  f( ) { return 1 ; }"), value.NewTable())
	a.TargetPath = "lib.min.js"
	result, err := p.Run(a)
	require.NoError(t, err)
	require.Equal(t, Skipped, result.Outcome)
}

func TestMinifyJSMinifiesSource(t *testing.T) {
	p, err := NewMinifyJS(nil)
	require.NoError(t, err)

	a := asset.New("app.js", []byte("function f( ) { return 1 ; }"), value.NewTable())
	result, err := p.Run(a)
	require.NoError(t, err)
	require.Equal(t, Success, result.Outcome)

	text, ok := a.Content.AsText()
	require.True(t, ok)
	require.Less(t, len(text), len("function f( ) { return 1 ; }"))
}
