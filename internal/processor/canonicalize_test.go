package processor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/value"
)

func newCanonicalizeT(t *testing.T, root string) *Canonicalize {
	t.Helper()
	p, err := NewCanonicalize(map[string]value.Value{"root": value.Text(root)})
	require.NoError(t, err)
	return p
}

func TestCanonicalizeAbsolutePaths(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	require.Equal(t, "https://example.com/path/to/file.css", p.canonicalizeURL("/path/to/file.css", "/some/asset.html"))
	require.Equal(t, "https://example.com/images/logo.png", p.canonicalizeURL("/images/logo.png", "/deep/nested/page.html"))
}

func TestCanonicalizeRelativePathsWithAssetContext(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")

	require.Equal(t, "https://example.com/path/to/styles.css", p.canonicalizeURL("./styles.css", "/path/to/file.html"))
	require.Equal(t, "https://example.com/path/styles.css", p.canonicalizeURL("../styles.css", "/path/to/file.html"))
	require.Equal(t, "https://example.com/path/styles.css", p.canonicalizeURL("../../styles.css", "/path/to/deep/file.html"))
	require.Equal(t, "https://example.com/path/to/styles.css", p.canonicalizeURL("styles.css", "/path/to/file.html"))
}

func TestCanonicalizeFromRootAsset(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	require.Equal(t, "https://example.com/styles.css", p.canonicalizeURL("./styles.css", "index.html"))
	require.Equal(t, "https://example.com/styles.css", p.canonicalizeURL("styles.css", "index.html"))
}

func TestCanonicalizePreservesQualifiedURLs(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	require.Equal(t, "https://cdn.example.com/lib.js", p.canonicalizeURL("https://cdn.example.com/lib.js", "/any/path.html"))
	require.Equal(t, "http://example.com/page", p.canonicalizeURL("http://example.com/page", "/any/path.html"))
	require.Equal(t, "//cdn.example.com/lib.js", p.canonicalizeURL("//cdn.example.com/lib.js", "/any/path.html"))
}

func TestCanonicalizePreservesSpecialURLs(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	require.Equal(t, "#section", p.canonicalizeURL("#section", "/any/path.html"))
	require.Equal(t, "data:image/png;base64,abc", p.canonicalizeURL("data:image/png;base64,abc", "/any/path.html"))
	require.Equal(t, "javascript:void(0)", p.canonicalizeURL("javascript:void(0)", "/any/path.html"))
	require.Equal(t, "mailto:test@example.com", p.canonicalizeURL("mailto:test@example.com", "/any/path.html"))
}

func TestCanonicalizeProcessesHTMLAttributes(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	htmlSrc := `
		<a href="/about">About</a>
		<img src="./images/photo.jpg" alt="Photo">
		<link rel="stylesheet" href="../styles.css">
		<script src="/app.js"></script>
	`
	result, err := p.processHTML(htmlSrc, "/path/to/page.html")
	require.NoError(t, err)
	require.Contains(t, result, `href="https://example.com/about"`)
	require.Contains(t, result, `src="https://example.com/path/to/images/photo.jpg"`)
	require.Contains(t, result, `href="https://example.com/path/styles.css"`)
	require.Contains(t, result, `src="https://example.com/app.js"`)
}

func TestCanonicalizeProcessesInlineStyles(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	result, err := p.processHTML(`<div style="background: url(../bg.png)">Content</div>`, "/path/to/page.html")
	require.NoError(t, err)
	require.Contains(t, result, "url(https://example.com/path/bg.png)")
}

func TestCanonicalizeHandlesRootWithTrailingSlash(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com/")
	require.Equal(t, "https://example.com/path", p.canonicalizeURL("/path", "/index.html"))
}

func TestCanonicalizeSkipsNonHTMLAssets(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	a := asset.New("script.js", []byte("const x = '/api'"), value.NewTable())
	result, err := p.Run(a)
	require.NoError(t, err)
	require.Equal(t, Skipped, result.Outcome)
	text, ok := a.Content.AsText()
	require.True(t, ok)
	require.Equal(t, "const x = '/api'", text)
}

func TestCanonicalizeRewritesStandaloneCSSAsset(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	a := asset.New("/path/to/styles.css", []byte(`body { background: url(../bg.png); }`), value.NewTable())
	result, err := p.Run(a)
	require.NoError(t, err)
	require.Equal(t, Success, result.Outcome)
	text, ok := a.Content.AsText()
	require.True(t, ok)
	require.Contains(t, text, "url(https://example.com/path/bg.png)")
}

func TestCanonicalizeProcessesHTMLAssetWithPath(t *testing.T) {
	p := newCanonicalizeT(t, "https://example.com")
	a := asset.New("/blog/posts/article.html", []byte(`<a href="../index.html">Back</a>`), value.NewTable())
	_, err := p.Run(a)
	require.NoError(t, err)
	text, ok := a.Content.AsText()
	require.True(t, ok)
	require.Contains(t, text, "https://example.com/blog/index.html")
}
