package processor

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// urlAttrs are the HTML attributes, other than <script src>, that
// canonicalize rewrites when present on any element.
var urlAttrs = []string{"href", "src", "action", "poster", "data", "cite", "formaction"}

// Canonicalize rewrites relative and root-relative URLs in text/html
// and text/css assets into fully-qualified URLs under root.
//
// An absolute path (leading "/") is resolved directly against root:
// "/path/to/file" becomes "{root}/path/to/file". A relative path
// ("./file", "../file", "file") is resolved against root and the
// asset's target directory: an asset at "/path/to/file.html"
// containing "../styles.css" becomes "{root}/path/styles.css".
//
// <script> elements have only their src attribute rewritten; no other
// attribute or inline script body is touched. Already-qualified URLs
// (http:, https:, protocol-relative "//", data:, javascript:, mailto:)
// and fragments ("#...") pass through unchanged.
type Canonicalize struct {
	root *url.URL
}

// NewCanonicalize constructs the canonicalize processor. Recognized
// options: root (text, required), the base URL new URLs are resolved
// against — should include the scheme, e.g. "https://example.com".
func NewCanonicalize(opts map[string]value.Value) (*Canonicalize, error) {
	v, ok := opts["root"]
	if !ok {
		return nil, fmt.Errorf("canonicalize: missing required option %q", "root")
	}
	text, ok := v.AsText()
	if !ok || text == "" {
		return nil, fmt.Errorf("canonicalize: option %q must be non-empty text", "root")
	}
	if !strings.HasSuffix(text, "/") {
		text += "/"
	}
	root, err := url.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: invalid root URL %q: %w", text, err)
	}
	return &Canonicalize{root: root}, nil
}

func (Canonicalize) Name() string { return "canonicalize" }

func (Canonicalize) Accepts(mt asset.MediaType) bool {
	return mt.Equal(asset.HTML) || mt.Equal(asset.CSS)
}

func (c *Canonicalize) Run(a *asset.Asset) (Result, error) {
	text, ok := a.Content.AsText()
	if !ok {
		return Skip, nil
	}

	switch {
	case a.MediaType.Equal(asset.HTML):
		rewritten, err := c.processHTML(text, a.TargetPath)
		if err != nil {
			return Result{}, procerr.WrapRecoverable(err, "failed to canonicalize HTML")
		}
		a.Content = asset.TextContents(rewritten)
		return Succeeded, nil

	case a.MediaType.Equal(asset.CSS):
		a.Content = asset.TextContents(c.processCSS(text, a.TargetPath))
		return Succeeded, nil

	default:
		return Skip, nil
	}
}

// processHTML parses html as a body fragment, rewrites URL-bearing
// attributes in place, and renders the result back out. Parsing as a
// fragment (rather than a full document) avoids golang.org/x/net/html
// inventing an <html>/<head>/<body> wrapper around partial templates.
func (c *Canonicalize) processHTML(source, assetPath string) (string, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(source), context)
	if err != nil {
		return "", err
	}

	for _, n := range nodes {
		c.rewriteNode(n, assetPath)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (c *Canonicalize) rewriteNode(n *html.Node, assetPath string) {
	if n.Type == html.ElementNode {
		if n.DataAtom == atom.Script {
			c.rewriteAttr(n, "src", assetPath)
		} else {
			for _, name := range urlAttrs {
				c.rewriteAttr(n, name, assetPath)
			}
			c.rewriteStyleAttr(n, assetPath)
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		c.rewriteNode(child, assetPath)
	}
}

func (c *Canonicalize) rewriteAttr(n *html.Node, name, assetPath string) {
	for i, attr := range n.Attr {
		if !strings.EqualFold(attr.Key, name) {
			continue
		}
		canonical := c.canonicalizeURL(attr.Val, assetPath)
		if canonical != attr.Val {
			n.Attr[i].Val = canonical
		}
		return
	}
}

func (c *Canonicalize) rewriteStyleAttr(n *html.Node, assetPath string) {
	for i, attr := range n.Attr {
		if !strings.EqualFold(attr.Key, "style") {
			continue
		}
		canonical := c.processCSS(attr.Val, assetPath)
		if canonical != attr.Val {
			n.Attr[i].Val = canonical
		}
		return
	}
}

// processCSS rewrites every url(...) occurrence in css, canonicalizing
// the enclosed URL whether or not it is quoted.
func (c *Canonicalize) processCSS(css, assetPath string) string {
	var result strings.Builder
	result.Grow(len(css))

	i := 0
	for i < len(css) {
		if css[i] == 'u' && strings.HasPrefix(css[i:], "url(") {
			result.WriteString("url(")
			i += len("url(")

			for i < len(css) && isCSSSpace(css[i]) {
				result.WriteByte(css[i])
				i++
			}

			var quote byte
			if i < len(css) && (css[i] == '"' || css[i] == '\'') {
				quote = css[i]
				result.WriteByte(quote)
				i++
			}

			start := i
			for i < len(css) {
				if quote != 0 {
					if css[i] == quote {
						break
					}
				} else if css[i] == ')' || isCSSSpace(css[i]) {
					break
				}
				i++
			}
			result.WriteString(c.canonicalizeURL(css[start:i], assetPath))

			if quote != 0 && i < len(css) && css[i] == quote {
				result.WriteByte(css[i])
				i++
			}
			continue
		}
		result.WriteByte(css[i])
		i++
	}
	return result.String()
}

func isCSSSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

// canonicalizeURL resolves a single URL reference found in assetPath's
// content into a fully-qualified URL under root.
func (c *Canonicalize) canonicalizeURL(rawURL, assetPath string) string {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return u
	}

	switch {
	case strings.HasPrefix(u, "http://"),
		strings.HasPrefix(u, "https://"),
		strings.HasPrefix(u, "//"),
		strings.HasPrefix(u, "data:"),
		strings.HasPrefix(u, "javascript:"),
		strings.HasPrefix(u, "mailto:"),
		strings.HasPrefix(u, "#"):
		return u
	}

	if stripped, ok := strings.CutPrefix(u, "/"); ok {
		return c.joinRoot(stripped)
	}

	assetDir := ""
	if idx := strings.LastIndex(assetPath, "/"); idx >= 0 {
		assetDir = strings.TrimPrefix(assetPath[:idx], "/")
	}
	return c.joinRoot(path.Join(assetDir, u))
}

// joinRoot resolves p (a slash-separated path with no leading slash,
// already relative-joined against an asset directory) against the
// processor's root URL.
func (c *Canonicalize) joinRoot(p string) string {
	clean := path.Clean("/" + p)
	if clean == "/" {
		clean = ""
	}
	result := *c.root
	result.Path = strings.TrimSuffix(c.root.Path, "/") + clean
	return result.String()
}
