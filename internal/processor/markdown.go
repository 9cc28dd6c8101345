package processor

import (
	"bytes"

	"github.com/yuin/goldmark"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// Markdown renders text/markdown assets to an HTML body fragment and
// rewrites their target extension to .html. Grounded on the teacher's
// markdown rendering (goldmark.Convert usage) generalized from a link
// extractor into a full renderer per this pipeline's media-type model.
type Markdown struct {
	md goldmark.Markdown
}

// NewMarkdown constructs the markdown processor. It takes no options.
func NewMarkdown(_ map[string]value.Value) (*Markdown, error) {
	return &Markdown{md: goldmark.New()}, nil
}

func (Markdown) Name() string { return "markdown" }

func (Markdown) Accepts(mt asset.MediaType) bool { return mt.Equal(asset.Markdown) }

func (m Markdown) Run(a *asset.Asset) (Result, error) {
	text, ok := a.Content.AsText()
	if !ok {
		return Skip, nil
	}

	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return Result{}, procerr.WrapRecoverable(err, "markdown rendering failed")
	}

	a.Content = asset.TextContents(buf.String())
	a.MediaType = asset.HTML
	a.RewriteExtension(asset.HTML.PreferredExtension())
	return Succeeded, nil
}
