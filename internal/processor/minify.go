package processor

import (
	"bytes"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/value"
)

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	return m
}

// MinifyHTML minifies text/html assets in place. A minification failure
// leaves the asset's content unchanged and is reported as a Skip (the
// orchestrator logs a warning for it) rather than failing the build,
// since a minifier bug should never make a correctly-rendered page
// vanish from the output.
type MinifyHTML struct {
	m *minify.M
}

// NewMinifyHTML constructs the minify_html processor. It takes no options.
func NewMinifyHTML(_ map[string]value.Value) (*MinifyHTML, error) {
	return &MinifyHTML{m: newMinifier()}, nil
}

func (MinifyHTML) Name() string { return "minify_html" }

func (MinifyHTML) Accepts(mt asset.MediaType) bool { return mt.Equal(asset.HTML) }

func (p MinifyHTML) Run(a *asset.Asset) (Result, error) {
	text, ok := a.Content.AsText()
	if !ok {
		return Skip, nil
	}

	var buf bytes.Buffer
	if err := p.m.Minify("text/html", &buf, strings.NewReader(text)); err != nil {
		return Skip, nil
	}

	a.Content = asset.TextContents(buf.String())
	return Succeeded, nil
}

// MinifyJS minifies application/javascript assets in place, skipping
// assets whose target path already ends in .min.js (already minified
// upstream, e.g. a vendored library copied in as-is).
type MinifyJS struct {
	m *minify.M
}

// NewMinifyJS constructs the minify_js processor. It takes no options.
func NewMinifyJS(_ map[string]value.Value) (*MinifyJS, error) {
	return &MinifyJS{m: newMinifier()}, nil
}

func (MinifyJS) Name() string { return "minify_js" }

func (MinifyJS) Accepts(mt asset.MediaType) bool { return mt.Equal(asset.JavaScript) }

func (p MinifyJS) Run(a *asset.Asset) (Result, error) {
	if strings.HasSuffix(a.TargetPath, ".min.js") {
		return Skip, nil
	}
	text, ok := a.Content.AsText()
	if !ok {
		return Skip, nil
	}

	var buf bytes.Buffer
	if err := p.m.Minify("application/javascript", &buf, strings.NewReader(text)); err != nil {
		return Skip, nil
	}

	a.Content = asset.TextContents(buf.String())
	return Succeeded, nil
}
