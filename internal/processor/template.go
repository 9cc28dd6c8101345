package processor

import (
	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/frontmatter"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/templatelang"
	"github.com/aerstatic/aer/internal/value"
)

// Template compiles `{~ ... }` directives in any text asset, after
// extracting and merging its TOML frontmatter into the asset's context.
// Grounded on the original implementation's TemplateProcessor.
type Template struct{}

// NewTemplate constructs the template processor. It takes no options.
func NewTemplate(_ map[string]value.Value) (*Template, error) {
	return &Template{}, nil
}

func (Template) Name() string { return "template" }

func (Template) Accepts(mt asset.MediaType) bool { return !mt.IsBinary() }

func (Template) Run(a *asset.Asset) (Result, error) {
	text, ok := a.Content.AsText()
	if !ok {
		return Skip, nil
	}

	table, body, had := frontmatter.Split(text)
	if had {
		a.Context = a.Context.Merge(table)
	}

	rendered, err := templatelang.Render(body, a.Context)
	if err != nil {
		return Result{}, wrapTemplateError(err)
	}

	patternVal, hasPattern := a.Context.Get("pattern")
	if !hasPattern {
		a.Content = asset.TextContents(rendered)
		return Succeeded, nil
	}
	patternPath, ok := patternVal.AsText()
	if !ok || patternPath == "" {
		a.Content = asset.TextContents(rendered)
		return Succeeded, nil
	}

	partVal, ok := a.Context.Get(templatelang.PartKeyPrefix + patternPath)
	if !ok {
		return Result{}, procerr.Recoverable("pattern part not found: " + patternPath)
	}
	partContent, ok := partVal.AsText()
	if !ok {
		return Result{}, procerr.Recoverable("pattern part not found: " + patternPath)
	}

	patternCtx := a.Context.Clone()
	patternCtx.Set("content", value.Text(rendered))

	patternTable, patternBody, patternHad := frontmatter.Split(partContent)
	if patternHad {
		patternCtx = patternCtx.Merge(patternTable)
	}

	patternRendered, err := templatelang.Render(patternBody, patternCtx)
	if err != nil {
		return Result{}, wrapTemplateError(err)
	}

	a.Content = asset.TextContents(patternRendered)
	return Succeeded, nil
}

func wrapTemplateError(err error) error {
	if pe, ok := err.(*procerr.Error); ok {
		return pe
	}
	return procerr.WrapRecoverable(err, "template processing failed")
}
