package processor

import (
	"github.com/bep/godartsass/v2"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// SCSS compiles text/x-scss assets to CSS using a Dart Sass compiler
// process started through godartsass, rewriting the target extension to
// .css. Failure to start the
// transpiler (missing binary) is a Recoverable error against the asset
// rather than aborting the whole build, matching this pipeline's
// per-asset error scoping.
type SCSS struct{}

// NewSCSS constructs the scss processor. It takes no options.
func NewSCSS(_ map[string]value.Value) (*SCSS, error) {
	return &SCSS{}, nil
}

func (SCSS) Name() string { return "scss" }

func (SCSS) Accepts(mt asset.MediaType) bool { return mt.Equal(asset.SCSS) }

func (SCSS) Run(a *asset.Asset) (Result, error) {
	text, ok := a.Content.AsText()
	if !ok {
		return Skip, nil
	}

	transpiler, err := godartsass.Start(godartsass.Options{})
	if err != nil {
		return Result{}, procerr.WrapRecoverable(err, "failed to start scss transpiler")
	}
	defer transpiler.Close()

	result, err := transpiler.Execute(godartsass.Args{Source: text})
	if err != nil {
		return Result{}, procerr.WrapRecoverable(err, "scss compilation failed")
	}

	a.Content = asset.TextContents(result.CSS)
	a.MediaType = asset.CSS
	a.RewriteExtension(asset.CSS.PreferredExtension())
	return Succeeded, nil
}
