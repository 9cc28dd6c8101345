package processor

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// JSBundle bundles a JavaScript asset and its ES-module imports into a
// single file via esbuild, starting from the asset's source path on
// disk. It does not resolve a cross-asset dependency graph through this
// pipeline's own processing; it delegates entirely to esbuild's bundler
// operating on the filesystem, which is the scope this processor claims.
type JSBundle struct {
	minify bool
}

// NewJSBundle constructs the js_bundle processor. Recognized options:
// minify (bool, default false).
func NewJSBundle(opts map[string]value.Value) (*JSBundle, error) {
	minify := false
	if v, ok := opts["minify"]; ok {
		minify = v.Truthy()
	}
	return &JSBundle{minify: minify}, nil
}

func (JSBundle) Name() string { return "js_bundle" }

func (JSBundle) Accepts(mt asset.MediaType) bool { return mt.Equal(asset.JavaScript) }

func (j JSBundle) Run(a *asset.Asset) (Result, error) {
	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{a.SourcePath},
		Bundle:            true,
		Format:            api.FormatESModule,
		Write:             false,
		MinifyWhitespace:  j.minify,
		MinifyIdentifiers: j.minify,
		MinifySyntax:      j.minify,
	})
	if len(result.Errors) > 0 {
		messages := make([]string, len(result.Errors))
		for i, msg := range result.Errors {
			messages[i] = msg.Text
		}
		return Result{}, procerr.Recoverable("js bundling failed: " + strings.Join(messages, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return Result{}, procerr.Recoverable("js bundling produced no output")
	}

	a.Content = asset.TextContents(string(result.OutputFiles[0].Contents))
	return Succeeded, nil
}
