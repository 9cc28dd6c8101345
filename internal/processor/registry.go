package processor

import (
	"fmt"

	"github.com/aerstatic/aer/internal/value"
)

// constructor builds a configured Processor from a profile's `procs`
// options table for one processor name.
type constructor func(opts map[string]value.Value) (Processor, error)

var registry = map[string]constructor{
	"markdown": func(opts map[string]value.Value) (Processor, error) { return NewMarkdown(opts) },
	"template": func(opts map[string]value.Value) (Processor, error) { return NewTemplate(opts) },
	"canonicalize": func(opts map[string]value.Value) (Processor, error) {
		return NewCanonicalize(opts)
	},
	"scss":       func(opts map[string]value.Value) (Processor, error) { return NewSCSS(opts) },
	"minify_html": func(opts map[string]value.Value) (Processor, error) { return NewMinifyHTML(opts) },
	"minify_js":  func(opts map[string]value.Value) (Processor, error) { return NewMinifyJS(opts) },
	"image":      func(opts map[string]value.Value) (Processor, error) { return NewImage(opts) },
	"favicon":    func(opts map[string]value.Value) (Processor, error) { return NewFavicon(opts) },
	"js_bundle":  func(opts map[string]value.Value) (Processor, error) { return NewJSBundle(opts) },
}

// New constructs the named processor with the given options, as read
// from a profile's `[<profile>.procs.<name>]` table. It fails with an
// unknown-name error rather than silently ignoring a typo'd processor.
func New(name string, opts map[string]value.Value) (Processor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor %q", name)
	}
	return ctor(opts)
}
