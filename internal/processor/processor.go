// Package processor defines the Processor interface the orchestrator
// drives, and the concrete transforms (markdown, scss, template,
// canonicalize, image, js_bundle, minify_html, minify_js, favicon) that
// implement it.
//
// Grounded on the original implementation's ProcessesAssets trait
// (proc/mod.rs): a processor declares which media types it applies to,
// receives an Asset plus a shared Context, and mutates the asset's
// content/media type/target path in place.
package processor

import (
	"github.com/aerstatic/aer/internal/asset"
)

// Outcome classifies how a processor run against one asset concluded.
type Outcome int

const (
	// Success means the processor ran and (possibly) changed the asset.
	Success Outcome = iota
	// Skipped means the processor declined to act on this asset (wrong
	// media type, or a no-op condition specific to the processor).
	Skipped
)

// Result is what Run returns: either an Outcome, or an error carrying
// one of the procerr taxonomy kinds.
type Result struct {
	Outcome Outcome
}

// Succeeded and Skip are the two non-error results a Processor returns.
var Succeeded = Result{Outcome: Success}
var Skip = Result{Outcome: Skipped}

// Processor transforms one asset's content, media type, or target path.
// Options are bound at construction time (each processor is configured
// once per profile's `procs` entry).
type Processor interface {
	// Name identifies the processor in logs, errors, and config.
	Name() string
	// Accepts reports whether this processor applies to media type mt.
	Accepts(mt asset.MediaType) bool
	// Run applies the transform to a, using a.Context as the per-asset
	// build context. Processors that need data from other assets (e.g.
	// a page query) should return a procerr.Deferred error rather than
	// erroring fatally.
	Run(a *asset.Asset) (Result, error)
}
