// Package asset implements the in-memory Asset record that flows through
// the processing pipeline: a source path, a mutable target path, a
// current media type, text-or-bytes content, and a per-asset context
// clone. Ported from the original implementation's Asset struct.
package asset

import (
	"path"
	"strings"
	"unicode/utf8"

	"github.com/aerstatic/aer/internal/value"
)

// Contents is the asset's payload: either valid UTF-8 Text or raw Bytes.
// Text content is always valid UTF-8; content whose media type is
// inherently binary is always carried as Bytes.
type Contents struct {
	text     string
	bytes    []byte
	isBinary bool
}

func TextContents(s string) Contents  { return Contents{text: s} }
func BytesContents(b []byte) Contents { return Contents{bytes: b, isBinary: true} }

// AsBytes returns the raw bytes of the content, regardless of variant.
func (c Contents) AsBytes() []byte {
	if c.isBinary {
		return c.bytes
	}
	return []byte(c.text)
}

// AsText returns the text of the content and whether it was Text.
func (c Contents) AsText() (string, bool) {
	if c.isBinary {
		return "", false
	}
	return c.text, true
}

func (c Contents) IsBinary() bool { return c.isBinary }

// Asset is the unit of work the orchestrator moves through processors.
type Asset struct {
	SourcePath string
	TargetPath string
	MediaType  MediaType
	Content    Contents
	Context    *value.Table

	// IsPart is true iff any path component of SourcePath begins with "_".
	IsPart bool

	// Errors accumulates recoverable processor failures recorded against
	// this asset: the failing processor and the message it returned.
	Errors []ProcessorError

	// deferralCounts tracks, per processor name, how many times this
	// asset has been deferred — used by the orchestrator's cycle
	// heuristic.
	deferralCounts map[string]int
}

// ProcessorError names a processor that failed against this asset and
// the recoverable error message it returned.
type ProcessorError struct {
	Processor string
	Message   string
}

// New constructs an Asset for sourcePath with raw file content. The
// media type is derived from the extension; content is classified as
// Text when it's valid UTF-8 and the media type isn't inherently binary,
// Bytes otherwise.
func New(sourcePath string, raw []byte, ctx *value.Table) *Asset {
	ext := extensionOf(sourcePath)
	mt := FromExtension(ext)

	var content Contents
	if !mt.IsBinary() && utf8.Valid(raw) {
		content = TextContents(string(raw))
	} else {
		content = BytesContents(raw)
	}

	return &Asset{
		SourcePath:     sourcePath,
		TargetPath:     sourcePath,
		MediaType:      mt,
		Content:        content,
		Context:        ctx,
		IsPart:         IsPart(sourcePath),
		deferralCounts: make(map[string]int),
	}
}

func extensionOf(p string) string {
	ext := path.Ext(p)
	return strings.TrimPrefix(ext, ".")
}

// IsPart reports whether p has any "_"-prefixed path component.
func IsPart(p string) bool {
	for _, component := range strings.Split(filepathToSlash(p), "/") {
		if strings.HasPrefix(component, "_") {
			return true
		}
	}
	return false
}

func filepathToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// RecordError appends a recoverable error against the asset.
func (a *Asset) RecordError(processor, message string) {
	a.Errors = append(a.Errors, ProcessorError{Processor: processor, Message: message})
}

// DeferralCount returns how many times processorName has deferred on
// this asset so far.
func (a *Asset) DeferralCount(processorName string) int {
	return a.deferralCounts[processorName]
}

// RecordDeferral increments the deferral counter for processorName.
func (a *Asset) RecordDeferral(processorName string) {
	a.deferralCounts[processorName]++
}

// TotalDeferrals returns how many times this asset has deferred across
// all processors, for the orchestrator's cycle heuristic.
func (a *Asset) TotalDeferrals() int {
	total := 0
	for _, n := range a.deferralCounts {
		total += n
	}
	return total
}

// RewriteExtension replaces TargetPath's extension with ext (without a
// leading dot), used by processors that change the asset's media type
// (e.g. markdown -> html).
func (a *Asset) RewriteExtension(ext string) {
	dir, base := path.Split(a.TargetPath)
	if dot := strings.LastIndex(base, "."); dot >= 0 {
		base = base[:dot]
	}
	a.TargetPath = path.Join(dir, base+"."+ext)
}
