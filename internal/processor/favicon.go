package processor

import (
	"bytes"
	"image/png"
	"path"

	ico "github.com/Kodeworks/golang-image-ico"
	"github.com/disintegration/imaging"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// faviconSize is the square dimension favicon.png is resized to before
// ICO encoding. golang-image-ico encodes a single image per call, so
// this processor emits one resolution rather than a packed multi-size
// ICO.
const faviconSize = 32

// Favicon recognizes a source PNG named favicon.png at the source root
// and converts that asset into favicon.ico; the PNG itself is not
// written.
type Favicon struct{}

// NewFavicon constructs the favicon processor. It takes no options.
func NewFavicon(_ map[string]value.Value) (*Favicon, error) {
	return &Favicon{}, nil
}

func (Favicon) Name() string { return "favicon" }

func (Favicon) Accepts(mt asset.MediaType) bool { return mt.Equal(asset.PNG) }

func (Favicon) Run(a *asset.Asset) (Result, error) {
	if path.Base(a.SourcePath) != "favicon.png" || path.Dir(a.SourcePath) != "." {
		return Skip, nil
	}

	src, err := png.Decode(bytes.NewReader(a.Content.AsBytes()))
	if err != nil {
		return Result{}, procerr.WrapRecoverable(err, "failed to decode favicon source")
	}

	resized := imaging.Resize(src, faviconSize, faviconSize, imaging.Lanczos)

	var buf bytes.Buffer
	if err := ico.Encode(&buf, resized); err != nil {
		return Result{}, procerr.WrapRecoverable(err, "failed to encode favicon.ico")
	}

	a.Content = asset.BytesContents(buf.Bytes())
	a.MediaType = asset.Icon
	a.RewriteExtension(asset.Icon.PreferredExtension())
	return Succeeded, nil
}
