package processor

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// Image resizes raster images to fit within max_width/max_height,
// preserving aspect ratio, and is a no-op when the source already fits.
type Image struct {
	maxWidth  int
	maxHeight int
}

// NewImage constructs the image processor. Recognized options:
// max_width, max_height (text, parsed as integers; default 0, meaning
// unbounded on that axis).
func NewImage(opts map[string]value.Value) (*Image, error) {
	return &Image{
		maxWidth:  intOption(opts, "max_width"),
		maxHeight: intOption(opts, "max_height"),
	}, nil
}

func intOption(opts map[string]value.Value, key string) int {
	v, ok := opts[key]
	if !ok {
		return 0
	}
	text, ok := v.AsText()
	if !ok {
		return 0
	}
	n := 0
	for _, c := range text {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func (Image) Name() string { return "image" }

func (Image) Accepts(mt asset.MediaType) bool {
	return mt.Equal(asset.JPEG) || mt.Equal(asset.PNG) || mt.Equal(asset.GIF)
}

func (p Image) Run(a *asset.Asset) (Result, error) {
	if p.maxWidth == 0 && p.maxHeight == 0 {
		return Skip, nil
	}

	img, format, err := image.Decode(bytes.NewReader(a.Content.AsBytes()))
	if err != nil {
		return Result{}, procerr.WrapRecoverable(err, "failed to decode image")
	}

	bounds := img.Bounds()
	if fitsWithin(bounds.Dx(), bounds.Dy(), p.maxWidth, p.maxHeight) {
		return Skip, nil
	}

	resized := imaging.Fit(img, maxOrZero(p.maxWidth, bounds.Dx()), maxOrZero(p.maxHeight, bounds.Dy()), imaging.Lanczos)

	var buf bytes.Buffer
	if err := encode(&buf, resized, format); err != nil {
		return Result{}, procerr.WrapRecoverable(err, "failed to encode resized image")
	}

	a.Content = asset.BytesContents(buf.Bytes())
	return Succeeded, nil
}

func fitsWithin(w, h, maxW, maxH int) bool {
	if maxW > 0 && w > maxW {
		return false
	}
	if maxH > 0 && h > maxH {
		return false
	}
	return true
}

func maxOrZero(bound, fallback int) int {
	if bound == 0 {
		return fallback
	}
	return bound
}

func encode(buf *bytes.Buffer, img image.Image, format string) error {
	switch format {
	case "png":
		return png.Encode(buf, img)
	case "gif":
		return gif.Encode(buf, img, nil)
	default:
		return jpeg.Encode(buf, img, &jpeg.Options{Quality: 90})
	}
}
