package asset

// MediaType is one of the media types the pipeline explicitly recognizes.
// Unknown extensions default to application/octet-stream.
//
// Ported from the variant table in the original implementation's
// asset/media_type module, generalized with the additional types this
// pipeline's processors require (JavaScript, the image formats, and the
// favicon's x-icon output type).
type MediaType struct {
	name       string
	extensions []string
	binary     bool
}

func (m MediaType) Name() string         { return m.name }
func (m MediaType) Extensions() []string { return m.extensions }

// PreferredExtension returns the first declared extension of this media
// type. Processors that change an asset's media type use it to rewrite
// the target path's extension; the write phase itself writes to the
// target path as it stands.
func (m MediaType) PreferredExtension() string {
	if len(m.extensions) == 0 {
		return ""
	}
	return m.extensions[0]
}

// IsBinary reports whether content of this media type must be carried as
// Bytes rather than Text.
func (m MediaType) IsBinary() bool { return m.binary }

func (m MediaType) Equal(other MediaType) bool { return m.name == other.name }

var (
	Markdown    = MediaType{name: "text/markdown", extensions: []string{"md", "markdown"}}
	HTML        = MediaType{name: "text/html", extensions: []string{"html", "htm"}}
	CSS         = MediaType{name: "text/css", extensions: []string{"css"}}
	SCSS        = MediaType{name: "text/x-scss", extensions: []string{"scss"}}
	JavaScript  = MediaType{name: "application/javascript", extensions: []string{"js"}}
	JPEG        = MediaType{name: "image/jpeg", extensions: []string{"jpg", "jpeg"}, binary: true}
	PNG         = MediaType{name: "image/png", extensions: []string{"png"}, binary: true}
	GIF         = MediaType{name: "image/gif", extensions: []string{"gif"}, binary: true}
	Icon        = MediaType{name: "image/x-icon", extensions: []string{"ico"}, binary: true}
	OctetStream = MediaType{name: "application/octet-stream", extensions: []string{"bin"}, binary: true}
)

// byExtension maps every recognized extension to its MediaType.
var byExtension = buildExtensionIndex()

func buildExtensionIndex() map[string]MediaType {
	known := []MediaType{Markdown, HTML, CSS, SCSS, JavaScript, JPEG, PNG, GIF, Icon}
	idx := make(map[string]MediaType, len(known)*2)
	for _, mt := range known {
		for _, ext := range mt.extensions {
			idx[ext] = mt
		}
	}
	return idx
}

// FromExtension returns the MediaType registered for ext (without a
// leading dot), or an unrecognized binary media type carrying ext as
// its sole extension when ext isn't known.
func FromExtension(ext string) MediaType {
	if mt, ok := byExtension[ext]; ok {
		return mt
	}
	if ext == "" {
		return OctetStream
	}
	return MediaType{name: "application/octet-stream", extensions: []string{ext}, binary: true}
}
