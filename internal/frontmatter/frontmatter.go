// Package frontmatter extracts TOML frontmatter from asset text and
// reassembles it. Splitting off frontmatter and rejoining it must always
// reproduce the original asset byte-for-byte.
//
// Split/Join's shape is ported from the teacher's
// internal/frontmatter.Split/Join (which does the equivalent job for
// "---"-delimited YAML); here the delimiter is the bare line "***" and
// the payload is TOML.
package frontmatter

import (
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/aerstatic/aer/internal/value"
)

// Delimiter is the line that terminates a frontmatter prelude.
const Delimiter = "***"

// Split separates TOML frontmatter from the remaining body.
//
// Content begins with frontmatter when its leading bytes parse as TOML
// up to a line consisting solely of "***". If no such line exists, or
// the text preceding it fails to parse as TOML, had is false and body
// is the entire input unchanged — "***" might just be regular content,
// mirroring the original implementation's fallback.
func Split(content string) (table *value.Table, body string, had bool) {
	table, _, body, had = SplitRaw(content)
	return table, body, had
}

// SplitRaw is like Split but also returns the exact prefix of content
// that was consumed as frontmatter (the TOML text plus the delimiter
// line and its trailing newline). Join(prefix, body, had) always
// reproduces the original content exactly.
func SplitRaw(content string) (table *value.Table, prefix, body string, had bool) {
	openLine := Delimiter + "\n"
	delimiterLine := "\n" + Delimiter + "\n"

	var frontmatterEnd, bodyStart int
	switch {
	case strings.HasPrefix(content, openLine):
		frontmatterEnd = 0
		bodyStart = len(openLine)
	default:
		idx := strings.Index(content, delimiterLine)
		if idx < 0 {
			return nil, "", content, false
		}
		frontmatterEnd = idx
		bodyStart = idx + len(delimiterLine)
	}

	rawFrontmatter := content[:frontmatterEnd]
	rawBody := content[bodyStart:]

	decoded := map[string]any{}
	if err := toml.Unmarshal([]byte(rawFrontmatter), &decoded); err != nil {
		return nil, "", content, false
	}

	return value.TableFromTOML(decoded), content[:bodyStart], rawBody, true
}

// Join reassembles content from the consumed prefix (as returned by
// SplitRaw) and body. When had is false, Join returns body unchanged.
func Join(prefix, body string, had bool) string {
	if !had {
		return body
	}
	return prefix + body
}
