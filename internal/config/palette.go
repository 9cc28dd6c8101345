package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// WritePalette merges swatches into [default.context.palette] of the
// Aer.toml file at path and rewrites it in place. Existing profiles
// and processor declarations are preserved; only the default profile's
// context.palette table is touched.
func WritePalette(path string, swatches map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: invalid TOML: %w", err)
	}

	defProfile, _ := doc[DefaultProfileName].(map[string]any)
	if defProfile == nil {
		defProfile = map[string]any{}
	}
	ctx, _ := defProfile["context"].(map[string]any)
	if ctx == nil {
		ctx = map[string]any{}
	}
	palette, _ := ctx["palette"].(map[string]any)
	if palette == nil {
		palette = map[string]any{}
	}
	for name, hex := range swatches {
		palette[name] = hex
	}
	ctx["palette"] = palette
	defProfile["context"] = ctx
	doc[DefaultProfileName] = defProfile

	out, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: failed to encode: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("config: failed to write %s: %w", path, err)
	}
	return nil
}
