package orchestrator

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aerstatic/aer/internal/asset"
	"github.com/aerstatic/aer/internal/procerr"
	"github.com/aerstatic/aer/internal/value"
)

// part is a part's pre-processing source, cached once per build.
type part struct {
	path string
	raw  string
}

// discover recursively enumerates regular files under sourceRoot. Files
// with any "_"-prefixed path component become parts; every other file
// becomes an Asset whose context is a fresh clone of baseContext.
func discover(sourceRoot string, baseContext *value.Table) (assets []*asset.Asset, parts []part, err error) {
	err = filepath.WalkDir(sourceRoot, func(fsPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(sourceRoot, fsPath)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		raw, readErr := os.ReadFile(fsPath)
		if readErr != nil {
			return readErr
		}

		if asset.IsPart(rel) {
			parts = append(parts, part{path: rel, raw: string(raw)})
			return nil
		}

		assets = append(assets, asset.New(rel, raw, baseContext.Clone()))
		return nil
	})
	if err != nil {
		return nil, nil, procerr.WrapFatal(err, "failed to discover source tree at "+sourceRoot)
	}
	return assets, parts, nil
}
