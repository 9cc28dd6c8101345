// Package logfields centralizes canonical slog field names so they don't
// drift across packages, in the teacher's internal/logfields style
// (adapted here from job/repository fields to asset-pipeline fields).
package logfields

import "log/slog"

const (
	KeyAssetPath  = "asset_path"
	KeyTargetPath = "target_path"
	KeyProcessor  = "processor"
	KeyMediaType  = "media_type"
	KeyBatch      = "batch"
	KeyProfile    = "profile"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeyError      = "error"
)

func AssetPath(p string) slog.Attr    { return slog.String(KeyAssetPath, p) }
func TargetPath(p string) slog.Attr   { return slog.String(KeyTargetPath, p) }
func Processor(name string) slog.Attr { return slog.String(KeyProcessor, name) }
func MediaType(name string) slog.Attr { return slog.String(KeyMediaType, name) }
func Batch(n int) slog.Attr           { return slog.Int(KeyBatch, n) }
func Profile(name string) slog.Attr   { return slog.String(KeyProfile, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
