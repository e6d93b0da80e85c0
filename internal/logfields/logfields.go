package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyDocument   = "document"
	KeyTarget     = "target"
	KeyStage      = "stage"
	KeyModel      = "model"
	KeyHash       = "hash"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Document(d string) slog.Attr      { return slog.String(KeyDocument, d) }
func Target(t string) slog.Attr        { return slog.String(KeyTarget, t) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func Model(m string) slog.Attr         { return slog.String(KeyModel, m) }
func Hash(h string) slog.Attr          { return slog.String(KeyHash, h) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
