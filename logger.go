package hephae

import (
	"log/slog"
	"sync/atomic"
)

var (
	silent = slog.New(slog.DiscardHandler)
	active atomic.Pointer[slog.Logger]
)

func init() { active.Store(silent) }

// SetLogger routes diagnostics from hephae and its sub-packages to l.
// Nothing is logged until SetLogger is called; nil silences output again.
// It may be called while other goroutines are logging.
//
// Log levels used by hephae:
//   - [slog.LevelDebug]: per-frame diagnostics (batch counts, glyph rasterization)
//   - [slog.LevelInfo]: resource growth (GPU buffers recreated, atlas pages opened)
//   - [slog.LevelWarn]: skipped work (panicking drawers, unrasterizable glyphs)
//
// Example:
//
//	hephae.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent
	}
	active.Store(l)
}

// Logger returns the logger set with SetLogger. Sub-packages log through it
// so one call configures the whole module.
func Logger() *slog.Logger { return active.Load() }
