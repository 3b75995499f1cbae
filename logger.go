package ghostty

import (
	"log/slog"

	"github.com/tapthaker/ghostty-android-sub001/internal/logging"
)

// SetLogger configures the logger for the renderer and all its
// sub-packages. By default nothing is logged. Pass nil to restore the
// silent default.
//
// SetLogger is safe for concurrent use: it stores the new logger
// atomically, so it may be called while the render thread is drawing.
//
// Log levels used by the renderer:
//   - [slog.LevelDebug]: scroll physics and gesture transitions
//   - [slog.LevelInfo]: lifecycle events (surface changes, atlas rebuilds)
//   - [slog.LevelError]: skipped frames and recovered panics
//
// Example:
//
//	ghostty.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger. Never nil; the default discards
// everything.
func Logger() *slog.Logger {
	return logging.Logger()
}
