// Package log is the structured logger used by esp, a thin layer over
// [log/slog] that adds a Trace level, a no-op zero value, and styled
// output for terminals.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("program evaluated", slog.Int("statements", 3))
//
// Attributes are [slog.Attr] values rather than alternating key/value pairs.
//
// # Configuration
//
// Options are applied when the logger is made:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("kitchen"),
//		log.WithCaller(true))
//
// [Logger.Wrap] derives a logger with some options changed, and [Config]
// does the same for the package-level logger used by [Info], [Warn], and
// friends.
//
// # Levels
//
// In order of increasing severity: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], [LevelError]. The interpreter reports cache and parse events
// at Trace and Debug, so the default of Info keeps it quiet.
//
// # Pretty Output
//
// With [WithPretty] enabled (the default) text records are written as
// unquoted key=value pairs and JSON records as indented objects, both
// colored with lipgloss when the destination is a color terminal. Otherwise
// the standard [slog.TextHandler] and [slog.JSONHandler] are used.
//
// # Context
//
// Every level has a context-aware variant. Variants without a context use
// [DefaultContextProvider], which returns [context.TODO].
package log
