package facetree

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger is the engine's slog.Logger. Its Log* helpers keep attribute
// names stable across searches, facet runs and invalidations.
type Logger struct {
	*slog.Logger
}

// NewLogger wraps handler. A nil handler logs text at info level to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger logs JSON lines to stderr from level up.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger logs logfmt-style text to stderr from level up.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger discards everything.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithRequestID tags every record with the search request id.
func (l *Logger) WithRequestID(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("request_id", id),
	}
}

// LogSearch logs a finished search. roots counts the resolved top-level
// datatypes, which for a template search are the derived ones.
func (l *Logger) LogSearch(ctx context.Context, roots, matches int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"roots", roots,
			"elapsed", elapsed,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"roots", roots,
			"matches", matches,
			"elapsed", elapsed,
		)
	}
}

// LogFacetRun logs the execution of every term of a search.
func (l *Logger) LogFacetRun(ctx context.Context, terms int, elapsed time.Duration, err error) {
	if err != nil {
		l.WarnContext(ctx, "facet run failed",
			"terms", terms,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "facet run completed",
			"terms", terms,
			"elapsed", elapsed,
		)
	}
}

// LogInvalidate logs a cache invalidation.
func (l *Logger) LogInvalidate(ctx context.Context, datatype, field uint32, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "cache invalidation failed",
			"datatype", datatype,
			"field", field,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "cache invalidated",
			"datatype", datatype,
			"field", field,
			"entries", entries,
		)
	}
}
