package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	once sync.Once
	base atomic.Pointer[slog.Logger]
)

// Init configures the process logger exactly once and tags it with the app
// name. An empty filePath logs to stdout only.
func Init(app, filePath, level string) *slog.Logger {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if filePath != "" {
			_ = os.MkdirAll(filepath.Dir(filePath), 0o755)
			rot := &lumberjack.Logger{
				Filename:   filePath,
				MaxSize:    50, // MB
				MaxBackups: 3,
				MaxAge:     7, // days
				Compress:   false,
			}
			w = io.MultiWriter(os.Stdout, rot)
		}

		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
		base.Store(slog.New(h).With("app", app))
	})
	return Base()
}

// Base returns the process logger, or slog's default before Init.
func Base() *slog.Logger {
	if l := base.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// New returns a child logger sharing the process handler.
func New(component string) *slog.Logger {
	return Base().With("component", component)
}

func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromCtx tags l with the span active in ctx, if there is one.
// A nil l stands for the process logger.
func FromCtx(ctx context.Context, l *slog.Logger) *slog.Logger {
	if l == nil {
		l = Base()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		l = l.With("trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
	}
	return l
}
