// Package logger is the process-wide slog setup plus the tracing helpers the
// services and repositories use around method bodies and external calls.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var defaultLogger *slog.Logger

// Initialize installs the global logger. format is "json", "text" or "tint";
// tint gives coloured output for local development.
func Initialize(level, format string) {
	defaultLogger = slog.New(newHandler(os.Stdout, parseLevel(level), format))
	slog.SetDefault(defaultLogger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func newHandler(w io.Writer, level slog.Level, format string) slog.Handler {
	switch strings.ToLower(format) {
	case "json":
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case "tint":
		return tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.Kitchen})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// Get returns the global logger, initialising an info/text one on first use.
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func DebugContext(ctx context.Context, msg string, args ...any) {
	Get().DebugContext(ctx, msg, args...)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

// WithMethod scopes a logger to one method, used by long-running jobs.
func WithMethod(methodName string) *slog.Logger {
	return Get().With("method", methodName)
}

// WithGroup scopes a logger to a chama group.
func WithGroup(groupID int32) *slog.Logger {
	return Get().With("group_id", groupID)
}

func prepend(args []any, head ...any) []any {
	return append(head, args...)
}

// EnterMethod and ExitMethod bracket service methods at debug level.
func EnterMethod(methodName string, args ...any) {
	Get().Debug("→ Method entered", prepend(args, "method", methodName, "event", "enter")...)
}

func ExitMethod(methodName string, args ...any) {
	Get().Debug("← Method exited", prepend(args, "method", methodName, "event", "exit")...)
}

func ExitMethodWithError(methodName string, err error, args ...any) {
	Get().Error("← Method exited with error", prepend(args, "method", methodName, "event", "exit", "error", err)...)
}

func DatabaseCall(operation, query string, args ...any) {
	Get().Debug("→ Database call", prepend(args, "operation", operation, "query", query)...)
}

// DatabaseResult logs at error level when err is set, debug otherwise.
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	attrs := prepend(args, "operation", operation, "rows_affected", rowsAffected)
	if err != nil {
		Get().Error("← Database call failed", append(attrs, "error", err)...)
		return
	}
	Get().Debug("← Database call succeeded", attrs...)
}

// ExternalServiceCall and ExternalServiceResult wrap calls to NATS, SendGrid
// and Firebase.
func ExternalServiceCall(service, operation string, args ...any) {
	Get().Debug("→ External service call", prepend(args, "service", service, "operation", operation)...)
}

func ExternalServiceResult(service, operation string, err error, args ...any) {
	attrs := prepend(args, "service", service, "operation", operation)
	if err != nil {
		Get().Error("← External service call failed", append(attrs, "error", err)...)
		return
	}
	Get().Debug("← External service call succeeded", attrs...)
}
