// Package logging is the arena's slog setup: JSON entries, a level taken from
// ARENA_LOG_LEVEL, secret-looking attributes masked, and a per-connection
// correlation id carried in the context.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
)

// LevelEnv names the environment variable read by NewLogger
const LevelEnv = "ARENA_LOG_LEVEL"

const redacted = "[REDACTED]"

// secretMarkers are matched case-insensitively anywhere in an attribute key.
// Ability keys and session ids are game data and stay visible.
var secretMarkers = []string{"password", "passwd", "token", "secret", "authorization", "cookie", "credential"}

// Logger is a slog.Logger whose helpers take a context first and add the
// correlation id found there.
type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON to stdout at the level named by ARENA_LOG_LEVEL.
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, ParseLevel(os.Getenv(LevelEnv)))
}

// NewLoggerWithWriter writes JSON to w, dropping entries below level.
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	return &Logger{slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redact,
	}))}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError+1)
}

// With returns a logger that adds args to every entry.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

// LogWithContext logs msg at level, tagged with the context's correlation id if any.
func (l *Logger) LogWithContext(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := GetCorrelationID(ctx); id != "" {
		args = append(args, "correlation_id", id)
	}
	l.Log(ctx, level, msg, args...)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelDebug, msg, args...)
}

func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelInfo, msg, args...)
}

func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.LogWithContext(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at ERROR with err under the "error" key. A nil err is omitted.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.LogWithContext(ctx, slog.LevelError, msg, args...)
}

type correlationIDKey struct{}

// WithCorrelationID stores id in ctx, generating one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = GenerateCorrelationID()
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// GetCorrelationID returns the id stored by WithCorrelationID, or "".
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// GenerateCorrelationID returns a fresh uuid string.
func GenerateCorrelationID() string {
	return uuid.NewString()
}

// ParseLevel maps DEBUG, INFO, WARN(ING) and ERROR, in any case, to a slog
// level. Anything else is INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, marker := range secretMarkers {
		if strings.Contains(key, marker) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// WrapError prefixes err with a formatted message, keeping it unwrappable.
// It returns nil for a nil err.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return fmt.Errorf("%s: %w", format, err)
}
