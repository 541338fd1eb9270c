package logging

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with context support
type Logger struct {
	logger *zap.Logger
}

// LogLevel defines the logging level
type LogLevel zapcore.Level

const (
	DEBUG LogLevel = LogLevel(zapcore.DebugLevel)
	INFO  LogLevel = LogLevel(zapcore.InfoLevel)
	WARN  LogLevel = LogLevel(zapcore.WarnLevel)
	ERROR LogLevel = LogLevel(zapcore.ErrorLevel)
)

type contextKey string

const requestIDKey contextKey = "request_id"

// NewLogger creates a new Logger instance
func NewLogger(level LogLevel) *Logger {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zapcore.Level(level))
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := config.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	return &Logger{logger: logger}
}

// New wraps an existing zap logger, mostly for tests.
func New(logger *zap.Logger) *Logger {
	return &Logger{logger: logger}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{logger: zap.NewNop()}
}

// ParseLevel maps a config string to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
}

// WithRequestID adds request_id to context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func getRequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey).(string); ok {
		return reqID
	}
	return "no-request-id"
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{logger: l.logger.With(fields...)}
}

func (l *Logger) logMessage(ctx context.Context, level LogLevel, msg string, fields ...zap.Field) {
	logger := l.logger.With(zap.String("request_id", getRequestID(ctx)))
	switch level {
	case DEBUG:
		logger.Debug(msg, fields...)
	case INFO:
		logger.Info(msg, fields...)
	case WARN:
		logger.Warn(msg, fields...)
	case ERROR:
		logger.Error(msg, fields...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, DEBUG, msg, fields...)
}

// Info logs an info message
func (l *Logger) Info(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, INFO, msg, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, WARN, msg, fields...)
}

// Error logs an error message
func (l *Logger) Error(ctx context.Context, msg string, fields ...zap.Field) {
	l.logMessage(ctx, ERROR, msg, fields...)
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.logger.Sync()
}
