package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	"github.com/framebus/framebus/internal/config"
)

// Level represents the log level
type Level slog.Level

const (
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
)

// String returns the string representation of the log level
func (l Level) String() string {
	return slog.Level(l).String()
}

// Logger wraps slog.Logger with additional functionality
type Logger struct {
	logger *slog.Logger
	mu     sync.RWMutex
	level  Level
	closer io.Closer // File handle for closing when logging to a file
}

// New creates a new logger with the specified configuration
func New(cfg config.LoggingConfig) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var writer io.Writer
	var closer io.Closer
	switch cfg.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		// File output
		if err := os.MkdirAll(filepath.Dir(cfg.Output), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writer = file
		closer = file
	}

	opts := &slog.HandlerOptions{
		Level: slog.Level(level),
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(writer, opts)
	case "text":
		handler = slog.NewTextHandler(writer, opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s (must be json or text)", cfg.Format)
	}

	return &Logger{
		logger: slog.New(handler),
		level:  level,
		closer: closer,
	}, nil
}

// NewDefault creates a new logger with default settings
func NewDefault() (*Logger, error) {
	return New(config.DefaultLoggingConfig())
}

// parseLevel converts a string log level to a Level
func parseLevel(level string) (Level, error) {
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level: %s", level)
	}
}

// With returns a new logger with additional key-value pairs.
// The returned logger shares the underlying handler but not the closer;
// only the root logger created by New() should be closed.
func (l *Logger) With(args ...any) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return &Logger{
		logger: l.logger.With(args...),
		level:  l.level,
		closer: nil,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Debug(msg, args...)
}

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg, args...)
}

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error(msg, args...)
}

// GetLevel returns the current log level
func (l *Logger) GetLevel() Level {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

// Close closes any open resources (file handles, etc.).
// Only call Close() on the root logger instance created by New().
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closer != nil {
		if err := l.closer.Close(); err != nil {
			return fmt.Errorf("failed to close log file: %w", err)
		}
		l.closer = nil
	}
	return nil
}

// global logger instance
var (
	globalLogger *Logger
	globalOnce   sync.Once
)

// InitGlobal initializes the global logger with the specified configuration
func InitGlobal(cfg config.LoggingConfig) error {
	var initErr error
	globalOnce.Do(func() {
		logger, err := New(cfg)
		if err != nil {
			initErr = err
			return
		}
		globalLogger = logger
	})
	return initErr
}

// Global returns the global logger instance
func Global() *Logger {
	if globalLogger == nil {
		logger, err := NewDefault()
		if err != nil {
			// Fall back to a basic logger
			globalLogger = &Logger{
				logger: slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
					Level: slog.LevelInfo,
				})),
				level: LevelInfo,
			}
		} else {
			globalLogger = logger
		}
	}
	return globalLogger
}

// SetGlobal sets the global logger instance
func SetGlobal(l *Logger) {
	globalLogger = l
	globalOnce = sync.Once{}
}
