package logger

import (
	"os"
	"sync/atomic"

	charm "github.com/charmbracelet/log"
)

// Logger is the structured logger used across fabkit.
type Logger = charm.Logger

// TraceLevel is one step more verbose than debug.
const TraceLevel = charm.DebugLevel - 1

// Levels re-exported so callers need a single import.
const (
	DebugLevel = charm.DebugLevel
	InfoLevel  = charm.InfoLevel
	WarnLevel  = charm.WarnLevel
	ErrorLevel = charm.ErrorLevel
)

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(charm.Default())
}

// Default returns the global logger.
func Default() *Logger {
	return defaultLogger.Load()
}

// SetDefault replaces the global logger.
func SetDefault(l *Logger) {
	if l != nil {
		defaultLogger.Store(l)
	}
}

// New creates a logger writing to stderr without timestamps.
func New() *Logger {
	return charm.NewWithOptions(os.Stderr, charm.Options{ReportTimestamp: false})
}

// Trace logs at trace level with key/value pairs.
func Trace(msg any, keyvals ...any) {
	Default().Log(TraceLevel, msg, keyvals...)
}

// Debug logs at debug level with key/value pairs.
func Debug(msg any, keyvals ...any) {
	Default().Debug(msg, keyvals...)
}

// Info logs at info level with key/value pairs.
func Info(msg any, keyvals ...any) {
	Default().Info(msg, keyvals...)
}

// Warn logs at warn level with key/value pairs.
func Warn(msg any, keyvals ...any) {
	Default().Warn(msg, keyvals...)
}

// Error logs at error level with key/value pairs.
func Error(msg any, keyvals ...any) {
	Default().Error(msg, keyvals...)
}

// GetLevel returns the level of the global logger.
func GetLevel() charm.Level {
	return Default().GetLevel()
}

// SetLevel sets the level of the global logger.
func SetLevel(level charm.Level) {
	Default().SetLevel(level)
}
