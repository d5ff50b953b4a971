package logger

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	charm "github.com/charmbracelet/log"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

type LogLevel string

const (
	LogLevelOff     LogLevel = "Off"
	LogLevelTrace   LogLevel = "Trace"
	LogLevelDebug   LogLevel = "Debug"
	LogLevelInfo    LogLevel = "Info"
	LogLevelWarning LogLevel = "Warning"
	LogLevelError   LogLevel = "Error"
)

// offLevel is above every level the logger emits.
const offLevel = charm.Level(math.MaxInt32)

// ParseLogLevel parses a configured level name. Matching ignores case; empty means Info.
func ParseLogLevel(logLevel string) (LogLevel, error) {
	if logLevel == "" {
		return LogLevelInfo, nil
	}

	for _, level := range []LogLevel{LogLevelOff, LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError} {
		if strings.EqualFold(string(level), logLevel) {
			return level, nil
		}
	}
	if strings.EqualFold(logLevel, "warn") {
		return LogLevelWarning, nil
	}

	return LogLevelInfo, fmt.Errorf("%w: '%s'. Supported log levels are Trace, Debug, Info, Warning, Error, Off",
		errUtils.ErrInvalidLogLevel, logLevel)
}

// CharmLevel maps a LogLevel onto the charmbracelet/log level.
func (l LogLevel) CharmLevel() charm.Level {
	switch l {
	case LogLevelOff:
		return offLevel
	case LogLevelTrace:
		return TraceLevel
	case LogLevelDebug:
		return charm.DebugLevel
	case LogLevelWarning:
		return charm.WarnLevel
	case LogLevelError:
		return charm.ErrorLevel
	default:
		return charm.InfoLevel
	}
}

// Setup configures the global logger from the logs section of the configuration.
// The returned closer releases a log file when one was opened.
func Setup(cfg schema.Logs) (io.Closer, error) {
	level, err := ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out, closer, err := openDestination(cfg.File)
	if err != nil {
		return nil, err
	}

	l := charm.NewWithOptions(out, charm.Options{ReportTimestamp: cfg.File != "" && !isStdStream(cfg.File)})
	l.SetLevel(level.CharmLevel())
	SetDefault(l)

	if level == LogLevelTrace || level == LogLevelDebug {
		AttachAzureSDK(level == LogLevelTrace)
	}

	return closer, nil
}

func isStdStream(file string) bool {
	return file == "/dev/stderr" || file == "/dev/stdout" || file == "/dev/null"
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openDestination(file string) (io.Writer, io.Closer, error) {
	switch file {
	case "", "/dev/stderr":
		return os.Stderr, nopCloser{}, nil
	case "/dev/stdout":
		return os.Stdout, nopCloser{}, nil
	case "/dev/null":
		return io.Discard, nopCloser{}, nil
	}

	f, err := os.OpenFile(file, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", file, err)
	}
	return f, f, nil
}
