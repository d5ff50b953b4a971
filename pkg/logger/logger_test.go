package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	charm "github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"", LogLevelInfo},
		{"Trace", LogLevelTrace},
		{"debug", LogLevelDebug},
		{"INFO", LogLevelInfo},
		{"Warning", LogLevelWarning},
		{"warn", LogLevelWarning},
		{"Off", LogLevelOff},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseLogLevel("chatty")
	assert.ErrorIs(t, err, errUtils.ErrInvalidLogLevel)
}

func TestTraceLevel_RelativeToDebug(t *testing.T) {
	assert.Equal(t, charm.DebugLevel-1, TraceLevel)
	assert.Equal(t, offLevel, LogLevelOff.CharmLevel())
	assert.Greater(t, int(LogLevelOff.CharmLevel()), int(charm.FatalLevel))
}

func TestTrace(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	l := charm.New(&buf)
	SetDefault(l)

	t.Run("visible at trace level", func(t *testing.T) {
		buf.Reset()
		l.SetLevel(TraceLevel)

		Trace("listing items", "type", "SemanticModel")

		assert.Contains(t, buf.String(), "listing items")
		assert.Contains(t, buf.String(), "SemanticModel")
	})

	t.Run("hidden at debug level", func(t *testing.T) {
		buf.Reset()
		l.SetLevel(charm.DebugLevel)

		Trace("should not appear")

		assert.Empty(t, buf.String())
	})
}

func TestSetup_LogFile(t *testing.T) {
	original := Default()
	defer SetDefault(original)
	defer DetachAzureSDK()

	file := filepath.Join(t.TempDir(), "fabkit.log")
	closer, err := Setup(schema.Logs{File: file, Level: "Debug"})
	require.NoError(t, err)

	Debug("resolved workspace", "id", "ws-1")
	require.NoError(t, closer.Close())

	content, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(content), "resolved workspace")
	assert.Contains(t, string(content), "ws-1")
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(schema.Logs{Level: "loud"})
	assert.ErrorIs(t, err, errUtils.ErrInvalidLogLevel)
}
