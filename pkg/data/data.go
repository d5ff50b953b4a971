// Package data writes command results to the data channel (stdout).
// Status messages and logs go to stderr so results stay pipeable.
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
)

var (
	out   io.Writer = os.Stdout
	outMu sync.RWMutex
)

// SetWriter redirects the data channel. It returns a function restoring the previous writer.
func SetWriter(w io.Writer) func() {
	outMu.Lock()
	defer outMu.Unlock()
	previous := out
	out = w
	return func() {
		outMu.Lock()
		defer outMu.Unlock()
		out = previous
	}
}

func writer() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return out
}

// Write writes content to the data channel.
func Write(content string) error {
	if _, err := io.WriteString(writer(), content); err != nil {
		return fmt.Errorf("%w: %v", errUtils.ErrOutputWrite, err)
	}
	return nil
}

// Writef writes formatted content to the data channel.
func Writef(format string, a ...any) error {
	return Write(fmt.Sprintf(format, a...))
}

// Writeln writes content followed by a newline.
func Writeln(content string) error {
	return Write(content + "\n")
}

// WriteJSON marshals v as indented JSON.
func WriteJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return Write(string(output) + "\n")
}

// WriteYAML marshals v as YAML.
func WriteYAML(v any) error {
	output, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return Write(string(output))
}

// WriteFormatted writes v as json or yaml, or calls text for any other format.
func WriteFormatted(format string, v any, text func() string) error {
	switch format {
	case "json":
		return WriteJSON(v)
	case "yaml":
		return WriteYAML(v)
	default:
		return Write(text())
	}
}
