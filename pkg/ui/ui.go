// Package ui writes human-facing status output to stderr.
package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
	"golang.org/x/term"
)

var (
	errOut   io.Writer = os.Stderr
	errOutMu sync.RWMutex

	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	infoColor    = color.New(color.FgCyan)
)

// SetWriter redirects UI output. It returns a function restoring the previous writer.
func SetWriter(w io.Writer) func() {
	errOutMu.Lock()
	defer errOutMu.Unlock()
	previous := errOut
	errOut = w
	return func() {
		errOutMu.Lock()
		defer errOutMu.Unlock()
		errOut = previous
	}
}

// DisableColor turns off colored status lines.
func DisableColor() {
	color.NoColor = true
}

func writer() io.Writer {
	errOutMu.RLock()
	defer errOutMu.RUnlock()
	return errOut
}

func status(c *color.Color, icon, format string, args ...any) {
	_, _ = c.Fprintf(writer(), "%s %s\n", icon, fmt.Sprintf(format, args...))
}

// Successf prints a success line.
func Successf(format string, args ...any) {
	status(successColor, "✓", format, args...)
}

// Warningf prints a warning line.
func Warningf(format string, args ...any) {
	status(warnColor, "!", format, args...)
}

// Errorf prints a failure line.
func Errorf(format string, args ...any) {
	status(failColor, "✗", format, args...)
}

// Infof prints a progress line.
func Infof(format string, args ...any) {
	status(infoColor, "•", format, args...)
}

// Writeln prints an uncolored line.
func Writeln(line string) {
	_, _ = fmt.Fprintln(writer(), line)
}

// Table renders rows with a header using lipgloss.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
			if row == table.HeaderRow {
				return style.Bold(true)
			}
			return style
		})
	return t.String() + "\n"
}

// IsInteractive reports whether stdin and stderr are terminals.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}
