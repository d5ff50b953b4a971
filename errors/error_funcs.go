package errors

import (
	"os"
)

// OsExit is a variable for testing, so we can mock os.Exit.
var OsExit = os.Exit

// PrintAndExit formats err to stderr and exits with its exit code.
// Only main and signal handlers should call it.
func PrintAndExit(err error, config FormatterConfig) {
	if err == nil {
		return
	}
	_, _ = os.Stderr.WriteString(Format(err, config) + newline)
	OsExit(GetExitCode(err))
}
