package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/data-goblin/fabric-cli-plugin/cmd"
	errUtils "github.com/data-goblin/fabric-cli-plugin/errors"
	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		cmd.Cleanup()
		// POSIX exit code: 128 + signal number.
		if s, ok := sig.(syscall.Signal); ok {
			errUtils.OsExit(128 + int(s))
		}
		errUtils.OsExit(130)
	}()

	errUtils.OsExit(run())
}

// run executes the command tree and returns the exit code, so deferred cleanup runs before exit.
func run() int {
	defer cmd.Cleanup()

	err := cmd.Execute()
	if err == nil {
		return 0
	}

	errUtils.CaptureError(err)
	formatted := errUtils.Format(err, cmd.FormatterConfig())
	os.Stderr.WriteString(formatted + "\n")

	exitCode := errUtils.GetExitCode(err)
	log.Debug("Exiting with exit code", "code", exitCode)
	return exitCode
}
