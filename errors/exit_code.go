package errors

import (
	"os/exec"

	"github.com/cockroachdb/errors"
)

// Exit codes returned by the CLI.
const (
	ExitCodeGeneric   = 1
	ExitCodeUsage     = 2
	ExitCodeAuth      = 3
	ExitCodeNotFound  = 4
	ExitCodeThrottled = 5
	ExitCodeCollision = 6
)

// exitCoder wraps an error and specifies an exit code.
type exitCoder struct {
	cause error
	code  int
}

func (e *exitCoder) Error() string {
	return e.cause.Error()
}

func (e *exitCoder) Cause() error {
	return e.cause
}

func (e *exitCoder) Unwrap() error {
	return e.cause
}

// ExitCode returns the exit code.
func (e *exitCoder) ExitCode() int {
	return e.code
}

// WithExitCode attaches an exit code to an error.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitCoder{cause: err, code: code}
}

// GetExitCode extracts the exit code from an error chain.
//
// Explicit codes win, then the exit status of a failed child process,
// then the error class. Everything else exits with 1.
func GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	var ec *exitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	switch {
	case errors.IsAny(err, ErrUnauthenticated, ErrUnauthorized, ErrSessionExpired):
		return ExitCodeAuth
	case errors.IsAny(err, ErrNotFound, ErrWorkspaceNotFound, ErrItemNotFound, ErrTableNotFound):
		return ExitCodeNotFound
	case errors.Is(err, ErrRateLimited):
		return ExitCodeThrottled
	case errors.Is(err, ErrDestinationExists):
		return ExitCodeCollision
	case errors.IsAny(err, ErrInvalidPath, ErrUnknownItemType, ErrInvalidQuery, ErrInvalidFormat, ErrInvalidTable, ErrInvalidArgument, ErrInvalidSecretReference):
		return ExitCodeUsage
	}

	return ExitCodeGeneric
}
