package errors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder provides a fluent API for constructing enriched errors.
type ErrorBuilder struct {
	err       error
	hints     []string
	context   map[string]any
	exitCode  *int
	stage     Stage
	sentinels []error
}

// Build creates a new ErrorBuilder from a base error.
// Leaf errors are marked as sentinels so errors.Is keeps matching after enrichment.
func Build(err error) *ErrorBuilder {
	builder := &ErrorBuilder{err: err}
	if err != nil && errors.UnwrapOnce(err) == nil {
		builder.sentinels = append(builder.sentinels, err)
	}
	return builder
}

// WithHint adds a user-facing hint.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.hints = append(b.hints, hint)
	return b
}

// WithHintf adds a formatted user-facing hint.
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.hints = append(b.hints, fmt.Sprintf(format, args...))
	return b
}

// WithExplanation attaches a longer detail message.
func (b *ErrorBuilder) WithExplanation(explanation string) *ErrorBuilder {
	b.err = errors.WithDetail(b.err, explanation)
	return b
}

// WithContext adds structured context. Context is shown in verbose mode and sent to Sentry,
// so it must never carry tokens or query payloads.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	if b.context == nil {
		b.context = make(map[string]any)
	}
	b.context[key] = value
	return b
}

// WithStage tags the error with the pipeline stage that failed.
func (b *ErrorBuilder) WithStage(stage Stage) *ErrorBuilder {
	b.stage = stage
	return b
}

// WithExitCode attaches an exit code.
func (b *ErrorBuilder) WithExitCode(code int) *ErrorBuilder {
	b.exitCode = &code
	return b
}

// WithSentinel makes errors.Is match the sentinel, with both the standard library and cockroachdb.
func (b *ErrorBuilder) WithSentinel(sentinel error) *ErrorBuilder {
	b.sentinels = append(b.sentinels, sentinel)
	return b
}

// Err finalizes and returns the enriched error.
func (b *ErrorBuilder) Err() error {
	if b.err == nil {
		return nil
	}

	err := b.err
	for _, hint := range b.hints {
		err = errors.WithHint(err, hint)
	}

	if len(b.context) > 0 {
		keys := make([]string, 0, len(b.context))
		for k := range b.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		formatParts := make([]string, 0, len(keys))
		safeValues := make([]any, 0, len(keys))
		for _, key := range keys {
			formatParts = append(formatParts, key+"=%s")
			safeValues = append(safeValues, errors.Safe(b.context[key]))
		}
		err = errors.WithSafeDetails(err, strings.Join(formatParts, " "), safeValues...)
	}

	// Sentinels go on last so they sit at the top of the chain.
	if len(b.sentinels) > 0 {
		err = &sentinelError{cause: err, sentinels: b.sentinels}
	}

	if b.stage != "" {
		err = WithStage(err, b.stage)
	}

	if b.exitCode != nil {
		err = WithExitCode(err, *b.exitCode)
	}

	return err
}

// sentinelError matches extra sentinels through Is, which the standard library
// and cockroachdb errors.Is both consult.
type sentinelError struct {
	cause     error
	sentinels []error
}

func (e *sentinelError) Error() string {
	return e.cause.Error()
}

func (e *sentinelError) Cause() error {
	return e.cause
}

func (e *sentinelError) Unwrap() error {
	return e.cause
}

func (e *sentinelError) Is(target error) bool {
	for _, sentinel := range e.sentinels {
		if sentinel == target {
			return true
		}
	}
	return false
}
