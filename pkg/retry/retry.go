package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	log "github.com/data-goblin/fabric-cli-plugin/pkg/logger"
	"github.com/data-goblin/fabric-cli-plugin/pkg/schema"
)

// Func represents a function that can be retried.
type Func func() error

// DelayHint returns a server-provided delay for err, such as a Retry-After header.
type DelayHint func(err error) (time.Duration, bool)

// Executor handles the retry logic.
type Executor struct {
	config schema.RetryConfig
	rand   *rand.Rand
	hint   DelayHint
	sleep  func(ctx context.Context, d time.Duration) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithDelayHint makes the executor wait at least as long as the hint asks for.
func WithDelayHint(hint DelayHint) Option {
	return func(e *Executor) {
		e.hint = hint
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) {
		e.sleep = sleep
	}
}

// New creates a new retry executor with the given config.
func New(config schema.RetryConfig, opts ...Option) *Executor {
	e := &Executor{
		config: config,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.config.MaxAttempts < 1 {
		e.config.MaxAttempts = 1
	}
	return e
}

type MaxElapsedTimeError struct {
	MaxElapsedTime time.Duration
}

func (e MaxElapsedTimeError) Error() string {
	return fmt.Sprintf("retry timeout exceeded after %v", e.MaxElapsedTime)
}

var ErrUnexpected = errors.New("unexpected end of retry loop")

// ExecuteWithPredicate runs fn until it succeeds, shouldRetry rejects the error,
// attempts run out or the elapsed time budget is spent.
func (e *Executor) ExecuteWithPredicate(ctx context.Context, fn Func, shouldRetry func(error) bool) error {
	startTime := time.Now()

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		if e.config.MaxElapsedTime > 0 && time.Since(startTime) > e.config.MaxElapsedTime {
			return MaxElapsedTimeError{MaxElapsedTime: e.config.MaxElapsedTime}
		}

		err := fn()
		if err == nil {
			return nil
		}

		if !shouldRetry(err) {
			return err
		}

		if attempt == e.config.MaxAttempts {
			if e.config.MaxAttempts == 1 {
				return err
			}
			return fmt.Errorf("max attempts (%d) exceeded, last error: %w", e.config.MaxAttempts, err)
		}

		delay := e.calculateDelay(attempt)
		if e.hint != nil {
			if hinted, ok := e.hint(err); ok && hinted > delay {
				delay = hinted
			}
		}
		log.Debug("Retrying", "attempt", attempt+1, "max_attempts", e.config.MaxAttempts, "delay", delay, "error", err)

		if err := e.sleep(ctx, delay); err != nil {
			return fmt.Errorf("context cancelled during retry: %w", err)
		}
	}
	return ErrUnexpected
}

const jitterFlipChance = 0.5

// calculateDelay calculates the delay for the next retry attempt.
func (e *Executor) calculateDelay(attempt int) time.Duration {
	var delay time.Duration

	switch e.config.BackoffStrategy {
	case schema.BackoffConstant:
		delay = e.config.InitialDelay
	case schema.BackoffLinear:
		delay = time.Duration(float64(e.config.InitialDelay) * float64(attempt))
	case schema.BackoffExponential:
		delay = time.Duration(float64(e.config.InitialDelay) * math.Pow(e.config.Multiplier, float64(attempt-1)))
	default:
		delay = e.config.InitialDelay
	}

	if e.config.MaxDelay > 0 && delay > e.config.MaxDelay {
		delay = e.config.MaxDelay
	}

	if e.config.RandomJitter {
		jitter := time.Duration(e.rand.Float64() * float64(delay) * 0.1) // 10% jitter
		if e.rand.Float64() < jitterFlipChance {
			delay += jitter
		} else {
			delay -= jitter
		}
		if delay < 0 {
			delay = 0
		}
	}

	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// WithPredicate allows you to specify which errors should trigger a retry.
func WithPredicate(ctx context.Context, config *schema.RetryConfig, fn Func, shouldRetry func(error) bool, opts ...Option) error {
	if config == nil {
		temp := DefaultConfig()
		config = &temp
	}
	return New(*config, opts...).ExecuteWithPredicate(ctx, fn, shouldRetry)
}

const (
	defaultInitialDelay   = time.Second
	defaultMaxDelay       = 30 * time.Second
	defaultMaxElapsedTime = 5 * time.Minute
)

// DefaultConfig returns a single attempt configuration; callers opt in to more attempts.
func DefaultConfig() schema.RetryConfig {
	return schema.RetryConfig{
		MaxAttempts:     1,
		BackoffStrategy: schema.BackoffExponential,
		InitialDelay:    defaultInitialDelay,
		MaxDelay:        defaultMaxDelay,
		RandomJitter:    true,
		Multiplier:      2.0,
		MaxElapsedTime:  defaultMaxElapsedTime,
	}
}
