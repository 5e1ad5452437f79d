// Package executor wraps pipeline steps with bounded retry and exponential
// backoff. Errors are classified as retryable or fatal by a caller-supplied
// classifier; fatal errors abort immediately, retryable ones are re-attempted
// up to a configured maximum with growing delays in between.
package executor

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config holds the retry policy for an Executor.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the wait before the second attempt.
	BaseDelay time.Duration

	// BackoffMultiplier scales the delay after each failed attempt.
	// Must be >= 1.
	BackoffMultiplier float64
}

// DefaultConfig returns the policy used when a stage does not configure
// its own: three attempts, one second base delay, doubling.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:       3,
		BaseDelay:         1 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// Validate rejects policies that cannot terminate or would shrink delays.
func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 {
		return fmt.Errorf("base delay must not be negative, got %v", c.BaseDelay)
	}
	if c.BackoffMultiplier < 1 {
		return fmt.Errorf("backoff multiplier must be at least 1, got %g", c.BackoffMultiplier)
	}
	return nil
}

// Attempt records one execution attempt of a wrapped step.
type Attempt struct {
	Index     int           // 1-based
	StartedAt time.Time
	Delay     time.Duration // wait applied before this attempt, 0 for the first
	Err       error         // nil on success
}

// ExhaustedError is returned when every attempt failed with a retryable
// error. It carries the full attempt trail and unwraps to the last error.
type ExhaustedError struct {
	Step     string
	Attempts []Attempt
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: exhausted %d attempts: %v", e.Step, len(e.Attempts), e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Executor runs operations under a retry policy.
type Executor struct {
	cfg      Config
	classify Classifier
	sink     EventSink
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
}

// Option customises an Executor.
type Option func(*Executor)

// WithClassifier sets the error classifier. Defaults to DefaultClassifier.
func WithClassifier(c Classifier) Option {
	return func(e *Executor) { e.classify = c }
}

// WithEventSink sets the sink receiving attempt and retry events.
func WithEventSink(s EventSink) Option {
	return func(e *Executor) { e.sink = s }
}

// WithSleep replaces the backoff wait. Tests inject a recording fake here.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Executor) { e.sleep = fn }
}

// WithClock replaces the time source used for attempt bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New builds an Executor from a validated config.
func New(cfg Config, opts ...Option) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("executor config: %w", err)
	}
	e := &Executor{
		cfg:      cfg,
		classify: DefaultClassifier,
		sink:     NopSink(),
		sleep:    sleepCtx,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes an error-only operation under the retry policy.
func (e *Executor) Run(ctx context.Context, step string, op func(context.Context) error) error {
	_, err := Do(ctx, e, step, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// Do executes op until it succeeds, a fatal error is classified, the
// attempt budget runs out, or ctx is cancelled between attempts. Exactly
// one terminal outcome is produced per invocation.
func Do[T any](ctx context.Context, e *Executor, step string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	start := e.now()
	attempts := make([]Attempt, 0, e.cfg.MaxAttempts)
	var delay time.Duration

	for i := 1; i <= e.cfg.MaxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: cancelled after %d attempts: %w", step, len(attempts), err)
		}

		at := Attempt{Index: i, StartedAt: e.now(), Delay: delay}
		result, err := op(ctx)
		at.Err = err
		attempts = append(attempts, at)

		e.sink.Emit(Event{
			Step:        step,
			Attempt:     i,
			MaxAttempts: e.cfg.MaxAttempts,
			Elapsed:     e.now().Sub(start),
			Err:         err,
		})

		if err == nil {
			return result, nil
		}

		if e.classify(err) == ClassFatal {
			return zero, err
		}

		if i == e.cfg.MaxAttempts {
			break
		}

		delay = e.backoff(i)
		e.sink.Emit(Event{
			Step:        step,
			Attempt:     i,
			MaxAttempts: e.cfg.MaxAttempts,
			Elapsed:     e.now().Sub(start),
			Err:         err,
			Retrying:    true,
			NextDelay:   delay,
		})

		if err := e.sleep(ctx, delay); err != nil {
			return zero, fmt.Errorf("%s: cancelled during backoff after %d attempts: %w", step, len(attempts), err)
		}
	}

	return zero, &ExhaustedError{
		Step:     step,
		Attempts: attempts,
		Err:      attempts[len(attempts)-1].Err,
	}
}

// backoff returns the wait after failed attempt i: BaseDelay * Multiplier^(i-1).
func (e *Executor) backoff(attempt int) time.Duration {
	return time.Duration(float64(e.cfg.BaseDelay) * math.Pow(e.cfg.BackoffMultiplier, float64(attempt-1)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
