package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records requested backoff waits without actually sleeping.
type fakeSleeper struct {
	waits []time.Duration
}

func (f *fakeSleeper) sleep(_ context.Context, d time.Duration) error {
	f.waits = append(f.waits, d)
	return nil
}

func newTestExecutor(t *testing.T, cfg Config, opts ...Option) (*Executor, *fakeSleeper) {
	t.Helper()
	fs := &fakeSleeper{}
	opts = append([]Option{WithSleep(fs.sleep)}, opts...)
	e, err := New(cfg, opts...)
	require.NoError(t, err)
	return e, fs
}

func TestRunBoundedAttempts(t *testing.T) {
	e, _ := newTestExecutor(t, Config{MaxAttempts: 4, BaseDelay: time.Millisecond, BackoffMultiplier: 2})

	calls := 0
	err := e.Run(context.Background(), "always-fails", func(context.Context) error {
		calls++
		return errors.New("transient")
	})

	assert.Equal(t, 4, calls, "operation must be invoked exactly MaxAttempts times")

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Equal(t, "always-fails", ex.Step)
	assert.Len(t, ex.Attempts, 4)
	for i, at := range ex.Attempts {
		assert.Equal(t, i+1, at.Index)
		assert.Error(t, at.Err)
	}
}

func TestRunImmediateSuccess(t *testing.T) {
	e, fs := newTestExecutor(t, Config{MaxAttempts: 5, BaseDelay: time.Second, BackoffMultiplier: 2})

	calls := 0
	err := e.Run(context.Background(), "succeeds-third", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, fs.waits, 2, "no wait after the successful attempt")
}

func TestRunFatalShortCircuit(t *testing.T) {
	e, fs := newTestExecutor(t, Config{MaxAttempts: 5, BaseDelay: time.Second, BackoffMultiplier: 2})

	fatal := Permanent(errors.New("bad credentials"))
	calls := 0
	err := e.Run(context.Background(), "fatal-first", func(context.Context) error {
		calls++
		return fatal
	})

	assert.Equal(t, 1, calls, "fatal error must stop after a single attempt")
	assert.Empty(t, fs.waits)
	assert.ErrorIs(t, err, fatal)

	var ex *ExhaustedError
	assert.False(t, errors.As(err, &ex), "fatal outcome must not be reported as exhaustion")
}

func TestBackoffGrowth(t *testing.T) {
	// base=1s, multiplier=2: waits before attempts 2..5 are 1s, 2s, 4s, 8s.
	e, fs := newTestExecutor(t, Config{MaxAttempts: 5, BaseDelay: time.Second, BackoffMultiplier: 2})

	_ = e.Run(context.Background(), "backoff", func(context.Context) error {
		return errors.New("transient")
	})

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	assert.Equal(t, want, fs.waits)
}

func TestBackoffMultiplierOne(t *testing.T) {
	e, fs := newTestExecutor(t, Config{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, BackoffMultiplier: 1})

	_ = e.Run(context.Background(), "flat", func(context.Context) error {
		return errors.New("transient")
	})

	want := []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}
	assert.Equal(t, want, fs.waits)
}

func TestScenarioFailTwiceThenSucceed(t *testing.T) {
	// max_attempts=3, base=1s, multiplier=2: no wait before attempt 1,
	// 1s before attempt 2, 2s before attempt 3, success on attempt 3.
	e, fs := newTestExecutor(t, Config{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 2})

	calls := 0
	err := e.Run(context.Background(), "scenario-b", func(context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, fs.waits)
}

func TestDoReturnsValue(t *testing.T) {
	e, _ := newTestExecutor(t, Config{MaxAttempts: 2, BaseDelay: time.Millisecond, BackoffMultiplier: 2})

	got, err := Do(context.Background(), e, "typed", func(context.Context) (string, error) {
		return "result", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "result", got)
}

func TestDoAttemptDelaysRecorded(t *testing.T) {
	e, _ := newTestExecutor(t, Config{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 3})

	_, err := Do(context.Background(), e, "delays", func(context.Context) (int, error) {
		return 0, errors.New("transient")
	})

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	require.Len(t, ex.Attempts, 3)
	assert.Equal(t, time.Duration(0), ex.Attempts[0].Delay)
	assert.Equal(t, time.Second, ex.Attempts[1].Delay)
	assert.Equal(t, 3*time.Second, ex.Attempts[2].Delay)
}

func TestCancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	e, err := New(Config{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 2},
		WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}))
	require.NoError(t, err)

	calls := 0
	runErr := e.Run(ctx, "cancelled", func(context.Context) error {
		calls++
		return errors.New("transient")
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, runErr, context.Canceled)

	var ex *ExhaustedError
	assert.False(t, errors.As(runErr, &ex), "cancellation must not be reported as exhaustion")
}

func TestCancelBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, _ := newTestExecutor(t, Config{MaxAttempts: 3, BaseDelay: time.Millisecond, BackoffMultiplier: 2})

	calls := 0
	err := e.Run(ctx, "pre-cancelled", func(context.Context) error {
		calls++
		return nil
	})

	assert.Equal(t, 0, calls)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEvents(t *testing.T) {
	var events []Event
	e, err := New(Config{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 2},
		WithSleep(func(context.Context, time.Duration) error { return nil }),
		WithEventSink(SinkFunc(func(ev Event) { events = append(events, ev) })))
	require.NoError(t, err)

	calls := 0
	require.NoError(t, e.Run(context.Background(), "evt", func(context.Context) error {
		calls++
		if calls == 1 {
			return errors.New("transient")
		}
		return nil
	}))

	// attempt 1 failed, retry notice, attempt 2 succeeded
	require.Len(t, events, 3)
	assert.Error(t, events[0].Err)
	assert.False(t, events[0].Retrying)
	assert.True(t, events[1].Retrying)
	assert.Equal(t, time.Second, events[1].NextDelay)
	assert.NoError(t, events[2].Err)
	assert.Equal(t, 2, events[2].Attempt)
	assert.Equal(t, 3, events[2].MaxAttempts)
}

func TestSingleAttemptNeverRetries(t *testing.T) {
	e, fs := newTestExecutor(t, Config{MaxAttempts: 1, BaseDelay: time.Second, BackoffMultiplier: 2})

	calls := 0
	err := e.Run(context.Background(), "one-shot", func(context.Context) error {
		calls++
		return errors.New("transient")
	})

	assert.Equal(t, 1, calls)
	assert.Empty(t, fs.waits)

	var ex *ExhaustedError
	require.ErrorAs(t, err, &ex)
	assert.Len(t, ex.Attempts, 1)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"valid", Config{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 2}, true},
		{"single attempt", Config{MaxAttempts: 1, BaseDelay: 0, BackoffMultiplier: 1}, true},
		{"zero attempts", Config{MaxAttempts: 0, BaseDelay: time.Second, BackoffMultiplier: 2}, false},
		{"negative delay", Config{MaxAttempts: 3, BaseDelay: -time.Second, BackoffMultiplier: 2}, false},
		{"shrinking multiplier", Config{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 0.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{MaxAttempts: 0, BaseDelay: time.Second, BackoffMultiplier: 2})
	assert.Error(t, err)
}
