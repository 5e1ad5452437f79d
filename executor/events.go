package executor

import (
	"log/slog"
	"time"
)

// Event describes the outcome of one attempt, or an upcoming retry when
// Retrying is set.
type Event struct {
	Step        string
	Attempt     int
	MaxAttempts int
	Elapsed     time.Duration
	Err         error
	Retrying    bool
	NextDelay   time.Duration
}

// EventSink receives attempt and retry events for logging or progress
// display.
type EventSink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// NopSink discards all events.
func NopSink() EventSink {
	return SinkFunc(func(Event) {})
}

// SlogSink logs events through a structured logger: successes at info,
// retries at warn, terminal failures at error.
func SlogSink(logger *slog.Logger) EventSink {
	return SinkFunc(func(ev Event) {
		attrs := []any{
			slog.String("step", ev.Step),
			slog.Int("attempt", ev.Attempt),
			slog.Int("max_attempts", ev.MaxAttempts),
			slog.Duration("elapsed", ev.Elapsed),
		}
		switch {
		case ev.Retrying:
			logger.Warn("step failed, retrying",
				append(attrs, slog.Duration("retry_in", ev.NextDelay), slog.Any("error", ev.Err))...)
		case ev.Err == nil:
			logger.Info("step attempt succeeded", attrs...)
		default:
			logger.Error("step attempt failed", append(attrs, slog.Any("error", ev.Err))...)
		}
	})
}
