package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trellisdata/trellis/internal/generation"
)

// RetryPolicy controls re-attempts against the generation service for
// transient upstream failures.
type RetryPolicy struct {
	// MaxRetries is the number of re-attempts after the first call.
	MaxRetries int

	// BaseDelay is the base of the exponential backoff schedule.
	BaseDelay time.Duration
}

// maxBackoffShift caps the exponent so a large configured retry budget
// cannot overflow the shift into a negative duration.
const maxBackoffShift = 16

// Delay returns the backoff before retry attempt (0-based):
// BaseDelay * 2^attempt, with the exponent capped. No jitter: each retry
// reuses the identical rendered input, and the schedule is deterministic.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxBackoffShift {
		attempt = maxBackoffShift
	}
	d := p.BaseDelay << uint(attempt)
	if d < p.BaseDelay {
		return p.BaseDelay
	}
	return d
}

// RunWithRetry invokes call, re-attempting transient failures per the
// policy. Fatal upstream errors end the attempt chain immediately.
// Absorbed retries are invisible to the ledgers (no error entry, no state
// change); only the final unrecoverable error propagates to the caller,
// which commits it as terminal.
func RunWithRetry(
	ctx context.Context,
	logger *slog.Logger,
	policy RetryPolicy,
	call func(ctx context.Context) (*generation.Completion, error),
) (*generation.Completion, error) {
	attempt := 0
	for {
		completion, err := call(ctx)
		if err == nil {
			return completion, nil
		}

		if !generation.IsTransient(err) {
			return nil, err
		}
		if attempt >= policy.MaxRetries {
			return nil, fmt.Errorf("transient failure persisted after %d retries: %w",
				policy.MaxRetries, err)
		}

		delay := policy.Delay(attempt)
		logger.WarnContext(ctx, "transient generation failure, backing off",
			"attempt", attempt,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("retry interrupted: %w", ctx.Err())
		}
		attempt++
	}
}
