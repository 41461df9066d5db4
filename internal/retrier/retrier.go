// Package retrier implements the exponential-backoff executor used to wrap
// operations (chiefly TCP bind) that may fail transiently on startup.
package retrier

import (
	"context"
	"fmt"
	"time"

	log "github.com/relaydaemon/ffwdd/internal/log"
)

// Config controls backoff shape and the overall retry budget.
type Config struct {
	InitialDelay time.Duration // delay before the first retry; default 1s
	MaxDelay     time.Duration // cap on backoff growth; default 30s
	Timeout      time.Duration // bounds total retry duration; 0 means no bound
}

func (c Config) withDefaults() Config {
	if c.InitialDelay <= 0 {
		c.InitialDelay = time.Second
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	return c
}

// Retrier runs an operation repeatedly with doubling backoff until it
// succeeds, the context is cancelled, or the configured timeout elapses.
type Retrier struct {
	cfg Config
	log log.Logger
}

func New(cfg Config, logger log.Logger) *Retrier {
	return &Retrier{cfg: cfg.withDefaults(), log: logger}
}

// Op is a retryable operation; attempt is 1-based.
type Op func(ctx context.Context, attempt int) error

// Do runs op until it returns nil, logging a warning with attempt number and
// next backoff on every failure. If the retrier's Timeout is positive, the
// total time spent (including the final failing attempt) is bounded by it;
// on expiry Do returns the last observed error wrapped with a timeout note.
func (r *Retrier) Do(ctx context.Context, label string, op Op) error {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	delay := r.cfg.InitialDelay
	var lastErr error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return fmt.Errorf("%s: retry timed out after %d attempt(s): %w", label, attempt-1, lastErr)
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		r.log.WithError(lastErr).Warnf("%s: attempt %d failed, retrying in %s", label, attempt, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: retry timed out after %d attempt(s): %w", label, attempt, lastErr)
		case <-timer.C:
		}

		delay *= 2
		if delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}
}
