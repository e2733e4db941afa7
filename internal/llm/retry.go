package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Delay is the un-jittered wait before retry number attempt (0-based):
// InitialWait grown by Multiplier per attempt and capped at MaxWait.
func (c RetryConfig) Delay(attempt int) time.Duration {
	d := float64(c.InitialWait)
	for range attempt {
		d *= c.Multiplier
		if c.MaxWait > 0 && d >= float64(c.MaxWait) {
			return c.MaxWait
		}
	}
	if c.MaxWait > 0 && d > float64(c.MaxWait) {
		return c.MaxWait
	}
	return time.Duration(d)
}

type verdict int

const (
	giveUp verdict = iota
	retryOnce
	retryAlways
)

// judge sorts a failure by whether another attempt could help.
func judge(err error) verdict {
	var (
		maxTok  *ErrMaxTokensExceeded
		invalid *ErrInvalidResponse
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return giveUp
	case errors.As(err, &maxTok):
		return giveUp
	case errors.As(err, &invalid):
		return retryOnce
	default:
		return retryAlways
	}
}

type retrying struct {
	inner  Provider
	cfg    RetryConfig
	logger *slog.Logger

	// jitter spreads a delay by up to ±20%.
	jitter func(time.Duration) time.Duration
	sleep  func(context.Context, time.Duration) error
}

// WithRetry wraps p so that transient failures are retried with
// exponential backoff. Malformed output is retried once; truncated output
// and cancellation are returned at once.
func WithRetry(p Provider, cfg RetryConfig, logger *slog.Logger) Provider {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &retrying{inner: p, cfg: cfg, logger: logger, jitter: spread, sleep: sleepCtx}
}

func spread(d time.Duration) time.Duration {
	f := 1 + 0.2*(2*rand.Float64()-1)
	return time.Duration(float64(d) * f)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r *retrying) Generate(ctx context.Context, req Request) (*Response, error) {
	retriedInvalid := false
	for attempt := 0; ; attempt++ {
		resp, err := r.inner.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}

		v := judge(err)
		if v == retryOnce {
			if retriedInvalid {
				v = giveUp
			}
			retriedInvalid = true
		}
		if v == giveUp || attempt+1 >= r.cfg.MaxAttempts {
			return nil, err
		}

		wait := r.wait(attempt, err)
		r.logger.Debug("retrying LLM request", "attempt", attempt+1, "wait", wait, "error", err)
		if err := r.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// wait honours a rate limit's RetryAfter, else backs off.
func (r *retrying) wait(attempt int, err error) time.Duration {
	var rl *ErrRateLimit
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	return r.jitter(r.cfg.Delay(attempt))
}

func (r *retrying) ModelID() string {
	return r.inner.ModelID()
}
