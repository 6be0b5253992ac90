package fetcher

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// RetryPolicy bounds how a failed request is repeated. Waits grow
// exponentially with ±25% jitter; a server's Retry-After replaces the
// computed wait, capped at MaxRetryAfter.
type RetryPolicy struct {
	MaxAttempts       int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	MaxRetryAfter     time.Duration
	BackoffMultiplier float64
	RetryableStatus   map[int]bool
}

// NewRetryPolicy creates the default policy with three attempts
func NewRetryPolicy() *RetryPolicy {
	return NewRetryPolicyWithAttempts(3)
}

// NewRetryPolicyWithAttempts creates the default policy with a custom attempt bound
func NewRetryPolicyWithAttempts(maxAttempts int) *RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryPolicy{
		MaxAttempts:       maxAttempts,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		MaxRetryAfter:     2 * time.Minute,
		BackoffMultiplier: 2.0,
		RetryableStatus: map[int]bool{
			http.StatusRequestTimeout:      true,
			http.StatusTooManyRequests:     true,
			http.StatusInternalServerError: true,
			http.StatusBadGateway:          true,
			http.StatusServiceUnavailable:  true,
			http.StatusGatewayTimeout:      true,
		},
	}
}

// ShouldRetry reports whether err after the given zero-based attempt is worth another try
func (p *RetryPolicy) ShouldRetry(attempt int, err error) bool {
	if err == nil || attempt+1 >= p.MaxAttempts {
		return false
	}
	return p.retryable(err)
}

// Wait returns how long to pause before the attempt after attempt
func (p *RetryPolicy) Wait(attempt int, err error) time.Duration {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.RetryAfter > 0 {
		if p.MaxRetryAfter > 0 && statusErr.RetryAfter > p.MaxRetryAfter {
			return p.MaxRetryAfter
		}
		return statusErr.RetryAfter
	}
	return p.Backoff(attempt)
}

// Backoff is the jittered exponential wait after attempt
func (p *RetryPolicy) Backoff(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff) * math.Pow(p.BackoffMultiplier, float64(attempt))
	if backoff > float64(p.MaxBackoff) {
		backoff = float64(p.MaxBackoff)
	}
	backoff += backoff * 0.25 * (rand.Float64()*2 - 1)
	if backoff <= 0 {
		return p.InitialBackoff
	}
	return time.Duration(backoff)
}

// Do calls fn until it succeeds, fails with a non-retryable error, the attempts
// run out or ctx ends. The last error is returned unchanged.
func (p *RetryPolicy) Do(ctx context.Context, logger arbor.ILogger, fn func(attempt int) error) error {
	for attempt := 0; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !p.ShouldRetry(attempt, err) {
			if attempt > 0 {
				logger.Warn().Int("attempts", attempt+1).Err(err).Msg("Request failed after retries")
			}
			return err
		}

		wait := p.Wait(attempt, err)
		logger.Debug().
			Int("attempt", attempt+1).
			Err(err).
			Dur("wait", wait).
			Msg("Retrying request")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (p *RetryPolicy) retryable(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return p.RetryableStatus[statusErr.StatusCode]
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// parseRetryAfter reads a Retry-After header given in seconds or as an HTTP date
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
