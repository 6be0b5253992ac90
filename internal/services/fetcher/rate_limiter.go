package fetcher

import (
	"context"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests per host. Each host gets a token bucket releasing one
// request per delay; an optional random jitter is added after every token.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	delay    time.Duration
	jitter   time.Duration
}

// NewRateLimiter creates a limiter with a fixed delay between requests to the same host
func NewRateLimiter(delay time.Duration) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		delay:    delay,
	}
}

// NewJitteredRateLimiter creates a limiter whose spacing falls between min and max
func NewJitteredRateLimiter(min, max time.Duration) *RateLimiter {
	rl := NewRateLimiter(min)
	if max > min {
		rl.jitter = max - min
	}
	return rl
}

// Wait blocks until a request to rawURL's host is allowed (with context support)
func (rl *RateLimiter) Wait(ctx context.Context, rawURL string) error {
	if rl == nil {
		return nil
	}

	if limiter := rl.limiterFor(extractDomain(rawURL)); limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	if rl.jitter <= 0 {
		return nil
	}

	timer := time.NewTimer(time.Duration(rand.Int63n(int64(rl.jitter))))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Delay returns the base spacing between requests to one host
func (rl *RateLimiter) Delay() time.Duration {
	return rl.delay
}

func (rl *RateLimiter) limiterFor(domain string) *rate.Limiter {
	if rl.delay <= 0 {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(rl.delay), 1)
		rl.limiters[domain] = limiter
	}
	return limiter
}

// extractDomain parses the domain from a URL
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
