package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func fastRetry(attempts int) *RetryPolicy {
	p := NewRetryPolicyWithAttempts(attempts)
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond
	return p
}

func TestFetcher_RetriesTransientStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	f := NewFetcher(nil, nil, fastRetry(3), arbor.NewLogger())

	var result struct {
		OK bool `json:"ok"`
	}
	err := f.GetJSON(context.Background(), server.URL, &result)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetcher_DoesNotRetryClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	f := NewFetcher(nil, nil, fastRetry(3), arbor.NewLogger())

	_, err := f.GetHTML(context.Background(), server.URL)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewFetcher(nil, nil, fastRetry(2), arbor.NewLogger())

	_, err := f.Get(context.Background(), server.URL, "")
	assert.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRateLimiter_SpacesRequestsPerHost(t *testing.T) {
	rl := NewRateLimiter(40 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, rl.Wait(ctx, "https://api2.luma.com/discover"))
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)

	// A different host has its own bucket
	start = time.Now()
	require.NoError(t, rl.Wait(ctx, "https://lu.ma/abc12345"))
	assert.Less(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiter_HonorsCancellation(t *testing.T) {
	rl := NewJitteredRateLimiter(time.Hour, 2*time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, rl.limiterFor("lu.ma").Wait(ctx))
	cancel()
	assert.Error(t, rl.Wait(ctx, "https://lu.ma/x"))
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := NewRetryPolicy()

	tests := []struct {
		name    string
		attempt int
		err     error
		want    bool
	}{
		{"bad gateway", 0, &StatusError{StatusCode: http.StatusBadGateway}, true},
		{"rate limited", 0, &StatusError{StatusCode: http.StatusTooManyRequests}, true},
		{"forbidden", 0, &StatusError{StatusCode: http.StatusForbidden}, false},
		{"wrapped status", 0, fmt.Errorf("fetch: %w", &StatusError{StatusCode: http.StatusServiceUnavailable}), true},
		{"deadline", 0, context.DeadlineExceeded, true},
		{"cancelled", 0, context.Canceled, false},
		{"attempts exhausted", 2, &StatusError{StatusCode: http.StatusBadGateway}, false},
		{"success", 0, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ShouldRetry(tt.attempt, tt.err))
		})
	}
}

func TestRetryPolicy_WaitHonorsRetryAfter(t *testing.T) {
	p := fastRetry(3)
	p.MaxRetryAfter = 10 * time.Second

	assert.Equal(t, 3*time.Second, p.Wait(0, &StatusError{StatusCode: 429, RetryAfter: 3 * time.Second}))
	assert.Equal(t, 10*time.Second, p.Wait(0, &StatusError{StatusCode: 429, RetryAfter: time.Hour}))
	assert.LessOrEqual(t, p.Wait(0, &StatusError{StatusCode: 503}), 2*time.Millisecond)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 5*time.Second, parseRetryAfter("5", now))
	assert.Equal(t, 90*time.Second, parseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-3", now))
}

func TestFetcher_UsesRetryAfterHeader(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	p := fastRetry(2)
	p.MaxRetryAfter = 20 * time.Millisecond
	f := NewFetcher(nil, nil, p, arbor.NewLogger())

	start := time.Now()
	body, err := f.Get(context.Background(), server.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetcher_RateLimitCarriesRetryAfter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewFetcher(nil, nil, fastRetry(1), arbor.NewLogger())

	_, err := f.Get(context.Background(), server.URL, "")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, 30*time.Second, statusErr.RetryAfter)
}
