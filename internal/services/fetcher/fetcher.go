package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/httpclient"
)

// maxBodySize bounds how much of a response body is read
const maxBodySize = 10 * 1024 * 1024

// StatusError is returned when a request completes with a non-2xx status.
// RetryAfter carries the server's Retry-After hint, zero when absent.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Fetcher performs paced, retried GET requests with the run's session identity
type Fetcher struct {
	session *httpclient.Session
	limiter *RateLimiter
	retry   *RetryPolicy
	logger  arbor.ILogger
}

// NewFetcher creates a fetcher. A nil limiter disables pacing; a nil policy uses the default.
func NewFetcher(session *httpclient.Session, limiter *RateLimiter, retry *RetryPolicy, logger arbor.ILogger) *Fetcher {
	if retry == nil {
		retry = NewRetryPolicy()
	}
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Fetcher{
		session: session,
		limiter: limiter,
		retry:   retry,
		logger:  logger,
	}
}

// Get fetches rawURL and returns the response body. accept overrides the session's
// Accept header when non-empty. Every attempt waits on the rate limiter.
func (f *Fetcher) Get(ctx context.Context, rawURL string, accept string) ([]byte, error) {
	var body []byte

	err := f.retry.Do(ctx, f.logger, func(attempt int) error {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		if f.session != nil {
			f.session.Apply(req)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		f.logger.Trace().Str("url", rawURL).Int("attempt", attempt+1).Msg("HTTP GET")

		resp, err := f.client().Do(req)
		if err != nil {
			return fmt.Errorf("failed to execute request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			snippet := string(data)
			if len(snippet) > 256 {
				snippet = snippet[:256]
			}
			return &StatusError{
				StatusCode: resp.StatusCode,
				URL:        rawURL,
				Body:       snippet,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
			}
		}

		body = data
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the JSON body into result
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, result interface{}) error {
	body, err := f.Get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetHTML fetches rawURL as an HTML document
func (f *Fetcher) GetHTML(ctx context.Context, rawURL string) (string, error) {
	body, err := f.Get(ctx, rawURL, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *Fetcher) client() *http.Client {
	if f.session != nil {
		return f.session.Client()
	}
	return httpclient.NewDefaultHTTPClient(0)
}
