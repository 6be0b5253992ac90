package httpclient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"time"

	"github.com/ternarybob/venator/internal/common"
)

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// Session is the request identity for one pipeline run: headers, user agent and
// cookies shared by the API client, the detail enricher and the browser.
// It is built explicitly by the caller and passed down; nothing here is global.
type Session struct {
	UserAgent string
	Headers   map[string]string
	Cookies   map[string]string
	Timeout   time.Duration

	client *http.Client
}

// NewSession creates a session from configuration. Cookies are scoped to every
// URL in cookieURLs (typically the web and API base URLs).
func NewSession(config *common.SessionConfig, cookieURLs ...string) (*Session, error) {
	s := &Session{
		UserAgent: config.UserAgent,
		Headers:   make(map[string]string, len(config.Headers)),
		Cookies:   make(map[string]string, len(config.Cookies)),
		Timeout:   common.ParseDurationOrDefault(config.RequestTimeout, 30*time.Second),
	}
	for k, v := range config.Headers {
		s.Headers[k] = v
	}
	for k, v := range config.Cookies {
		s.Cookies[k] = v
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpCookies := s.HTTPCookies()
	for _, raw := range cookieURLs {
		u, err := url.Parse(raw)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid cookie URL %q", raw)
		}
		jar.SetCookies(u, httpCookies)
	}

	s.client = &http.Client{
		Jar:     jar,
		Timeout: s.Timeout,
	}
	return s, nil
}

// Client returns the session's HTTP client with its cookie jar
func (s *Session) Client() *http.Client {
	if s.client == nil {
		s.client = NewDefaultHTTPClient(s.Timeout)
	}
	return s.client
}

// Apply sets the session headers and user agent on req.
// Accept-Encoding is left to the transport, which only decodes gzip it negotiated itself.
func (s *Session) Apply(req *http.Request) {
	for k, v := range s.Headers {
		if http.CanonicalHeaderKey(k) == "Accept-Encoding" {
			continue
		}
		req.Header.Set(k, v)
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
}

// HTTPCookies returns the session cookies sorted by name
func (s *Session) HTTPCookies() []*http.Cookie {
	names := make([]string, 0, len(s.Cookies))
	for name := range s.Cookies {
		names = append(names, name)
	}
	sort.Strings(names)

	cookies := make([]*http.Cookie, 0, len(names))
	for _, name := range names {
		cookies = append(cookies, &http.Cookie{
			Name:  name,
			Value: s.Cookies[name],
			Path:  "/",
		})
	}
	return cookies
}

// BrowserHeaders returns the headers to inject into a browser session.
// Accept is dropped so page navigations still request HTML.
func (s *Session) BrowserHeaders() map[string]interface{} {
	headers := make(map[string]interface{}, len(s.Headers))
	for k, v := range s.Headers {
		if http.CanonicalHeaderKey(k) == "Accept" {
			continue
		}
		headers[k] = v
	}
	return headers
}
