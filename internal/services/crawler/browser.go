package crawler

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venator/internal/httpclient"
)

// BrowserConfig holds configuration for the headless browser
type BrowserConfig struct {
	Headless          bool
	NoSandbox         bool
	UserAgent         string
	NavigationTimeout time.Duration
	StartupTimeout    time.Duration
}

// stealthJS hides the most common automation markers before any page script runs
const stealthJS = `
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined, configurable: true });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'], configurable: true });
	if (!window.chrome) window.chrome = {};
	window.chrome.runtime = { id: undefined };
`

// Browser is one chromedp browser session carrying the run's identity:
// user agent, session cookies and extra headers.
type Browser struct {
	config    BrowserConfig
	session   *httpclient.Session
	cookieURL string
	logger    arbor.ILogger

	mu              sync.Mutex
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	initialized     bool
}

// NewBrowser creates a browser. Cookies from session are scoped to cookieURL.
func NewBrowser(config BrowserConfig, session *httpclient.Session, cookieURL string, logger arbor.ILogger) *Browser {
	if config.StartupTimeout <= 0 {
		config.StartupTimeout = 30 * time.Second
	}
	if config.NavigationTimeout <= 0 {
		config.NavigationTimeout = 30 * time.Second
	}
	return &Browser{
		config:    config,
		session:   session,
		cookieURL: cookieURL,
		logger:    logger,
	}
}

// Start launches the browser and injects the session identity
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.initialized {
		return fmt.Errorf("browser already started")
	}

	userAgent := b.config.UserAgent
	if userAgent == "" && b.session != nil {
		userAgent = b.session.UserAgent
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("no-sandbox", b.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(1920, 1080),
	)
	if userAgent != "" {
		allocatorOpts = append(allocatorOpts, chromedp.UserAgent(userAgent))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx,
		chromedp.WithLogf(func(s string, i ...interface{}) {
			b.logger.Trace().Msgf("chromedp: "+s, i...)
		}),
	)

	b.logger.Info().
		Bool("headless", b.config.Headless).
		Str("user_agent", userAgent).
		Msg("Starting browser")

	testCtx, testCancel := context.WithTimeout(browserCtx, b.config.StartupTimeout)
	defer testCancel()

	if err := chromedp.Run(testCtx, chromedp.Navigate("about:blank")); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	if err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealthJS).Do(ctx)
			return err
		}),
		chromedp.EmulateViewport(1920, 1080),
	); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("failed to prepare browser: %w", err)
	}

	if err := b.injectSession(browserCtx); err != nil {
		browserCancel()
		allocatorCancel()
		return err
	}

	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.allocatorCancel = allocatorCancel
	b.initialized = true

	b.logger.Debug().Msg("Browser started")
	return nil
}

// injectSession sets the session cookies and extra headers on the browser
func (b *Browser) injectSession(browserCtx context.Context) error {
	if b.session == nil {
		return nil
	}

	var domain string
	if u, err := url.Parse(b.cookieURL); err == nil {
		domain = u.Hostname()
	}

	cookies := b.session.HTTPCookies()
	if len(cookies) > 0 {
		err := chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			for _, cookie := range cookies {
				if err := network.SetCookie(cookie.Name, cookie.Value).
					WithURL(b.cookieURL).
					WithDomain(domain).
					WithPath("/").
					WithSecure(true).
					WithHTTPOnly(true).
					Do(ctx); err != nil {
					b.logger.Warn().Err(err).Str("cookie_name", cookie.Name).Msg("Failed to inject cookie into browser")
				}
			}
			return nil
		}))
		if err != nil {
			return fmt.Errorf("failed to inject cookies: %w", err)
		}
		b.logger.Debug().Int("cookies", len(cookies)).Str("domain", domain).Msg("Session cookies injected into browser")
	}

	if headers := b.session.BrowserHeaders(); len(headers) > 0 {
		if err := chromedp.Run(browserCtx, network.SetExtraHTTPHeaders(network.Headers(headers))); err != nil {
			return fmt.Errorf("failed to set browser headers: %w", err)
		}
	}

	return nil
}

// Page returns the browser's tab as a Page
func (b *Browser) Page() Page {
	return &chromedpPage{browser: b}
}

func (b *Browser) context() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return nil, fmt.Errorf("browser not started")
	}
	return b.browserCtx, nil
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		return
	}
	if b.browserCancel != nil {
		b.browserCancel()
	}
	if b.allocatorCancel != nil {
		b.allocatorCancel()
	}
	b.initialized = false
	b.logger.Debug().Msg("Browser closed")
}
