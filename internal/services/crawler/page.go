package crawler

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"
)

// Page is a browser tab as seen by the crawl: navigation, scrolling and the
// rendered document
type Page interface {
	Navigate(ctx context.Context, url string) error
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	// ClickLoadMore clicks a visible "show more"/"load more" control and reports whether one was found
	ClickLoadMore(ctx context.Context) (bool, error)
	// AnchorCount returns the number of links currently rendered
	AnchorCount(ctx context.Context) (int, error)
	HTML(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
}

const clickLoadMoreJS = `(() => {
	const labels = ['show more', 'load more', 'see more', 'view more'];
	const candidates = Array.from(document.querySelectorAll('button, a[role="button"], div[role="button"]'));
	for (const el of candidates) {
		const text = (el.innerText || '').trim().toLowerCase();
		if (!labels.some(l => text.startsWith(l))) continue;
		const rect = el.getBoundingClientRect();
		if (rect.width === 0 || rect.height === 0 || el.disabled) continue;
		el.scrollIntoView({block: 'center'});
		el.click();
		return true;
	}
	return false;
})()`

// chromedpPage drives the browser's single tab
type chromedpPage struct {
	browser *Browser
}

// run executes actions on the tab, bounded by the navigation timeout and ctx
func (p *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	browserCtx, err := p.browser.context()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithTimeout(browserCtx, p.browser.config.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

func (p *chromedpPage) Navigate(ctx context.Context, url string) error {
	if err := p.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

func (p *chromedpPage) ScrollHeight(ctx context.Context) (int64, error) {
	var height int64
	err := p.run(ctx, chromedp.Evaluate(`document.body ? document.body.scrollHeight : 0`, &height))
	return height, err
}

func (p *chromedpPage) ScrollToBottom(ctx context.Context) error {
	return p.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

func (p *chromedpPage) ClickLoadMore(ctx context.Context) (bool, error) {
	var clicked bool
	err := p.run(ctx, chromedp.Evaluate(clickLoadMoreJS, &clicked))
	return clicked, err
}

func (p *chromedpPage) AnchorCount(ctx context.Context) (int, error) {
	var count int
	err := p.run(ctx, chromedp.Evaluate(`document.querySelectorAll('a[href]').length`, &count))
	return count, err
}

func (p *chromedpPage) HTML(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html))
	return html, err
}

func (p *chromedpPage) URL(ctx context.Context) (string, error) {
	var location string
	err := p.run(ctx, chromedp.Location(&location))
	return location, err
}
