package crawler

import (
	"context"
	"fmt"
	"sync"
)

// fakePage serves canned HTML per URL. heights is consumed one value per
// ScrollHeight call; the last value repeats once exhausted.
type fakePage struct {
	mu        sync.Mutex
	pages     map[string]string
	failing   map[string]bool
	current   string
	heights   []int64
	heightIdx int
	loadMore  int // number of times a load-more control is present
	anchors   int
	scrolls   int
	visits    []string
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visits = append(p.visits, url)
	if p.failing[url] {
		return fmt.Errorf("navigation to %s failed", url)
	}
	p.current = url
	return nil
}

func (p *fakePage) ScrollHeight(ctx context.Context) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.heights) == 0 {
		return 1000, nil
	}
	h := p.heights[p.heightIdx]
	if p.heightIdx < len(p.heights)-1 {
		p.heightIdx++
	}
	return h, nil
}

func (p *fakePage) ScrollToBottom(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scrolls++
	return nil
}

func (p *fakePage) ClickLoadMore(ctx context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadMore > 0 {
		p.loadMore--
		return true, nil
	}
	return false, nil
}

func (p *fakePage) AnchorCount(ctx context.Context) (int, error) {
	return p.anchors, nil
}

func (p *fakePage) HTML(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	html, ok := p.pages[p.current]
	if !ok {
		return "", fmt.Errorf("no page at %s", p.current)
	}
	return html, nil
}

func (p *fakePage) URL(ctx context.Context) (string, error) {
	return p.current, nil
}
