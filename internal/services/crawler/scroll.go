package crawler

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
)

// targetRatio is the share of a known target count that counts as "nearly loaded"
const targetRatio = 0.8

// ScrollOptions bounds one adaptive scroll of a discovery page
type ScrollOptions struct {
	Pause         time.Duration // wait after each scroll for content to load
	LoadMorePause time.Duration // wait after clicking a load-more control
	StableChecks  int           // consecutive unchanged heights that end the scroll
	Budget        time.Duration // base time budget
	MaxBudget     time.Duration // ceiling when extending toward TargetCount
	TargetCount   int           // expected number of events; zero when unknown
	Grace         time.Duration // extra time allowed once the target is nearly reached
}

// ScrollResult describes how a scroll ended
type ScrollResult struct {
	Iterations   int
	LoadMoreHits int
	FinalHeight  int64
	Stable       bool // ended because the height stopped changing
	TimedOut     bool // ended because the budget elapsed
	Extended     bool // budget was extended toward the target
}

// Scroller loads lazily rendered content by scrolling until the page stops growing
type Scroller struct {
	logger arbor.ILogger
	now    func() time.Time
}

// NewScroller creates a scroller
func NewScroller(logger arbor.ILogger) *Scroller {
	return &Scroller{logger: logger, now: time.Now}
}

// Scroll scrolls page to the bottom repeatedly. It stops after StableChecks
// consecutive unchanged heights, or when the budget elapses. When TargetCount
// is known the budget is extended up to MaxBudget while fewer than 80% of the
// target links are visible, and capped at elapsed+Grace once they are.
func (s *Scroller) Scroll(ctx context.Context, page Page, opts ScrollOptions) (*ScrollResult, error) {
	if opts.StableChecks < 1 {
		opts.StableChecks = 1
	}
	if opts.MaxBudget < opts.Budget {
		opts.MaxBudget = opts.Budget
	}

	start := s.now()
	deadline := start.Add(opts.Budget)
	targetReached := false

	result := &ScrollResult{}
	var prevHeight int64 = -1
	stable := 0

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if !s.now().Before(deadline) {
			if opts.TargetCount > 0 && !targetReached && !result.Extended && opts.MaxBudget > opts.Budget {
				anchors, err := page.AnchorCount(ctx)
				if err == nil && float64(anchors) < targetRatio*float64(opts.TargetCount) {
					deadline = start.Add(opts.MaxBudget)
					result.Extended = true
					s.logger.Debug().
						Int("anchors", anchors).
						Int("target", opts.TargetCount).
						Dur("max_budget", opts.MaxBudget).
						Msg("Target not reached, extending scroll budget")
					continue
				}
			}
			result.TimedOut = true
			break
		}

		if err := page.ScrollToBottom(ctx); err != nil {
			return result, err
		}
		result.Iterations++
		if err := sleepContext(ctx, opts.Pause); err != nil {
			return result, err
		}

		clicked, err := page.ClickLoadMore(ctx)
		if err == nil && clicked {
			result.LoadMoreHits++
			stable = 0
			if err := sleepContext(ctx, opts.LoadMorePause); err != nil {
				return result, err
			}
			continue
		}

		height, err := page.ScrollHeight(ctx)
		if err != nil {
			return result, err
		}
		result.FinalHeight = height

		if height == prevHeight {
			stable++
			if stable >= opts.StableChecks {
				result.Stable = true
				break
			}
		} else {
			stable = 0
			prevHeight = height
		}

		if opts.TargetCount > 0 && !targetReached {
			if anchors, err := page.AnchorCount(ctx); err == nil && float64(anchors) >= targetRatio*float64(opts.TargetCount) {
				targetReached = true
				if capped := s.now().Add(opts.Grace); capped.Before(deadline) {
					deadline = capped
				}
				s.logger.Debug().
					Int("anchors", anchors).
					Int("target", opts.TargetCount).
					Msg("Target nearly reached, capping scroll at grace period")
			}
		}
	}

	s.logger.Debug().
		Int("iterations", result.Iterations).
		Int("load_more", result.LoadMoreHits).
		Bool("stable", result.Stable).
		Bool("timed_out", result.TimedOut).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Scroll finished")

	return result, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
