package crawler

import (
	"net/url"
	"strings"

	"github.com/ternarybob/venator/internal/common"
	"github.com/ternarybob/venator/internal/models"
)

// SeedPlan describes which discovery pages the crawl starts from
type SeedPlan struct {
	BaseURL          string
	CategorySlug     string
	Category         *models.CategoryInfo // nil when the category page could not be loaded
	UseCalendars     bool
	MaxCalendarSeeds int
	SearchTerms      []string
	ExtraSeeds       []string
}

// PlanSeeds orders the crawl: the category page, the busiest calendars, search
// pages, then any configured extra pages. Duplicate URLs are dropped.
func PlanSeeds(plan SeedPlan) []models.Seed {
	base := strings.TrimRight(plan.BaseURL, "/")
	var seeds []models.Seed
	seen := make(map[string]bool)

	add := func(seed models.Seed) {
		if seed.URL == "" || seen[seed.URL] {
			return
		}
		seen[seed.URL] = true
		seeds = append(seeds, seed)
	}

	if plan.CategorySlug != "" {
		category := models.Seed{
			URL:  base + "/discover?category=" + url.QueryEscape(plan.CategorySlug),
			Kind: models.SeedKindCategory,
			Name: plan.CategorySlug,
		}
		if plan.Category != nil {
			category.ExpectedCount = plan.Category.EventCount
		}
		add(category)
	}

	if plan.UseCalendars && plan.Category != nil {
		for i, cal := range plan.Category.Calendars {
			if plan.MaxCalendarSeeds > 0 && i >= plan.MaxCalendarSeeds {
				break
			}
			name := cal.Name
			if name == "" {
				name = cal.Slug
			}
			add(models.Seed{
				URL:           common.EventURL(base, cal.Slug),
				Kind:          models.SeedKindCalendar,
				Name:          name,
				ExpectedCount: cal.EventCount,
			})
		}
	}

	for _, term := range plan.SearchTerms {
		if term = strings.TrimSpace(term); term == "" {
			continue
		}
		add(models.Seed{
			URL:  base + "/discover?q=" + url.QueryEscape(term),
			Kind: models.SeedKindSearch,
			Name: term,
		})
	}

	for _, extra := range plan.ExtraSeeds {
		add(models.Seed{
			URL:  common.ResolveURL(base, extra),
			Kind: models.SeedKindSearch,
			Name: strings.Trim(extra, "/"),
		})
	}

	return seeds
}
