package service

import (
	"context"
	"regexp"
	"strings"
)

// viewInvalidator evicts cached GET responses whose keys match a pattern.
// *cache.MemoryStore satisfies this.
type viewInvalidator interface {
	InvalidateMatching(pattern *regexp.Regexp) int
}

// dashboardInvalidator drops the cached dashboard summary after writes that
// move its counters. *DashboardService satisfies this.
type dashboardInvalidator interface {
	InvalidateCache(ctx context.Context)
}

var (
	packageViewsPattern = regexp.MustCompile(`/packages`)
	stateViewsPattern   = regexp.MustCompile(`/(states|cities|packages)`)
	cityViewsPattern    = regexp.MustCompile(`/(cities|packages)`)
	articleViewsPattern = regexp.MustCompile(`/articles`)
	bookingViewsPattern = regexp.MustCompile(`/track/`)
)

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a display name.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
