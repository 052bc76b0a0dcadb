// Package archive implements the query engine over stored link
// records: scope selection, view filtering and search, composed in that
// order.
package archive

import (
	"math/rand"
	"strings"
	"time"

	"github.com/linkbox/analyzer/models"
)

// View is the secondary filter applied within a scope
type View string

const (
	ViewAll       View = "all"
	ViewUnread    View = "unread"
	ViewRecent    View = "recent"
	ViewFrequent  View = "frequent"
	ViewTodayPick View = "today-pick"
)

// Views returns every supported view, in menu order
func Views() []View {
	return []View{ViewAll, ViewUnread, ViewRecent, ViewFrequent, ViewTodayPick}
}

const (
	// recentWindow is the trailing window for ViewRecent. A record is
	// recent when AddedAt is strictly after now minus this window.
	recentWindow = 72 * time.Hour

	// frequentReadThreshold is the exclusive lower bound on ReadCount
	// for ViewFrequent
	frequentReadThreshold = 2

	// todayPickSize is the sample size for ViewTodayPick
	todayPickSize = 6
)

// Scope selects the coarse record subset. The zero value selects all
// records; at most one of Tag and Folder should be set.
type Scope struct {
	Tag    string // records carrying this tag (exact, case-sensitive)
	Folder string // records assigned to this folder
}

// QuerySpec describes one archive query
type QuerySpec struct {
	Scope Scope
	View  View
	// Search is a case-insensitive substring matched against title,
	// description and tags. A term that looks like a URL (http prefix)
	// is ignored: the UI reuses the search box for quick-add input.
	Search string
}

// Engine evaluates archive queries. Now and Rand are injectable so
// recency and today-pick results are reproducible in tests; the zero
// value uses the wall clock and a time-seeded source.
type Engine struct {
	Now  func() time.Time
	Rand *rand.Rand
}

// New creates an engine with production defaults
func New() *Engine {
	return &Engine{}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) rng() *rand.Rand {
	if e.Rand != nil {
		return e.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Query returns the ordered, deduplicated subset of records matching
// spec. Filters narrow in sequence (scope, then view, then search), so
// a recent view inside a folder scope intersects rather than overrides.
// Input order is preserved except under ViewTodayPick, which returns an
// unordered random sample of up to six records and is therefore
// non-deterministic across calls unless Rand is fixed.
func (e *Engine) Query(records []models.LinkRecord, spec QuerySpec) []models.LinkRecord {
	filtered := dedupe(records)
	filtered = filterScope(filtered, spec.Scope)
	filtered = e.filterView(filtered, spec.View)
	filtered = filterSearch(filtered, spec.Search)
	return filtered
}

// Counts returns the per-view result sizes over the whole record set
// (no scope, no search), so menu badges reflect global counts even
// while the visible grid is scoped.
func (e *Engine) Counts(records []models.LinkRecord) map[View]int {
	deduped := dedupe(records)
	now := e.now()

	counts := make(map[View]int, len(Views()))
	counts[ViewAll] = len(deduped)
	counts[ViewUnread] = countIf(deduped, func(r models.LinkRecord) bool { return !r.IsRead })
	counts[ViewRecent] = countIf(deduped, func(r models.LinkRecord) bool { return isRecent(r, now) })
	counts[ViewFrequent] = countIf(deduped, isFrequent)
	// today-pick is a fixed-size sample; no need to draw one to count it
	counts[ViewTodayPick] = min(todayPickSize, len(deduped))
	return counts
}

func filterScope(records []models.LinkRecord, scope Scope) []models.LinkRecord {
	switch {
	case scope.Tag != "":
		return filter(records, func(r models.LinkRecord) bool { return hasTag(r, scope.Tag) })
	case scope.Folder != "":
		return filter(records, func(r models.LinkRecord) bool { return r.Folder == scope.Folder })
	}
	return records
}

func (e *Engine) filterView(records []models.LinkRecord, view View) []models.LinkRecord {
	switch view {
	case ViewUnread:
		return filter(records, func(r models.LinkRecord) bool { return !r.IsRead })
	case ViewRecent:
		now := e.now()
		return filter(records, func(r models.LinkRecord) bool { return isRecent(r, now) })
	case ViewFrequent:
		return filter(records, isFrequent)
	case ViewTodayPick:
		return e.sample(records, todayPickSize)
	}
	return records
}

func filterSearch(records []models.LinkRecord, term string) []models.LinkRecord {
	term = strings.TrimSpace(term)
	if term == "" || strings.HasPrefix(term, "http") {
		return records
	}

	query := strings.ToLower(term)
	return filter(records, func(r models.LinkRecord) bool {
		if strings.Contains(strings.ToLower(r.Title), query) ||
			strings.Contains(strings.ToLower(r.Description), query) {
			return true
		}
		for _, tag := range r.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				return true
			}
		}
		return false
	})
}

// sample draws up to n records without replacement
func (e *Engine) sample(records []models.LinkRecord, n int) []models.LinkRecord {
	if len(records) <= n {
		picked := make([]models.LinkRecord, len(records))
		copy(picked, records)
		return picked
	}

	picked := make([]models.LinkRecord, 0, n)
	for _, idx := range e.rng().Perm(len(records))[:n] {
		picked = append(picked, records[idx])
	}
	return picked
}

func isRecent(r models.LinkRecord, now time.Time) bool {
	return r.AddedAt.After(now.Add(-recentWindow))
}

func isFrequent(r models.LinkRecord) bool {
	return r.ReadCount > frequentReadThreshold
}

func hasTag(r models.LinkRecord, tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// dedupe drops records sharing an ID, keeping the first occurrence
func dedupe(records []models.LinkRecord) []models.LinkRecord {
	seen := make(map[string]bool, len(records))
	deduped := make([]models.LinkRecord, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		deduped = append(deduped, r)
	}
	return deduped
}

func filter(records []models.LinkRecord, keep func(models.LinkRecord) bool) []models.LinkRecord {
	matched := make([]models.LinkRecord, 0, len(records))
	for _, r := range records {
		if keep(r) {
			matched = append(matched, r)
		}
	}
	return matched
}

func countIf(records []models.LinkRecord, pred func(models.LinkRecord) bool) int {
	count := 0
	for _, r := range records {
		if pred(r) {
			count++
		}
	}
	return count
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
