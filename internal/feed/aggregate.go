package feed

import (
	"sort"
	"strings"
	"time"

	"crushboard/internal/models"
)

type View string

const (
	ViewRecent  View = "recent"
	ViewArchive View = "archive"
	ViewPopular View = "popular"
)

// DefaultRecentWindow is how long a confession stays in the recent partition.
const DefaultRecentWindow = 7 * 24 * time.Hour

func ParseView(s string) (View, bool) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewRecent, ViewArchive, ViewPopular:
		return v, true
	}
	return "", false
}

// Query is the current selection state of a board reader.
type Query struct {
	View     View
	SharedID string
	Category Category
	Term     string
}

// Snapshot is one full delivery of the confession set, normalized, sorted newest first and
// partitioned around TakenAt minus the recent window.
type Snapshot struct {
	All      []models.Confession
	Recent   []models.Confession
	Archive  []models.Confession
	Revision uint64
	TakenAt  time.Time
}

// BuildSnapshot normalizes, sorts and partitions items in one pass.
// A confession with no timestamp yet counts as created at the Unix epoch.
func BuildSnapshot(items []models.Confession, now time.Time, window time.Duration) Snapshot {
	if window <= 0 {
		window = DefaultRecentWindow
	}
	all := make([]models.Confession, len(items))
	for i, c := range items {
		all[i] = Normalize(c)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return createdUnix(&all[i]) > createdUnix(&all[j])
	})

	cutoff := now.Add(-window)
	snap := Snapshot{
		All:     all,
		Recent:  make([]models.Confession, 0, len(all)),
		Archive: make([]models.Confession, 0),
		TakenAt: now,
	}
	for _, c := range all {
		if c.CreatedAt != nil && c.CreatedAt.After(cutoff) {
			snap.Recent = append(snap.Recent, c)
		} else {
			snap.Archive = append(snap.Archive, c)
		}
	}
	return snap
}

// Select applies the shared-id override, view selection and search filter. formatDate renders
// a timestamp for date searches; nil uses FormatTimestamp in UTC.
func (s Snapshot) Select(q Query, formatDate func(*time.Time) string) []models.Confession {
	if q.SharedID != "" {
		for _, c := range s.All {
			if c.ID == q.SharedID {
				return []models.Confession{c}
			}
		}
		return []models.Confession{}
	}

	var base []models.Confession
	switch q.View {
	case ViewRecent:
		base = s.Recent
	case ViewArchive:
		base = s.Archive
	case ViewPopular:
		base = Popular(s.All)
	}

	return Filter(base, q.Category, q.Term, formatDate)
}

// Popular returns all confessions ordered by likesCount descending. The sort is stable, so
// ties keep their incoming (recency) order.
func Popular(all []models.Confession) []models.Confession {
	out := make([]models.Confession, len(all))
	copy(out, all)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LikesCount > out[j].LikesCount
	})
	return out
}

// Aggregate runs the whole pipeline over a raw confession set.
func Aggregate(items []models.Confession, q Query, now time.Time, window time.Duration, formatDate func(*time.Time) string) []models.Confession {
	return BuildSnapshot(items, now, window).Select(q, formatDate)
}

func createdUnix(c *models.Confession) int64 {
	if c.CreatedAt == nil {
		return 0
	}
	return c.CreatedAt.Unix()
}
