package feed

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"crushboard/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := now.Add(-d)
	return &t
}

func ids(list []models.Confession) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

func scenario() []models.Confession {
	return []models.Confession{
		{ID: "a", Message: "hi", CrushName: "Sam", LikesCount: 3, CreatedAt: at(2 * 24 * time.Hour)},
		{ID: "b", Message: "yo", CrushName: "Kim", LikesCount: 5, CreatedAt: at(10 * 24 * time.Hour)},
	}
}

func TestAggregateScenario(t *testing.T) {
	items := scenario()

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"recent", Query{View: ViewRecent}, []string{"a"}},
		{"archive", Query{View: ViewArchive}, []string{"b"}},
		{"popular", Query{View: ViewPopular}, []string{"b", "a"}},
		{"crush name on recent", Query{View: ViewRecent, Category: CategoryCrushName, Term: "sam"}, []string{"a"}},
		{"crush name on archive", Query{View: ViewArchive, Category: CategoryCrushName, Term: "sam"}, []string{}},
		{"crush name on popular", Query{View: ViewPopular, Category: CategoryCrushName, Term: "sam"}, []string{"a"}},
		{"unknown view", Query{View: "trending"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(items, tt.q, now, DefaultRecentWindow, nil)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func randomSet(r *rand.Rand, n int) []models.Confession {
	items := make([]models.Confession, n)
	for i := range items {
		items[i] = models.Confession{
			ID:         fmt.Sprintf("c%03d", i),
			Message:    fmt.Sprintf("message %d", r.Intn(50)),
			CrushName:  fmt.Sprintf("Name%d", r.Intn(10)),
			LikesCount: r.Intn(20) - 2,
		}
		if r.Intn(8) != 0 {
			items[i].CreatedAt = at(time.Duration(r.Intn(30*24)) * time.Hour)
		}
	}
	return items
}

func TestPartitionsAreExclusive(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	items := randomSet(r, 200)
	snap := BuildSnapshot(items, now, DefaultRecentWindow)

	require.Len(t, snap.All, len(items))
	assert.Equal(t, len(items), len(snap.Recent)+len(snap.Archive))

	cutoff := now.Add(-DefaultRecentWindow)
	recent := make(map[string]bool)
	for _, c := range snap.Recent {
		require.NotNil(t, c.CreatedAt)
		assert.True(t, c.CreatedAt.After(cutoff), "recent %s is older than the window", c.ID)
		recent[c.ID] = true
	}
	for _, c := range snap.Archive {
		assert.False(t, recent[c.ID], "%s is in both partitions", c.ID)
		if c.CreatedAt != nil {
			assert.False(t, c.CreatedAt.After(cutoff), "archived %s is inside the window", c.ID)
		}
	}
}

func TestPartitionBoundaryIsArchive(t *testing.T) {
	items := []models.Confession{{ID: "edge", CreatedAt: at(DefaultRecentWindow)}}
	snap := BuildSnapshot(items, now, DefaultRecentWindow)
	assert.Empty(t, snap.Recent)
	assert.Equal(t, []string{"edge"}, ids(snap.Archive))
}

func TestPopularIsNonIncreasing(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for round := 0; round < 20; round++ {
		list := Aggregate(randomSet(r, 50), Query{View: ViewPopular}, now, DefaultRecentWindow, nil)
		for i := 1; i < len(list); i++ {
			assert.GreaterOrEqual(t, list[i-1].LikesCount, list[i].LikesCount)
		}
	}
}

func TestPopularTiesKeepRecency(t *testing.T) {
	items := []models.Confession{
		{ID: "old", LikesCount: 2, CreatedAt: at(3 * time.Hour)},
		{ID: "new", LikesCount: 2, CreatedAt: at(time.Hour)},
		{ID: "top", LikesCount: 9, CreatedAt: at(20 * 24 * time.Hour)},
	}
	got := Aggregate(items, Query{View: ViewPopular}, now, DefaultRecentWindow, nil)
	assert.Equal(t, []string{"top", "new", "old"}, ids(got))
}

func TestSortNewestFirstWithNilAtEpoch(t *testing.T) {
	items := []models.Confession{
		{ID: "pending"},
		{ID: "older", CreatedAt: at(48 * time.Hour)},
		{ID: "newer", CreatedAt: at(time.Hour)},
	}
	snap := BuildSnapshot(items, now, DefaultRecentWindow)
	assert.Equal(t, []string{"newer", "older", "pending"}, ids(snap.All))
	assert.Equal(t, []string{"newer", "older"}, ids(snap.Recent))
	assert.Equal(t, []string{"pending"}, ids(snap.Archive))
}

func TestSharedOverridesViewAndSearch(t *testing.T) {
	snap := BuildSnapshot(scenario(), now, DefaultRecentWindow)

	got := snap.Select(Query{View: ViewRecent, SharedID: "b", Category: CategoryText, Term: "nothing matches"}, nil)
	assert.Equal(t, []string{"b"}, ids(got))

	got = snap.Select(Query{View: ViewRecent, SharedID: "missing"}, nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestBuildSnapshotDoesNotMutateInput(t *testing.T) {
	items := []models.Confession{
		{ID: "x", LikesCount: -4},
		{ID: "y", CreatedAt: at(time.Hour)},
	}
	BuildSnapshot(items, now, DefaultRecentWindow)
	assert.Equal(t, "x", items[0].ID)
	assert.Equal(t, -4, items[0].LikesCount)
	assert.Nil(t, items[0].LikedBy)
}

func TestParseView(t *testing.T) {
	v, ok := ParseView(" Archive ")
	assert.True(t, ok)
	assert.Equal(t, ViewArchive, v)

	_, ok = ParseView("hot")
	assert.False(t, ok)
}
