package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"crushboard/internal/feed"
	"crushboard/internal/models"
	"crushboard/internal/store"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioSet() []models.Confession {
	return []models.Confession{
		{ID: "a", Message: "hi", CrushName: "Sam", LikesCount: 3, CreatedAt: daysAgo(2)},
		{ID: "b", Message: "yo", CrushName: "Kim", LikesCount: 5, CreatedAt: daysAgo(10)},
	}
}

func feedIDs(t *testing.T, b *BoardService, q feed.Query) []string {
	t.Helper()
	list, _, err := b.Feed(q)
	require.NoError(t, err)
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.ID)
	}
	return out
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBoardNotReadyUntilFirstSnapshot(t *testing.T) {
	s, _ := newMemoryStore(t)
	b, err := NewBoardService(s, BoardOptions{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	assert.False(t, b.Ready())
	_, _, err = b.Feed(feed.Query{View: feed.ViewRecent})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestBoardApplyAnswersViews(t *testing.T) {
	s, _ := newMemoryStore(t)
	b, err := NewBoardService(s, BoardOptions{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	b.Apply(scenarioSet())
	require.True(t, b.Ready())

	tests := []struct {
		q    feed.Query
		want []string
	}{
		{feed.Query{View: feed.ViewRecent}, []string{"a"}},
		{feed.Query{View: feed.ViewArchive}, []string{"b"}},
		{feed.Query{View: feed.ViewPopular}, []string{"b", "a"}},
		{feed.Query{View: feed.ViewPopular, Category: feed.CategoryCrushName, Term: "SAM"}, []string{"a"}},
		{feed.Query{View: feed.ViewRecent, SharedID: "b"}, []string{"b"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, feedIDs(t, b, tt.q)); diff != "" {
			t.Errorf("query %+v (-want +got):\n%s", tt.q, diff)
		}
	}

	// a cached answer is served for the same revision
	assert.Equal(t, []string{"a"}, feedIDs(t, b, feed.Query{View: feed.ViewRecent}))
}

func TestBoardApplyReplacesSnapshot(t *testing.T) {
	s, _ := newMemoryStore(t)
	b, err := NewBoardService(s, BoardOptions{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	b.Apply(scenarioSet())
	_, rev1, err := b.Feed(feed.Query{View: feed.ViewRecent})
	require.NoError(t, err)

	b.Apply([]models.Confession{{ID: "z", CreatedAt: daysAgo(1)}})
	list, rev2, err := b.Feed(feed.Query{View: feed.ViewRecent})
	require.NoError(t, err)
	assert.Greater(t, rev2, rev1)
	require.Len(t, list, 1)
	assert.Equal(t, "z", list[0].ID)

	_, ok := b.Confession("a")
	assert.False(t, ok)
}

func TestBoardFailKeepsStaleSnapshot(t *testing.T) {
	s, _ := newMemoryStore(t)
	b, err := NewBoardService(s, BoardOptions{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	b.Apply(scenarioSet())
	b.Fail(errors.New("connection reset"))

	assert.EqualError(t, b.LastError(), "connection reset")
	assert.Equal(t, []string{"a"}, feedIDs(t, b, feed.Query{View: feed.ViewRecent}))

	b.Apply(scenarioSet())
	assert.NoError(t, b.LastError())
}

func TestBoardRepartitionAgesConfessions(t *testing.T) {
	clk := &clock{now: testNow}
	s, _ := newMemoryStore(t)
	b, err := NewBoardService(s, BoardOptions{Now: clk.Now})
	require.NoError(t, err)

	b.Apply(scenarioSet())
	assert.Equal(t, []string{"a"}, feedIDs(t, b, feed.Query{View: feed.ViewRecent}))

	clk.Advance(6 * 24 * time.Hour)
	b.Repartition()
	assert.Empty(t, feedIDs(t, b, feed.Query{View: feed.ViewRecent}))
	assert.Equal(t, []string{"a", "b"}, feedIDs(t, b, feed.Query{View: feed.ViewArchive}))
}

func TestBoardFormatDateUsesLocation(t *testing.T) {
	s, _ := newMemoryStore(t)
	loc := time.FixedZone("EST", -5*3600)
	b, err := NewBoardService(s, BoardOptions{Location: loc})
	require.NoError(t, err)

	ts := time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, "12/31/2023, 10:00:00 PM", b.FormatDate(&ts))
	assert.Equal(t, "A moment ago", b.FormatDate(nil))
}

func TestBoardRunFollowsStore(t *testing.T) {
	s, _ := newMemoryStore(t, scenarioSet()...)
	b, err := NewBoardService(s, BoardOptions{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	watch := b.Watch(ctx)
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	waitSignal(t, watch)
	assert.Equal(t, []string{"a"}, feedIDs(t, b, feed.Query{View: feed.ViewRecent}))

	_, err = NewSubmitService(s, nil).PostConfession(context.Background(), "u1", ConfessionInput{Message: "new one", CrushName: "Lou"})
	require.NoError(t, err)
	waitSignal(t, watch)
	assert.Len(t, feedIDs(t, b, feed.Query{View: feed.ViewRecent}), 2)

	_, err = NewLikeService(s, nil).Toggle(context.Background(), "b", "u1", false)
	require.NoError(t, err)
	waitSignal(t, watch)
	c, ok := b.Confession("b")
	require.True(t, ok)
	assert.Equal(t, 6, c.LikesCount)
	assert.True(t, c.IsLikedBy("u1"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// flakyBackend fails its first list call, like a database that is still starting.
type flakyBackend struct {
	*store.MemoryBackend
	calls atomic.Int32
}

func (f *flakyBackend) ListConfessions(ctx context.Context) ([]models.Confession, error) {
	if f.calls.Add(1) == 1 {
		return nil, errors.New("connection refused")
	}
	return f.MemoryBackend.ListConfessions(ctx)
}

func newFlakyStore(t *testing.T) (*store.Store, *flakyBackend) {
	t.Helper()
	mem := store.NewMemoryBackend()
	for _, c := range scenarioSet() {
		mem.Put(c)
	}
	flaky := &flakyBackend{MemoryBackend: mem}
	s := store.New(flaky)
	t.Cleanup(func() { _ = s.Close() })
	return s, flaky
}

func TestBoardReloadClearsFailure(t *testing.T) {
	s, _ := newFlakyStore(t)
	b, err := NewBoardService(s, BoardOptions{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	b.Reload(context.Background())
	assert.False(t, b.Ready())
	assert.ErrorContains(t, b.LastError(), "connection refused")

	b.Reload(context.Background())
	require.True(t, b.Ready())
	assert.NoError(t, b.LastError())
	assert.Equal(t, []string{"a"}, feedIDs(t, b, feed.Query{View: feed.ViewRecent}))
}

func TestBoardRunRecoversFromFailedFirstLoad(t *testing.T) {
	s, flaky := newFlakyStore(t)
	b, err := NewBoardService(s, BoardOptions{
		Now:                 func() time.Time { return testNow },
		RepartitionInterval: 20 * time.Millisecond,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	// Nothing is written to the store; only the tick or the watch retry can load it.
	assert.Eventually(t, func() bool {
		return b.Ready() && b.LastError() == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, flaky.calls.Load(), int32(2))
	assert.Len(t, feedIDs(t, b, feed.Query{View: feed.ViewPopular}), 2)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot applied")
	}
}
