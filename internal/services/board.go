package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"crushboard/internal/feed"
	"crushboard/internal/metrics"
	"crushboard/internal/models"
	"crushboard/internal/store"
	"crushboard/internal/utils"

	"github.com/rs/zerolog/log"
)

// ErrNotReady is returned by reads before the first snapshot arrived.
var ErrNotReady = errors.New("The board is still loading. Please try again in a moment.")

const topicSnapshot = "snapshot"

// BoardOptions tunes a BoardService. Zero values take defaults.
type BoardOptions struct {
	RecentWindow        time.Duration
	RepartitionInterval time.Duration
	Location            *time.Location
	CacheSize           int
	CacheTTL            time.Duration
	Now                 func() time.Time
}

// BoardService holds the latest confession snapshot and answers feed queries from it.
// Every snapshot delivered by the store replaces the held one entirely.
type BoardService struct {
	store   *store.Store
	opts    BoardOptions
	cache   *utils.TTLCache[[]models.Confession]
	signals *store.Hub

	mu       sync.RWMutex
	raw      []models.Confession
	snap     feed.Snapshot
	ready    bool
	lastErr  error
	revision uint64
}

func NewBoardService(s *store.Store, opts BoardOptions) (*BoardService, error) {
	if opts.RecentWindow <= 0 {
		opts.RecentWindow = feed.DefaultRecentWindow
	}
	if opts.RepartitionInterval <= 0 {
		opts.RepartitionInterval = time.Hour
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cache, err := utils.NewTTLCache[[]models.Confession](opts.CacheSize, opts.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed cache: %w", err)
	}
	return &BoardService{
		store:   s,
		opts:    opts,
		cache:   cache,
		signals: store.NewHub(),
	}, nil
}

// Run consumes the confession watch until ctx ends. On each tick it re-partitions the held
// set so confessions age into archive without a write, or re-lists when the board is not
// ready or the last load failed.
func (b *BoardService) Run(ctx context.Context) error {
	snapshots := b.store.WatchConfessions(ctx)
	ticker := time.NewTicker(b.opts.RepartitionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snapshots:
			if !ok {
				return nil
			}
			if snap.Err != nil {
				b.Fail(snap.Err)
				continue
			}
			b.Apply(snap.Items)
		case <-ticker.C:
			if b.Ready() && b.LastError() == nil {
				b.Repartition()
				continue
			}
			b.Reload(ctx)
		}
	}
}

func (b *BoardService) Apply(items []models.Confession) {
	start := time.Now()
	raw := make([]models.Confession, len(items))
	copy(raw, items)
	snap := feed.BuildSnapshot(raw, b.opts.Now(), b.opts.RecentWindow)
	metrics.SnapshotBuild.Observe(time.Since(start).Seconds())

	b.mu.Lock()
	b.revision++
	snap.Revision = b.revision
	b.raw = raw
	b.snap = snap
	b.ready = true
	b.lastErr = nil
	b.mu.Unlock()

	metrics.Snapshots.Inc()
	metrics.Confessions.WithLabelValues("recent").Set(float64(len(snap.Recent)))
	metrics.Confessions.WithLabelValues("archive").Set(float64(len(snap.Archive)))
	log.Debug().Uint64("revision", snap.Revision).Int("confessions", len(snap.All)).Msg("snapshot applied")

	b.signals.Publish(topicSnapshot)
}

// Repartition rebuilds the partitions of the held set against the current time.
func (b *BoardService) Repartition() {
	b.mu.RLock()
	ready := b.ready
	raw := b.raw
	b.mu.RUnlock()
	if !ready {
		return
	}
	b.Apply(raw)
}

// Reload lists the confessions directly and applies the result.
func (b *BoardService) Reload(ctx context.Context) {
	items, err := b.store.ListConfessions(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.Fail(fmt.Errorf("failed to load confessions: %w", err))
		}
		return
	}
	b.Apply(items)
}

// Fail records a watch failure. The held snapshot stays in place.
func (b *BoardService) Fail(err error) {
	metrics.SnapshotErrors.Inc()
	log.Warn().Err(err).Msg("confession snapshot failed, keeping last known board")
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()
}

func (b *BoardService) LastError() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

func (b *BoardService) Ready() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready
}

func (b *BoardService) Snapshot() (feed.Snapshot, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap, b.ready
}

// Feed answers q from the held snapshot. Results are cached per snapshot revision.
func (b *BoardService) Feed(q feed.Query) ([]models.Confession, uint64, error) {
	snap, ok := b.Snapshot()
	if !ok {
		return nil, 0, ErrNotReady
	}

	key := cacheKey(snap.Revision, q)
	if list, hit := b.cache.Get(key); hit {
		metrics.FeedCache.WithLabelValues("hit").Inc()
		return list, snap.Revision, nil
	}
	metrics.FeedCache.WithLabelValues("miss").Inc()

	list := snap.Select(q, b.FormatDate)
	b.cache.Set(key, list)
	return list, snap.Revision, nil
}

func (b *BoardService) Confession(id string) (models.Confession, bool) {
	snap, _ := b.Snapshot()
	for _, c := range snap.All {
		if c.ID == id {
			return c, true
		}
	}
	return models.Confession{}, false
}

// FormatDate renders t the way cards show it and date search matches it.
func (b *BoardService) FormatDate(t *time.Time) string {
	return utils.FormatTimestamp(t, b.opts.Location)
}

// Watch signals after every applied snapshot until ctx ends.
func (b *BoardService) Watch(ctx context.Context) <-chan struct{} {
	return b.signals.Subscribe(ctx, topicSnapshot)
}

func cacheKey(rev uint64, q feed.Query) string {
	return fmt.Sprintf("%d|%s|%s|%s|%s", rev, q.View, q.SharedID, q.Category, strings.ToLower(strings.TrimSpace(q.Term)))
}
