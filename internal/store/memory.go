package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"crushboard/internal/models"

	"github.com/google/uuid"
)

// MemoryBackend keeps everything in process memory. Reads return deep copies so callers
// can never alias stored state.
type MemoryBackend struct {
	mu          sync.RWMutex
	confessions map[string]*models.Confession
	replies     map[string][]models.Reply
	now         func() time.Time
	closed      bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		confessions: make(map[string]*models.Confession),
		replies:     make(map[string][]models.Reply),
		now:         time.Now,
	}
}

func (m *MemoryBackend) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryBackend) Put(c models.Confession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyConfession(c)
	m.confessions[c.ID] = &cp
}

func (m *MemoryBackend) ListConfessions(ctx context.Context) ([]models.Confession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]models.Confession, 0, len(m.confessions))
	for _, c := range m.confessions {
		out = append(out, copyConfession(*c))
	}
	// map order is random; hand back a deterministic order like a database would
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryBackend) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	c, ok := m.confessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := copyConfession(*c)
	return &cp, nil
}

func (m *MemoryBackend) CreateConfession(ctx context.Context, c *models.Confession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	now := m.now().UTC()
	c.ID = uuid.NewString()
	c.CreatedAt = &now
	if c.LikedBy == nil {
		c.LikedBy = models.LikedBy{}
	}
	cp := copyConfession(*c)
	m.confessions[c.ID] = &cp
	return nil
}

func (m *MemoryBackend) PatchLike(ctx context.Context, id string, p LikePatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	c, ok := m.confessions[id]
	if !ok {
		return ErrNotFound
	}
	c.LikesCount += p.Delta
	if c.LikedBy == nil {
		c.LikedBy = models.LikedBy{}
	}
	c.LikedBy[p.UserID] = p.Liked
	return nil
}

func (m *MemoryBackend) ListReplies(ctx context.Context, confessionID string) ([]models.Reply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	out := make([]models.Reply, len(m.replies[confessionID]))
	copy(out, m.replies[confessionID])
	return out, nil
}

func (m *MemoryBackend) CreateReply(ctx context.Context, r *models.Reply) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if _, ok := m.confessions[r.ParentConfessionID]; !ok {
		return ErrNotFound
	}
	now := m.now().UTC()
	r.ID = uuid.NewString()
	r.CreatedAt = &now
	m.replies[r.ParentConfessionID] = append(m.replies[r.ParentConfessionID], *r)
	return nil
}

func (m *MemoryBackend) Import(ctx context.Context, items []models.Confession) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrClosed
	}
	n := 0
	for _, c := range items {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, exists := m.confessions[c.ID]; exists || c.ID == "" {
			continue
		}
		cp := copyConfession(c)
		m.confessions[c.ID] = &cp
		n++
	}
	return n, nil
}

func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

func copyConfession(c models.Confession) models.Confession {
	if c.LikedBy != nil {
		likedBy := make(models.LikedBy, len(c.LikedBy))
		for k, v := range c.LikedBy {
			likedBy[k] = v
		}
		c.LikedBy = likedBy
	}
	if c.CreatedAt != nil {
		t := *c.CreatedAt
		c.CreatedAt = &t
	}
	return c
}
