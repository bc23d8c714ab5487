// Package store holds the document store abstraction: confessions, their reply threads,
// and live watches that deliver full snapshots after every committed write.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"crushboard/internal/models"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound = errors.New("confession not found")
	ErrClosed   = errors.New("store closed")
)

const topicConfessions = "confessions"

// A failed list is retried on its own, doubling the wait up to watchRetryMax. A write signal
// retries immediately.
var (
	watchRetryMin = 500 * time.Millisecond
	watchRetryMax = 30 * time.Second
)

func repliesTopic(confessionID string) string {
	return "replies/" + confessionID
}

// LikePatch is a single merge-style patch: the counter moves by Delta (applied by the store,
// never read-modify-write by the caller) and likedBy[UserID] is set to Liked.
type LikePatch struct {
	UserID string
	Liked  bool
	Delta  int
}

// Backend is a concrete document store.
type Backend interface {
	ListConfessions(ctx context.Context) ([]models.Confession, error)
	GetConfession(ctx context.Context, id string) (*models.Confession, error)
	// CreateConfession assigns ID and CreatedAt.
	CreateConfession(ctx context.Context, c *models.Confession) error
	PatchLike(ctx context.Context, id string, p LikePatch) error
	// ListReplies returns the thread oldest first.
	ListReplies(ctx context.Context, confessionID string) ([]models.Reply, error)
	// CreateReply assigns ID and CreatedAt.
	CreateReply(ctx context.Context, r *models.Reply) error
	// Import inserts records as-is, keeping their IDs and timestamps. Records whose ID already
	// exists are skipped. It returns how many were inserted.
	Import(ctx context.Context, items []models.Confession) (int, error)
	Close() error
}

// ConfessionSnapshot is one delivery of a confession watch. When Err is set Items is nil and
// the consumer keeps whatever it held before.
type ConfessionSnapshot struct {
	Items []models.Confession
	Err   error
}

type ReplySnapshot struct {
	Items []models.Reply
	Err   error
}

type Store struct {
	backend Backend
	hub     *Hub
}

func New(backend Backend) *Store {
	return &Store{backend: backend, hub: NewHub()}
}

func (s *Store) Hub() *Hub { return s.hub }

func (s *Store) Close() error { return s.backend.Close() }

func (s *Store) ListConfessions(ctx context.Context) ([]models.Confession, error) {
	return s.backend.ListConfessions(ctx)
}

func (s *Store) GetConfession(ctx context.Context, id string) (*models.Confession, error) {
	return s.backend.GetConfession(ctx, id)
}

func (s *Store) ListReplies(ctx context.Context, confessionID string) ([]models.Reply, error) {
	return s.backend.ListReplies(ctx, confessionID)
}

func (s *Store) CreateConfession(ctx context.Context, c *models.Confession) error {
	if err := s.backend.CreateConfession(ctx, c); err != nil {
		return err
	}
	s.hub.Publish(topicConfessions)
	return nil
}

func (s *Store) PatchLike(ctx context.Context, id string, p LikePatch) error {
	if err := s.backend.PatchLike(ctx, id, p); err != nil {
		return err
	}
	s.hub.Publish(topicConfessions)
	return nil
}

func (s *Store) CreateReply(ctx context.Context, r *models.Reply) error {
	if err := s.backend.CreateReply(ctx, r); err != nil {
		return err
	}
	s.hub.Publish(repliesTopic(r.ParentConfessionID))
	return nil
}

func (s *Store) Import(ctx context.Context, items []models.Confession) (int, error) {
	n, err := s.backend.Import(ctx, items)
	if n > 0 {
		s.hub.Publish(topicConfessions)
	}
	return n, err
}

// WatchConfessions delivers the full confession set now and after every write until ctx
// ends. The returned channel is closed once the watch is released.
func (s *Store) WatchConfessions(ctx context.Context) <-chan ConfessionSnapshot {
	signals := s.hub.Subscribe(ctx, topicConfessions)
	out := make(chan ConfessionSnapshot, 1)
	go func() {
		defer close(out)
		retry := newRetrier()
		for {
			items, err := s.backend.ListConfessions(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("confession watch: list failed")
				err = fmt.Errorf("failed to load confessions: %w", err)
			}
			select {
			case out <- ConfessionSnapshot{Items: items, Err: err}:
			case <-ctx.Done():
				return
			}
			if !retry.wait(ctx, signals, err != nil) {
				return
			}
		}
	}()
	return out
}

// WatchReplies delivers the reply thread of confessionID now and after every new reply.
func (s *Store) WatchReplies(ctx context.Context, confessionID string) <-chan ReplySnapshot {
	signals := s.hub.Subscribe(ctx, repliesTopic(confessionID))
	out := make(chan ReplySnapshot, 1)
	go func() {
		defer close(out)
		retry := newRetrier()
		for {
			items, err := s.backend.ListReplies(ctx, confessionID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Str("confession", confessionID).Msg("reply watch: list failed")
				err = fmt.Errorf("failed to load replies: %w", err)
			}
			select {
			case out <- ReplySnapshot{Items: items, Err: err}:
			case <-ctx.Done():
				return
			}
			if !retry.wait(ctx, signals, err != nil) {
				return
			}
		}
	}()
	return out
}

type retrier struct {
	exp *backoff.ExponentialBackOff
}

func newRetrier() *retrier {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = watchRetryMin
	exp.Multiplier = 2
	exp.MaxInterval = watchRetryMax
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &retrier{exp: exp}
}

// wait blocks until the next list should run. After a failure that is the next signal or
// the retry timer, whichever comes first. It reports false once the watch is over.
func (r *retrier) wait(ctx context.Context, signals <-chan struct{}, failed bool) bool {
	if !failed {
		r.exp.Reset()
		_, ok := <-signals
		return ok
	}
	timer := time.NewTimer(r.exp.NextBackOff())
	defer timer.Stop()
	select {
	case _, ok := <-signals:
		return ok
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
