package services

import (
	"context"
	"errors"
	"fmt"

	"crushboard/internal/metrics"
	"crushboard/internal/store"

	"github.com/rs/zerolog/log"
)

// LikeResult describes the transition that was requested from the store.
type LikeResult struct {
	ConfessionID string `json:"confessionId"`
	Liked        bool   `json:"liked"`
	Delta        int    `json:"delta"`
}

// LikeService flips one user's like on one confession. A stale currentlyLiked applies the
// delta twice; likesCount only eventually agrees with likedBy.
type LikeService struct {
	store    *store.Store
	inflight *InFlight
}

func NewLikeService(s *store.Store, inflight *InFlight) *LikeService {
	if inflight == nil {
		inflight = NewInFlight()
	}
	return &LikeService{store: s, inflight: inflight}
}

// Toggle sends unlike when currentlyLiked, like otherwise, as one patch.
func (s *LikeService) Toggle(ctx context.Context, confessionID, userID string, currentlyLiked bool) (LikeResult, error) {
	if userID == "" {
		return LikeResult{}, ErrNoIdentity
	}

	patch := store.LikePatch{UserID: userID, Liked: true, Delta: 1}
	action := "like"
	if currentlyLiked {
		patch = store.LikePatch{UserID: userID, Liked: false, Delta: -1}
		action = "unlike"
	}

	err := s.inflight.Do("like:"+userID+":"+confessionID, func() error {
		return s.store.PatchLike(ctx, confessionID, patch)
	})
	metrics.Writes.WithLabelValues(action, metrics.Result(err)).Inc()
	switch {
	case err == nil:
		return LikeResult{ConfessionID: confessionID, Liked: patch.Liked, Delta: patch.Delta}, nil
	case errors.Is(err, ErrInFlight), errors.Is(err, store.ErrNotFound):
		return LikeResult{}, err
	default:
		log.Error().Err(err).Str("confession", confessionID).Str("action", action).Msg("toggle like failed")
		return LikeResult{}, fmt.Errorf("Failed to toggle like: %w", err)
	}
}
