package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"crushboard/internal/metrics"
	"crushboard/internal/models"
	"crushboard/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	msgConfessionRequired = "Please enter a message and your crush's name."
	msgReplyRequired      = "Please enter a reply message."
	msgNoReplyTarget      = "Cannot post reply: original message missing."
)

// ConfessionInput is the raw content of the post form.
type ConfessionInput struct {
	Message     string `json:"message" form:"message"`
	CrushName   string `json:"crushName" form:"crushName"`
	SocialMedia string `json:"socialMedia" form:"socialMedia"`
}

// SubmitService validates and submits new confessions and replies.
type SubmitService struct {
	store    *store.Store
	inflight *InFlight
}

func NewSubmitService(s *store.Store, inflight *InFlight) *SubmitService {
	if inflight == nil {
		inflight = NewInFlight()
	}
	return &SubmitService{store: s, inflight: inflight}
}

// PostConfession creates a confession from the trimmed fields. Text is stored as typed and
// escaped when rendered. An empty message or crush name is rejected without touching the store.
func (s *SubmitService) PostConfession(ctx context.Context, userID string, in ConfessionInput) (*models.Confession, error) {
	c := &models.Confession{
		Message:     strings.TrimSpace(in.Message),
		CrushName:   strings.TrimSpace(in.CrushName),
		SocialMedia: strings.TrimSpace(in.SocialMedia),
		AuthorID:    userID,
		LikesCount:  0,
		LikedBy:     models.LikedBy{},
	}
	if c.Message == "" || c.CrushName == "" {
		return nil, &ValidationError{Msg: msgConfessionRequired}
	}
	if userID == "" {
		return nil, ErrNoIdentity
	}

	err := s.inflight.Do("post:"+userID, func() error {
		return s.store.CreateConfession(ctx, c)
	})
	metrics.Writes.WithLabelValues("post", metrics.Result(err)).Inc()
	if errors.Is(err, ErrInFlight) {
		return nil, err
	}
	if err != nil {
		log.Error().Err(err).Str("user", userID).Msg("post confession failed")
		return nil, fmt.Errorf("Failed to post your confession: %w", err)
	}
	log.Info().Str("confession", c.ID).Msg("confession posted")
	return c, nil
}

// PostReply adds a reply to the thread of confessionID.
func (s *SubmitService) PostReply(ctx context.Context, userID, confessionID, message string) (*models.Reply, error) {
	text := strings.TrimSpace(message)
	if text == "" {
		return nil, &ValidationError{Msg: msgReplyRequired}
	}
	confessionID = strings.TrimSpace(confessionID)
	if confessionID == "" {
		return nil, &ValidationError{Msg: msgNoReplyTarget}
	}
	if userID == "" {
		return nil, ErrNoIdentity
	}

	r := &models.Reply{
		ParentConfessionID: confessionID,
		Message:            text,
		AuthorID:           userID,
	}
	err := s.inflight.Do("reply:"+userID+":"+confessionID, func() error {
		return s.store.CreateReply(ctx, r)
	})
	metrics.Writes.WithLabelValues("reply", metrics.Result(err)).Inc()
	switch {
	case err == nil:
		return r, nil
	case errors.Is(err, ErrInFlight), errors.Is(err, store.ErrNotFound):
		return nil, err
	default:
		log.Error().Err(err).Str("confession", confessionID).Msg("post reply failed")
		return nil, fmt.Errorf("Failed to post reply: %w", err)
	}
}
