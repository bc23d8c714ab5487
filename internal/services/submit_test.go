package services

import (
	"context"
	"testing"

	"crushboard/internal/models"
	"crushboard/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostConfession(t *testing.T) {
	s, _ := newMemoryStore(t)
	svc := NewSubmitService(s, nil)
	ctx := context.Background()

	c, err := svc.PostConfession(ctx, "u1", ConfessionInput{
		Message:     "  I like your laugh ",
		CrushName:   " Sam ",
		SocialMedia: "",
	})
	require.NoError(t, err)
	assert.Equal(t, "I like your laugh", c.Message)
	assert.Equal(t, "Sam", c.CrushName)
	assert.Equal(t, 0, c.LikesCount)
	assert.Equal(t, models.LikedBy{}, c.LikedBy)
	require.NotNil(t, c.CreatedAt)
	assert.True(t, testNow.Equal(*c.CreatedAt))

	stored, err := s.GetConfession(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "u1", stored.AuthorID)
}

func TestPostConfessionValidationWritesNothing(t *testing.T) {
	s, _ := newMemoryStore(t)
	svc := NewSubmitService(s, nil)
	ctx := context.Background()

	inputs := []ConfessionInput{
		{Message: "", CrushName: "Sam"},
		{Message: "hi", CrushName: "   "},
		{Message: "\n\t", CrushName: "Sam"},
	}
	for _, in := range inputs {
		_, err := svc.PostConfession(ctx, "u1", in)
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.EqualError(t, err, "Please enter a message and your crush's name.")
	}

	list, err := s.ListConfessions(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPostConfessionKeepsTextAsTyped(t *testing.T) {
	s, _ := newMemoryStore(t)
	svc := NewSubmitService(s, nil)
	ctx := context.Background()

	c, err := svc.PostConfession(ctx, "u1", ConfessionInput{
		Message:     " if a<b and b>c then I love you ",
		CrushName:   "<Sam>",
		SocialMedia: "@sam & co",
	})
	require.NoError(t, err)

	stored, err := s.GetConfession(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "if a<b and b>c then I love you", stored.Message)
	assert.Equal(t, "<Sam>", stored.CrushName)
	assert.Equal(t, "@sam & co", stored.SocialMedia)

	r, err := svc.PostReply(ctx, "u2", c.ID, "  <3 <3 ")
	require.NoError(t, err)
	assert.Equal(t, "<3 <3", r.Message)
}

func TestPostConfessionNeedsIdentity(t *testing.T) {
	s, _ := newMemoryStore(t)
	_, err := NewSubmitService(s, nil).PostConfession(context.Background(), "", ConfessionInput{Message: "hi", CrushName: "Sam"})
	assert.ErrorIs(t, err, ErrNoIdentity)
}

func TestPostConfessionWrapsStoreFailure(t *testing.T) {
	s, mem := newMemoryStore(t)
	require.NoError(t, mem.Close())

	_, err := NewSubmitService(s, nil).PostConfession(context.Background(), "u1", ConfessionInput{Message: "hi", CrushName: "Sam"})
	assert.ErrorIs(t, err, store.ErrClosed)
	assert.EqualError(t, err, "Failed to post your confession: store closed")
}

func TestPostReply(t *testing.T) {
	s, _ := newMemoryStore(t, models.Confession{ID: "a"})
	svc := NewSubmitService(s, nil)
	ctx := context.Background()

	r, err := svc.PostReply(ctx, "u2", "a", " me too ")
	require.NoError(t, err)
	assert.Equal(t, "me too", r.Message)
	assert.Equal(t, "a", r.ParentConfessionID)

	_, err = svc.PostReply(ctx, "u2", "a", "   ")
	assert.EqualError(t, err, "Please enter a reply message.")

	_, err = svc.PostReply(ctx, "u2", "", "hello")
	assert.True(t, IsValidation(err))

	_, err = svc.PostReply(ctx, "u2", "missing", "hello")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = svc.PostReply(ctx, "", "a", "hello")
	assert.ErrorIs(t, err, ErrNoIdentity)

	replies, err := s.ListReplies(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, replies, 1)
}
