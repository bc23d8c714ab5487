package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHubCoalescesSignals(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := h.Subscribe(ctx, "t")
	h.Publish("t")
	h.Publish("t")
	h.Publish("t")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no signal delivered")
	}
	select {
	case <-ch:
		t.Fatal("signals were not coalesced")
	default:
	}
}

func TestHubTopicsAreIndependent(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := h.Subscribe(ctx, "a")
	b := h.Subscribe(ctx, "b")
	h.Publish("a")

	select {
	case <-a:
	case <-time.After(time.Second):
		t.Fatal("a not signalled")
	}
	select {
	case <-b:
		t.Fatal("b signalled by a publish on a")
	default:
	}
}

func TestHubReleasesOnCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	ch := h.Subscribe(ctx, "t")
	require.Equal(t, 1, h.Subscribers("t"))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	assert.Equal(t, 0, h.Subscribers("t"))

	// publishing to a released topic is a no-op
	h.Publish("t")
}
