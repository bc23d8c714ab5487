package services

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInFlightRejectsConcurrentSameKey(t *testing.T) {
	f := NewInFlight()
	release, err := f.Acquire("post:u1")
	require.NoError(t, err)

	_, err = f.Acquire("post:u1")
	assert.ErrorIs(t, err, ErrInFlight)

	other, err := f.Acquire("post:u2")
	require.NoError(t, err)
	other()

	release()
	release()
	again, err := f.Acquire("post:u1")
	require.NoError(t, err)
	again()
}

func TestInFlightDo(t *testing.T) {
	f := NewInFlight()
	started := make(chan struct{})
	finish := make(chan struct{})
	var ran atomic.Int32

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = f.Do("k", func() error {
			ran.Add(1)
			close(started)
			<-finish
			return nil
		})
	}()

	<-started
	err := f.Do("k", func() error {
		ran.Add(1)
		return nil
	})
	assert.ErrorIs(t, err, ErrInFlight)
	close(finish)
	wg.Wait()
	assert.Equal(t, int32(1), ran.Load())

	boom := errors.New("boom")
	assert.ErrorIs(t, f.Do("k", func() error { return boom }), boom)
	assert.NoError(t, f.Do("k", func() error { return nil }))
}
