package services

import (
	"sync"
)

// InFlight allows at most one pending call per key. It is the server side of disabling a
// button until the previous click resolved.
type InFlight struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

func NewInFlight() *InFlight {
	return &InFlight{pending: make(map[string]struct{})}
}

// Acquire marks key as pending. It returns a release func, or ErrInFlight if key is already
// pending.
func (f *InFlight) Acquire(key string) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.pending[key]; busy {
		return nil, ErrInFlight
	}
	f.pending[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.pending, key)
			f.mu.Unlock()
		})
	}, nil
}

// Do runs fn while holding key.
func (f *InFlight) Do(key string, fn func() error) error {
	release, err := f.Acquire(key)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}
