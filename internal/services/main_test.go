package services

import (
	"testing"
	"time"

	"crushboard/internal/models"
	"crushboard/internal/store"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)

func newMemoryStore(t *testing.T, seed ...models.Confession) (*store.Store, *store.MemoryBackend) {
	t.Helper()
	mem := store.NewMemoryBackend()
	mem.SetClock(func() time.Time { return testNow })
	for _, c := range seed {
		mem.Put(c)
	}
	s := store.New(mem)
	t.Cleanup(func() { _ = s.Close() })
	return s, mem
}

func daysAgo(n int) *time.Time {
	t := testNow.Add(-time.Duration(n) * 24 * time.Hour)
	return &t
}
