package services

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireloop/hireloop/internal/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestMemoryMergeAndGet(t *testing.T) {
	store := NewSharedMemoryStore(testLogger(), nil)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, "user-1", map[string]any{
		"profile.summary": "engineer",
		"matches.count":   3,
	}))

	v, ok := store.Get(ctx, "user-1", "profile.summary")
	require.True(t, ok)
	assert.Equal(t, "engineer", v)

	// later merges overwrite, program order
	require.NoError(t, store.Merge(ctx, "user-1", map[string]any{"matches.count": 5}))
	v, ok = store.Get(ctx, "user-1", "matches.count")
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestMemoryNoCrossUserVisibility(t *testing.T) {
	store := NewSharedMemoryStore(testLogger(), nil)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, "user-1", map[string]any{"k": "v"}))

	_, ok := store.Get(ctx, "user-2", "k")
	assert.False(t, ok)
}

func TestMemoryInvalidKeyRejectsWholeBatch(t *testing.T) {
	store := NewSharedMemoryStore(testLogger(), nil)
	ctx := context.Background()

	err := store.Merge(ctx, "user-1", map[string]any{
		"good.key": 1,
		"bad key":  2,
	})
	require.ErrorIs(t, err, domain.ErrInvalidKey)

	// nothing partially applied
	_, ok := store.Get(ctx, "user-1", "good.key")
	assert.False(t, ok)

	assert.ErrorIs(t, store.Merge(ctx, "user-1", map[string]any{"": 1}), domain.ErrInvalidKey)
	assert.ErrorIs(t, store.Merge(ctx, "user-1", map[string]any{"tab\tkey": 1}), domain.ErrInvalidKey)
}

func TestMemorySnapshotIsACopy(t *testing.T) {
	store := NewSharedMemoryStore(testLogger(), nil)
	ctx := context.Background()

	require.NoError(t, store.Merge(ctx, "user-1", map[string]any{"k": "v"}))

	snap := store.Snapshot(ctx, "user-1")
	snap["k"] = "mutated"
	snap["new"] = true

	v, ok := store.Get(ctx, "user-1", "k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
	_, ok = store.Get(ctx, "user-1", "new")
	assert.False(t, ok)
}

func TestMemoryConcurrentMergesSameUser(t *testing.T) {
	store := NewSharedMemoryStore(testLogger(), nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = store.Merge(ctx, "user-1", map[string]any{"a": i})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = store.Merge(ctx, "user-1", map[string]any{"b": i})
		}
	}()
	wg.Wait()

	// both writers' final values persist, no lost update
	a, ok := store.Get(ctx, "user-1", "a")
	require.True(t, ok)
	assert.Equal(t, 99, a)
	b, ok := store.Get(ctx, "user-1", "b")
	require.True(t, ok)
	assert.Equal(t, 99, b)
}

type fakeBackend struct {
	mu    sync.Mutex
	docs  map[domain.UserID]map[string]any
	saves int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{docs: map[domain.UserID]map[string]any{}}
}

func (f *fakeBackend) LoadMemory(_ context.Context, userID domain.UserID) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[userID], nil
}

func (f *fakeBackend) SaveMemory(_ context.Context, userID domain.UserID, doc map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[userID] = doc
	f.saves++
	return nil
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	backend.docs["user-1"] = map[string]any{"persisted": "yes"}

	store := NewSharedMemoryStore(testLogger(), backend)
	ctx := context.Background()

	// first touch loads the persisted document
	v, ok := store.Get(ctx, "user-1", "persisted")
	require.True(t, ok)
	assert.Equal(t, "yes", v)

	// merges write through
	require.NoError(t, store.Merge(ctx, "user-1", map[string]any{"fresh": 1}))
	assert.Equal(t, 1, backend.saves)
	assert.Equal(t, 1, backend.docs["user-1"]["fresh"])
}
