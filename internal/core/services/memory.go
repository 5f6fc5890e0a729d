package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// SharedMemoryStore is the per-user keyed state every pipeline stage reads
// and writes through. Merges are atomic per user: two concurrent merges for
// the same user serialize, and a failed merge applies nothing.
//
// An optional backend persists each user's document so memory survives
// kernel restarts. The in-process map stays authoritative during a run.
type SharedMemoryStore struct {
	logger  *slog.Logger
	backend ports.MemoryBackend

	mu    sync.Mutex
	users map[domain.UserID]*userMemory
}

type userMemory struct {
	mu   sync.Mutex
	data map[string]any
}

func NewSharedMemoryStore(logger *slog.Logger, backend ports.MemoryBackend) *SharedMemoryStore {
	return &SharedMemoryStore{
		logger:  logger,
		backend: backend,
		users:   make(map[domain.UserID]*userMemory),
	}
}

// Get returns the value stored under key for the user, if any.
func (s *SharedMemoryStore) Get(ctx context.Context, userID domain.UserID, key string) (any, bool) {
	um := s.user(ctx, userID)
	um.mu.Lock()
	defer um.mu.Unlock()
	v, ok := um.data[key]
	return v, ok
}

// Merge applies all writes for the user atomically: every key is validated
// first, and a single malformed key rejects the whole batch with
// ErrInvalidKey. Later Gets observe all writes from earlier Merges.
func (s *SharedMemoryStore) Merge(ctx context.Context, userID domain.UserID, writes map[string]any) error {
	for key := range writes {
		if !validMemoryKey(key) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidKey, key)
		}
	}
	if len(writes) == 0 {
		return nil
	}

	um := s.user(ctx, userID)
	um.mu.Lock()
	defer um.mu.Unlock()

	for key, value := range writes {
		um.data[key] = value
	}

	if s.backend != nil {
		doc := snapshotLocked(um)
		if err := s.backend.SaveMemory(ctx, userID, doc); err != nil {
			// the in-process state already advanced; persistence catches up
			// on the next merge
			s.logger.Warn("memory write-through failed", "user_id", userID, "error", err)
		}
	}
	return nil
}

// Snapshot returns a copy of the user's whole document. Capabilities get
// this copy as their read view; mutating it never affects the store.
func (s *SharedMemoryStore) Snapshot(ctx context.Context, userID domain.UserID) map[string]any {
	um := s.user(ctx, userID)
	um.mu.Lock()
	defer um.mu.Unlock()
	return snapshotLocked(um)
}

func snapshotLocked(um *userMemory) map[string]any {
	out := make(map[string]any, len(um.data))
	for k, v := range um.data {
		out[k] = v
	}
	return out
}

// user returns the per-user cell, loading the persisted document on first
// touch when a backend is configured.
func (s *SharedMemoryStore) user(ctx context.Context, userID domain.UserID) *userMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	if um, ok := s.users[userID]; ok {
		return um
	}

	um := &userMemory{data: make(map[string]any)}
	if s.backend != nil {
		doc, err := s.backend.LoadMemory(ctx, userID)
		if err != nil {
			s.logger.Warn("memory load failed, starting empty", "user_id", userID, "error", err)
		} else {
			for k, v := range doc {
				um.data[k] = v
			}
		}
	}
	s.users[userID] = um
	return um
}

// validMemoryKey rejects empty keys and keys containing whitespace or
// control characters.
func validMemoryKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}
