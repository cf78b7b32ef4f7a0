package resultstore

import (
	"context"
	"sync"

	"github.com/nvara/tally/internal/domain/model"
)

// MemoryStore implements Store with an atomically swapped immutable pass.
type MemoryStore struct {
	mu    sync.RWMutex
	pass  Pass
	byID  map[string]int
	ready bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]int),
	}
}

// Replace swaps in a new pass. The entries slice is copied so the caller
// cannot mutate stored state afterwards.
func (s *MemoryStore) Replace(_ context.Context, pass Pass) {
	entries := append([]model.RankedEntity(nil), pass.Entries...)
	byID := make(map[string]int, len(entries))
	for i := range entries {
		byID[entries[i].ID] = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	pass.Entries = entries
	s.pass = pass
	s.byID = byID
	s.ready = true
}

// Latest returns the current pass. Callers must treat the entries as
// read-only; ranking copies before assigning ranks.
func (s *MemoryStore) Latest(_ context.Context) (Pass, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pass, s.ready
}

// Entity returns the scored entry for one entity id.
func (s *MemoryStore) Entity(_ context.Context, id string) (model.RankedEntity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return model.RankedEntity{}, ErrNotFound
	}
	return s.pass.Entries[i], nil
}

// Count returns the number of scored entities in the current pass.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pass.Entries)
}
