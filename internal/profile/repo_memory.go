package profile

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-process Store. Values are cloned on the way in and
// out.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{profiles: map[string]*Profile{}}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.Clone(), nil
}

func (s *MemoryStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, p.ID)
	}
	s.profiles[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) Save(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, p.ID)
	}
	s.profiles[p.ID] = p.Clone()
	return nil
}
