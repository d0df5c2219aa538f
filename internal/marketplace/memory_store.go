package marketplace

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
// The per-land uniqueness check runs under the write lock, which gives
// the same exactly-one-wins behavior the Postgres partial unique index
// provides.
type MemoryStore struct {
	mu       sync.RWMutex
	listings map[string]*SaleListing
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{listings: make(map[string]*SaleListing)}
}

func (s *MemoryStore) Create(_ context.Context, listing *SaleListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.listings {
		if l.LandID == listing.LandID && (l.Status == StatusPending || l.Status == StatusApproved) {
			return ErrListingExists
		}
	}

	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	cp := *listing
	s.listings[listing.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*SaleListing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *MemoryStore) ListApproved(_ context.Context) ([]*SaleListing, error) {
	return s.filter(func(l *SaleListing) bool { return l.Status == StatusApproved }), nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*SaleListing, error) {
	return s.filter(func(l *SaleListing) bool { return l.UserID == userID }), nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]*SaleListing, error) {
	return s.filter(func(l *SaleListing) bool { return l.Status == StatusPending }), nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id, status string, reason *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return ErrListingNotFound
	}
	if l.Status != StatusPending {
		return ErrListingNotPending
	}
	l.Status = status
	l.RejectionReason = reason
	l.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) filter(keep func(*SaleListing) bool) []*SaleListing {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*SaleListing{}
	for _, l := range s.listings {
		if keep(l) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
