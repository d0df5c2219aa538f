package landrequest

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*LandRequest
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*LandRequest)}
}

func (s *MemoryStore) Create(_ context.Context, req *LandRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*LandRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*LandRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*LandRequest{}
	for _, req := range s.requests {
		if req.UserID == userID {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ListPending(_ context.Context) ([]*LandRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*LandRequest{}
	for _, req := range s.requests {
		if req.Status == StatusPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Approve(_ context.Context, id, txHash string, landID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return ErrRequestNotPending
	}
	req.Status = StatusApproved
	req.TxHash = &txHash
	req.LandID = landID
	req.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Reject(_ context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return ErrRequestNotPending
	}
	req.Status = StatusRejected
	req.RejectionReason = &reason
	req.UpdatedAt = time.Now().UTC()
	return nil
}
