package memory

import (
	"context"
	"sync"
	"time"

	"teambot/internal/domain"
	"teambot/internal/storage"
)

var _ storage.Repository = (*Store)(nil)

// Store keeps requests in process memory. It backs the unit tests and the
// "memory" storage type; semantics mirror the postgres store.
type Store struct {
	mu       sync.Mutex
	requests map[string]domain.TeamRequest
	now      func() time.Time
}

func New() *Store {
	return &Store{
		requests: make(map[string]domain.TeamRequest),
		now:      time.Now,
	}
}

func (s *Store) CreateRequest(ctx context.Context, req domain.TeamRequest) (domain.TeamRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.requests[req.Name]; exists {
		return domain.TeamRequest{}, domain.ErrDuplicateName
	}

	if req.Status == "" {
		req.Status = domain.StatusPending
	}
	now := s.now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	s.requests[req.Name] = req
	return req, nil
}

func (s *Store) GetRequest(ctx context.Context, name string) (domain.TeamRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[name]
	if !ok {
		return domain.TeamRequest{}, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *Store) TransitionStatus(ctx context.Context, name string, from, to domain.RequestStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[name]
	if !ok || req.Status != from {
		return false, nil
	}

	req.Status = to
	req.UpdatedAt = s.now().UTC()
	s.requests[name] = req
	return true, nil
}

func (s *Store) ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.TeamRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []domain.TeamRequest
	for _, req := range s.requests {
		if req.Status == status {
			result = append(result, req)
		}
	}
	return result, nil
}

func (s *Store) Health(ctx context.Context) error {
	return nil
}
