package warranty

import (
	"context"
	"sync"

	"github.com/danmuck/fulfillment/internal/apperr"
)

// Store persists warranty records. Each call is one local transaction.
type Store interface {
	Create(ctx context.Context, w Warranty) (Warranty, error)
	Get(ctx context.Context, itemUID string) (Warranty, error)
	SetStatus(ctx context.Context, itemUID string, status Status) error
}

func errNotFound() error {
	return apperr.NotFound("warranty not found")
}

func errDuplicate(cause error) error {
	return apperr.Conflict("warranty already exists", cause)
}

// MemoryStore keeps warranty records in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byItem map[string]Warranty
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byItem: make(map[string]Warranty)}
}

func (s *MemoryStore) Create(_ context.Context, w Warranty) (Warranty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byItem[w.ItemUID]; ok {
		return Warranty{}, errDuplicate(nil)
	}
	s.nextID++
	w.ID = s.nextID
	s.byItem[w.ItemUID] = w
	return w, nil
}

func (s *MemoryStore) Get(_ context.Context, itemUID string) (Warranty, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byItem[itemUID]
	if !ok {
		return Warranty{}, errNotFound()
	}
	return w, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, itemUID string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byItem[itemUID]
	if !ok {
		return errNotFound()
	}
	w.Status = status
	s.byItem[itemUID] = w
	return nil
}
