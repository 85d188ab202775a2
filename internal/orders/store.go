package orders

import (
	"context"
	"sort"
	"sync"

	"github.com/danmuck/fulfillment/internal/apperr"
)

// Store persists orders. Each call is one local transaction.
type Store interface {
	Create(ctx context.Context, o Order) (Order, error)
	Get(ctx context.Context, orderUID string) (Order, error)
	ListByUser(ctx context.Context, userUID string) ([]Order, error)
	Delete(ctx context.Context, orderUID string) error
}

func errNotFound() error {
	return apperr.NotFound("order not found")
}

// MemoryStore keeps orders in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	byUID  map[string]Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUID: make(map[string]Order)}
}

func (s *MemoryStore) Create(_ context.Context, o Order) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUID[o.UID]; ok {
		return Order{}, apperr.Conflict("order already exists", nil)
	}
	s.nextID++
	o.ID = s.nextID
	s.byUID[o.UID] = o
	return o, nil
}

func (s *MemoryStore) Get(_ context.Context, orderUID string) (Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.byUID[orderUID]
	if !ok {
		return Order{}, errNotFound()
	}
	return o, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userUID string) ([]Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range s.byUID {
		if o.UserUID == userUID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, orderUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byUID[orderUID]; !ok {
		return errNotFound()
	}
	delete(s.byUID, orderUID)
	return nil
}
