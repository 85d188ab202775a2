package inventory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/danmuck/fulfillment/internal/apperr"
)

// Store hands out transaction scopes over the inventory tables. Update applies every
// write made through its Tx or none of them.
type Store interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
}

// Tx is the set of reads and writes available inside one transaction scope.
type Tx interface {
	FindItem(model, size string) (Item, error)
	Item(id int64) (Item, error)
	Items() ([]Item, error)
	// UpsertItem inserts item keyed by (model, size). An existing row keeps its count
	// unless overwrite is set.
	UpsertItem(item Item, overwrite bool) (Item, error)
	// AdjustAvailable adds delta to the item's count, refusing to go below zero.
	AdjustAvailable(itemID int64, delta int) (Item, error)
	InsertReservation(r Reservation) (Reservation, error)
	Reservation(uid string) (Reservation, error)
	CancelReservation(uid string) error
}

var errReadOnly = errors.New("inventory: write inside read-only scope")

func errItemNotFound() error {
	return apperr.NotFound("requested item not found")
}

func errItemUnavailable() error {
	return apperr.Unavailable("requested item is not available")
}

func errReservationNotFound() error {
	return apperr.NotFound("order item not found")
}

type memState struct {
	nextItemID  int64
	nextResID   int64
	items       map[int64]Item
	reservation map[string]Reservation
}

// MemoryStore keeps inventory state in process memory. Update writes in place and
// undoes its writes when fn fails.
type MemoryStore struct {
	mu    sync.RWMutex
	state memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: memState{
		items:       make(map[int64]Item),
		reservation: make(map[string]Reservation),
	}}
}

func (s *MemoryStore) Update(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &memTx{state: &s.state}
	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *MemoryStore) View(_ context.Context, fn func(Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{state: &s.state, readOnly: true})
}

type memTx struct {
	state    *memState
	readOnly bool
	undo     []func()
}

// rollback replays the undo log newest first.
func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) putItem(item Item) {
	prev, existed := t.state.items[item.ID]
	t.undo = append(t.undo, func() {
		if existed {
			t.state.items[item.ID] = prev
		} else {
			delete(t.state.items, item.ID)
		}
	})
	t.state.items[item.ID] = item
}

func (t *memTx) putReservation(r Reservation) {
	prev, existed := t.state.reservation[r.UID]
	t.undo = append(t.undo, func() {
		if existed {
			t.state.reservation[r.UID] = prev
		} else {
			delete(t.state.reservation, r.UID)
		}
	})
	t.state.reservation[r.UID] = r
}

func (t *memTx) setCounters(nextItemID, nextResID int64) {
	prevItem, prevRes := t.state.nextItemID, t.state.nextResID
	t.undo = append(t.undo, func() {
		t.state.nextItemID, t.state.nextResID = prevItem, prevRes
	})
	t.state.nextItemID, t.state.nextResID = nextItemID, nextResID
}

func (t *memTx) FindItem(model, size string) (Item, error) {
	// lowest id wins, matching first() over the item table
	var found *Item
	for _, item := range t.state.items {
		if item.Model != model || item.Size != size {
			continue
		}
		if found == nil || item.ID < found.ID {
			it := item
			found = &it
		}
	}
	if found == nil {
		return Item{}, errItemNotFound()
	}
	return *found, nil
}

func (t *memTx) Item(id int64) (Item, error) {
	item, ok := t.state.items[id]
	if !ok {
		return Item{}, errItemNotFound()
	}
	return item, nil
}

func (t *memTx) Items() ([]Item, error) {
	out := make([]Item, 0, len(t.state.items))
	for _, item := range t.state.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) UpsertItem(item Item, overwrite bool) (Item, error) {
	if t.readOnly {
		return Item{}, errReadOnly
	}
	if existing, err := t.FindItem(item.Model, item.Size); err == nil {
		if overwrite {
			existing.AvailableCount = item.AvailableCount
			t.putItem(existing)
		}
		return existing, nil
	}
	if item.ID == 0 {
		item.ID = t.state.nextItemID + 1
	}
	if _, taken := t.state.items[item.ID]; taken {
		return Item{}, apperr.Conflict("item id already used", nil)
	}
	if item.ID > t.state.nextItemID {
		t.setCounters(item.ID, t.state.nextResID)
	}
	t.putItem(item)
	return item, nil
}

func (t *memTx) AdjustAvailable(itemID int64, delta int) (Item, error) {
	if t.readOnly {
		return Item{}, errReadOnly
	}
	item, ok := t.state.items[itemID]
	if !ok {
		return Item{}, errItemNotFound()
	}
	if item.AvailableCount+delta < 0 {
		return Item{}, errItemUnavailable()
	}
	item.AvailableCount += delta
	t.putItem(item)
	return item, nil
}

func (t *memTx) InsertReservation(r Reservation) (Reservation, error) {
	if t.readOnly {
		return Reservation{}, errReadOnly
	}
	if _, ok := t.state.items[r.ItemID]; !ok {
		return Reservation{}, errItemNotFound()
	}
	if _, dup := t.state.reservation[r.UID]; dup {
		return Reservation{}, apperr.Conflict("order item already exists", nil)
	}
	t.setCounters(t.state.nextItemID, t.state.nextResID+1)
	r.ID = t.state.nextResID
	t.putReservation(r)
	return r, nil
}

func (t *memTx) Reservation(uid string) (Reservation, error) {
	r, ok := t.state.reservation[uid]
	if !ok {
		return Reservation{}, errReservationNotFound()
	}
	return r, nil
}

func (t *memTx) CancelReservation(uid string) error {
	if t.readOnly {
		return errReadOnly
	}
	r, ok := t.state.reservation[uid]
	if !ok {
		return errReservationNotFound()
	}
	r.Canceled = true
	t.putReservation(r)
	return nil
}
