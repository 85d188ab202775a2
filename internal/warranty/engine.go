package warranty

import (
	"context"
	"strings"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/node"
	"github.com/rs/zerolog/log"
)

// Engine runs the warranty state machine over a Store.
type Engine struct {
	store Store
	now   func() time.Time
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// WithClock overrides the source of "today" for warranty dates.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Open starts the warranty window for itemUID dated today. A second open for the
// same item fails with a conflict.
func (e *Engine) Open(ctx context.Context, itemUID string) (Warranty, error) {
	itemUID = strings.TrimSpace(itemUID)
	if itemUID == "" {
		return Warranty{}, apperr.Validation(apperr.FieldError{Field: "itemUid", Message: "required"})
	}
	w, err := e.store.Create(ctx, Warranty{
		ItemUID: itemUID,
		Status:  StatusOnWarranty,
		Date:    node.Today(e.now()),
	})
	if err != nil {
		return Warranty{}, err
	}
	log.Info().Str("item_uid", itemUID).Msg("warranty opened")
	return w, nil
}

// Decide answers a claim for itemUID given the stock currently available for the item.
// The warranty status is left untouched.
func (e *Engine) Decide(ctx context.Context, itemUID, reason string, availableCount int) (Verdict, error) {
	w, err := e.store.Get(ctx, itemUID)
	if err != nil {
		return Verdict{}, err
	}
	decision := Decide(w.Status, availableCount)
	log.Info().
		Str("item_uid", itemUID).
		Str("status", string(w.Status)).
		Int("available_count", availableCount).
		Str("reason", reason).
		Str("decision", string(decision)).
		Msg("warranty claim decided")
	return Verdict{Decision: decision, WarrantyDate: w.Date}, nil
}

// Close removes itemUID from warranty. Closing a closed warranty is a no-op.
func (e *Engine) Close(ctx context.Context, itemUID string) error {
	if err := e.store.SetStatus(ctx, itemUID, StatusRemoved); err != nil {
		return err
	}
	log.Info().Str("item_uid", itemUID).Msg("warranty closed")
	return nil
}

func (e *Engine) StatusOf(ctx context.Context, itemUID string) (Warranty, error) {
	return e.store.Get(ctx, itemUID)
}
