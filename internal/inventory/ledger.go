package inventory

import (
	"context"
	"strings"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WarrantyDecider answers warranty claims for a reserved item.
type WarrantyDecider interface {
	Decide(ctx context.Context, itemUID, reason string, availableCount int) (warranty.Verdict, error)
}

// Ledger applies reservations against stock.
type Ledger struct {
	store    Store
	warranty WarrantyDecider
	newUID   func() string
}

func NewLedger(store Store, decider WarrantyDecider) *Ledger {
	return &Ledger{
		store:    store,
		warranty: decider,
		newUID:   uuid.NewString,
	}
}

// Seed loads catalog items. Existing (model, size) rows keep their count unless reset
// is set.
func (l *Ledger) Seed(ctx context.Context, catalog []Item, reset bool) error {
	return l.store.Update(ctx, func(tx Tx) error {
		for _, item := range catalog {
			stored, err := tx.UpsertItem(item, reset)
			if err != nil {
				return err
			}
			observability.SetStockLevel(stored.Model, stored.Size, stored.AvailableCount)
		}
		return nil
	})
}

// Reserve takes one unit of (model, size) out of stock for orderUID.
func (l *Ledger) Reserve(ctx context.Context, model, size, orderUID string) (Placement, error) {
	if fields := missing(map[string]string{"model": model, "size": size, "orderUid": orderUID}); len(fields) > 0 {
		return Placement{}, apperr.Validation(fields...)
	}

	var placed Placement
	var stock Item
	err := l.store.Update(ctx, func(tx Tx) error {
		item, err := tx.FindItem(model, size)
		if err != nil {
			return err
		}
		if item.AvailableCount <= 0 {
			return errItemUnavailable()
		}
		item, err = tx.AdjustAvailable(item.ID, -1)
		if err != nil {
			return err
		}
		r, err := tx.InsertReservation(Reservation{
			UID:      l.newUID(),
			OrderUID: orderUID,
			ItemID:   item.ID,
		})
		if err != nil {
			return err
		}
		stock = item
		placed = Placement{
			ItemUID:  r.UID,
			OrderUID: orderUID,
			Model:    item.Model,
			Size:     item.Size,
		}
		return nil
	})
	if err != nil {
		log.Warn().
			Str("order_uid", orderUID).
			Str("model", model).
			Str("size", size).
			Err(err).
			Msg("reserve rejected")
		return Placement{}, err
	}

	observability.SetStockLevel(stock.Model, stock.Size, stock.AvailableCount)
	log.Info().
		Str("order_uid", orderUID).
		Str("item_uid", placed.ItemUID).
		Int("available_count", stock.AvailableCount).
		Msg("item reserved")
	return placed, nil
}

// Lookup describes the item behind a reservation.
func (l *Ledger) Lookup(ctx context.Context, itemUID string) (ItemInfo, error) {
	var info ItemInfo
	err := l.store.View(ctx, func(tx Tx) error {
		r, err := tx.Reservation(itemUID)
		if err != nil {
			return err
		}
		item, err := tx.Item(r.ItemID)
		if err != nil {
			return err
		}
		info = ItemInfo{Model: item.Model, Size: item.Size}
		return nil
	})
	return info, err
}

// Release puts the reserved unit back into stock and marks the reservation canceled.
// Releasing the same reservation again restores another unit.
func (l *Ledger) Release(ctx context.Context, itemUID string) error {
	var stock Item
	err := l.store.Update(ctx, func(tx Tx) error {
		r, err := tx.Reservation(itemUID)
		if err != nil {
			return err
		}
		item, err := tx.AdjustAvailable(r.ItemID, 1)
		if err != nil {
			return err
		}
		stock = item
		return tx.CancelReservation(itemUID)
	})
	if err != nil {
		return err
	}
	observability.SetStockLevel(stock.Model, stock.Size, stock.AvailableCount)
	log.Info().
		Str("item_uid", itemUID).
		Int("available_count", stock.AvailableCount).
		Msg("item released")
	return nil
}

// WarrantyContext reads the current stock for the reserved item and forwards the claim
// to the warranty engine.
func (l *Ledger) WarrantyContext(ctx context.Context, itemUID, reason string) (warranty.Verdict, error) {
	var available int
	err := l.store.View(ctx, func(tx Tx) error {
		r, err := tx.Reservation(itemUID)
		if err != nil {
			return err
		}
		item, err := tx.Item(r.ItemID)
		if err != nil {
			return err
		}
		available = item.AvailableCount
		return nil
	})
	if err != nil {
		return warranty.Verdict{}, err
	}

	verdict, err := l.warranty.Decide(ctx, itemUID, reason, available)
	if err != nil {
		log.Warn().Str("item_uid", itemUID).Err(err).Msg("warranty decision failed")
		return warranty.Verdict{}, apperr.Upstream("warranty not found", err)
	}
	return verdict, nil
}

// Items lists current stock.
func (l *Ledger) Items(ctx context.Context) ([]Item, error) {
	var items []Item
	err := l.store.View(ctx, func(tx Tx) error {
		var err error
		items, err = tx.Items()
		return err
	})
	return items, err
}

func missing(values map[string]string) []apperr.FieldError {
	var fields []apperr.FieldError
	for _, name := range []string{"orderUid", "model", "size"} {
		v, ok := values[name]
		if ok && strings.TrimSpace(v) == "" {
			fields = append(fields, apperr.FieldError{Field: name, Message: "required"})
		}
	}
	return fields
}
