package orders

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/node"
	"github.com/danmuck/fulfillment/internal/inventory"
	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/danmuck/fulfillment/internal/upstream"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Inventory is the slice of the inventory service the sagas call.
type Inventory interface {
	Healthy(ctx context.Context) error
	Reserve(ctx context.Context, model, size, orderUID string) (inventory.Placement, error)
	Release(ctx context.Context, itemUID string) error
	WarrantyContext(ctx context.Context, itemUID, reason string) (warranty.Verdict, error)
}

// Warranty is the slice of the warranty service the placement saga calls.
type Warranty interface {
	Healthy(ctx context.Context) error
	Open(ctx context.Context, itemUID string) error
}

const (
	sagaPlace  = "place_order"
	sagaClaim  = "claim_warranty"
	sagaReturn = "return_order"
)

// Orchestrator coordinates the order sagas. It holds no per-saga state between calls.
type Orchestrator struct {
	store     Store
	inventory Inventory
	warranty  Warranty
	now       func() time.Time
	newUID    func() string
	tracer    trace.Tracer
}

func NewOrchestrator(store Store, inv Inventory, war Warranty) *Orchestrator {
	return &Orchestrator{
		store:     store,
		inventory: inv,
		warranty:  war,
		now:       time.Now,
		newUID:    uuid.NewString,
		tracer:    observability.Tracer("orders"),
	}
}

func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// PlaceOrder reserves one (model, size) unit for userUID, opens its warranty and
// records a PAID order. A started saga runs to completion even if ctx is canceled.
func (o *Orchestrator) PlaceOrder(ctx context.Context, userUID, model, size string) (string, error) {
	if fields := blank(map[string]string{"userUid": userUID, "model": model, "size": size}, "userUid", "model", "size"); len(fields) > 0 {
		return "", apperr.Validation(fields...)
	}
	ctx, span := o.tracer.Start(context.WithoutCancel(ctx), "orders.place",
		trace.WithAttributes(attribute.String("user_uid", userUID)))
	defer span.End()

	orderUID, err := o.placeOrder(ctx, userUID, model, size)
	if err != nil {
		fail(span, err)
		return "", err
	}
	span.SetAttributes(attribute.String("order_uid", orderUID))
	return orderUID, nil
}

func (o *Orchestrator) placeOrder(ctx context.Context, userUID, model, size string) (string, error) {
	if err := o.inventory.Healthy(ctx); err != nil {
		step(sagaPlace, "probe_inventory", err)
		return "", apperr.Upstream("inventory service unavailable", err)
	}
	if err := o.warranty.Healthy(ctx); err != nil {
		step(sagaPlace, "probe_warranty", err)
		return "", apperr.Upstream("warranty service unavailable", err)
	}

	orderUID := o.newUID()
	placed, err := o.inventory.Reserve(ctx, model, size, orderUID)
	step(sagaPlace, "reserve", err)
	if err != nil {
		log.Warn().
			Str("order_uid", orderUID).
			Str("user_uid", userUID).
			Str("upstream", "inventory").
			Int("status", upstream.StatusOf(err)).
			Err(err).
			Msg("reserve failed")
		return "", reserveError(err)
	}
	if placed.ItemUID == "" {
		return "", apperr.Internal("inventory answered without item uid", nil)
	}

	// best effort: the order stands whether or not the warranty opened
	if err := o.warranty.Open(ctx, placed.ItemUID); err != nil {
		observability.RecordSagaStep(sagaPlace, "open_warranty", "ignored")
		log.Warn().
			Str("order_uid", orderUID).
			Str("item_uid", placed.ItemUID).
			Str("upstream", "warranty").
			Err(err).
			Msg("warranty open failed")
	} else {
		observability.RecordSagaStep(sagaPlace, "open_warranty", "ok")
	}

	_, err = o.store.Create(ctx, Order{
		UID:     orderUID,
		UserUID: userUID,
		ItemUID: placed.ItemUID,
		Date:    node.Today(o.now()),
		Status:  StatusPaid,
	})
	step(sagaPlace, "persist", err)
	if err != nil {
		log.Error().
			Str("order_uid", orderUID).
			Str("item_uid", placed.ItemUID).
			Err(err).
			Msg("order persist failed after reservation")
		return "", err
	}

	log.Info().
		Str("order_uid", orderUID).
		Str("user_uid", userUID).
		Str("item_uid", placed.ItemUID).
		Msg("order placed")
	return orderUID, nil
}

// GetOrder returns orderUID only when it belongs to userUID.
func (o *Orchestrator) GetOrder(ctx context.Context, userUID, orderUID string) (Order, error) {
	order, err := o.store.Get(ctx, orderUID)
	if err != nil {
		return Order{}, err
	}
	if order.UserUID != userUID {
		return Order{}, errNotFound()
	}
	return order, nil
}

func (o *Orchestrator) ListOrders(ctx context.Context, userUID string) ([]Order, error) {
	return o.store.ListByUser(ctx, userUID)
}

// ClaimWarranty asks the inventory service to decide a claim for the order's item.
// Every failure past the order lookup surfaces as not found, except a failed probe.
func (o *Orchestrator) ClaimWarranty(ctx context.Context, orderUID, reason string) (warranty.Verdict, error) {
	if strings.TrimSpace(reason) == "" {
		return warranty.Verdict{}, apperr.Validation(apperr.FieldError{Field: "reason", Message: "required"})
	}
	ctx, span := o.tracer.Start(context.WithoutCancel(ctx), "orders.claim",
		trace.WithAttributes(attribute.String("order_uid", orderUID)))
	defer span.End()

	order, err := o.store.Get(ctx, orderUID)
	if err != nil {
		fail(span, err)
		return warranty.Verdict{}, err
	}
	if err := o.inventory.Healthy(ctx); err != nil {
		step(sagaClaim, "probe_inventory", err)
		err = apperr.Upstream("inventory service unavailable", err)
		fail(span, err)
		return warranty.Verdict{}, err
	}

	verdict, err := o.inventory.WarrantyContext(ctx, order.ItemUID, reason)
	step(sagaClaim, "decide", err)
	if err != nil {
		log.Warn().
			Str("order_uid", orderUID).
			Str("item_uid", order.ItemUID).
			Str("upstream", "inventory").
			Int("status", upstream.StatusOf(err)).
			Err(err).
			Msg("warranty claim failed")
		err = apperr.NotFound("warranty not found")
		fail(span, err)
		return warranty.Verdict{}, err
	}

	log.Info().
		Str("order_uid", orderUID).
		Str("item_uid", order.ItemUID).
		Str("decision", string(verdict.Decision)).
		Msg("warranty claim decided")
	return verdict, nil
}

// ReturnOrder releases the order's reservation and deletes the order. The warranty is
// left open.
func (o *Orchestrator) ReturnOrder(ctx context.Context, orderUID string) error {
	ctx, span := o.tracer.Start(context.WithoutCancel(ctx), "orders.return",
		trace.WithAttributes(attribute.String("order_uid", orderUID)))
	defer span.End()

	if err := o.returnOrder(ctx, orderUID); err != nil {
		fail(span, err)
		return err
	}
	return nil
}

func (o *Orchestrator) returnOrder(ctx context.Context, orderUID string) error {
	order, err := o.store.Get(ctx, orderUID)
	if err != nil {
		return err
	}
	if err := o.inventory.Healthy(ctx); err != nil {
		step(sagaReturn, "probe_inventory", err)
		return apperr.Upstream("inventory service unavailable", err)
	}

	err = o.inventory.Release(ctx, order.ItemUID)
	step(sagaReturn, "release", err)
	if err != nil {
		log.Warn().
			Str("order_uid", orderUID).
			Str("item_uid", order.ItemUID).
			Str("upstream", "inventory").
			Int("status", upstream.StatusOf(err)).
			Err(err).
			Msg("release failed")
		return apperr.Upstream("order not found in inventory", err)
	}

	err = o.store.Delete(ctx, orderUID)
	step(sagaReturn, "delete", err)
	if err != nil {
		log.Error().Str("order_uid", orderUID).Err(err).Msg("order delete failed after release")
		return err
	}
	log.Info().Str("order_uid", orderUID).Str("item_uid", order.ItemUID).Msg("order returned")
	return nil
}

// reserveError keeps the inventory's not-found and not-available answers and folds
// everything else into an upstream failure.
func reserveError(err error) error {
	msg := ""
	var re *upstream.ResponseError
	if errors.As(err, &re) {
		msg = re.Message
	}
	switch upstream.StatusOf(err) {
	case http.StatusNotFound:
		return apperr.NotFound(orDefault(msg, "requested item not found"))
	case http.StatusConflict:
		return apperr.Unavailable(orDefault(msg, "requested item is not available"))
	}
	switch apperr.KindOf(err) {
	case apperr.KindNotFound, apperr.KindUnavailable:
		return err
	}
	return apperr.Upstream("bad response from inventory", err)
}

func step(saga, name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	observability.RecordSagaStep(saga, name, outcome)
}

func fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, apperr.PublicMessage(err))
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func blank(values map[string]string, order ...string) []apperr.FieldError {
	var fields []apperr.FieldError
	for _, name := range order {
		if strings.TrimSpace(values[name]) == "" {
			fields = append(fields, apperr.FieldError{Field: name, Message: "required"})
		}
	}
	return fields
}
