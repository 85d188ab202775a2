// Package storefront is the user-facing facade over the order, inventory and warranty
// services. It owns no data beyond the configured user list.
package storefront

import (
	"context"
	"strings"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/inventory"
	"github.com/danmuck/fulfillment/internal/orders"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// User is a shopper allowed to use the storefront.
type User struct {
	Name string `toml:"name"`
	UID  string `toml:"uid"`
}

// DefaultUsers is the user list used when no users file is configured.
func DefaultUsers() []User {
	return []User{{Name: "Alex", UID: "6d2cb5a0-943c-4b96-9aa6-89eac7bdfd2b"}}
}

type Orders interface {
	Place(ctx context.Context, userUID, model, size string) (string, error)
	Get(ctx context.Context, userUID, orderUID string) (orders.Order, error)
	List(ctx context.Context, userUID string) ([]orders.Order, error)
	Claim(ctx context.Context, orderUID, reason string) (warranty.Verdict, error)
	Return(ctx context.Context, orderUID string) error
}

type Items interface {
	Lookup(ctx context.Context, itemUID string) (inventory.ItemInfo, error)
}

type Warranties interface {
	StatusOf(ctx context.Context, itemUID string) (warranty.Warranty, error)
}

// OrderView is one order as a shopper sees it.
type OrderView struct {
	OrderUID       string
	Date           time.Time
	Model          string
	Size           string
	WarrantyDate   time.Time
	WarrantyStatus warranty.Status
}

// fanOut bounds concurrent lookups while composing an order list.
const fanOut = 8

type Storefront struct {
	users      map[string]User
	orders     Orders
	items      Items
	warranties Warranties
}

func New(users []User, o Orders, items Items, w Warranties) *Storefront {
	byUID := make(map[string]User, len(users))
	for _, u := range users {
		byUID[u.UID] = u
	}
	return &Storefront{users: byUID, orders: o, items: items, warranties: w}
}

// CheckUser fails with not found unless userUID is a configured user.
func (s *Storefront) CheckUser(userUID string) error {
	_, err := s.user(userUID)
	return err
}

func (s *Storefront) user(userUID string) (User, error) {
	u, ok := s.users[userUID]
	if !ok {
		return User{}, apperr.NotFound("user not found")
	}
	return u, nil
}

// Orders lists every order of userUID with its item and warranty details.
func (s *Storefront) Orders(ctx context.Context, userUID string) ([]OrderView, error) {
	if _, err := s.user(userUID); err != nil {
		return nil, err
	}
	list, err := s.orders.List(ctx, userUID)
	if err != nil {
		return nil, upstreamFailure("order not found", err)
	}

	views := make([]OrderView, len(list))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, o := range list {
		i, o := i, o
		g.Go(func() error {
			v, err := s.compose(gctx, o)
			if err != nil {
				return err
			}
			views[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// Order returns one order of userUID with its item and warranty details.
func (s *Storefront) Order(ctx context.Context, userUID, orderUID string) (OrderView, error) {
	if _, err := s.user(userUID); err != nil {
		return OrderView{}, err
	}
	o, err := s.orders.Get(ctx, userUID, orderUID)
	if err != nil {
		return OrderView{}, upstreamFailure("order not found", err)
	}
	return s.compose(ctx, o)
}

func (s *Storefront) compose(ctx context.Context, o orders.Order) (OrderView, error) {
	var info inventory.ItemInfo
	var w warranty.Warranty
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = s.items.Lookup(gctx, o.ItemUID)
		if err != nil {
			return upstreamFailure("order in warehouse not found", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		w, err = s.warranties.StatusOf(gctx, o.ItemUID)
		if err != nil {
			return upstreamFailure("warranty not found", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return OrderView{}, err
	}
	return OrderView{
		OrderUID:       o.UID,
		Date:           o.Date,
		Model:          info.Model,
		Size:           info.Size,
		WarrantyDate:   w.Date,
		WarrantyStatus: w.Status,
	}, nil
}

// Purchase places an order for userUID and returns its uid.
func (s *Storefront) Purchase(ctx context.Context, userUID, model, size string) (string, error) {
	if _, err := s.user(userUID); err != nil {
		return "", err
	}
	orderUID, err := s.orders.Place(ctx, userUID, model, size)
	if err != nil {
		return "", upstreamFailure("order not created", err)
	}
	log.Info().Str("user_uid", userUID).Str("order_uid", orderUID).Msg("purchase completed")
	return orderUID, nil
}

// Claim files a warranty claim for an order owned by userUID.
func (s *Storefront) Claim(ctx context.Context, userUID, orderUID, reason string) (warranty.Verdict, error) {
	if _, err := s.user(userUID); err != nil {
		return warranty.Verdict{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return warranty.Verdict{}, apperr.Validation(apperr.FieldError{Field: "reason", Message: "required"})
	}
	if _, err := s.orders.Get(ctx, userUID, orderUID); err != nil {
		return warranty.Verdict{}, upstreamFailure("order not found", err)
	}
	v, err := s.orders.Claim(ctx, orderUID, reason)
	if err != nil {
		return warranty.Verdict{}, upstreamFailure("order not found", err)
	}
	return v, nil
}

// Refund returns an order owned by userUID.
func (s *Storefront) Refund(ctx context.Context, userUID, orderUID string) error {
	if _, err := s.user(userUID); err != nil {
		return err
	}
	if _, err := s.orders.Get(ctx, userUID, orderUID); err != nil {
		return upstreamFailure("order not found", err)
	}
	if err := s.orders.Return(ctx, orderUID); err != nil {
		return upstreamFailure("order not refunded", err)
	}
	log.Info().Str("user_uid", userUID).Str("order_uid", orderUID).Msg("refund completed")
	return nil
}

func upstreamFailure(msg string, err error) error {
	log.Warn().Err(err).Msg(msg)
	return apperr.Upstream(msg, err)
}
