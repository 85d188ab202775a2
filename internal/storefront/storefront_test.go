package storefront

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/inventory"
	"github.com/danmuck/fulfillment/internal/orders"
	"github.com/danmuck/fulfillment/internal/testutil/testlog"
	"github.com/danmuck/fulfillment/internal/upstream"
	"github.com/danmuck/fulfillment/internal/warranty"
)

const alex = "6d2cb5a0-943c-4b96-9aa6-89eac7bdfd2b"

var day = time.Date(2024, 11, 11, 0, 0, 0, 0, time.UTC)

type fakeOrders struct {
	mu       sync.Mutex
	byUID    map[string]orders.Order
	placeErr error
	claimErr error
	returned []string
}

func newFakeOrders(list ...orders.Order) *fakeOrders {
	f := &fakeOrders{byUID: make(map[string]orders.Order)}
	for _, o := range list {
		f.byUID[o.UID] = o
	}
	return f
}

func (f *fakeOrders) Place(_ context.Context, userUID, _, _ string) (string, error) {
	if f.placeErr != nil {
		return "", f.placeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	uid := "order-new"
	f.byUID[uid] = orders.Order{UID: uid, UserUID: userUID, ItemUID: "item-new", Date: day, Status: orders.StatusPaid}
	return uid, nil
}

func (f *fakeOrders) Get(_ context.Context, userUID, orderUID string) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byUID[orderUID]
	if !ok || o.UserUID != userUID {
		return orders.Order{}, &upstream.ResponseError{Upstream: "orders", Status: http.StatusNotFound}
	}
	return o, nil
}

func (f *fakeOrders) List(_ context.Context, userUID string) ([]orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []orders.Order
	for _, o := range f.byUID {
		if o.UserUID == userUID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrders) Claim(context.Context, string, string) (warranty.Verdict, error) {
	if f.claimErr != nil {
		return warranty.Verdict{}, f.claimErr
	}
	return warranty.Verdict{Decision: warranty.DecisionReturn, WarrantyDate: day}, nil
}

func (f *fakeOrders) Return(_ context.Context, orderUID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.returned = append(f.returned, orderUID)
	delete(f.byUID, orderUID)
	return nil
}

type fakeItems map[string]inventory.ItemInfo

func (f fakeItems) Lookup(_ context.Context, itemUID string) (inventory.ItemInfo, error) {
	info, ok := f[itemUID]
	if !ok {
		return inventory.ItemInfo{}, &upstream.ResponseError{Upstream: "inventory", Status: http.StatusNotFound}
	}
	return info, nil
}

type fakeWarranties map[string]warranty.Warranty

func (f fakeWarranties) StatusOf(_ context.Context, itemUID string) (warranty.Warranty, error) {
	w, ok := f[itemUID]
	if !ok {
		return warranty.Warranty{}, &upstream.ResponseError{Upstream: "warranty", Status: http.StatusNotFound}
	}
	return w, nil
}

func newStorefront() (*Storefront, *fakeOrders) {
	o := newFakeOrders(
		orders.Order{UID: "order-1", UserUID: alex, ItemUID: "item-1", Date: day, Status: orders.StatusPaid},
		orders.Order{UID: "order-2", UserUID: alex, ItemUID: "item-2", Date: day, Status: orders.StatusPaid},
		orders.Order{UID: "order-9", UserUID: "someone-else", ItemUID: "item-9", Date: day, Status: orders.StatusPaid},
	)
	items := fakeItems{
		"item-1": {Model: "Lego 8880", Size: "L"},
		"item-2": {Model: "Lego 8070", Size: "M"},
	}
	warranties := fakeWarranties{
		"item-1": {ItemUID: "item-1", Status: warranty.StatusOnWarranty, Date: day},
		"item-2": {ItemUID: "item-2", Status: warranty.StatusRemoved, Date: day},
	}
	return New(DefaultUsers(), o, items, warranties), o
}

func TestUnknownUser(t *testing.T) {
	testlog.Start(t)
	s, _ := newStorefront()
	ctx := context.Background()

	checks := map[string]error{
		"orders": func() error { _, err := s.Orders(ctx, "nobody"); return err }(),
		"order": func() error { _, err := s.Order(ctx, "nobody", "order-1"); return err }(),
		"purchase": func() error {
			_, err := s.Purchase(ctx, "nobody", "Lego 8880", "L")
			return err
		}(),
		"claim":  func() error { _, err := s.Claim(ctx, "nobody", "order-1", "Broken"); return err }(),
		"refund": s.Refund(ctx, "nobody", "order-1"),
	}
	for name, err := range checks {
		if !errors.Is(err, apperr.ErrNotFound) || apperr.PublicMessage(err) != "user not found" {
			t.Fatalf("%s: expected user not found, got %v", name, err)
		}
	}
}

func TestOrdersComposesViews(t *testing.T) {
	testlog.Start(t)
	s, _ := newStorefront()

	views, err := s.Orders(context.Background(), alex)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 views, got %d", len(views))
	}
	byUID := map[string]OrderView{}
	for _, v := range views {
		byUID[v.OrderUID] = v
	}
	if v := byUID["order-1"]; v.Model != "Lego 8880" || v.WarrantyStatus != warranty.StatusOnWarranty {
		t.Fatalf("unexpected view %+v", v)
	}
	if v := byUID["order-2"]; v.Size != "M" || v.WarrantyStatus != warranty.StatusRemoved {
		t.Fatalf("unexpected view %+v", v)
	}
}

func TestOrderUpstreamFailures(t *testing.T) {
	testlog.Start(t)
	s, o := newStorefront()
	ctx := context.Background()

	if _, err := s.Order(ctx, alex, "order-9"); !errors.Is(err, apperr.ErrUpstream) || apperr.PublicMessage(err) != "order not found" {
		t.Fatalf("expected order not found, got %v", err)
	}

	o.byUID["order-3"] = orders.Order{UID: "order-3", UserUID: alex, ItemUID: "item-3", Date: day}
	_, err := s.Order(ctx, alex, "order-3")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if _, err := s.Orders(ctx, alex); !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("expected list to fail on a broken order, got %v", err)
	}
}

func TestPurchaseClaimRefund(t *testing.T) {
	testlog.Start(t)
	s, o := newStorefront()
	ctx := context.Background()

	orderUID, err := s.Purchase(ctx, alex, "Lego 8880", "L")
	if err != nil || orderUID != "order-new" {
		t.Fatalf("purchase: %s err=%v", orderUID, err)
	}

	v, err := s.Claim(ctx, alex, "order-1", "Broken")
	if err != nil || v.Decision != warranty.DecisionReturn {
		t.Fatalf("claim: %+v err=%v", v, err)
	}
	if _, err := s.Claim(ctx, alex, "order-9", "Broken"); !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("claim on foreign order must fail, got %v", err)
	}

	if err := s.Refund(ctx, alex, "order-9"); !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("refund on foreign order must fail, got %v", err)
	}
	if err := s.Refund(ctx, alex, "order-1"); err != nil {
		t.Fatalf("refund: %v", err)
	}
	if len(o.returned) != 1 || o.returned[0] != "order-1" {
		t.Fatalf("expected order-1 returned by order uid, got %v", o.returned)
	}

	o.placeErr = &upstream.ResponseError{Upstream: "orders", Status: http.StatusConflict}
	_, err = s.Purchase(ctx, alex, "Lego 8880", "L")
	if !errors.Is(err, apperr.ErrUpstream) || apperr.PublicMessage(err) != "order not created" {
		t.Fatalf("expected order not created, got %v", err)
	}
}
