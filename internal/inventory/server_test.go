package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/testutil/testlog"
	"github.com/danmuck/fulfillment/internal/upstream"
	"github.com/danmuck/fulfillment/internal/warranty"
	"github.com/gin-gonic/gin"
)

func fixedNow() time.Time {
	return time.Date(2024, 11, 11, 15, 4, 5, 0, time.UTC)
}

// newStack runs a warranty engine behind httptest and an inventory server that calls it.
func newStack(t *testing.T, catalog []Item) (*Server, *warranty.Client) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ws := warranty.Appear("warranty-test", ":0", nil, warranty.NewEngine(warranty.NewMemoryStore()).WithClock(fixedNow))
	ws.RegisterRoutes()
	wsrv := httptest.NewServer(ws.HTTPRouter())
	t.Cleanup(wsrv.Close)
	wc := warranty.NewClient("inventory-test", wsrv.URL, 0)

	ledger := NewLedger(NewMemoryStore(), wc)
	if err := ledger.Seed(context.Background(), catalog, false); err != nil {
		t.Fatalf("seed: %v", err)
	}
	s := Appear("inventory-test", ":0", nil, ledger)
	s.RegisterRoutes()
	return s, wc
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.HTTPRouter().ServeHTTP(rr, req)
	return rr
}

func TestRoutesReserveLookupRelease(t *testing.T) {
	testlog.Start(t)
	s, _ := newStack(t, DefaultCatalog())

	rr := do(t, s, http.MethodPost, "/api/v1/warehouse", `{"orderUid":"order-1","model":"Lego 8880","size":"L"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("reserve: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var placed reserveResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &placed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if placed.OrderItemUID == "" || placed.OrderUID != "order-1" || placed.Model != "Lego 8880" {
		t.Fatalf("unexpected body %+v", placed)
	}

	rr = do(t, s, http.MethodGet, "/api/v1/warehouse/"+placed.OrderItemUID, "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"model":"Lego 8880"`) {
		t.Fatalf("lookup: got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = do(t, s, http.MethodGet, "/api/v1/items", "")
	var items []itemResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode items: %v", err)
	}
	if len(items) != 3 || items[2].AvailableCount != 9999 {
		t.Fatalf("unexpected items %+v", items)
	}

	if rr := do(t, s, http.MethodDelete, "/api/v1/warehouse/"+placed.OrderItemUID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("release: expected 204, got %d", rr.Code)
	}
	rr = do(t, s, http.MethodGet, "/api/v1/items", "")
	_ = json.Unmarshal(rr.Body.Bytes(), &items)
	if items[2].AvailableCount != 10000 {
		t.Fatalf("expected stock restored, got %d", items[2].AvailableCount)
	}
}

func TestRoutesErrors(t *testing.T) {
	testlog.Start(t)
	s, _ := newStack(t, []Item{{ID: 1, Model: "Lego 8880", Size: "L", AvailableCount: 0}})

	cases := []struct {
		method, path, body string
		want               int
		message            string
	}{
		{http.MethodPost, "/api/v1/warehouse", `{"orderUid":"o","model":"Lego 8880","size":"L"}`, http.StatusConflict, "requested item is not available"},
		{http.MethodPost, "/api/v1/warehouse", `{"orderUid":"o","model":"Lego 1","size":"L"}`, http.StatusNotFound, "requested item not found"},
		{http.MethodPost, "/api/v1/warehouse", `{"orderUid":"o","size":"L"}`, http.StatusBadRequest, ""},
		{http.MethodPost, "/api/v1/warehouse", `not json`, http.StatusBadRequest, ""},
		{http.MethodGet, "/api/v1/warehouse/missing", "", http.StatusNotFound, "order item not found"},
		{http.MethodDelete, "/api/v1/warehouse/missing", "", http.StatusNotFound, "order item not found"},
		{http.MethodPost, "/api/v1/warehouse/missing/warranty", `{"reason":"Broken"}`, http.StatusNotFound, "order item not found"},
		{http.MethodPost, "/api/v1/warehouse/missing/warranty", `{}`, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		rr := do(t, s, tc.method, tc.path, tc.body)
		if rr.Code != tc.want {
			t.Fatalf("%s %s %s: expected %d, got %d body=%s", tc.method, tc.path, tc.body, tc.want, rr.Code, rr.Body.String())
		}
		if tc.message != "" && !strings.Contains(rr.Body.String(), tc.message) {
			t.Fatalf("%s %s: expected message %q in %s", tc.method, tc.path, tc.message, rr.Body.String())
		}
	}
}

func TestWarrantyRouteConsultsEngine(t *testing.T) {
	testlog.Start(t)
	s, wc := newStack(t, []Item{{ID: 1, Model: "Lego 8880", Size: "L", AvailableCount: 1}})
	ctx := context.Background()

	rr := do(t, s, http.MethodPost, "/api/v1/warehouse", `{"orderUid":"order-1","model":"Lego 8880","size":"L"}`)
	var placed reserveResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &placed)

	// no warranty opened yet
	rr = do(t, s, http.MethodPost, "/api/v1/warehouse/"+placed.OrderItemUID+"/warranty", `{"reason":"Broken"}`)
	if rr.Code != http.StatusUnprocessableEntity || !strings.Contains(rr.Body.String(), "warranty not found") {
		t.Fatalf("expected 422 warranty not found, got %d body=%s", rr.Code, rr.Body.String())
	}

	if err := wc.Open(ctx, placed.OrderItemUID); err != nil {
		t.Fatalf("open warranty: %v", err)
	}
	rr = do(t, s, http.MethodPost, "/api/v1/warehouse/"+placed.OrderItemUID+"/warranty", `{"reason":"Broken"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("claim: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var v verdictResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.Decision != string(warranty.DecisionFixing) || v.WarrantyDate != "2024-11-11" {
		t.Fatalf("unexpected verdict %+v", v)
	}
}

func TestClientAgainstServer(t *testing.T) {
	testlog.Start(t)
	s, wc := newStack(t, DefaultCatalog())
	srv := httptest.NewServer(s.HTTPRouter())
	defer srv.Close()

	ctx := context.Background()
	c := NewClient("orders", srv.URL, 0)
	if err := c.Healthy(ctx); err != nil {
		t.Fatalf("healthy: %v", err)
	}

	p, err := c.Reserve(ctx, "Lego 8070", "M", "order-7")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if p.ItemUID == "" || p.OrderUID != "order-7" {
		t.Fatalf("unexpected placement %+v", p)
	}
	info, err := c.Lookup(ctx, p.ItemUID)
	if err != nil || info.Model != "Lego 8070" || info.Size != "M" {
		t.Fatalf("lookup: %+v err=%v", info, err)
	}

	if err := wc.Open(ctx, p.ItemUID); err != nil {
		t.Fatalf("open warranty: %v", err)
	}
	v, err := c.WarrantyContext(ctx, p.ItemUID, "Broken")
	if err != nil {
		t.Fatalf("warranty: %v", err)
	}
	if v.Decision != warranty.DecisionReturn || v.WarrantyDate.Format("2006-01-02") != "2024-11-11" {
		t.Fatalf("unexpected verdict %+v", v)
	}

	if err := c.Release(ctx, p.ItemUID); err != nil {
		t.Fatalf("release: %v", err)
	}

	_, err = c.Reserve(ctx, "Lego 8070", "XL", "order-8")
	var re *upstream.ResponseError
	if !errors.As(err, &re) || re.Status != http.StatusNotFound || re.Message != "requested item not found" {
		t.Fatalf("expected 404 response error, got %v", err)
	}
	if errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("client must leave classification to the caller")
	}
}
