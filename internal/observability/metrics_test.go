package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danmuck/fulfillment/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	testlog.Start(t)
	RegisterMetrics()
	RegisterMetrics()

	RecordHTTPRequest("orders", "GET", "/manage/health", 200, 12*time.Millisecond)
	RecordUpstream("orders", "inventory", "POST", "/api/v1/warehouse", 409, 24*time.Millisecond, false)
	RecordSagaStep("place_order", "reserve", "unavailable")
	SetStockLevel("Lego 8880", "L", 3)

	if got := testutil.ToFloat64(stockLevel.WithLabelValues("Lego 8880", "L")); got != 3 {
		t.Fatalf("unexpected stock gauge %v", got)
	}
	before := testutil.ToFloat64(sagaSteps.WithLabelValues("place_order", "reserve", "ok"))
	RecordSagaStep("place_order", "reserve", "ok")
	if got := testutil.ToFloat64(sagaSteps.WithLabelValues("place_order", "reserve", "ok")); got != before+1 {
		t.Fatalf("saga counter not incremented: before=%v after=%v", before, got)
	}
}

func TestRequestMiddlewareRecordsRoutePath(t *testing.T) {
	testlog.Start(t)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger(log.Logger), RequestMetricsMiddleware("middleware-test"))
	r.GET("/api/v1/items/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/items/7", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	got := testutil.ToFloat64(httpRequests.WithLabelValues("middleware-test", "GET", "/api/v1/items/:id", "204"))
	if got != 1 {
		t.Fatalf("expected one request recorded against the route template, got %v", got)
	}
}

func TestSetupTracingWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "orders", "  ")
	if err != nil {
		t.Fatalf("setup tracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if opts := exporterOptions("collector:4318"); len(opts) != 2 {
		t.Fatalf("expected endpoint+insecure options, got %d", len(opts))
	}
	if len(exporterOptions("http://collector:4318")) != 1 {
		t.Fatalf("expected url option for scheme endpoint")
	}
}
