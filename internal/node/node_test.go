package node

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/fulfillment/internal/apperr"
	"github.com/danmuck/fulfillment/internal/testutil/testlog"
	"github.com/gin-gonic/gin"
)

type purchaseBody struct {
	Model string `json:"model" binding:"required"`
	Size  string `json:"size" binding:"required"`
	Count int    `json:"count" binding:"min=0"`
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := Appear("node-test", nil)
	RegisterManagement(r, "node-test", time.Now())
	r.POST("/bind", func(c *gin.Context) {
		var body purchaseBody
		if err := Bind(c, &body); err != nil {
			Respond(c, err)
			return
		}
		c.JSON(http.StatusOK, body)
	})
	r.GET("/missing", func(c *gin.Context) {
		Respond(c, apperr.NotFound("order not found"))
	})
	return r
}

type errorBody struct {
	Message string              `json:"message"`
	Errors  []apperr.FieldError `json:"errors"`
}

func TestHealthReportsUp(t *testing.T) {
	testlog.Start(t)
	r := newTestEngine(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, HealthPath, nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "UP" || body["service"] != "node-test" {
		t.Fatalf("unexpected health body %#v", body)
	}
}

func TestBindReportsFieldsByJSONName(t *testing.T) {
	testlog.Start(t)
	r := newTestEngine(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(`{"model":"Lego 8880"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "size" || body.Errors[0].Message != "required" {
		t.Fatalf("unexpected field errors %+v", body.Errors)
	}
}

func TestBindRejectsMalformedAndMistypedBodies(t *testing.T) {
	testlog.Start(t)
	r := newTestEngine(t)

	cases := map[string]string{
		`{"model":`:                          "body",
		`{"model":"a","size":"L","count":"x"}`: "count",
		``:                                   "body",
	}
	for payload, field := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/bind", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("payload %q: expected 400, got %d", payload, rr.Code)
		}
		var body errorBody
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Errors) != 1 || body.Errors[0].Field != field {
			t.Fatalf("payload %q: unexpected field errors %+v", payload, body.Errors)
		}
	}
}

func TestRespondUsesKindStatus(t *testing.T) {
	testlog.Start(t)
	r := newTestEngine(t)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "order not found" {
		t.Fatalf("unexpected message %q", body.Message)
	}
}

func TestTodayUsesUTCCalendarDate(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2024, 11, 11, 21, 0, 0, 0, est), "2024-11-12"},
		{time.Date(2024, 11, 11, 18, 59, 59, 0, est), "2024-11-11"},
		{time.Date(2024, 11, 11, 0, 0, 1, 0, time.UTC), "2024-11-11"},
	}
	for _, tc := range cases {
		got := Today(tc.in)
		if got.Location() != time.UTC || got.Hour() != 0 || got.Minute() != 0 {
			t.Fatalf("Today(%v) = %v, want UTC midnight", tc.in, got)
		}
		if got.Format(DateLayout) != tc.want {
			t.Fatalf("Today(%v) = %s want %s", tc.in, got.Format(DateLayout), tc.want)
		}
	}
}
