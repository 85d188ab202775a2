package warranty

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/danmuck/fulfillment/internal/node"
	"github.com/danmuck/fulfillment/internal/upstream"
)

// Client calls a remote Warranty Engine.
type Client struct {
	http *upstream.Client
}

func NewClient(caller, addr string, timeout time.Duration) *Client {
	return &Client{http: upstream.New(caller, "warranty", addr, timeout)}
}

func (c *Client) Healthy(ctx context.Context) error {
	return c.http.Healthy(ctx)
}

func (c *Client) Open(ctx context.Context, itemUID string) error {
	return c.http.Do(ctx, http.MethodPost, itemPath(itemUID), nil, nil)
}

func (c *Client) Decide(ctx context.Context, itemUID, reason string, availableCount int) (Verdict, error) {
	req := decideRequest{Reason: reason, AvailableCount: &availableCount}
	var resp verdictResponse
	if err := c.http.Do(ctx, http.MethodPost, itemPath(itemUID)+"/warranty", req, &resp); err != nil {
		return Verdict{}, err
	}
	date, err := parseDate(resp.WarrantyDate)
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{Decision: resp.Decision, WarrantyDate: date}, nil
}

func (c *Client) StatusOf(ctx context.Context, itemUID string) (Warranty, error) {
	var resp statusResponse
	if err := c.http.Do(ctx, http.MethodGet, itemPath(itemUID), nil, &resp); err != nil {
		return Warranty{}, err
	}
	date, err := parseDate(resp.WarrantyDate)
	if err != nil {
		return Warranty{}, err
	}
	return Warranty{ItemUID: resp.ItemUID, Status: resp.Status, Date: date}, nil
}

func itemPath(itemUID string) string {
	return node.APIRoot + "/warranty/" + url.PathEscape(itemUID)
}

func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(node.DateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("warranty: bad date %q: %w", raw, err)
	}
	return t, nil
}
