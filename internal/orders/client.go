package orders

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/danmuck/fulfillment/internal/node"
	"github.com/danmuck/fulfillment/internal/upstream"
	"github.com/danmuck/fulfillment/internal/warranty"
)

// Client calls a remote Order Orchestrator.
type Client struct {
	http *upstream.Client
}

func NewClient(caller, addr string, timeout time.Duration) *Client {
	return &Client{http: upstream.New(caller, "orders", addr, timeout)}
}

func (c *Client) Healthy(ctx context.Context) error {
	return c.http.Healthy(ctx)
}

func (c *Client) Place(ctx context.Context, userUID, model, size string) (string, error) {
	var resp placeResponse
	if err := c.http.Do(ctx, http.MethodPost, ordersPath(userUID), placeRequest{Model: model, Size: size}, &resp); err != nil {
		return "", err
	}
	return resp.OrderUID, nil
}

func (c *Client) Get(ctx context.Context, userUID, orderUID string) (Order, error) {
	var view orderView
	if err := c.http.Do(ctx, http.MethodGet, ordersPath(userUID)+"/"+url.PathEscape(orderUID), nil, &view); err != nil {
		return Order{}, err
	}
	return view.order(userUID)
}

func (c *Client) List(ctx context.Context, userUID string) ([]Order, error) {
	var views []orderView
	if err := c.http.Do(ctx, http.MethodGet, ordersPath(userUID), nil, &views); err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(views))
	for _, v := range views {
		o, err := v.order(userUID)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *Client) Claim(ctx context.Context, orderUID, reason string) (warranty.Verdict, error) {
	var resp verdictResponse
	if err := c.http.Do(ctx, http.MethodPost, ordersPath(orderUID)+"/warranty", claimRequest{Reason: reason}, &resp); err != nil {
		return warranty.Verdict{}, err
	}
	v := warranty.Verdict{Decision: warranty.Decision(resp.Decision)}
	if resp.WarrantyDate != "" {
		date, err := time.Parse(node.DateLayout, resp.WarrantyDate)
		if err != nil {
			return warranty.Verdict{}, fmt.Errorf("orders: bad warranty date %q: %w", resp.WarrantyDate, err)
		}
		v.WarrantyDate = date
	}
	return v, nil
}

func (c *Client) Return(ctx context.Context, orderUID string) error {
	return c.http.Do(ctx, http.MethodDelete, ordersPath(orderUID), nil, nil)
}

func (v orderView) order(userUID string) (Order, error) {
	date, err := time.Parse(node.DateLayout, v.OrderDate)
	if err != nil {
		return Order{}, fmt.Errorf("orders: bad order date %q: %w", v.OrderDate, err)
	}
	return Order{
		UID:     v.OrderUID,
		UserUID: userUID,
		ItemUID: v.ItemUID,
		Date:    date,
		Status:  v.Status,
	}, nil
}

func ordersPath(uid string) string {
	return node.APIRoot + "/orders/" + url.PathEscape(uid)
}
