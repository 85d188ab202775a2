package inventory

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

// Client calls a remote Inventory Ledger.
type Client struct {
	http *upstream.Client
}

func NewClient(caller, addr string, timeout time.Duration) *Client {
	return &Client{http: upstream.New(caller, "inventory", addr, timeout)}
}

func (c *Client) Healthy(ctx context.Context) error {
	return c.http.Healthy(ctx)
}

// Reserve asks the ledger for one unit of (model, size). A successful answer that
// lacks the reservation id comes back with an empty Placement.ItemUID.
func (c *Client) Reserve(ctx context.Context, model, size, orderUID string) (Placement, error) {
	req := reserveRequest{OrderUID: orderUID, Model: model, Size: size}
	var resp reserveResponse
	if err := c.http.Do(ctx, http.MethodPost, node.APIRoot+"/warehouse", req, &resp); err != nil {
		return Placement{}, err
	}
	return Placement{
		ItemUID:  resp.OrderItemUID,
		OrderUID: resp.OrderUID,
		Model:    resp.Model,
		Size:     resp.Size,
	}, nil
}

func (c *Client) Lookup(ctx context.Context, itemUID string) (ItemInfo, error) {
	var resp itemInfoResponse
	if err := c.http.Do(ctx, http.MethodGet, itemPath(itemUID), nil, &resp); err != nil {
		return ItemInfo{}, err
	}
	return ItemInfo{Model: resp.Model, Size: resp.Size}, nil
}

func (c *Client) Release(ctx context.Context, itemUID string) error {
	return c.http.Do(ctx, http.MethodDelete, itemPath(itemUID), nil, nil)
}

func (c *Client) WarrantyContext(ctx context.Context, itemUID, reason string) (warranty.Verdict, error) {
	var resp verdictResponse
	if err := c.http.Do(ctx, http.MethodPost, itemPath(itemUID)+"/warranty", claimRequest{Reason: reason}, &resp); err != nil {
		return warranty.Verdict{}, err
	}
	v := warranty.Verdict{Decision: warranty.Decision(resp.Decision)}
	if resp.WarrantyDate != "" {
		date, err := time.Parse(node.DateLayout, resp.WarrantyDate)
		if err != nil {
			return warranty.Verdict{}, fmt.Errorf("inventory: bad warranty date %q: %w", resp.WarrantyDate, err)
		}
		v.WarrantyDate = date
	}
	return v, nil
}

func itemPath(itemUID string) string {
	return node.APIRoot + "/warehouse/" + url.PathEscape(itemUID)
}
