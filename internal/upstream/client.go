// Package upstream is the JSON-over-HTTP client one fulfillment service uses to call
// another. It records upstream metrics and turns non-2xx answers into *ResponseError;
// deciding what a failure means is left to the caller.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/fulfillment/internal/observability"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const healthPath = "/manage/health"

// ResponseError is a non-2xx answer from an upstream service.
type ResponseError struct {
	Upstream string
	Status   int
	Message  string
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s answered %d", e.Upstream, e.Status)
	}
	return fmt.Sprintf("%s answered %d: %s", e.Upstream, e.Status, e.Message)
}

// StatusOf returns the upstream status carried by err, or 0 when the call never got
// an answer.
func StatusOf(err error) int {
	var re *ResponseError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// Client calls one upstream service.
type Client struct {
	node    string
	name    string
	baseURL string
	http    *http.Client
}

// New builds a client from node (the caller, for metrics) to the upstream called name
// at addr. A zero timeout leaves calls unbounded.
func New(node, name, addr string, timeout time.Duration) *Client {
	return &Client{
		node:    node,
		name:    name,
		baseURL: BaseURL(addr),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) Name() string {
	return c.name
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// Healthy probes the upstream liveness endpoint once.
func (c *Client) Healthy(ctx context.Context) error {
	return c.Do(ctx, http.MethodGet, healthPath, nil, nil)
}

// Do sends in as the JSON body (when non-nil) and decodes a successful answer into out
// (when non-nil and the body is not empty).
func (c *Client) Do(ctx context.Context, method, path string, in, out any) error {
	start := time.Now()
	url := c.baseURL + path
	route := routeOf(path)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", c.name, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		observability.RecordUpstream(c.node, c.name, method, route, 0, time.Since(start), false)
		return fmt.Errorf("%s: build request: %w", c.name, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().
			Str("upstream", c.name).
			Str("method", method).
			Str("url", url).
			Err(err).
			Msg("upstream_failed")
		observability.RecordUpstream(c.node, c.name, method, route, 0, time.Since(start), false)
		return fmt.Errorf("%s: %w", c.name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		observability.RecordUpstream(c.node, c.name, method, route, resp.StatusCode, time.Since(start), false)
		return fmt.Errorf("%s: read response: %w", c.name, err)
	}

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	log.Debug().
		Str("upstream", c.name).
		Str("method", method).
		Str("url", url).
		Int("status", resp.StatusCode).
		Msg("upstream")
	observability.RecordUpstream(c.node, c.name, method, route, resp.StatusCode, time.Since(start), ok)

	if !ok {
		return &ResponseError{
			Upstream: c.name,
			Status:   resp.StatusCode,
			Message:  errorMessage(raw),
		}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.name, err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		return body.Message
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// routeOf collapses uid path segments so upstream metrics keep a bounded label set.
func routeOf(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if _, err := uuid.Parse(seg); err == nil {
			segments[i] = ":uid"
		}
	}
	return strings.Join(segments, "/")
}

// BaseURL normalises a configured address: "host:port", ":port" or a full URL.
func BaseURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	if addr == "" {
		return "http://localhost"
	}
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + strings.TrimRight(addr, "/")
}
