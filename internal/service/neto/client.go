// Package neto implements the order source over the Neto GetOrder API.
package neto

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	xhttp "SalesPulse/pkg/http"
	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/util"
)

const actionGetOrder = "GetOrder"

// Config holds the API endpoint and credentials.
type Config struct {
	URL      string
	Key      string
	Username string
	Timeout  time.Duration
	Attempts int
	Backoff  time.Duration
}

// Client fetches orders from Neto.
type Client struct {
	cfg     Config
	http    *xhttp.Client
	log     *applogger.Logger
	metrics drepo.Metrics
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient swaps the transport client.
func WithHTTPClient(c *xhttp.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// New returns an order source. metrics may be nil.
func New(cfg Config, log *applogger.Logger, metrics drepo.Metrics, opts ...Option) *Client {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	if log == nil {
		log = applogger.Nop()
	}
	c := &Client{
		cfg:     cfg,
		log:     log.With(applogger.String("component", "neto")),
		metrics: metrics,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout))
	}
	return c
}

var _ drepo.OrderSource = (*Client)(nil)

// FetchOrders returns every order placed within [q.From, q.To]. An empty
// result is not an error; any transport, status, decode or API failure
// matches drepo.ErrSourceUnavailable.
func (c *Client) FetchOrders(ctx context.Context, q models.OrderQuery) ([]models.OrderRecord, error) {
	start := time.Now()
	req := getOrderRequest{Filter: orderFilter{
		DatePlacedFrom: []string{util.FormatUpstream(q.From)},
		DatePlacedTo:   []string{util.FormatUpstream(q.To)},
		SalesChannel:   q.Channels,
		OutputSelector: q.Fields,
	}}

	var resp getOrderResponse
	err := c.postWithRetry(ctx, req, &resp)
	if err == nil && strings.EqualFold(resp.Ack, "Error") {
		err = fmt.Errorf("api error: %s", resp.Messages.Error)
	}
	c.observe(err, start)
	if err != nil {
		c.log.Error("fetch orders failed",
			applogger.String("from", req.Filter.DatePlacedFrom[0]),
			applogger.String("to", req.Filter.DatePlacedTo[0]),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", drepo.ErrSourceUnavailable, err)
	}
	if w := resp.Messages.Warning.String(); w != "" {
		c.log.Warn("order api warning", applogger.String("warning", w))
	}

	orders := make([]models.OrderRecord, 0, len(resp.Order))
	for _, o := range resp.Order {
		orders = append(orders, toRecord(o))
	}
	return orders, nil
}

func (c *Client) observe(err error, start time.Time) {
	if c.metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.metrics.RecordUpstreamCall(actionGetOrder, result)
	c.metrics.RecordLatency("neto_get_order", time.Since(start).Seconds())
}

func (c *Client) post(ctx context.Context, payload, dest interface{}) error {
	return c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.cfg.URL,
		Headers: map[string]string{
			"Accept":           "application/json",
			"Content-Type":     "application/json",
			"NETOAPI_ACTION":   actionGetOrder,
			"NETOAPI_KEY":      c.cfg.Key,
			"NETOAPI_USERNAME": c.cfg.Username,
		},
		Body: payload,
	}, dest)
}

// postWithRetry retries transient failures with linear backoff. Client
// errors (4xx other than 429) fail immediately.
func (c *Client) postWithRetry(ctx context.Context, payload, dest interface{}) error {
	var err error
	for i := 1; i <= c.cfg.Attempts; i++ {
		err = c.post(ctx, payload, dest)
		if err == nil || !retryable(err) || i == c.cfg.Attempts {
			return err
		}
		c.log.Debug("retrying order fetch", applogger.Int("attempt", i), applogger.Error(err))
		select {
		case <-time.After(time.Duration(i) * c.cfg.Backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

func toRecord(o orderDTO) models.OrderRecord {
	rec := models.OrderRecord{
		OrderID:       o.OrderID,
		OrderStatus:   o.OrderStatus,
		SalesChannel:  strings.TrimSpace(o.SalesChannel),
		DatePlacedRaw: o.DatePlaced,
	}
	if t, ok := util.ParseTime(o.DatePlaced); ok {
		rec.DatePlaced = t.UTC()
	}
	if len(o.OrderLine) > 0 {
		rec.Lines = make([]models.OrderLine, 0, len(o.OrderLine))
		for _, l := range o.OrderLine {
			rec.Lines = append(rec.Lines, models.OrderLine{
				OrderLineID: l.OrderLineID,
				SKU:         l.SKU,
				Quantity:    int(l.Quantity),
			})
		}
	}
	return rec
}
