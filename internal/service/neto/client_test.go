package neto

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	"SalesPulse/internal/services/tally"
	xhttp "SalesPulse/pkg/http"
)

func newTestClient(t *testing.T, h http.HandlerFunc, attempts int) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		URL:      srv.URL,
		Key:      "secret",
		Username: "ops",
		Timeout:  2 * time.Second,
		Attempts: attempts,
		Backoff:  time.Millisecond,
	}, nil, nil, WithHTTPClient(xhttp.NewClient(xhttp.WithHTTPClient(srv.Client()))))
}

type countingTransport struct {
	n    atomic.Int32
	next http.RoundTripper
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.n.Add(1)
	return c.next.RoundTrip(r)
}

func TestFetchOrders_UsesInjectedHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"Ack":"Success","Order":[]}`)
	}))
	t.Cleanup(srv.Close)

	rt := &countingTransport{next: srv.Client().Transport}
	c := New(Config{URL: srv.URL, Key: "k", Username: "u"}, nil, nil,
		WithHTTPClient(xhttp.NewClient(xhttp.WithHTTPClient(&http.Client{Transport: rt, Timeout: time.Second}))))

	from := time.Date(2024, 5, 7, 15, 0, 0, 0, time.UTC)
	got, err := c.FetchOrders(context.Background(), models.OrderQuery{From: from, To: from.Add(24*time.Hour - time.Second)})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.EqualValues(t, 1, rt.n.Load())
}

func TestFetchOrders_SendsBusinessDayWindow(t *testing.T) {
	syd, err := time.LoadLocation("Australia/Sydney")
	require.NoError(t, err)

	var got getOrderRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "GetOrder", r.Header.Get("NETOAPI_ACTION"))
		assert.Equal(t, "secret", r.Header.Get("NETOAPI_KEY"))
		assert.Equal(t, "ops", r.Header.Get("NETOAPI_USERNAME"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"Order":[],"Ack":"Success"}`))
	}, 1)

	from, to := tally.BusinessDay(time.Date(2024, 5, 1, 0, 0, 0, 0, syd), syd)
	orders, err := c.FetchOrders(context.Background(), models.OrderQuery{
		From:     from,
		To:       to,
		Channels: []string{"Edisons", "eBay"},
		Fields:   []string{models.FieldOrderID, models.FieldDatePlaced},
	})
	require.NoError(t, err)
	assert.Empty(t, orders)

	// 01:00 AEST is 15:00 UTC the previous day
	assert.Equal(t, []string{"2024-04-30 15:00:00"}, got.Filter.DatePlacedFrom)
	assert.Equal(t, []string{"2024-05-01 14:59:59"}, got.Filter.DatePlacedTo)
	assert.Equal(t, []string{"Edisons", "eBay"}, got.Filter.SalesChannel)
	assert.Equal(t, []string{"OrderID", "DatePlaced"}, got.Filter.OutputSelector)
}

func TestFetchOrders_DecodesOrders(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"Ack": "Success",
			"Order": [
				{"OrderID": "N1", "OrderStatus": "Dispatched", "SalesChannel": "eBay",
				 "DatePlaced": "2024-05-01 03:15:00",
				 "OrderLine": [{"OrderLineID": "N1-1", "SKU": "LAMP", "Quantity": "2"},
				               {"OrderLineID": "N1-2", "SKU": "BULB", "Quantity": 3}]},
				{"OrderID": "N2", "SalesChannel": "Kogan", "DatePlaced": "0000-00-00 00:00:00",
				 "OrderLine": {"OrderLineID": "N2-1", "SKU": "FAN", "Quantity": "1.0000"}}
			]
		}`))
	}, 1)

	orders, err := c.FetchOrders(context.Background(), models.OrderQuery{})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "eBay", orders[0].SalesChannel)
	assert.Equal(t, time.Date(2024, 5, 1, 3, 15, 0, 0, time.UTC), orders[0].DatePlaced)
	assert.Equal(t, "2024-05-01 03:15:00", orders[0].DatePlacedRaw)
	assert.Equal(t, []models.OrderLine{
		{OrderLineID: "N1-1", SKU: "LAMP", Quantity: 2},
		{OrderLineID: "N1-2", SKU: "BULB", Quantity: 3},
	}, orders[0].Lines)

	assert.True(t, orders[1].DatePlaced.IsZero())
	assert.Equal(t, []models.OrderLine{{OrderLineID: "N2-1", SKU: "FAN", Quantity: 1}}, orders[1].Lines)
}

func TestFetchOrders_FailuresAreSourceUnavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"decode": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>maintenance</html>`))
		},
		"ack error": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Ack":"Error","Messages":{"Error":{"Message":"Invalid API key"}}}`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, h, 1)
			orders, err := c.FetchOrders(context.Background(), models.OrderQuery{})
			assert.Nil(t, orders)
			assert.ErrorIs(t, err, drepo.ErrSourceUnavailable)
		})
	}
}

func TestFetchOrders_RetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"Ack":"Success","Order":[{"OrderID":"N1","SalesChannel":"BigW","DatePlaced":"2024-05-01 00:00:00"}]}`))
	}, 3)

	orders, err := c.FetchOrders(context.Background(), models.OrderQuery{})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestFetchOrders_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}, 3)

	_, err := c.FetchOrders(context.Background(), models.OrderQuery{})
	assert.ErrorIs(t, err, drepo.ErrSourceUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
