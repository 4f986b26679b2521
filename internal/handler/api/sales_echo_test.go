package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	xlogger "SalesPulse/pkg/logger"
)

type fakeSales struct {
	agg      models.DailyAggregate
	rows     []models.FlatOrderLine
	err      error
	lastDate *time.Time
}

func (f *fakeSales) FetchTodaySales(context.Context) (models.DailyAggregate, error) {
	return f.agg, f.err
}

func (f *fakeSales) FetchSameWeekdayLastWeekSales(context.Context) (models.DailyAggregate, error) {
	return f.agg, f.err
}

func (f *fakeSales) FetchYesterdaySales(_ context.Context, date *time.Time) (models.DailyAggregate, error) {
	f.lastDate = date
	return f.agg, f.err
}

func (f *fakeSales) FetchLastWeekSales(_ context.Context, date *time.Time) (models.DailyAggregate, error) {
	f.lastDate = date
	return f.agg, f.err
}

func (f *fakeSales) GetRawOrders(_ context.Context, date *time.Time) ([]models.FlatOrderLine, error) {
	f.lastDate = date
	return f.rows, f.err
}

type fakePredictor struct {
	days int
	err  error
}

func (f *fakePredictor) PredictSales(_ context.Context, days int) (models.ForecastResult, error) {
	f.days = days
	tb := models.NewTallyBuilder()
	for _, b := range models.Buckets() {
		tb.Set("Edisons", b, days)
	}
	return models.ForecastResult{Tally: tb.Build()}, f.err
}

type fakeComparer struct{}

func (fakeComparer) Realtime(context.Context) (*models.ComparisonReport, error) {
	return &models.ComparisonReport{Kind: "realtime", Day: "2024-05-08"}, nil
}

func (fakeComparer) Hypercare(_ context.Context, date *time.Time) (*models.ComparisonReport, error) {
	day := "yesterday"
	if date != nil {
		day = date.Format("2006-01-02")
	}
	return &models.ComparisonReport{Kind: "hypercare", Day: day}, nil
}

var sydney, _ = time.LoadLocation("Australia/Sydney")

func newServer(sales *fakeSales, pred *fakePredictor) *echo.Echo {
	e := echo.New()
	h := NewSalesEchoHandler(xlogger.Nop(), sales, pred, fakeComparer{}, sydney, nil, RateLimit{})
	h.RegisterRoutes(e)
	return e
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func sampleAgg() models.DailyAggregate {
	tb := models.NewTallyBuilder()
	tb.Add("eBay", models.BucketEvening, 2)
	tb.Add("Edisons", models.BucketMorning, 5)
	return models.DailyAggregate{Tally: tb.Build()}
}

func TestTodaySales_WritesBareTally(t *testing.T) {
	e := newServer(&fakeSales{agg: sampleAgg()}, &fakePredictor{})
	rec := get(e, "/api/today-sales")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"Edisons":{"9AM - 10AM":5},"eBay":{"6PM - 9PM":2}}`, rec.Body.String())
}

func TestTodaySales_EmptyDayIsEmptyObject(t *testing.T) {
	e := newServer(&fakeSales{}, &fakePredictor{})
	rec := get(e, "/api/prev-sales")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestSourceFailureIs503(t *testing.T) {
	sales := &fakeSales{err: fmt.Errorf("fetch: %w", drepo.ErrSourceUnavailable)}
	e := newServer(sales, &fakePredictor{})

	for _, path := range []string{"/api/today-sales", "/api/yesterday-sales", "/api/data-source"} {
		rec := get(e, path)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code, path)

		var body struct {
			Message string `json:"message"`
			Errors  []struct {
				Code string `json:"code"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Errors, 1)
		assert.Equal(t, "ERR_SOURCE_UNAVAILABLE", body.Errors[0].Code)
	}
}

func TestUnexpectedErrorIs500(t *testing.T) {
	e := newServer(&fakeSales{err: errors.New("boom")}, &fakePredictor{})
	assert.Equal(t, http.StatusInternalServerError, get(e, "/api/today-sales").Code)
}

func TestYesterdaySales_Date(t *testing.T) {
	sales := &fakeSales{agg: sampleAgg()}
	e := newServer(sales, &fakePredictor{})

	rec := get(e, "/api/yesterday-sales?date=2024-05-03")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sales.lastDate)
	assert.Equal(t, time.Date(2024, 5, 3, 0, 0, 0, 0, sydney), *sales.lastDate)

	rec = get(e, "/api/last-week")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, sales.lastDate)
}

func TestYesterdaySales_RejectsBadDate(t *testing.T) {
	e := newServer(&fakeSales{}, &fakePredictor{})
	rec := get(e, "/api/yesterday-sales?date=03-05-2024")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_DATETIME")
	assert.Contains(t, rec.Body.String(), `"field":"date"`)
}

func TestDataSource_EmptyIsArray(t *testing.T) {
	e := newServer(&fakeSales{}, &fakePredictor{})
	rec := get(e, "/api/data-source?date=2024-05-03")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestDataSource_Rows(t *testing.T) {
	rows := []models.FlatOrderLine{{
		OrderID: "N1-1", OrderStatus: "Dispatched", SalesChannel: "eBay",
		DatePlaced: "2024-05-03 01:00:00", OrderLineSKU: "LAMP", OrderLineQty: 2,
	}}
	e := newServer(&fakeSales{rows: rows}, &fakePredictor{})
	rec := get(e, "/api/data-source")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"OrderID":"N1-1","OrderStatus":"Dispatched","SalesChannel":"eBay",
		"DatePlaced":"2024-05-03 01:00:00","OrderLineSKU":"LAMP","OrderLineQty":2}]`, rec.Body.String())
}

func TestPredictSales_Days(t *testing.T) {
	pred := &fakePredictor{}
	e := newServer(&fakeSales{}, pred)

	rec := get(e, "/api/predict-sales")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, pred.days, "defaults to a week")

	rec = get(e, "/api/predict-sales?days=14")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14, pred.days)
	assert.Contains(t, rec.Body.String(), `"10PM - 12AM":14`)

	for _, q := range []string{"days=61", "days=-2", "days=abc"} {
		assert.Equal(t, http.StatusBadRequest, get(e, "/api/predict-sales?"+q).Code, q)
	}
}

func TestComparison_UsesEnvelope(t *testing.T) {
	e := newServer(&fakeSales{}, &fakePredictor{})

	rec := get(e, "/api/comparison/realtime")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status int                     `json:"status"`
		Data   models.ComparisonReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, "realtime", body.Data.Kind)

	rec = get(e, "/api/comparison/hypercare?date=2024-05-01")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"day":"2024-05-01"`)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	NewHealthHandler(map[string]HealthCheck{
		"cache": func(context.Context) error { return nil },
	}).RegisterRoutes(e)
	rec := get(e, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","cache":"ok"}`, rec.Body.String())

	e = echo.New()
	NewHealthHandler(map[string]HealthCheck{
		"cache": func(context.Context) error { return errors.New("dial tcp: refused") },
	}).RegisterRoutes(e)
	rec = get(e, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
