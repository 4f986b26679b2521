package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	dsvc "SalesPulse/internal/domain/service"
	"SalesPulse/internal/service/ratelimit"
	xhttp "SalesPulse/pkg/http"
	xlogger "SalesPulse/pkg/logger"
)

// RateLimit bounds the routes that fan out to many upstream calls.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// SalesEchoHandler serves the dashboard endpoints. Day and forecast
// payloads are written bare, the shape the dashboard already reads; the
// comparison reports use the standard envelope.
type SalesEchoHandler struct {
	logger    *xlogger.Logger
	sales     dsvc.SalesQueries
	predictor dsvc.SalesPredictor
	compare   dsvc.SalesComparer
	loc       *time.Location
	limiter   *ratelimit.Limiter
	limit     RateLimit
}

func NewSalesEchoHandler(logger *xlogger.Logger, sales dsvc.SalesQueries, predictor dsvc.SalesPredictor, compare dsvc.SalesComparer, loc *time.Location, limiter *ratelimit.Limiter, limit RateLimit) *SalesEchoHandler {
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &SalesEchoHandler{
		logger:    logger,
		sales:     sales,
		predictor: predictor,
		compare:   compare,
		loc:       loc,
		limiter:   limiter,
		limit:     limit,
	}
}

func (h *SalesEchoHandler) RegisterRoutes(e *echo.Echo) {
	throttle := h.limiter.Middleware(h.limit.Capacity, h.limit.RefillPerSec)

	g := e.Group("/api")
	g.GET("/today-sales", h.TodaySales)
	g.GET("/prev-sales", h.PrevSales)
	g.GET("/yesterday-sales", h.YesterdaySales)
	g.GET("/last-week", h.LastWeek)
	g.GET("/data-source", h.DataSource, throttle)
	g.GET("/predict-sales", h.PredictSales, throttle)
	g.GET("/comparison/realtime", h.RealtimeComparison)
	g.GET("/comparison/hypercare", h.HypercareComparison)
}

// fail maps use case errors onto HTTP errors. A source failure is a 503,
// never an empty 200.
func (h *SalesEchoHandler) fail(c echo.Context, op string, err error) error {
	switch {
	case errors.Is(err, drepo.ErrSourceUnavailable):
		h.logger.Warn("order source unavailable", xlogger.String("op", op), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.SourceUnavailableError("order data is temporarily unavailable").WithError(err))
	case errors.Is(err, context.Canceled):
		return c.NoContent(499)
	default:
		h.logger.Error("sales usecase error", xlogger.String("op", op), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("failed to load sales").WithError(err))
	}
}

// readDay binds ?date= and resolves it in the reference timezone.
func (h *SalesEchoHandler) readDay(c echo.Context) (*time.Time, interface{}) {
	req := &models.DayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, verr
	}
	date, err := xhttp.OptionalDate(req.Date, h.loc)
	if err != nil {
		return nil, []xhttp.ValidationError{{Code: "ERR_DATETIME", Field: "date", Message: err.Error()}}
	}
	return date, nil
}

func (h *SalesEchoHandler) TodaySales(c echo.Context) error {
	res, err := h.sales.FetchTodaySales(c.Request().Context())
	if err != nil {
		return h.fail(c, "today_sales", err)
	}
	return xhttp.RawResponse(c, res)
}

func (h *SalesEchoHandler) PrevSales(c echo.Context) error {
	res, err := h.sales.FetchSameWeekdayLastWeekSales(c.Request().Context())
	if err != nil {
		return h.fail(c, "prev_sales", err)
	}
	return xhttp.RawResponse(c, res)
}

func (h *SalesEchoHandler) YesterdaySales(c echo.Context) error {
	date, verr := h.readDay(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.sales.FetchYesterdaySales(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, "yesterday_sales", err)
	}
	return xhttp.RawResponse(c, res)
}

func (h *SalesEchoHandler) LastWeek(c echo.Context) error {
	date, verr := h.readDay(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.sales.FetchLastWeekSales(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, "last_week", err)
	}
	return xhttp.RawResponse(c, res)
}

func (h *SalesEchoHandler) DataSource(c echo.Context) error {
	date, verr := h.readDay(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.sales.GetRawOrders(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, "data_source", err)
	}
	if rows == nil {
		rows = []models.FlatOrderLine{}
	}
	return xhttp.RawResponse(c, rows)
}

func (h *SalesEchoHandler) PredictSales(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.predictor.PredictSales(c.Request().Context(), req.Days)
	if err != nil {
		return h.fail(c, "predict_sales", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.RawResponse(c, res)
}

func (h *SalesEchoHandler) RealtimeComparison(c echo.Context) error {
	res, err := h.compare.Realtime(c.Request().Context())
	if err != nil {
		return h.fail(c, "realtime_comparison", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *SalesEchoHandler) HypercareComparison(c echo.Context) error {
	date, verr := h.readDay(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.compare.Hypercare(c.Request().Context(), date)
	if err != nil {
		return h.fail(c, "hypercare_comparison", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler serves /healthz.
type HealthHandler struct {
	checks map[string]HealthCheck
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := map[string]string{"status": "ok"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body[name] = err.Error()
			continue
		}
		body[name] = "ok"
	}
	return c.JSON(status, body)
}
