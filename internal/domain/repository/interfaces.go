package repository

import (
	"context"
	"errors"

	"SalesPulse/internal/domain/models"
)

// ErrSourceUnavailable marks a failed upstream fetch (transport, status,
// decode or API-level error). It is never returned for an empty order list.
var ErrSourceUnavailable = errors.New("order source unavailable")

// OrderSource fetches raw orders from the upstream order API.
type OrderSource interface {
	FetchOrders(ctx context.Context, q models.OrderQuery) ([]models.OrderRecord, error)
}

// AlertPublisher ships red-flag alerts to downstream alerting.
type AlertPublisher interface {
	PublishRedFlags(ctx context.Context, alerts []models.RedFlagAlert) error
	Close() error
}

type Metrics interface {
	RecordUpstreamCall(action, result string)
	RecordSkipped(reason string, n int)
	RecordCache(kind, result string)
	RecordRedFlag(group, bucket string)
	RecordLatency(op string, seconds float64)
}
