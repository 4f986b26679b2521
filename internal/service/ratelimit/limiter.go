// Package ratelimit throttles the endpoints that fan out to the order API.
package ratelimit

import (
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	xhttp "SalesPulse/pkg/http"
)

// Limiter keeps one token bucket per key.
type Limiter struct {
	mu  sync.Mutex
	m   map[string]*rate.Limiter
	now func() time.Time
}

func New() *Limiter { return NewWithClock(time.Now) }

// NewWithClock uses now as the time source.
func NewWithClock(now func() time.Time) *Limiter {
	return &Limiter{m: make(map[string]*rate.Limiter), now: now}
}

// Allow returns true if one token can be consumed for key. A key's bucket
// is sized on first use; later calls reuse it.
func (l *Limiter) Allow(key string, capacity, refillPerSec float64) bool {
	l.mu.Lock()
	lim, ok := l.m[key]
	if !ok {
		burst := int(capacity)
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(refillPerSec), burst)
		l.m[key] = lim
	}
	l.mu.Unlock()
	return lim.AllowN(l.now(), 1)
}

// Middleware limits each client IP per route. capacity <= 0 disables it.
func (l *Limiter) Middleware(capacity, refillPerSec float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if capacity <= 0 {
				return next(c)
			}
			if !l.Allow(c.Path()+"|"+c.RealIP(), capacity, refillPerSec) {
				return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many requests, slow down"))
			}
			return next(c)
		}
	}
}
