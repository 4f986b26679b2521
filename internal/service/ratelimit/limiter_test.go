package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestLimiter_RefillsOverTime(t *testing.T) {
	now := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })

	assert.True(t, l.Allow("k", 2, 1))
	assert.True(t, l.Allow("k", 2, 1))
	assert.False(t, l.Allow("k", 2, 1))
	assert.True(t, l.Allow("other", 2, 1), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("k", 2, 1))
	assert.False(t, l.Allow("k", 2, 1))

	// a long idle period refills only up to capacity
	now = now.Add(time.Minute)
	assert.True(t, l.Allow("k", 2, 1))
	assert.True(t, l.Allow("k", 2, 1))
	assert.False(t, l.Allow("k", 2, 1))
}

func TestLimiter_FractionalCapacityStillAdmitsOne(t *testing.T) {
	now := time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
	l := NewWithClock(func() time.Time { return now })

	assert.True(t, l.Allow("k", 0.5, 0.1))
	assert.False(t, l.Allow("k", 0.5, 0.1))
	now = now.Add(10 * time.Second)
	assert.True(t, l.Allow("k", 0.5, 0.1))
}

func TestLimiter_Middleware(t *testing.T) {
	e := echo.New()
	l := NewWithClock(func() time.Time { return time.Unix(0, 0) })
	e.GET("/api/predict-sales", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, l.Middleware(1, 0.01))

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/predict-sales", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
