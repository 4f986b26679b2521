package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"SalesPulse/internal/domain/models"
	drepo "SalesPulse/internal/domain/repository"
	hcache "SalesPulse/internal/service/cache"
	"SalesPulse/internal/services/tally"
	pkgcache "SalesPulse/pkg/cache"
	"SalesPulse/pkg/util"
)

var sydney = mustLoad("Australia/Sydney")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// 2024-05-08 is a Wednesday; AEST (UTC+10) with no DST in May.
var testNow = time.Date(2024, 5, 8, 18, 30, 0, 0, sydney)

type fakeSource struct {
	mu      sync.Mutex
	byDay   map[string][]models.OrderRecord
	calls   map[string]int
	queries []models.OrderQuery
	fail    bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{byDay: map[string][]models.OrderRecord{}, calls: map[string]int{}}
}

func (f *fakeSource) FetchOrders(_ context.Context, q models.OrderQuery) ([]models.OrderRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	day := q.From.In(sydney).Format(tally.DayLayout)
	f.calls[day]++
	f.queries = append(f.queries, q)
	if f.fail {
		return nil, fmt.Errorf("%w: connection reset", drepo.ErrSourceUnavailable)
	}
	return f.byDay[day], nil
}

func (f *fakeSource) add(day string, orders ...models.OrderRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byDay[day] = append(f.byDay[day], orders...)
}

func (f *fakeSource) callsFor(day string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[day]
}

func (f *fakeSource) setFail(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = fail
}

var orderSeq int

// order places one single-line order on channel at a local wall time.
func order(channel string, local time.Time) models.OrderRecord {
	orderSeq++
	id := fmt.Sprintf("N%d", orderSeq)
	return models.OrderRecord{
		OrderID:       id,
		OrderStatus:   "Dispatched",
		SalesChannel:  channel,
		DatePlaced:    local.UTC(),
		DatePlacedRaw: util.FormatUpstream(local),
		Lines:         []models.OrderLine{{OrderLineID: id + "-1", SKU: "LAMP", Quantity: 1}},
	}
}

// orders repeats order n times at the same wall time.
func orders(channel string, local time.Time, n int) []models.OrderRecord {
	out := make([]models.OrderRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, order(channel, local))
	}
	return out
}

func at(day string, hour, minute int) time.Time {
	d, err := util.ParseDate(day, sydney)
	if err != nil {
		panic(err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, sydney)
}

type fixture struct {
	src   *fakeSource
	store *pkgcache.MemoryCache
	cache *hcache.HistoryCache
	sales *SalesUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, func() time.Time { return testNow })
}

func newFixtureAt(t *testing.T, clock func() time.Time) *fixture {
	t.Helper()
	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	src := newFakeSource()
	hc := hcache.NewHistoryCache(store, nil, nil)
	sales := NewSalesUseCase(src, hc, SalesConfig{
		Location:   sydney,
		Channels:   []string{"Edisons", "Mytopia", "eBay"},
		SalesTTL:   10 * time.Minute,
		SummaryTTL: 10 * time.Minute,
		RawTTL:     5 * time.Minute,
	}, nil, nil, WithClock(clock))
	return &fixture{src: src, store: store, cache: hc, sales: sales}
}
