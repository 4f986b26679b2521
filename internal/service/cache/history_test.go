package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesPulse/internal/domain/models"
	pkgcache "SalesPulse/pkg/cache"
)

func newHistory(t *testing.T) (*HistoryCache, *pkgcache.MemoryCache) {
	t.Helper()
	store := pkgcache.NewMemoryCache(pkgcache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = store.Close() })
	return NewHistoryCache(store, nil, nil), store
}

func sampleAggregate() models.DailyAggregate {
	tb := models.NewTallyBuilder()
	tb.Add("Edisons", models.BucketMorning, 3)
	tb.Add("eBay", models.BucketEvening, 1)
	return models.DailyAggregate{Tally: tb.Build()}
}

func TestGetOrCompute_CachesResult(t *testing.T) {
	ctx := context.Background()
	h, _ := newHistory(t)

	var calls int
	compute := func(context.Context) (models.DailyAggregate, error) {
		calls++
		return sampleAggregate(), nil
	}

	first, err := GetOrCompute(ctx, h, "sales_2024-05-01", time.Minute, compute)
	require.NoError(t, err)
	second, err := GetOrCompute(ctx, h, "sales_2024-05-01", time.Minute, compute)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, second.Count("Edisons", models.BucketMorning))
	assert.Equal(t, first.Channels(), second.Channels())
	_, ok := second.Lookup("Edisons", models.BucketEvening)
	assert.False(t, ok, "absent cells survive the cache round trip")
}

func TestGetOrCompute_DoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	h, store := newHistory(t)
	boom := errors.New("upstream down")

	_, err := GetOrCompute(ctx, h, "sales_2024-05-01", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())

	got, err := GetOrCompute(ctx, h, "sales_2024-05-01", time.Minute, func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestGetOrCompute_CoalescesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	h, _ := newHistory(t)

	const callers = 8
	var (
		calls   int32
		started sync.WaitGroup
		done    sync.WaitGroup
	)
	started.Add(callers)
	release := make(chan struct{})

	compute := func(context.Context) ([]models.FlatOrderLine, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []models.FlatOrderLine{{OrderID: "L1", SalesChannel: "Kogan", OrderLineQty: 2}}, nil
	}

	results := make([][]models.FlatOrderLine, callers)
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			started.Done()
			rows, err := GetOrCompute(ctx, h, "data_2024-05-01_raw", time.Minute, compute)
			assert.NoError(t, err)
			results[i] = rows
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, rows := range results {
		require.Len(t, rows, 1)
		assert.Equal(t, "Kogan", rows[0].SalesChannel)
	}
}

type brokenStore struct {
	pkgcache.Service
}

func (brokenStore) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func TestGetOrCompute_BrokenStoreComputesDirectly(t *testing.T) {
	h := NewHistoryCache(brokenStore{}, nil, nil)

	got, err := GetOrCompute(context.Background(), h, "sales_2024-05-01", time.Minute, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestKeyKind(t *testing.T) {
	assert.Equal(t, "sales", keyKind("sales_2024-05-01"))
	assert.Equal(t, "sales_raw", keyKind("sales_2024-05-01_raw"))
	assert.Equal(t, "data_raw", keyKind("data_2024-05-01_raw"))
	assert.Equal(t, "prediction", keyKind("sales_prediction_2024-05-01_14_d7"))
}
