package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SalesPulse/internal/domain/models"
	pkgcache "SalesPulse/pkg/cache"
)

type fakePublisher struct {
	mu      sync.Mutex
	batches [][]models.RedFlagAlert
	err     error
	// onFail runs before a failed publish returns.
	onFail func()
}

func (p *fakePublisher) PublishRedFlags(_ context.Context, alerts []models.RedFlagAlert) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		if p.onFail != nil {
			p.onFail()
		}
		return p.err
	}
	p.batches = append(p.batches, alerts)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// ctxLocks fails deletes on a done context, like a network-backed store.
type ctxLocks struct {
	pkgcache.Service
}

func (l ctxLocks) Delete(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.Service.Delete(ctx, keys...)
}

func (p *fakePublisher) published() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.batches {
		n += len(b)
	}
	return n
}

func findRow(t *testing.T, r *models.ComparisonReport, name string) models.GroupComparison {
	t.Helper()
	for _, g := range r.Groups {
		if g.Name == name {
			return g
		}
	}
	t.Fatalf("row %q not in report", name)
	return models.GroupComparison{}
}

func seedRealtime(f *fixture) {
	// benchmark: Wednesday 2024-05-01
	f.src.add("2024-05-01", orders("Edisons", at("2024-05-01", 16, 0), 10)...)
	f.src.add("2024-05-01", orders("Mytopia", at("2024-05-01", 16, 0), 2)...)
	f.src.add("2024-05-01", orders("Edisons", at("2024-05-01", 23, 0), 6)...)
	// today so far
	f.src.add("2024-05-08", orders("Edisons", at("2024-05-08", 16, 0), 4)...)
	f.src.add("2024-05-08", orders("Mytopia", at("2024-05-08", 16, 0), 3)...)
}

func TestRealtime_ComparesAgainstSameWeekdayLastWeek(t *testing.T) {
	f := newFixture(t)
	seedRealtime(f)
	pub := &fakePublisher{}
	uc := NewComparisonUseCase(f.sales, pub, f.store, time.Hour, nil, nil)

	report, err := uc.Realtime(context.Background())
	require.NoError(t, err)

	assert.Equal(t, KindRealtime, report.Kind)
	assert.Equal(t, "2024-05-08", report.Day)
	assert.Equal(t, "2024-05-01", report.BenchmarkDay)
	require.NotNil(t, report.CurrentHour)
	assert.Equal(t, 18, *report.CurrentHour)
	assert.Equal(t, "Website", report.Groups[0].Name)

	web := findRow(t, report, "Website").Cells[models.BucketAfternoon]
	assert.Equal(t, 7, web.Actual)
	assert.Equal(t, 12, web.Benchmark)
	assert.Equal(t, "-41.67%", web.PercentDiff)
	assert.False(t, web.RedFlag)

	edisons := findRow(t, report, "Edisons")
	assert.Equal(t, "-60.00%", edisons.Cells[models.BucketAfternoon].PercentDiff)
	assert.True(t, edisons.Cells[models.BucketAfternoon].RedFlag)

	late := edisons.Cells[models.BucketLate]
	assert.False(t, late.Started)
	assert.Empty(t, late.PercentDiff)
	assert.False(t, late.RedFlag, "buckets that have not opened are never flagged")

	mytopia := findRow(t, report, "Mytopia").Cells[models.BucketAfternoon]
	assert.Equal(t, "50.00%", mytopia.PercentDiff)

	assert.Equal(t, 1, report.RedFlags)
	assert.Equal(t, 1, pub.published())
}

func TestRealtime_PublishesEachFlagOnce(t *testing.T) {
	f := newFixture(t)
	seedRealtime(f)
	pub := &fakePublisher{}
	uc := NewComparisonUseCase(f.sales, pub, f.store, time.Hour, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := uc.Realtime(context.Background())
		require.NoError(t, err)
	}
	require.Len(t, pub.batches, 1)
	alert := pub.batches[0][0]
	assert.Equal(t, "Edisons", alert.Group)
	assert.Equal(t, "3PM - 5PM", alert.Bucket)
	assert.Equal(t, KindRealtime, alert.Kind)
	assert.NotEmpty(t, alert.ID)
}

func TestRealtime_PublishFailureDoesNotFailReport(t *testing.T) {
	f := newFixture(t)
	seedRealtime(f)
	pub := &fakePublisher{err: errors.New("broker down")}
	uc := NewComparisonUseCase(f.sales, pub, f.store, time.Hour, nil, nil)

	report, err := uc.Realtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.RedFlags)

	// the dedup lock was released, so the next poll retries
	pub.err = nil
	_, err = uc.Realtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.published())
}

func TestRealtime_PublishFailureReleasesLocksAfterCallerCancels(t *testing.T) {
	f := newFixture(t)
	seedRealtime(f)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pub := &fakePublisher{err: errors.New("broker down"), onFail: cancel}
	uc := NewComparisonUseCase(f.sales, pub, ctxLocks{f.store}, time.Hour, nil, nil)

	_, err := uc.Realtime(ctx)
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	pub.err = nil
	_, err = uc.Realtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, pub.published(), "the failed alert is retried on the next poll")
}

func TestRealtime_BucketInProgressIsNotFlagged(t *testing.T) {
	var mu sync.Mutex
	now := at("2024-05-08", 18, 5)
	f := newFixtureAt(t, func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	})
	f.src.add("2024-05-01", orders("Edisons", at("2024-05-01", 19, 0), 20)...)
	f.src.add("2024-05-08", order("Edisons", at("2024-05-08", 18, 2)))

	pub := &fakePublisher{}
	uc := NewComparisonUseCase(f.sales, pub, f.store, time.Hour, nil, nil)

	report, err := uc.Realtime(context.Background())
	require.NoError(t, err)

	for _, name := range []string{"Website", "Edisons"} {
		cell := findRow(t, report, name).Cells[models.BucketEvening]
		assert.True(t, cell.Started, name)
		assert.Equal(t, 1, cell.Actual, name)
		assert.Equal(t, 20, cell.Benchmark, name)
		assert.Equal(t, "-95.00%", cell.PercentDiff, name)
		assert.False(t, cell.RedFlag, name)
	}
	assert.Equal(t, 0, report.RedFlags)
	assert.Equal(t, 0, pub.published())

	// once the bucket closes the shortfall is raised
	mu.Lock()
	now = at("2024-05-08", 22, 10)
	mu.Unlock()
	report, err = uc.Realtime(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.RedFlags)
	assert.Equal(t, 2, pub.published())
	assert.True(t, findRow(t, report, "Edisons").Cells[models.BucketEvening].RedFlag)
}

func TestHypercare_ReviewsWholeDay(t *testing.T) {
	f := newFixture(t)
	f.src.add("2024-04-30", orders("Kogan", at("2024-04-30", 23, 30), 4)...)
	f.src.add("2024-05-07", order("Kogan", at("2024-05-07", 23, 30)))

	uc := NewComparisonUseCase(f.sales, nil, f.store, time.Hour, nil, nil)
	report, err := uc.Hypercare(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, KindHypercare, report.Kind)
	assert.Equal(t, "2024-05-07", report.Day)
	assert.Equal(t, "2024-04-30", report.BenchmarkDay)
	assert.Nil(t, report.CurrentHour)

	late := findRow(t, report, "Kogan").Cells[models.BucketLate]
	assert.True(t, late.Started)
	assert.Equal(t, "-75.00%", late.PercentDiff)
	assert.True(t, late.RedFlag)
	assert.Equal(t, 1, report.RedFlags)
}
