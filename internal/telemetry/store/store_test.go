package store

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/backend/internal/telemetry"
	"restaurant-pos/backend/internal/telemetry/domain"
)

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := New(t.TempDir(), Options{RecentLimit: limit})
	require.NoError(t, err)
	return s
}

func TestRecordEvent_CountsByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordEvent(ctx, "view_category", map[string]any{"category": "drinks"}))
	}
	require.NoError(t, s.RecordEvent(ctx, "add_to_order", nil))

	data := s.EventData(ctx)
	assert.Equal(t, 3, data.Counts["view_category"])
	assert.Equal(t, 1, data.Counts["add_to_order"])
	assert.Equal(t, 4, data.Total)
	require.Len(t, data.Recent, 4)
	assert.Equal(t, "add_to_order", data.Recent[0].Name, "recent is newest first")
	assert.False(t, data.Recent[0].Timestamp.IsZero())
}

func TestRecordEvent_NameRequired(t *testing.T) {
	s := newTestStore(t, 0)
	assert.ErrorIs(t, s.RecordEvent(context.Background(), "", nil), ErrNameRequired)
	assert.Equal(t, 0, s.EventData(context.Background()).Total)
}

func TestEmptyStore_ReadsEmptyAggregates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	ev := s.EventData(ctx)
	assert.NotNil(t, ev.Counts)
	assert.NotNil(t, ev.Recent)
	assert.Equal(t, 0, s.PageViews(ctx).Total)
	assert.Equal(t, 0, s.ErrorData(ctx).Total)
	assert.NotNil(t, s.PerformanceData(ctx, domain.PerformanceFilter{}).Metrics)
}

func TestRecent_IsBounded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 5)
	for i := 0; i < 12; i++ {
		require.NoError(t, s.RecordPageView(ctx, domain.PageView{Path: "/menu"}))
	}
	data := s.PageViews(ctx)
	assert.Equal(t, 12, data.Counts["/menu"])
	assert.Equal(t, 12, data.Total)
	assert.Len(t, data.Recent, 5)
}

func TestCorruptFile_TreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, eventsFile), []byte("{not json"), 0o644))
	s, err := New(dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, 0, s.EventData(ctx).Total)
	require.NoError(t, s.RecordEvent(ctx, "view_category", nil))
	assert.Equal(t, 1, s.EventData(ctx).Counts["view_category"])
}

func TestWriteFailure_IsSwallowed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir, Options{})
	require.NoError(t, err)
	// A directory in place of the target file makes rename fail.
	require.NoError(t, os.Mkdir(filepath.Join(dir, errorsFile), 0o755))

	assert.NoError(t, s.RecordError(ctx, domain.ErrorReport{Message: "boom"}))
}

func TestConcurrentWrites_MonotonicCounts(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 10)
	const writers, perWriter = 8, 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = s.RecordEvent(ctx, "view_category", nil)
			}
		}()
	}
	last := 0
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	for {
		n := s.EventData(ctx).Counts["view_category"]
		assert.GreaterOrEqual(t, n, last, "count must never decrease")
		last = n
		select {
		case <-done:
			final := s.EventData(ctx).Counts["view_category"]
			assert.GreaterOrEqual(t, final, last)
			assert.LessOrEqual(t, final, writers*perWriter)
			assert.Positive(t, final)
			return
		default:
		}
	}
}

func TestRecordPerformanceTiming_StatsAndFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	require.NoError(t, s.RecordPerformanceTiming(ctx, domain.PerformanceTiming{
		Name: "page_load", Path: "/menu", Metrics: map[string]float64{"ttfb": 100, "lcp": 1000},
	}))
	require.NoError(t, s.RecordPerformanceTiming(ctx, domain.PerformanceTiming{
		Name: "page_load", Path: "/orders", Metrics: map[string]float64{"ttfb": 300},
	}))
	require.NoError(t, s.RecordPerformanceTiming(ctx, domain.PerformanceTiming{
		Path: "/kitchen", Metrics: map[string]float64{"ttfb": 50},
	}))

	all := s.PerformanceData(ctx, domain.PerformanceFilter{})
	assert.Equal(t, 3, all.Total)
	assert.Equal(t, 1, all.Counts["/kitchen"], "empty name falls back to path")
	ttfb := all.Metrics["page_load"]["ttfb"]
	assert.Equal(t, domain.MetricStats{Count: 2, Sum: 400, Min: 100, Max: 300, Avg: 200}, ttfb)

	byName := s.PerformanceData(ctx, domain.PerformanceFilter{Name: "page_load"})
	assert.Equal(t, 2, byName.Total)
	assert.Len(t, byName.Recent, 2)
	assert.NotContains(t, byName.Metrics, "/kitchen")

	byPath := s.PerformanceData(ctx, domain.PerformanceFilter{Name: "page_load", Path: "/menu"})
	require.Len(t, byPath.Recent, 1)
	assert.Equal(t, "/menu", byPath.Recent[0].Path)

	assert.ErrorIs(t, s.RecordPerformanceTiming(ctx, domain.PerformanceTiming{Name: "x"}), ErrMetricsRequired)
	assert.ErrorIs(t, s.RecordPerformanceTiming(ctx, domain.PerformanceTiming{Metrics: map[string]float64{"a": 1}}), ErrNameRequired)
}

func TestRecordError_KeyTruncated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, 0)
	long := ""
	for i := 0; i < 150; i++ {
		long += "x"
	}
	require.NoError(t, s.RecordError(ctx, domain.ErrorReport{Message: long, Stack: "at main"}))
	assert.ErrorIs(t, s.RecordError(ctx, domain.ErrorReport{}), ErrMessageRequired)

	data := s.ErrorData(ctx)
	assert.Equal(t, 1, data.Counts[long[:100]])
	require.Len(t, data.Recent, 1)
	assert.Equal(t, long, data.Recent[0].Message, "the stored report keeps the full message")
}

type captureEmitter struct {
	mu   sync.Mutex
	recs []*domain.Record
}

func (c *captureEmitter) Emit(_ context.Context, rec *domain.Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func TestRecord_ForwardsToEmitter(t *testing.T) {
	ctx := context.Background()
	capture := &captureEmitter{}
	async := telemetry.NewAsync(capture, nil)
	s, err := New(t.TempDir(), Options{Emitter: async})
	require.NoError(t, err)

	require.NoError(t, s.RecordPageView(ctx, domain.PageView{Path: "/menu", Referrer: "https://example.com"}))
	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, async.Drain(drainCtx))

	require.Len(t, capture.recs, 1)
	rec := capture.recs[0]
	assert.Equal(t, domain.KindPageView, rec.Kind)
	assert.Equal(t, "/menu", rec.Name)
	assert.JSONEq(t, `{"path":"/menu","referrer":"https://example.com","timestamp":"`+rec.Timestamp.Format(time.RFC3339Nano)+`"}`, string(rec.Payload))
}
