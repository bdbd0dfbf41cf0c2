package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/skywatcher-etl/internal/domain"
	"github.com/couchcryptid/skywatcher-etl/internal/observability"
	"github.com/couchcryptid/skywatcher-etl/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testFeed          = `{"hour":14,"minute":20,"left_hour":1,"left_minute":40,"data":[{"time":-1,"area":1,"weather":1},{"time":0,"area":1,"weather":7}]}`
	testFeedBadSlot   = `{"hour":14,"data":[{"time":5,"area":2,"weather":1}]}`
	testFeedMalformed = `not-json{{{`
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	index   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockLoader struct {
	mu       sync.Mutex
	loaded   []domain.WeatherReport
	err      error
	failures int // fail this many calls before succeeding
	calls    int
}

func (m *mockLoader) LoadBatch(_ context.Context, reports []domain.WeatherReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return m.err
	}
	if m.failures > 0 {
		m.failures--
		return errors.New("broker down")
	}
	m.loaded = append(m.loaded, reports...)
	return nil
}

func newPipeline(ext pipeline.BatchExtractor, ldr pipeline.BatchLoader) (*pipeline.Pipeline, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(16, slog.Default())
	return pipeline.New(ext, tfm, ldr, slog.Default(), metrics, 10), metrics
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{{makeRawEvent("feed-1", testFeed)}}}
	ldr := &mockLoader{}
	p, metrics := newPipeline(ext, ldr)

	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	report := ldr.loaded[0]
	assert.Equal(t, 14, report.CurrentHour)
	assert.Len(t, report.Forecasts, 2)
	assert.NotEmpty(t, report.ID)
	assert.False(t, report.ProcessedAt.IsZero())
	require.NoError(t, p.CheckReadiness(context.Background()))

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.FeedsConsumed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsProduced), 0)
	assert.InDelta(t, 14, testutil.ToFloat64(metrics.LatestReportHour), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 0, "gauge reset on exit")
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	ldr := &mockLoader{}
	p, _ := newPipeline(ext, ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SkipsUndecodableFeeds(t *testing.T) {
	var commits atomic.Int64
	commit := func(_ context.Context) error {
		commits.Add(1)
		return nil
	}

	malformed := makeRawEvent("bad-json", testFeedMalformed)
	malformed.Commit = commit
	badSlot := makeRawEvent("bad-slot", testFeedBadSlot)
	badSlot.Commit = commit

	ext := &mockExtractor{batches: [][]domain.RawEvent{{malformed, badSlot}}}
	ldr := &mockLoader{}
	p, metrics := newPipeline(ext, ldr)

	runFor(t, p, 500*time.Millisecond)

	assert.Empty(t, ldr.loaded)
	assert.Equal(t, int64(2), commits.Load(), "poison pills are committed")
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DecodeErrors.WithLabelValues(observability.ReasonMalformed)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DecodeErrors.WithLabelValues(observability.ReasonSlotRange)), 0)
}

func TestPipeline_Run_SkipsDuplicateFeeds(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{makeRawEvent("poll-1", testFeed), makeRawEvent("poll-2", testFeed)},
		{makeRawEvent("poll-3", testFeed)},
	}}
	ldr := &mockLoader{}
	p, metrics := newPipeline(ext, ldr)

	runFor(t, p, 500*time.Millisecond)

	assert.Len(t, ldr.loaded, 1)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DuplicateFeeds), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(metrics.FeedsConsumed), 0)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeRawEvent("feed-5", testFeed)
	raw.Topic = "raw-weather-feed"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p, _ := newPipeline(ext, ldr)

	runFor(t, p, 500*time.Millisecond)

	assert.True(t, commitCalled)
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commitCalled := false

	raw := makeRawEvent("feed-6", testFeed)
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}
	p, metrics := newPipeline(ext, ldr)

	runFor(t, p, 500*time.Millisecond)

	assert.False(t, commitCalled)
	assert.Error(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.ReportsProduced), 0)
}

func TestPipeline_Ingest(t *testing.T) {
	ldr := &mockLoader{}
	p, metrics := newPipeline(&mockExtractor{}, ldr)

	report, err := p.Ingest(context.Background(), makeRawEvent("http", testFeed))
	require.NoError(t, err)
	assert.Equal(t, 14, report.CurrentHour)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, report.ID, ldr.loaded[0].ID)
	require.NoError(t, p.CheckReadiness(context.Background()))

	_, err = p.Ingest(context.Background(), makeRawEvent("http", testFeed))
	require.ErrorIs(t, err, pipeline.ErrDuplicateFeed)

	_, err = p.Ingest(context.Background(), makeRawEvent("http", testFeedMalformed))
	require.ErrorIs(t, err, domain.ErrMalformedFeed)

	_, err = p.Ingest(context.Background(), makeRawEvent("http", testFeedBadSlot))
	var slotErr *domain.SlotIndexError
	require.ErrorAs(t, err, &slotErr)
	assert.Equal(t, domain.MiddleLaNoscea, slotErr.Region)

	assert.Len(t, ldr.loaded, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsProduced), 0)
}

func TestPipeline_Ingest_RetryAfterLoadFailure(t *testing.T) {
	ldr := &mockLoader{failures: 1}
	p, metrics := newPipeline(&mockExtractor{}, ldr)

	_, err := p.Ingest(context.Background(), makeRawEvent("http", testFeed))
	require.EqualError(t, err, "broker down")
	assert.Empty(t, ldr.loaded)

	report, err := p.Ingest(context.Background(), makeRawEvent("http", testFeed))
	require.NoError(t, err, "retry of an unpublished feed is not a duplicate")
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, report.ID, ldr.loaded[0].ID)
	assert.Equal(t, 2, ldr.calls)

	_, err = p.Ingest(context.Background(), makeRawEvent("http", testFeed))
	require.ErrorIs(t, err, pipeline.ErrDuplicateFeed)
	assert.Equal(t, 2, ldr.calls)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.DuplicateFeeds), 0)
}

func TestPipeline_Run_RedeliveryAfterLoadFailure(t *testing.T) {
	ext := &mockExtractor{batches: [][]domain.RawEvent{
		{makeRawEvent("poll-1", testFeed)},
		{makeRawEvent("poll-1", testFeed)},
	}}
	ldr := &mockLoader{failures: 1}
	p, metrics := newPipeline(ext, ldr)

	runFor(t, p, time.Second)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, 14, ldr.loaded[0].CurrentHour)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.DuplicateFeeds), 0)
	require.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Ingest_ConcurrentDuplicatesPublishOnce(t *testing.T) {
	ldr := &mockLoader{}
	p, metrics := newPipeline(&mockExtractor{}, ldr)

	var wg sync.WaitGroup
	var accepted, duplicates atomic.Int64
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Ingest(context.Background(), makeRawEvent("http", testFeed))
			switch {
			case err == nil:
				accepted.Add(1)
			case errors.Is(err, pipeline.ErrDuplicateFeed):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), accepted.Load())
	assert.Equal(t, int64(15), duplicates.Load())
	assert.Len(t, ldr.loaded, 1)
	assert.InDelta(t, 15, testutil.ToFloat64(metrics.DuplicateFeeds), 0)
}

func TestFanOut(t *testing.T) {
	failing := &mockLoader{err: errors.New("kafka down")}
	healthy := &mockLoader{}
	reports := []domain.WeatherReport{{ID: "report-1", CurrentHour: 8}}

	err := pipeline.FanOut(failing, healthy).LoadBatch(context.Background(), reports)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka down")
	assert.Equal(t, reports, healthy.loaded, "healthy loader still receives the batch")
}

// --- helpers ---

func makeRawEvent(key, payload string) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(payload),
	}
}
