package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
	internalrepo "ShotTrace/internal/repository"
	"ShotTrace/internal/services/strokes"
	"ShotTrace/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFixture struct {
	proc    *RoundProcessor
	pub     *fakePublisher
	store   *fakeStore
	cache   *internalrepo.RoundCache
	metrics *fakeMetrics
}

func newProcessor(t *testing.T, backend string, opts ...ProcessorOption) processorFixture {
	t.Helper()
	mem := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mem.Close() })

	f := processorFixture{
		pub:     &fakePublisher{},
		store:   newFakeStore(),
		cache:   internalrepo.NewRoundCache(mem, time.Hour),
		metrics: newFakeMetrics(),
	}
	opts = append([]ProcessorOption{WithRoundCache(f.cache)}, opts...)
	analyzer := NewRoundAnalyzer(testCourse(), strokes.NewModel())
	f.proc = NewRoundProcessor(analyzer, f.pub, f.store, f.metrics, backend, opts...)
	return f
}

func roundInput(id string) models.RoundInput {
	events, samples := fullRound()
	return models.RoundInput{RoundID: id, Events: events, Samples: samples}
}

func TestProcessClickHouseBackend(t *testing.T) {
	f := newProcessor(t, BackendClickHouse)
	ctx := context.Background()

	a, err := f.proc.Process(ctx, roundInput("r1"))
	require.NoError(t, err)
	assert.Len(t, a.Shots, 5)
	assert.Same(t, a, f.store.rounds["r1"])
	assert.Empty(t, f.pub.published)
	assert.Equal(t, 1, f.metrics.analyzed[BackendClickHouse])
	assert.Equal(t, 5, f.metrics.shots)

	cached, err := f.cache.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, a.Summary.TotalSG, cached.Summary.TotalSG)

	// lock released after processing
	ok, err := f.cache.Lock(ctx, "r1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProcessKafkaBackend(t *testing.T) {
	f := newProcessor(t, BackendKafka)
	_, err := f.proc.Process(context.Background(), roundInput("r1"))
	require.NoError(t, err)
	require.Len(t, f.pub.published, 1)
	assert.Equal(t, "r1", f.pub.published[0].RoundID)
	assert.Empty(t, f.store.rounds)
}

func TestProcessRoundInProgress(t *testing.T) {
	f := newProcessor(t, BackendClickHouse)
	ctx := context.Background()
	ok, err := f.cache.Lock(ctx, "r1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.proc.Process(ctx, roundInput("r1"))
	assert.ErrorIs(t, err, ErrRoundInProgress)
	assert.Empty(t, f.store.rounds)
}

func TestProcessBackendFailureKeepsAnalysis(t *testing.T) {
	f := newProcessor(t, BackendClickHouse)
	f.store.err = errors.New("clickhouse down")

	a, err := f.proc.Process(context.Background(), roundInput("r1"))
	require.Error(t, err)
	require.NotNil(t, a)
	assert.Equal(t, 1, f.metrics.errCount("process"))

	cached, err := f.cache.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", cached.RoundID)
}

func TestProcessRejectsBadInput(t *testing.T) {
	f := newProcessor(t, BackendClickHouse)
	ctx := context.Background()

	_, err := f.proc.Process(ctx, models.RoundInput{})
	assert.Error(t, err)
	_, err = f.proc.Process(ctx, models.RoundInput{RoundID: "r1"})
	assert.Error(t, err)

	f = newProcessor(t, "s3")
	_, err = f.proc.Process(ctx, roundInput("r1"))
	assert.ErrorContains(t, err, "unknown backend")
}

func TestProcessStabilityFetch(t *testing.T) {
	fetcher := &fakeFetcher{windows: []models.StabilityWindow{{From: at(119), To: at(121), Score: 0.1}}}
	f := newProcessor(t, BackendClickHouse, WithStabilityFetcher(fetcher), WithFetchHalfWindow(2*time.Second))

	a, err := f.proc.Process(context.Background(), roundInput("r1"))
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
	assert.Len(t, fetcher.around, 5)
	assert.Equal(t, 0.92, a.Shots[2].StartState.Lie.Confidence)

	// supplied windows skip the fetch
	in := roundInput("r2")
	in.Stability = fetcher.windows
	_, err = f.proc.Process(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, fetcher.calls)
}

func TestProcessStabilityFetchFailureDegrades(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("pose service down")}
	f := newProcessor(t, BackendClickHouse, WithStabilityFetcher(fetcher))

	a, err := f.proc.Process(context.Background(), roundInput("r1"))
	require.NoError(t, err)
	assert.Len(t, a.Shots, 5)
	assert.Equal(t, 1, f.metrics.errCount("stability_fetch"))
}

func TestRoundQuery(t *testing.T) {
	mem := cache.NewMemoryCache()
	defer mem.Close()
	rc := internalrepo.NewRoundCache(mem, time.Hour)
	store := newFakeStore()
	store.rounds["r1"] = &models.RoundAnalysis{RoundID: "r1"}
	q := NewRoundQueryUseCase(rc, store)
	ctx := context.Background()

	a, err := q.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", a.RoundID)
	assert.Equal(t, 1, store.gets)

	// second read is served by the refilled cache
	_, err = q.GetRound(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.gets)

	_, err = q.GetRound(ctx, "missing")
	assert.ErrorIs(t, err, drepo.ErrRoundNotFound)

	_, err = q.GetRound(ctx, "")
	assert.Error(t, err)

	_, err = NewRoundQueryUseCase(rc, nil).GetRound(ctx, "nope")
	assert.ErrorIs(t, err, drepo.ErrRoundNotFound)
}

func TestKafkaRoundHandler(t *testing.T) {
	store := newFakeStore()
	m := newFakeMetrics()
	h := NewKafkaRoundHandler("round-analyses", store, m)
	ctx := context.Background()
	assert.Equal(t, "round-analyses", h.Topic())

	b, err := json.Marshal(models.RoundAnalysis{RoundID: "r1", AnalyzedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, h.Handle(ctx, b))
	assert.Contains(t, store.rounds, "r1")
	assert.Equal(t, 1, m.analyzed[BackendClickHouse])

	assert.Error(t, h.Handle(ctx, []byte("{")))
	assert.Equal(t, 1, m.errCount("consumer_unmarshal"))

	assert.Error(t, h.Handle(ctx, []byte(`{"shots":[]}`)))
	assert.Equal(t, 1, m.errCount("consumer_invalid"))

	store.err = errors.New("insert failed")
	assert.ErrorContains(t, h.Handle(ctx, b), "insert failed")
	assert.Equal(t, 1, m.errCount("consumer_store"))
}
