package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/infrastructure/repository/memory"
	"github.com/kraftbet/insights-api/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generatorStub struct {
	mu    sync.Mutex
	calls atomic.Int32
	text  string
	err   error
	delay time.Duration
}

func (g *generatorStub) Generate(ctx context.Context, req prediction.Request) (string, error) {
	g.calls.Add(1)
	if g.delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(g.delay):
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

type archiveStub struct {
	mu      sync.Mutex
	records []prediction.ArchiveRecord
	err     error
}

func (a *archiveStub) Insert(_ context.Context, record prediction.ArchiveRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, record)
	return nil
}

func (a *archiveStub) ListRecent(_ context.Context, limit int) ([]prediction.ArchiveRecord, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	if limit > len(a.records) {
		limit = len(a.records)
	}
	return a.records[:limit], nil
}

func serviceRequest() prediction.Request {
	return prediction.Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}
}

func TestPredictionService_SecondIdenticalCallIsCached(t *testing.T) {
	t.Parallel()

	generator := &generatorStub{text: "Arsenal win"}
	service := NewPredictionService(memory.NewPredictionCache(time.Hour), generator, nil, logging.NewNop())

	first, err := service.Predict(context.Background(), serviceRequest())
	require.NoError(t, err)
	second, err := service.Predict(context.Background(), serviceRequest())
	require.NoError(t, err)

	assert.Equal(t, "Arsenal win", first)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), generator.calls.Load(), "second call must not reach the generator")
}

func TestPredictionService_ValidatesRequiredFields(t *testing.T) {
	t.Parallel()

	generator := &generatorStub{text: "unused"}
	service := NewPredictionService(memory.NewPredictionCache(time.Hour), generator, nil, logging.NewNop())

	req := serviceRequest()
	req.TeamHome = ""
	_, err := service.Predict(context.Background(), req)

	require.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, int32(0), generator.calls.Load(), "validation failure must not reach the generator")
}

func TestPredictionService_GenerationFailureIsNotCached(t *testing.T) {
	t.Parallel()

	generator := &generatorStub{err: errors.New("boom")}
	cache := memory.NewPredictionCache(time.Hour)
	service := NewPredictionService(cache, generator, nil, logging.NewNop())

	_, err := service.Predict(context.Background(), serviceRequest())
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len(), "failed generation must not populate the cache")

	generator.mu.Lock()
	generator.err = nil
	generator.text = "recovered"
	generator.mu.Unlock()

	text, err := service.Predict(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.Equal(t, "recovered", text)
}

func TestPredictionService_CoalescesConcurrentMisses(t *testing.T) {
	t.Parallel()

	generator := &generatorStub{text: "shared result", delay: 30 * time.Millisecond}
	service := NewPredictionService(memory.NewPredictionCache(time.Hour), generator, nil, logging.NewNop())

	const workers = 8
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	results := make([]string, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = service.Predict(context.Background(), serviceRequest())
		}(i)
	}

	close(start)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared result", results[i])
	}
	assert.Equal(t, int32(1), generator.calls.Load(), "concurrent misses must share one generation")
}

func TestPredictionService_ArchivesGeneratedPredictions(t *testing.T) {
	t.Parallel()

	generator := &generatorStub{text: "archived text"}
	archive := &archiveStub{}
	service := NewPredictionService(memory.NewPredictionCache(time.Hour), generator, archive, logging.NewNop())

	_, err := service.Predict(context.Background(), serviceRequest())
	require.NoError(t, err)

	require.Len(t, archive.records, 1)
	record := archive.records[0]
	assert.Equal(t, prediction.DeriveKey(serviceRequest()), record.CacheKey)
	assert.Equal(t, "archived text", record.Prediction)
	assert.Equal(t, "2025-03-10", record.MatchDate)
}

func TestPredictionService_ArchiveFailureDoesNotFailRequest(t *testing.T) {
	t.Parallel()

	generator := &generatorStub{text: "still fine"}
	archive := &archiveStub{err: errors.New("db down")}
	service := NewPredictionService(memory.NewPredictionCache(time.Hour), generator, archive, logging.NewNop())

	text, err := service.Predict(context.Background(), serviceRequest())
	require.NoError(t, err)
	assert.Equal(t, "still fine", text)
}

func TestPredictionService_ListRecentWithoutArchive(t *testing.T) {
	t.Parallel()

	service := NewPredictionService(memory.NewPredictionCache(time.Hour), &generatorStub{}, nil, logging.NewNop())
	_, err := service.ListRecent(context.Background(), 10)
	require.ErrorIs(t, err, ErrDependencyUnavailable)
}
