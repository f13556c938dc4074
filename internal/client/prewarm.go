package client

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
	ants "github.com/panjf2000/ants/v2"
)

const defaultPrewarmWorkers = 4

// Fixture pairs a fixture identity with the fields a prediction request
// needs.
type Fixture struct {
	ID      string
	Request prediction.Request
}

// Prewarmer bulk-fetches predictions for a day's fixtures on a worker
// pool and stores the results, so selecting a fixture later renders
// instantly.
type Prewarmer struct {
	fetcher Fetcher
	store   *Store
	logger  *logging.Logger
	workers int
}

func NewPrewarmer(fetcher Fetcher, store *Store, logger *logging.Logger, workers int) *Prewarmer {
	if logger == nil {
		logger = logging.Default()
	}
	if workers <= 0 {
		workers = defaultPrewarmWorkers
	}

	return &Prewarmer{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		workers: workers,
	}
}

// Warm fetches every fixture's prediction and returns how many were
// stored. Individual failures are logged and skipped.
func (p *Prewarmer) Warm(ctx context.Context, fixtures []Fixture) (int, error) {
	if len(fixtures) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(p.workers)
	if err != nil {
		return 0, fmt.Errorf("create prewarm pool: %w", err)
	}
	defer pool.Release()

	var warmed atomic.Int32
	var wg sync.WaitGroup
	for _, fixture := range fixtures {
		fixture := fixture
		if fixture.ID == "" || !fixture.Request.Complete() {
			p.logger.Warn("skipping incomplete fixture in prewarm", "fixture_id", fixture.ID)
			continue
		}

		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			text, fetchErr := p.fetcher.FetchPrediction(ctx, fixture.Request)
			if fetchErr != nil {
				p.logger.Warn("prewarm fetch failed", "fixture_id", fixture.ID, "error", fetchErr)
				return
			}

			record := prediction.Stored{
				FixtureID:     fixture.ID,
				Date:          fixture.Request.Date,
				LeagueCountry: fixture.Request.LeagueCountry,
				LeagueName:    fixture.Request.LeagueName,
				TeamHome:      fixture.Request.TeamHome,
				TeamAway:      fixture.Request.TeamAway,
				Prediction:    text,
			}
			if storeErr := p.store.SetPrediction(record); storeErr != nil {
				p.logger.Warn("prewarm persist failed", "fixture_id", fixture.ID, "error", storeErr)
				return
			}
			warmed.Add(1)
		}); err != nil {
			wg.Done()
			p.logger.Warn("submit prewarm task failed", "fixture_id", fixture.ID, "error", err)
		}
	}

	wg.Wait()
	return int(warmed.Load()), nil
}
