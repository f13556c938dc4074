package client

import (
	"context"
	"sync"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
)

// fallbackMessage replaces the prediction text when a fetch fails. The
// quota soft path arrives from the server as a normal success body, so
// it never reaches this substitution.
const fallbackMessage = "The prediction could not be generated right now. Please try again later."

// State is what a view renders for the currently selected fixture.
type State struct {
	FixtureID string
	Loading   bool
	Text      string
}

// Orchestrator bridges fixture selection to the prediction endpoint.
// Each Select captures a generation token; a response is committed only
// when its token still matches, so a slow earlier request can never
// overwrite the result of a newer selection.
type Orchestrator struct {
	fetcher Fetcher
	store   *Store
	logger  *logging.Logger

	mu          sync.Mutex
	generation  uint64
	state       State
	subscribers []func(State)
	now         func() time.Time
}

func NewOrchestrator(fetcher Fetcher, store *Store, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Default()
	}

	return &Orchestrator{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe registers fn to run synchronously after every state commit.
func (o *Orchestrator) Subscribe(fn func(State)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribers = append(o.subscribers, fn)
}

// State returns a copy of the current display state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Select starts a prediction fetch for the fixture. Incomplete requests
// reset to a neutral state without any network activity; the reset still
// advances the generation so an in-flight fetch cannot resurrect the
// previous selection.
func (o *Orchestrator) Select(ctx context.Context, fixtureID string, req prediction.Request) {
	if fixtureID == "" || !req.Complete() {
		o.mu.Lock()
		o.generation++
		o.mu.Unlock()
		o.commit(0, State{}, prediction.Stored{}, false)
		return
	}

	o.mu.Lock()
	o.generation++
	token := o.generation
	o.state = State{FixtureID: fixtureID, Loading: true}
	subscribers := o.snapshotSubscribersLocked()
	loading := o.state
	o.mu.Unlock()

	for _, fn := range subscribers {
		fn(loading)
	}

	go func() {
		text, err := o.fetcher.FetchPrediction(ctx, req)
		if err != nil {
			o.logger.Warn("prediction fetch failed",
				"fixture_id", fixtureID,
				"error", err,
			)
			o.commit(token, State{FixtureID: fixtureID, Text: fallbackMessage}, prediction.Stored{}, false)
			return
		}

		record := prediction.Stored{
			FixtureID:     fixtureID,
			Date:          req.Date,
			LeagueCountry: req.LeagueCountry,
			LeagueName:    req.LeagueName,
			TeamHome:      req.TeamHome,
			TeamAway:      req.TeamAway,
			Prediction:    text,
			CreatedAt:     o.now(),
		}
		o.commit(token, State{FixtureID: fixtureID, Text: text}, record, true)
	}()
}

// commit applies a resolved state unless the request was superseded.
// token 0 is the synchronous neutral reset and always applies.
func (o *Orchestrator) commit(token uint64, state State, record prediction.Stored, storeRecord bool) {
	o.mu.Lock()
	if token != 0 && token != o.generation {
		o.mu.Unlock()
		o.logger.Debug("discarding superseded prediction response",
			"fixture_id", state.FixtureID,
		)
		return
	}
	o.state = state
	subscribers := o.snapshotSubscribersLocked()
	o.mu.Unlock()

	if storeRecord && o.store != nil {
		if err := o.store.SetPrediction(record); err != nil {
			o.logger.Warn("persist prediction failed", "fixture_id", record.FixtureID, "error", err)
		}
	}

	for _, fn := range subscribers {
		fn(state)
	}
}

func (o *Orchestrator) snapshotSubscribersLocked() []func(State) {
	subscribers := make([]func(State), len(o.subscribers))
	copy(subscribers, o.subscribers)
	return subscribers
}
