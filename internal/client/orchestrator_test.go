package client

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
)

// gatedFetcher blocks each fetch until its release channel is closed,
// so tests control resolution order precisely.
type gatedFetcher struct {
	mu       sync.Mutex
	gates    map[string]chan struct{}
	results  map[string]string
	failures map[string]error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:    make(map[string]chan struct{}),
		results:  make(map[string]string),
		failures: make(map[string]error),
	}
}

func (f *gatedFetcher) expect(home, text string) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[home] = gate
	f.results[home] = text
	f.mu.Unlock()
	return gate
}

func (f *gatedFetcher) FetchPrediction(ctx context.Context, req prediction.Request) (string, error) {
	f.mu.Lock()
	gate := f.gates[req.TeamHome]
	text := f.results[req.TeamHome]
	failure := f.failures[req.TeamHome]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if failure != nil {
		return "", failure
	}
	return text, nil
}

func requestFor(home string) prediction.Request {
	return prediction.Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      home,
		TeamAway:      "Chelsea",
	}
}

// waitForState polls until the predicate holds or the deadline passes.
func waitForState(t *testing.T, o *Orchestrator, predicate func(State) bool) State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state := o.State()
		if predicate(state) {
			return state
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("state predicate never satisfied, last state: %+v", o.State())
	return State{}
}

func TestOrchestrator_IncompleteSelectionIsNeutralNoop(t *testing.T) {
	fetcher := newGatedFetcher()
	o := NewOrchestrator(fetcher, nil, logging.NewNop())

	req := requestFor("Arsenal")
	req.LeagueName = ""
	o.Select(context.Background(), "fixture-a", req)

	state := o.State()
	if state.Loading || state.Text != "" || state.FixtureID != "" {
		t.Fatalf("expected neutral state, got %+v", state)
	}
}

func TestOrchestrator_SuccessWritesStateAndStore(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.expect("Arsenal", "Arsenal in a tight one")
	close(fetcher.gates["Arsenal"])

	store := NewStore(filepath.Join(t.TempDir(), "predictions.json"), logging.NewNop())
	o := NewOrchestrator(fetcher, store, logging.NewNop())

	o.Select(context.Background(), "fixture-a", requestFor("Arsenal"))

	state := waitForState(t, o, func(s State) bool { return !s.Loading && s.Text != "" })
	if state.Text != "Arsenal in a tight one" {
		t.Fatalf("unexpected text: %q", state.Text)
	}

	record, ok := store.GetByFixtureID("fixture-a")
	if !ok {
		t.Fatal("expected stored record for fixture-a")
	}
	if record.Prediction != "Arsenal in a tight one" {
		t.Fatalf("unexpected stored prediction: %q", record.Prediction)
	}
	if record.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestOrchestrator_DiscardsSupersededResponse(t *testing.T) {
	fetcher := newGatedFetcher()
	gateA := fetcher.expect("Arsenal", "stale result for A")
	gateB := fetcher.expect("Liverpool", "fresh result for B")

	store := NewStore(filepath.Join(t.TempDir(), "predictions.json"), logging.NewNop())
	o := NewOrchestrator(fetcher, store, logging.NewNop())

	// A is selected first but resolves last.
	o.Select(context.Background(), "fixture-a", requestFor("Arsenal"))
	o.Select(context.Background(), "fixture-b", requestFor("Liverpool"))

	close(gateB)
	waitForState(t, o, func(s State) bool { return s.FixtureID == "fixture-b" && !s.Loading })

	close(gateA)
	// Give the superseded goroutine time to attempt its commit.
	time.Sleep(50 * time.Millisecond)

	state := o.State()
	if state.FixtureID != "fixture-b" || state.Text != "fresh result for B" {
		t.Fatalf("superseded response overwrote state: %+v", state)
	}
	if _, ok := store.GetByFixtureID("fixture-a"); ok {
		t.Fatal("superseded response must not be stored")
	}
}

func TestOrchestrator_NeutralResetSupersedesInFlightFetch(t *testing.T) {
	fetcher := newGatedFetcher()
	gateA := fetcher.expect("Arsenal", "stale result for A")

	store := NewStore(filepath.Join(t.TempDir(), "predictions.json"), logging.NewNop())
	o := NewOrchestrator(fetcher, store, logging.NewNop())

	o.Select(context.Background(), "fixture-a", requestFor("Arsenal"))

	// Deselecting by switching to an incomplete fixture must invalidate
	// the fetch still running for fixture-a.
	incomplete := requestFor("Arsenal")
	incomplete.LeagueName = ""
	o.Select(context.Background(), "fixture-a", incomplete)

	close(gateA)
	time.Sleep(50 * time.Millisecond)

	state := o.State()
	if state.FixtureID != "" || state.Loading || state.Text != "" {
		t.Fatalf("in-flight response overwrote the neutral reset: %+v", state)
	}
	if _, ok := store.GetByFixtureID("fixture-a"); ok {
		t.Fatal("deselected fixture must not be stored")
	}
}

func TestOrchestrator_FailureSubstitutesFallback(t *testing.T) {
	fetcher := newGatedFetcher()
	gate := fetcher.expect("Arsenal", "")
	fetcher.failures["Arsenal"] = errors.New("connection refused")
	close(gate)

	o := NewOrchestrator(fetcher, nil, logging.NewNop())
	o.Select(context.Background(), "fixture-a", requestFor("Arsenal"))

	state := waitForState(t, o, func(s State) bool { return !s.Loading && s.Text != "" })
	if state.Text != fallbackMessage {
		t.Fatalf("expected fallback message, got %q", state.Text)
	}
}

func TestOrchestrator_NotifiesSubscribersOnCommit(t *testing.T) {
	fetcher := newGatedFetcher()
	fetcher.expect("Arsenal", "notified text")
	close(fetcher.gates["Arsenal"])

	o := NewOrchestrator(fetcher, nil, logging.NewNop())

	var mu sync.Mutex
	var seen []State
	o.Subscribe(func(s State) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	o.Select(context.Background(), "fixture-a", requestFor("Arsenal"))
	waitForState(t, o, func(s State) bool { return !s.Loading && s.Text != "" })

	mu.Lock()
	defer mu.Unlock()
	if len(seen) < 2 {
		t.Fatalf("expected loading and resolved notifications, got %d", len(seen))
	}
	if !seen[0].Loading {
		t.Fatalf("first notification should be the loading state, got %+v", seen[0])
	}
	last := seen[len(seen)-1]
	if last.Loading || last.Text != "notified text" {
		t.Fatalf("last notification should carry the resolved text, got %+v", last)
	}
}
