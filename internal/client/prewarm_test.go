package client

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
)

type mapFetcher struct {
	mu       sync.Mutex
	byHome   map[string]string
	failures map[string]error
}

func (f *mapFetcher) FetchPrediction(_ context.Context, req prediction.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[req.TeamHome]; err != nil {
		return "", err
	}
	return f.byHome[req.TeamHome], nil
}

func TestPrewarmer_WarmsAllFixtures(t *testing.T) {
	fetcher := &mapFetcher{byHome: map[string]string{
		"Arsenal":   "prediction a",
		"Liverpool": "prediction b",
		"Everton":   "prediction c",
	}}
	store := NewStore(filepath.Join(t.TempDir(), "predictions.json"), logging.NewNop())
	prewarmer := NewPrewarmer(fetcher, store, logging.NewNop(), 2)

	warmed, err := prewarmer.Warm(context.Background(), []Fixture{
		{ID: "f1", Request: requestFor("Arsenal")},
		{ID: "f2", Request: requestFor("Liverpool")},
		{ID: "f3", Request: requestFor("Everton")},
	})
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if warmed != 3 {
		t.Fatalf("expected 3 warmed fixtures, got %d", warmed)
	}
	if store.Len() != 3 {
		t.Fatalf("expected 3 stored records, got %d", store.Len())
	}
}

func TestPrewarmer_SkipsFailuresAndIncompleteFixtures(t *testing.T) {
	fetcher := &mapFetcher{
		byHome:   map[string]string{"Arsenal": "prediction a"},
		failures: map[string]error{"Liverpool": errors.New("boom")},
	}
	store := NewStore(filepath.Join(t.TempDir(), "predictions.json"), logging.NewNop())
	prewarmer := NewPrewarmer(fetcher, store, logging.NewNop(), 2)

	incomplete := requestFor("Everton")
	incomplete.Date = ""

	warmed, err := prewarmer.Warm(context.Background(), []Fixture{
		{ID: "f1", Request: requestFor("Arsenal")},
		{ID: "f2", Request: requestFor("Liverpool")},
		{ID: "f3", Request: incomplete},
	})
	if err != nil {
		t.Fatalf("warm: %v", err)
	}
	if warmed != 1 {
		t.Fatalf("expected 1 warmed fixture, got %d", warmed)
	}
	if _, ok := store.GetByFixtureID("f2"); ok {
		t.Fatal("failed fetch must not be stored")
	}
}
