package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
)

func testRequest() prediction.Request {
	return prediction.Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}
}

func TestPredictionCache_SetGet(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(time.Hour)
	cache.Set(context.Background(), testRequest(), "X")

	text, ok := cache.Get(context.Background(), testRequest())
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if text != "X" {
		t.Fatalf("got %q, want X", text)
	}
}

func TestPredictionCache_HitAcrossCaseAndWhitespaceVariants(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(time.Hour)
	cache.Set(context.Background(), testRequest(), "X")

	variant := prediction.Request{
		Date:          "2025-03-10",
		LeagueCountry: " ENGLAND ",
		LeagueName:    "premier   league",
		TeamHome:      "arsenal",
		TeamAway:      "Chelsea ",
	}
	if _, ok := cache.Get(context.Background(), variant); !ok {
		t.Fatalf("expected hit for normalized-equal request")
	}
}

func TestPredictionCache_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(6 * time.Hour)
	current := time.Unix(1741564800, 0)
	cache.now = func() time.Time { return current }

	cache.Set(context.Background(), testRequest(), "X")

	current = current.Add(6*time.Hour - time.Second)
	if _, ok := cache.Get(context.Background(), testRequest()); !ok {
		t.Fatalf("expected hit just before TTL")
	}

	current = current.Add(2 * time.Second)
	if _, ok := cache.Get(context.Background(), testRequest()); ok {
		t.Fatalf("expected miss after TTL")
	}
	if got := cache.Len(); got != 0 {
		t.Fatalf("stale entry not deleted, len = %d", got)
	}
}

func TestPredictionCache_StaleSweepKeepsRefreshedEntry(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(time.Hour)
	base := time.Unix(1741564800, 0)
	var offset atomic.Int64
	cache.now = func() time.Time { return base.Add(time.Duration(offset.Load())) }

	cache.Set(context.Background(), testRequest(), "old")
	offset.Store(int64(2 * time.Hour))

	// Readers racing a refresh must never delete the fresh entry.
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.Get(context.Background(), testRequest())
		}()
	}
	cache.Set(context.Background(), testRequest(), "fresh")
	wg.Wait()

	text, ok := cache.Get(context.Background(), testRequest())
	if !ok {
		t.Fatal("refreshed entry deleted by a concurrent stale sweep")
	}
	if text != "fresh" {
		t.Fatalf("got %q, want fresh", text)
	}
}

func TestPredictionCache_SetOverwrites(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(time.Hour)
	cache.Set(context.Background(), testRequest(), "X")
	cache.Set(context.Background(), testRequest(), "Y")

	text, ok := cache.Get(context.Background(), testRequest())
	if !ok {
		t.Fatalf("expected cache hit")
	}
	if text != "Y" {
		t.Fatalf("got %q, want Y", text)
	}
}

func TestPredictionCache_MissForDifferentRequest(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(time.Hour)
	cache.Set(context.Background(), testRequest(), "X")

	other := testRequest()
	other.TeamHome = "Tottenham"
	if _, ok := cache.Get(context.Background(), other); ok {
		t.Fatalf("expected miss for different home team")
	}
}
