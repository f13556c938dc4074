package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
)

// DefaultPredictionTTL bounds how long a generated prediction is reused
// before the collaborator is consulted again.
const DefaultPredictionTTL = 6 * time.Hour

type predictionEntry struct {
	text      string
	createdAt time.Time
}

// PredictionCache memoizes generated predictions by derived request key.
// Expiry is lazy: stale entries are removed when a Get finds them past
// the TTL. There is no capacity bound; distinct keys accumulate for the
// life of the process.
type PredictionCache struct {
	mu      sync.RWMutex
	entries map[string]predictionEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewPredictionCache(ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = DefaultPredictionTTL
	}

	return &PredictionCache{
		entries: make(map[string]predictionEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *PredictionCache) Get(_ context.Context, req prediction.Request) (string, bool) {
	key := prediction.DeriveKey(req)
	now := c.now()

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if now.Sub(entry.createdAt) > c.ttl {
		c.mu.Lock()
		// A Set may have refreshed the entry between the two locks.
		if current, ok := c.entries[key]; ok && now.Sub(current.createdAt) > c.ttl {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return "", false
	}

	return entry.text, true
}

func (c *PredictionCache) Set(_ context.Context, req prediction.Request, text string) {
	key := prediction.DeriveKey(req)

	c.mu.Lock()
	c.entries[key] = predictionEntry{
		text:      text,
		createdAt: c.now(),
	}
	c.mu.Unlock()
}

// Len reports the number of live plus not-yet-collected entries.
func (c *PredictionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}
