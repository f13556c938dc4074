package client

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
)

// Store keeps predictions per fixture, mirrored to a single JSON file so
// a session survives restarts. Every mutation persists the whole
// collection and synchronously notifies subscribers.
type Store struct {
	mu          sync.RWMutex
	records     map[string]prediction.Stored
	path        string
	logger      *logging.Logger
	subscribers []func()
	now         func() time.Time
}

// NewStore hydrates from path once. Malformed or unreadable content is
// logged and the store starts empty.
func NewStore(path string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Store{
		records: make(map[string]prediction.Stored),
		path:    path,
		logger:  logger,
		now:     time.Now,
	}
	s.hydrate()
	return s
}

func (s *Store) hydrate() {
	if s.path == "" {
		return
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read persisted predictions failed, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var persisted []prediction.Stored
	if err := sonic.Unmarshal(raw, &persisted); err != nil {
		s.logger.Warn("parse persisted predictions failed, starting empty", "path", s.path, "error", err)
		return
	}

	for _, record := range persisted {
		if record.FixtureID == "" {
			continue
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = s.now()
		}
		s.records[record.FixtureID] = record
	}
}

// GetByFixtureID looks up the stored prediction for a fixture.
func (s *Store) GetByFixtureID(fixtureID string) (prediction.Stored, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[fixtureID]
	return record, ok
}

// SetPrediction inserts or overwrites the record for its fixture,
// backfilling CreatedAt when the caller left it zero.
func (s *Store) SetPrediction(record prediction.Stored) error {
	s.mu.Lock()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	s.records[record.FixtureID] = record
	err := s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return err
}

// ClearAll drops every record and persists the empty state.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	s.records = make(map[string]prediction.Stored)
	err := s.persistLocked()
	s.mu.Unlock()

	s.notify()
	return err
}

// FixtureIDs returns the stored fixture identifiers in sorted order.
func (s *Store) FixtureIDs() []string {
	s.mu.RLock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// Len reports the number of stored predictions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Subscribe registers fn to run synchronously after every mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) notify() {
	s.mu.RLock()
	subscribers := make([]func(), len(s.subscribers))
	copy(subscribers, s.subscribers)
	s.mu.RUnlock()

	for _, fn := range subscribers {
		fn()
	}
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}

	persisted := make([]prediction.Stored, 0, len(s.records))
	for _, record := range s.records {
		persisted = append(persisted, record)
	}

	raw, err := sonic.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("encode persisted predictions: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create predictions dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write persisted predictions: %w", err)
	}

	return nil
}
