package prediction

import "context"

// Cache memoizes generated prediction texts keyed by the derived request
// key. Entries expire after the cache's time-to-live; expiry is lazy on
// Get, and Set overwrites unconditionally.
type Cache interface {
	Get(ctx context.Context, req Request) (string, bool)
	Set(ctx context.Context, req Request, text string)
}

// Generator produces the free-text prediction for a match. It is the
// external text-generation collaborator; only successful results are
// ever cached.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ArchiveRepository records generated predictions durably. Inserts are
// best effort from the caller's point of view.
type ArchiveRepository interface {
	Insert(ctx context.Context, record ArchiveRecord) error
	ListRecent(ctx context.Context, limit int) ([]ArchiveRecord, error)
}
