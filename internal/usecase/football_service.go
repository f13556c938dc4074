package usecase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/kraftbet/insights-api/internal/platform/cache"
	"github.com/kraftbet/insights-api/internal/platform/logging"
)

// FootballFetcher fetches raw JSON from the sports-data upstream.
type FootballFetcher interface {
	Fetch(ctx context.Context, path string, query url.Values) ([]byte, error)
}

// FootballService fronts the pass-through football routes with a short
// TTL cache so bursts of identical requests hit the upstream once.
type FootballService struct {
	fetcher FootballFetcher
	cache   *cache.Store
	logger  *logging.Logger
}

func NewFootballService(fetcher FootballFetcher, store *cache.Store, logger *logging.Logger) *FootballService {
	if logger == nil {
		logger = logging.Default()
	}

	return &FootballService{
		fetcher: fetcher,
		cache:   store,
		logger:  logger,
	}
}

// Passthrough returns the upstream body for path+query, serving from
// cache when a fresh copy exists. The body stays opaque JSON.
func (s *FootballService) Passthrough(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FootballService.Passthrough")
	defer span.End()

	if path == "" {
		return nil, fmt.Errorf("%w: upstream path is required", ErrInvalidInput)
	}

	key := "football:" + path + "?" + query.Encode()
	if s.cache == nil {
		return s.fetcher.Fetch(ctx, path, query)
	}

	v, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		raw, fetchErr := s.fetcher.Fetch(ctx, path, query)
		if fetchErr != nil {
			return nil, fetchErr
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}

	raw, _ := v.([]byte)
	return raw, nil
}
