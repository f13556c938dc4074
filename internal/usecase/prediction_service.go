package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
	"github.com/kraftbet/insights-api/internal/platform/resilience"
)

// PredictionService runs the check-cache-then-generate-then-store
// sequence for match predictions. Concurrent misses for the same derived
// key are coalesced so the generation collaborator is called once.
type PredictionService struct {
	cache     prediction.Cache
	generator prediction.Generator
	archive   prediction.ArchiveRepository
	logger    *logging.Logger
	flight    resilience.SingleFlight
	now       func() time.Time
}

func NewPredictionService(
	cache prediction.Cache,
	generator prediction.Generator,
	archive prediction.ArchiveRepository,
	logger *logging.Logger,
) *PredictionService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PredictionService{
		cache:     cache,
		generator: generator,
		archive:   archive,
		logger:    logger,
		now:       time.Now,
	}
}

// Predict returns the prediction text for the match, generating it when
// no fresh cached copy exists. Failed generations are never cached.
func (s *PredictionService) Predict(ctx context.Context, req prediction.Request) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Predict")
	defer span.End()

	if err := validateRequest(req); err != nil {
		return "", err
	}

	if text, ok := s.cache.Get(ctx, req); ok {
		s.logger.DebugContext(ctx, "prediction served from cache",
			"league", req.LeagueName,
			"home", req.TeamHome,
			"away", req.TeamAway,
		)
		return text, nil
	}

	key := prediction.DeriveKey(req)
	out, err, shared := s.flight.Do(key, func() (any, error) {
		if text, ok := s.cache.Get(ctx, req); ok {
			return text, nil
		}

		text, genErr := s.generator.Generate(ctx, req)
		if genErr != nil {
			return nil, genErr
		}

		s.cache.Set(ctx, req, text)
		s.archiveGenerated(ctx, key, req, text)
		return text, nil
	})
	if err != nil {
		return "", fmt.Errorf("generate prediction: %w", err)
	}
	if shared {
		s.logger.DebugContext(ctx, "prediction shared with concurrent request", "key", key)
	}

	text, _ := out.(string)
	return text, nil
}

// ListRecent returns the newest archived predictions.
func (s *PredictionService) ListRecent(ctx context.Context, limit int) ([]prediction.ArchiveRecord, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.ListRecent")
	defer span.End()

	if s.archive == nil {
		return nil, fmt.Errorf("%w: prediction archive is not configured", ErrDependencyUnavailable)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := s.archive.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent predictions: %w", err)
	}

	return records, nil
}

// ArchiveEnabled reports whether the durable archive is wired in.
func (s *PredictionService) ArchiveEnabled() bool {
	return s.archive != nil
}

// archiveGenerated records the generation best effort; a failed insert
// must never fail the request that produced the text.
func (s *PredictionService) archiveGenerated(ctx context.Context, key string, req prediction.Request, text string) {
	if s.archive == nil {
		return
	}

	record := prediction.ArchiveRecord{
		CacheKey:      key,
		LeagueCountry: req.LeagueCountry,
		LeagueName:    req.LeagueName,
		TeamHome:      req.TeamHome,
		TeamAway:      req.TeamAway,
		MatchDate:     req.Date,
		Prediction:    text,
		CreatedAt:     s.now(),
	}
	if err := s.archive.Insert(ctx, record); err != nil {
		s.logger.WarnContext(ctx, "archive prediction failed", "key", key, "error", err)
	}
}

func validateRequest(req prediction.Request) error {
	switch {
	case req.Date == "":
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	case req.LeagueCountry == "":
		return fmt.Errorf("%w: league country is required", ErrInvalidInput)
	case req.LeagueName == "":
		return fmt.Errorf("%w: league name is required", ErrInvalidInput)
	case req.TeamHome == "":
		return fmt.Errorf("%w: home team is required", ErrInvalidInput)
	case req.TeamAway == "":
		return fmt.Errorf("%w: away team is required", ErrInvalidInput)
	default:
		return nil
	}
}
