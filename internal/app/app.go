package app

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/kraftbet/insights-api/external/apifootball"
	"github.com/kraftbet/insights-api/external/openai"
	"github.com/kraftbet/insights-api/internal/config"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/infrastructure/repository/memory"
	"github.com/kraftbet/insights-api/internal/infrastructure/repository/postgres"
	"github.com/kraftbet/insights-api/internal/interfaces/httpapi"
	"github.com/kraftbet/insights-api/internal/platform/cache"
	"github.com/kraftbet/insights-api/internal/platform/logging"
	"github.com/kraftbet/insights-api/internal/platform/resilience"
	"github.com/kraftbet/insights-api/internal/usecase"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
)

// NewHTTPServer wires the full service: external clients, cache layers,
// usecases and the HTTP router. The returned DB handle is nil when the
// archive is disabled; the caller owns closing it.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, *sqlx.DB, error) {
	if logger == nil {
		logger = logging.Default()
	}

	generator := openai.NewClient(openai.ClientConfig{
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIModel,
		Timeout:    cfg.OpenAITimeout,
		MaxRetries: cfg.OpenAIMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.OpenAICircuitEnabled,
			FailureThreshold: cfg.OpenAICircuitFailureCount,
			OpenTimeout:      cfg.OpenAICircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.OpenAICircuitHalfOpenMaxReq,
		},
	})

	footballClient := apifootball.NewClient(apifootball.ClientConfig{
		BaseURL:    cfg.APIFootballBaseURL,
		APIKey:     cfg.APIFootballKey,
		Timeout:    cfg.APIFootballTimeout,
		MaxRetries: cfg.APIFootballMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.APIFootballCircuitEnabled,
			FailureThreshold: cfg.APIFootballCircuitFailureCount,
			OpenTimeout:      cfg.APIFootballCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.APIFootballCircuitHalfOpenMaxReq,
		},
	})

	var db *sqlx.DB
	var archive *postgres.PredictionArchiveRepository
	if cfg.ArchiveEnabled {
		var err error
		db, err = otelsqlx.Open("postgres", cfg.DBURL,
			otelsql.WithDBSystem("postgresql"),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("open archive db: %w", err)
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping archive db: %w", err)
		}
		archive = postgres.NewPredictionArchiveRepository(db)
		logger.Info("prediction archive enabled")
	} else {
		logger.Info("prediction archive disabled", "reason", "ARCHIVE_ENABLED=false")
	}

	predictionCache := memory.NewPredictionCache(cfg.PredictionCacheTTL)
	footballCache := cache.NewStore(cfg.FootballCacheTTL)

	var archiveRepo prediction.ArchiveRepository
	if archive != nil {
		archiveRepo = archive
	}

	predictionSvc := usecase.NewPredictionService(predictionCache, generator, archiveRepo, logger)
	footballSvc := usecase.NewFootballService(footballClient, footballCache, logger)

	handler := httpapi.NewHandler(predictionSvc, footballSvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		if db != nil {
			_ = db.Close()
		}
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, db, nil
}
