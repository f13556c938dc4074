package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
	"github.com/kraftbet/insights-api/internal/usecase"
)

// quotaFallbackMessage is returned with a success status when the
// generation upstream reports exhausted quota. Clients render it as the
// prediction text instead of an error state.
const quotaFallbackMessage = "The AI usage limit has been reached. Please try again later."

type Handler struct {
	predictionService *usecase.PredictionService
	footballService   *usecase.FootballService
	logger            *logging.Logger
	validator         *validator.Validate
}

func NewHandler(
	predictionService *usecase.PredictionService,
	footballService *usecase.FootballService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		predictionService: predictionService,
		footballService:   footballService,
		logger:            logger,
		validator:         validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// PredictionHealth is the fixed acknowledgement on GET /v1/predictions.
// It has no side effects.
func (h *Handler) PredictionHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PredictionHealth")
	defer span.End()

	writeJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok from prediction"})
}

type generatePredictionDTO struct {
	Date          string `json:"date" validate:"required"`
	LeagueCountry string `json:"leagueCountry" validate:"required"`
	LeagueName    string `json:"leagueName" validate:"required"`
	TeamHome      string `json:"teamHome" validate:"required"`
	TeamAway      string `json:"teamAway" validate:"required"`
}

func (h *Handler) GeneratePrediction(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GeneratePrediction")
	defer span.End()

	var dto generatePredictionDTO
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: malformed request body", usecase.ErrInvalidInput))
		return
	}
	if err := h.validator.Struct(dto); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: date, leagueCountry, leagueName, teamHome and teamAway are required", usecase.ErrInvalidInput))
		return
	}

	text, err := h.predictionService.Predict(ctx, prediction.Request{
		Date:          dto.Date,
		LeagueCountry: dto.LeagueCountry,
		LeagueName:    dto.LeagueName,
		TeamHome:      dto.TeamHome,
		TeamAway:      dto.TeamAway,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrQuotaExceeded) {
			h.logger.WarnContext(ctx, "generation quota exhausted, serving fallback",
				"home", dto.TeamHome,
				"away", dto.TeamAway,
			)
			writePrediction(ctx, w, quotaFallbackMessage)
			return
		}
		h.logger.ErrorContext(ctx, "generate prediction failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writePrediction(ctx, w, text)
}

func (h *Handler) ListRecentPredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListRecentPredictions")
	defer span.End()

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	records, err := h.predictionService.ListRecent(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list recent predictions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]archivedPredictionDTO, 0, len(records))
	for _, record := range records {
		items = append(items, archivedPredictionDTO{
			LeagueCountry: record.LeagueCountry,
			LeagueName:    record.LeagueName,
			TeamHome:      record.TeamHome,
			TeamAway:      record.TeamAway,
			Date:          record.MatchDate,
			Prediction:    record.Prediction,
			CreatedAt:     record.CreatedAt.UnixMilli(),
		})
	}

	writeJSON(ctx, w, http.StatusOK, map[string]any{"predictions": items})
}

type archivedPredictionDTO struct {
	LeagueCountry string `json:"leagueCountry"`
	LeagueName    string `json:"leagueName"`
	TeamHome      string `json:"teamHome"`
	TeamAway      string `json:"teamAway"`
	Date          string `json:"date"`
	Prediction    string `json:"prediction"`
	CreatedAt     int64  `json:"createdAt"`
}
