package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kraftbet/insights-api/external/apifootball"
	"github.com/kraftbet/insights-api/internal/usecase"
)

func (h *Handler) ListFixtures(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.ListFixtures", "/fixtures", "date")
}

func (h *Handler) ListFixturesByLeague(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.ListFixturesByLeague", "/fixtures", "league", "season")
}

func (h *Handler) GetFixtureStatistics(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.GetFixtureStatistics", "/fixtures/statistics", "fixture")
}

func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.ListStandings", "/standings", "league", "season")
}

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.ListLeagues", "/leagues")
}

func (h *Handler) ListLeagueSeasons(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.ListLeagueSeasons", "/leagues/seasons")
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.ListTeams", "/teams")
}

func (h *Handler) GetTeamStatistics(w http.ResponseWriter, r *http.Request) {
	h.passthrough(w, r, "httpapi.Handler.GetTeamStatistics", "/teams/statistics", "league", "season", "team")
}

// passthrough forwards the caller's query string to the sports-data
// upstream and mirrors its JSON body. Upstream error statuses are
// mirrored too so clients see the provider's own error payloads.
func (h *Handler) passthrough(w http.ResponseWriter, r *http.Request, spanName, upstreamPath string, requiredParams ...string) {
	ctx, span := startSpan(r.Context(), spanName)
	defer span.End()

	query := r.URL.Query()
	for _, param := range requiredParams {
		if strings.TrimSpace(query.Get(param)) == "" {
			writeError(ctx, w, fmt.Errorf("%w: missing required parameter: %s", usecase.ErrInvalidInput, param))
			return
		}
	}

	body, err := h.footballService.Passthrough(ctx, upstreamPath, query)
	if err != nil {
		var upstreamErr *apifootball.UpstreamError
		if errors.As(err, &upstreamErr) {
			writeRawJSON(ctx, w, upstreamErr.StatusCode, upstreamErr.Body)
			return
		}
		h.logger.ErrorContext(ctx, "football passthrough failed",
			"path", upstreamPath,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeRawJSON(ctx, w, http.StatusOK, body)
}
