package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerPredictionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/predictions", handler.PredictionHealth)
	mux.HandleFunc("POST /v1/predictions", handler.GeneratePrediction)
	mux.HandleFunc("GET /v1/predictions/recent", handler.ListRecentPredictions)
}

func registerFootballRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/football/fixtures", handler.ListFixtures)
	mux.HandleFunc("GET /v1/football/fixtures/by-league", handler.ListFixturesByLeague)
	mux.HandleFunc("GET /v1/football/fixtures/statistics", handler.GetFixtureStatistics)
	mux.HandleFunc("GET /v1/football/standings", handler.ListStandings)
	mux.HandleFunc("GET /v1/football/leagues", handler.ListLeagues)
	mux.HandleFunc("GET /v1/football/leagues/seasons", handler.ListLeagueSeasons)
	mux.HandleFunc("GET /v1/football/teams", handler.ListTeams)
	mux.HandleFunc("GET /v1/football/teams/statistics", handler.GetTeamStatistics)
}
