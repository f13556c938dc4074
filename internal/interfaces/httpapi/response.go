package httpapi

import (
	"context"
	"errors"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/kraftbet/insights-api/internal/usecase"
)

type predictionResponse struct {
	Prediction string `json:"prediction"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	ctx, span := startSpan(ctx, "httpapi.writeJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = sonic.ConfigDefault.NewEncoder(w).Encode(payload)
}

// writeRawJSON copies an already-encoded JSON body to the response.
// Used on pass-through routes where the upstream payload stays opaque.
func writeRawJSON(ctx context.Context, w http.ResponseWriter, status int, body []byte) {
	ctx, span := startSpan(ctx, "httpapi.writeRawJSON")
	defer span.End()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writePrediction(ctx context.Context, w http.ResponseWriter, text string) {
	writeJSON(ctx, w, http.StatusOK, predictionResponse{Prediction: text})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	ctx, span := startSpan(ctx, "httpapi.writeError")
	defer span.End()

	writeJSON(ctx, w, mapErrorStatus(err), errorResponse{Error: err.Error()})
}

func writeInternalError(ctx context.Context, w http.ResponseWriter) {
	writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func mapErrorStatus(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrDependencyUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
