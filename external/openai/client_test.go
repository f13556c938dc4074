package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/resilience"
	"github.com/kraftbet/insights-api/internal/usecase"
)

func matchRequest() prediction.Request {
	return prediction.Request{
		Date:          "2025-03-10",
		LeagueCountry: "England",
		LeagueName:    "Premier League",
		TeamHome:      "Arsenal",
		TeamAway:      "Chelsea",
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestClient_Generate_ReturnsCompletionText(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"### Analysis details\nArsenal look sharp."}}]}`))
	})

	text, err := client.Generate(context.Background(), matchRequest())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !strings.Contains(text, "Arsenal look sharp.") {
		t.Fatalf("unexpected completion text %q", text)
	}
}

func TestClient_Generate_QuotaExceededIsTyped(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":"insufficient_quota","message":"You exceeded your current quota","type":"insufficient_quota"}}`))
	})

	_, err := client.Generate(context.Background(), matchRequest())
	if !errors.Is(err, usecase.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestClient_Generate_QuotaCodeAtTopLevel(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"code":"insufficient_quota"}`))
	})

	_, err := client.Generate(context.Background(), matchRequest())
	if !errors.Is(err, usecase.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestClient_Generate_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"second try"}}]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	text, err := client.Generate(context.Background(), matchRequest())
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if text != "second try" {
		t.Fatalf("got %q, want second try", text)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("server called %d times, want 2", got)
	}
}

func TestClient_Generate_MalformedErrorBodyFallsBack(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`not json at all`))
	})

	_, err := client.Generate(context.Background(), matchRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, usecase.ErrQuotaExceeded) {
		t.Fatalf("malformed body must not classify as quota: %v", err)
	}
}

func TestClient_Generate_MissingAPIKey(t *testing.T) {
	t.Parallel()

	client := NewClient(ClientConfig{BaseURL: "http://127.0.0.1:0"})
	_, err := client.Generate(context.Background(), matchRequest())
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
	}
}
