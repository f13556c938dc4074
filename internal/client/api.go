package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
)

// Fetcher obtains prediction text for a match. The production
// implementation calls the insights server; tests substitute doubles.
type Fetcher interface {
	FetchPrediction(ctx context.Context, req prediction.Request) (string, error)
}

const defaultRequestTimeout = 60 * time.Second

// APIClient talks to the insights server's prediction endpoint.
type APIClient struct {
	httpClient *http.Client
	baseURL    string
}

func NewAPIClient(httpClient *http.Client, baseURL string) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}

	return &APIClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type predictionRequestBody struct {
	Date          string `json:"date"`
	LeagueCountry string `json:"leagueCountry"`
	LeagueName    string `json:"leagueName"`
	TeamHome      string `json:"teamHome"`
	TeamAway      string `json:"teamAway"`
}

type predictionResponseBody struct {
	Prediction string `json:"prediction"`
	Error      string `json:"error"`
}

func (c *APIClient) FetchPrediction(ctx context.Context, req prediction.Request) (string, error) {
	payload, err := sonic.Marshal(predictionRequestBody{
		Date:          req.Date,
		LeagueCountry: req.LeagueCountry,
		LeagueName:    req.LeagueName,
		TeamHome:      req.TeamHome,
		TeamAway:      req.TeamAway,
	})
	if err != nil {
		return "", fmt.Errorf("encode prediction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build prediction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("call prediction endpoint: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read prediction response: %w", err)
	}

	var body predictionResponseBody
	if err := sonic.Unmarshal(raw, &body); err != nil {
		return "", fmt.Errorf("decode prediction response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		if body.Error != "" {
			return "", fmt.Errorf("prediction endpoint status %d: %s", resp.StatusCode, body.Error)
		}
		return "", fmt.Errorf("prediction endpoint status %d", resp.StatusCode)
	}
	if body.Prediction == "" {
		return "", fmt.Errorf("prediction endpoint returned empty prediction")
	}

	return body.Prediction, nil
}
