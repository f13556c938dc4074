package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/kraftbet/insights-api/internal/domain/prediction"
	"github.com/kraftbet/insights-api/internal/platform/logging"
	"github.com/kraftbet/insights-api/internal/platform/resilience"
	"github.com/kraftbet/insights-api/internal/usecase"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultModel          = "gpt-4o-mini"
	maxCompletionTokens   = 700
	completionTemperature = 0.8

	// Error code the provider attaches when the account has run out of
	// paid quota. Recognized at error.code or the top-level code field.
	quotaExceededCode = "insufficient_quota"
)

var errOpenAITransient = crerr.New("openai transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Model          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client calls the chat-completions endpoint to produce match
// predictions. It implements prediction.Generator.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	model          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 60 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		apiKey:         strings.TrimSpace(cfg.APIKey),
		model:          model,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiErrorEnvelope struct {
	Code  string `json:"code"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate produces the free-text prediction for the given match.
func (c *Client) Generate(ctx context.Context, req prediction.Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%w: generation api key is not configured", usecase.ErrDependencyUnavailable)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "openai circuit breaker rejected request", "state", c.breaker.State())
			return "", fmt.Errorf("%w: prediction generator is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: completionTemperature,
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode completion request: %w", err)
	}

	text, reqErr := c.executeCompletion(ctx, body)
	if c.circuitEnabled {
		if reqErr != nil && isOpenAICircuitFailure(reqErr) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if reqErr != nil {
		return "", reqErr
	}

	return text, nil
}

func (c *Client) executeCompletion(ctx context.Context, body []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errOpenAITransient, err)
			continue
		}

		raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("%w: read response body: %v", errOpenAITransient, readErr)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return decodeCompletion(raw)
		}

		classified := classifyAPIError(resp.StatusCode, raw)
		if crerr.Is(classified, errOpenAITransient) {
			lastErr = classified
			continue
		}
		return "", classified
	}

	return "", lastErr
}

func decodeCompletion(raw []byte) (string, error) {
	var parsed chatResponse
	if err := sonic.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion payload: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("completion returned empty content")
	}

	return text, nil
}

// classifyAPIError inspects the provider's error body without trusting
// its shape. A recognized quota code maps to the typed quota sentinel;
// retryable statuses map to the transient sentinel; everything else is a
// terminal generation failure.
func classifyAPIError(status int, raw []byte) error {
	var envelope apiErrorEnvelope
	_ = sonic.Unmarshal(raw, &envelope)

	code := envelope.Code
	message := ""
	if envelope.Error != nil {
		if envelope.Error.Code != "" {
			code = envelope.Error.Code
		}
		message = envelope.Error.Message
	}

	if code == quotaExceededCode {
		return fmt.Errorf("%w: provider status=%d", usecase.ErrQuotaExceeded, status)
	}

	if isRetryableStatus(status) {
		return fmt.Errorf("%w: provider status=%d code=%s message=%s", errOpenAITransient, status, code, abbreviate(message))
	}

	return fmt.Errorf("provider status=%d code=%s message=%s", status, code, abbreviate(message))
}

func isOpenAICircuitFailure(err error) bool {
	return crerr.Is(err, errOpenAITransient)
}

func isRetryableStatus(status int) bool {
	switch {
	case status == http.StatusRequestTimeout:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

func abbreviate(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
