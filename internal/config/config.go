package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kraftbet/insights-api/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level

	PredictionCacheTTL time.Duration
	FootballCacheTTL   time.Duration

	OpenAIAPIKey                string
	OpenAIBaseURL               string
	OpenAIModel                 string
	OpenAITimeout               time.Duration
	OpenAIMaxRetries            int
	OpenAICircuitEnabled        bool
	OpenAICircuitFailureCount   int
	OpenAICircuitOpenTimeout    time.Duration
	OpenAICircuitHalfOpenMaxReq int

	APIFootballKey                   string
	APIFootballBaseURL               string
	APIFootballTimeout               time.Duration
	APIFootballMaxRetries            int
	APIFootballCircuitEnabled        bool
	APIFootballCircuitFailureCount   int
	APIFootballCircuitOpenTimeout    time.Duration
	APIFootballCircuitHalfOpenMaxReq int

	ArchiveEnabled bool
	DBURL          string

	PprofEnabled           bool
	PprofAddr              string
	UptraceEnabled         bool
	UptraceDSN             string
	PyroscopeEnabled       bool
	PyroscopeServerAddress string
	PyroscopeAppName       string
	PyroscopeAuthToken     string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:         appEnv,
		ServiceName:    getEnv("SERVICE_NAME", "insights-api"),
		ServiceVersion: getEnv("SERVICE_VERSION", "dev"),
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		LogLevel:       parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
	}

	cfg.CORSAllowedOrigins = splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	readTimeout, err := time.ParseDuration(getEnv("HTTP_READ_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_READ_TIMEOUT: %w", err)
	}
	if readTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_READ_TIMEOUT must be > 0")
	}
	cfg.ReadTimeout = readTimeout

	// Prediction generation is a long upstream call, so the write
	// timeout defaults well above the read timeout.
	writeTimeout, err := time.ParseDuration(getEnv("HTTP_WRITE_TIMEOUT", "120s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_WRITE_TIMEOUT: %w", err)
	}
	if writeTimeout <= 0 {
		return Config{}, fmt.Errorf("HTTP_WRITE_TIMEOUT must be > 0")
	}
	cfg.WriteTimeout = writeTimeout

	predictionCacheTTL, err := time.ParseDuration(getEnv("PREDICTION_CACHE_TTL", "6h"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PREDICTION_CACHE_TTL: %w", err)
	}
	if predictionCacheTTL <= 0 {
		return Config{}, fmt.Errorf("PREDICTION_CACHE_TTL must be > 0")
	}
	cfg.PredictionCacheTTL = predictionCacheTTL

	footballCacheTTL, err := time.ParseDuration(getEnv("FOOTBALL_CACHE_TTL", "5m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse FOOTBALL_CACHE_TTL: %w", err)
	}
	if footballCacheTTL <= 0 {
		return Config{}, fmt.Errorf("FOOTBALL_CACHE_TTL must be > 0")
	}
	cfg.FootballCacheTTL = footballCacheTTL

	if err := loadOpenAI(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadAPIFootball(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadArchive(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadOpenAI(cfg *Config) error {
	cfg.OpenAIAPIKey = strings.TrimSpace(getEnv("OPENAI_API_KEY", ""))
	cfg.OpenAIBaseURL = strings.TrimSpace(getEnv("OPENAI_BASE_URL", ""))
	cfg.OpenAIModel = strings.TrimSpace(getEnv("OPENAI_MODEL", ""))

	timeout, err := time.ParseDuration(getEnv("OPENAI_TIMEOUT", "90s"))
	if err != nil {
		return fmt.Errorf("parse OPENAI_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("OPENAI_TIMEOUT must be > 0")
	}
	cfg.OpenAITimeout = timeout

	maxRetries, err := getEnvAsInt("OPENAI_MAX_RETRIES", 2)
	if err != nil {
		return fmt.Errorf("parse OPENAI_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return fmt.Errorf("OPENAI_MAX_RETRIES must be >= 0")
	}
	cfg.OpenAIMaxRetries = maxRetries

	circuitEnabled, err := strconv.ParseBool(getEnv("OPENAI_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse OPENAI_CIRCUIT_ENABLED: %w", err)
	}
	cfg.OpenAICircuitEnabled = circuitEnabled

	failureCount, err := getEnvAsInt("OPENAI_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return fmt.Errorf("parse OPENAI_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return fmt.Errorf("OPENAI_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.OpenAICircuitFailureCount = failureCount

	openTimeout, err := time.ParseDuration(getEnv("OPENAI_CIRCUIT_OPEN_TIMEOUT", "30s"))
	if err != nil {
		return fmt.Errorf("parse OPENAI_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return fmt.Errorf("OPENAI_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.OpenAICircuitOpenTimeout = openTimeout

	halfOpenMaxReq, err := getEnvAsInt("OPENAI_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return fmt.Errorf("parse OPENAI_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if halfOpenMaxReq < 1 {
		return fmt.Errorf("OPENAI_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.OpenAICircuitHalfOpenMaxReq = halfOpenMaxReq

	return nil
}

func loadAPIFootball(cfg *Config) error {
	cfg.APIFootballKey = strings.TrimSpace(getEnv("APIFOOTBALL_KEY", ""))
	cfg.APIFootballBaseURL = strings.TrimSpace(getEnv("APIFOOTBALL_BASE_URL", ""))

	timeout, err := time.ParseDuration(getEnv("APIFOOTBALL_TIMEOUT", "15s"))
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_TIMEOUT: %w", err)
	}
	if timeout <= 0 {
		return fmt.Errorf("APIFOOTBALL_TIMEOUT must be > 0")
	}
	cfg.APIFootballTimeout = timeout

	maxRetries, err := getEnvAsInt("APIFOOTBALL_MAX_RETRIES", 2)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return fmt.Errorf("APIFOOTBALL_MAX_RETRIES must be >= 0")
	}
	cfg.APIFootballMaxRetries = maxRetries

	circuitEnabled, err := strconv.ParseBool(getEnv("APIFOOTBALL_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_ENABLED: %w", err)
	}
	cfg.APIFootballCircuitEnabled = circuitEnabled

	failureCount, err := getEnvAsInt("APIFOOTBALL_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if failureCount < 1 {
		return fmt.Errorf("APIFOOTBALL_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	cfg.APIFootballCircuitFailureCount = failureCount

	openTimeout, err := time.ParseDuration(getEnv("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if openTimeout <= 0 {
		return fmt.Errorf("APIFOOTBALL_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	cfg.APIFootballCircuitOpenTimeout = openTimeout

	halfOpenMaxReq, err := getEnvAsInt("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return fmt.Errorf("parse APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if halfOpenMaxReq < 1 {
		return fmt.Errorf("APIFOOTBALL_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	cfg.APIFootballCircuitHalfOpenMaxReq = halfOpenMaxReq

	return nil
}

func loadArchive(cfg *Config) error {
	archiveEnabled, err := strconv.ParseBool(getEnv("ARCHIVE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse ARCHIVE_ENABLED: %w", err)
	}
	cfg.ArchiveEnabled = archiveEnabled

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if archiveEnabled && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when ARCHIVE_ENABLED=true")
	}

	return nil
}

func loadObservability(cfg *Config) error {
	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))

	return nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
