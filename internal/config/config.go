package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL          = "https://generativelanguage.googleapis.com"
	DefaultAPIVersion       = "v1beta"
	DefaultModel            = "gemini-2.0-flash-exp"
	DefaultPrompt           = "Explain how AI works"
	DefaultTemperature      = 1.0
	DefaultTopK             = 40
	DefaultTopP             = 0.95
	DefaultMaxOutputTokens  = 8192
	DefaultResponseMimeType = "text/plain"
)

// ErrMissingAPIKey is matched by the *Error returned when no API key is set.
var ErrMissingAPIKey = errors.New("API key is required")

// Error reports an invalid or missing configuration value.
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return e.Key + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Config struct {
	APIKey string

	LogLevel string

	PreferIPv4       bool
	HTTPTimeout      time.Duration
	FailOnAPIError   bool
	GeminiBaseURL    string
	GeminiAPIVersion string
	Model            string
	Prompt           string

	Temperature      float64
	TopK             int
	TopP             float64
	MaxOutputTokens  int
	ResponseMimeType string
}

func Load() (Config, error) {
	cfg := Config{
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", "warn")),
		PreferIPv4:       getEnvBool("PREFER_IPV4", false),
		HTTPTimeout:      time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 0)) * time.Second,
		FailOnAPIError:   getEnvBool("FAIL_ON_API_ERROR", false),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", DefaultBaseURL),
		GeminiAPIVersion: getEnv("GEMINI_API_VERSION", DefaultAPIVersion),
		Model:            getEnv("GEMINI_MODEL", DefaultModel),
		Prompt:           getEnv("PROMPT", DefaultPrompt),
		Temperature:      getEnvFloat("GEMINI_TEMPERATURE", DefaultTemperature),
		TopK:             getEnvInt("GEMINI_TOP_K", DefaultTopK),
		TopP:             getEnvFloat("GEMINI_TOP_P", DefaultTopP),
		MaxOutputTokens:  getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", DefaultMaxOutputTokens),
		ResponseMimeType: getEnv("GEMINI_RESPONSE_MIME_TYPE", DefaultResponseMimeType),
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("API_KEY"))
	if cfg.APIKey == "" {
		cfg.APIKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if cfg.APIKey == "" {
		return Config{}, &Error{Key: "API_KEY", Err: ErrMissingAPIKey}
	}

	if cfg.HTTPTimeout < 0 {
		cfg.HTTPTimeout = 0
	}
	if cfg.TopK < 1 {
		cfg.TopK = DefaultTopK
	}
	if cfg.MaxOutputTokens < 1 {
		cfg.MaxOutputTokens = DefaultMaxOutputTokens
	}
	if cfg.TopP < 0 || cfg.TopP > 1 {
		cfg.TopP = DefaultTopP
	}
	if cfg.Temperature < 0 {
		cfg.Temperature = DefaultTemperature
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
