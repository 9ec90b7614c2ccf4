package model

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// MatchConfig is the immutable configuration of a matching pipeline. The
// environment overlay happens once at construction time via ConfigFromEnv;
// components never read the environment mid-pipeline.
type MatchConfig struct {
	// QueryModel toggles real dispatch. If false, the pipeline synthesizes
	// randomized votes instead of calling the completion endpoint.
	QueryModel bool
	// ModelName is the default completion model identifier.
	ModelName string
	// AvailableModels lists the selectable completion model identifiers.
	AvailableModels []string
	// CompletionsPerPrompt is the target valid-answer count per prompt.
	CompletionsPerPrompt int
	// Temperature is the sampling temperature.
	Temperature float64
	// RequestTimeout is the per-call timeout.
	RequestTimeout time.Duration
	// TemplateDir holds one template file per cardinality mode.
	TemplateDir string
	// MaxParallelRequests is the dispatch concurrency ceiling.
	MaxParallelRequests int
	// StorePath is the local store location. Empty disables persistence and
	// forces always-recompute behavior.
	StorePath string
	// APIKey and BaseURL configure the completion endpoint.
	APIKey  string
	BaseURL string
}

// DefaultMatchConfig returns the built-in defaults.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		QueryModel:           true,
		ModelName:            "gpt-3.5-turbo-1106",
		AvailableModels:      []string{"gpt-3.5-turbo-1106", "gpt-4-1106-preview"},
		CompletionsPerPrompt: 3,
		Temperature:          1.0,
		RequestTimeout:       60 * time.Second,
		TemplateDir:          "resources",
		MaxParallelRequests:  5,
		StorePath:            "database.sqlite3",
		BaseURL:              "https://api.openai.com/v1",
	}
}

// ConfigFromEnv returns the defaults overlaid with recognized environment
// variables. A .env file in the working directory is loaded first if present.
func ConfigFromEnv() MatchConfig {
	// Missing .env is fine, the process environment still applies.
	_ = godotenv.Load()

	config := DefaultMatchConfig()
	config.QueryModel = envBool("QUERY_MODEL", config.QueryModel)
	config.ModelName = envString("MODEL_NAME", config.ModelName)
	if models := envString("AVAILABLE_MODELS", ""); models != "" {
		config.AvailableModels = splitAndTrim(models)
	}
	config.CompletionsPerPrompt = envInt("COMPLETIONS_PER_PROMPT", config.CompletionsPerPrompt)
	config.Temperature = envFloat("TEMPERATURE", config.Temperature)
	if seconds := envFloat("REQUEST_TIMEOUT", config.RequestTimeout.Seconds()); seconds > 0 {
		config.RequestTimeout = time.Duration(seconds * float64(time.Second))
	}
	config.TemplateDir = envString("TEMPLATE_DIR", config.TemplateDir)
	config.MaxParallelRequests = envInt("MAX_PARALLEL_REQUESTS", config.MaxParallelRequests)
	if path, ok := os.LookupEnv("STORE_PATH"); ok {
		if strings.EqualFold(path, "disabled") {
			path = ""
		}
		config.StorePath = path
	}
	config.APIKey = envString("OPENAI_API_KEY", config.APIKey)
	config.BaseURL = envString("OPENAI_BASE_URL", config.BaseURL)
	return config
}

func envString(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	trimmed := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			trimmed = append(trimmed, part)
		}
	}
	return trimmed
}
