// Package config provides configuration loading for the research pipeline engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Caps bounds how many retrieved items are kept before they are fed to a
// provider. The defaults match the original pipeline policy; they are
// configurable because the exact numbers are policy, not invariants.
type Caps struct {
	Papers          int `validate:"gt=0"` // retained after dedup across all queries
	SynthesisWindow int `validate:"gt=0"` // papers included in a synthesis prompt
	GapWindow       int `validate:"gt=0"` // papers included in the gap mining prompt
	DeepDivePapers  int `validate:"gt=0"` // retained during a deep dive scout
	DeepDiveWindow  int `validate:"gt=0"` // papers included in the deep dive analysis prompt
	QueriesPerStage int `validate:"gt=0"` // search queries issued per stage
}

// Config carries everything the engine needs. It is threaded explicitly into
// constructors; there is no process-wide settings lookup.
type Config struct {
	DatabaseURL string `validate:"required"`

	GroqAPIKey            string
	GroqBaseURL           string `validate:"required,url"`
	GoogleAPIKey          string
	GeminiBaseURL         string `validate:"required,url"`
	SemanticScholarAPIKey string
	SemanticScholarURL    string `validate:"required,url"`

	// Optional Redis URL for a shared provider rate limiter. Empty means the
	// in-process token bucket is used.
	RedisURL string

	ProviderTimeout time.Duration `validate:"gt=0"`
	ProviderRPS     float64       `validate:"gt=0"`

	Caps Caps
}

const (
	defaultGroqBaseURL        = "https://api.groq.com/openai/v1"
	defaultGeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	defaultSemanticScholarURL = "https://api.semanticscholar.org/graph/v1"
)

func DefaultCaps() Caps {
	return Caps{
		Papers:          50,
		SynthesisWindow: 30,
		GapWindow:       20,
		DeepDivePapers:  30,
		DeepDiveWindow:  25,
		QueriesPerStage: 5,
	}
}

// FromEnv builds a Config from the environment, applying defaults for
// everything except the database URL.
func FromEnv() (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnvWith is FromEnv with the CLI's database and Redis URLs taking
// precedence over the environment.
func FromEnvWith(databaseURL, redisURL string) (*Config, error) {
	cfg, err := fromEnv()
	if err != nil {
		return nil, err
	}

	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}

	if redisURL != "" {
		cfg.RedisURL = redisURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		GroqAPIKey:            os.Getenv("GROQ_API_KEY"),
		GroqBaseURL:           envOr("GROQ_BASE_URL", defaultGroqBaseURL),
		GoogleAPIKey:          os.Getenv("GOOGLE_API_KEY"),
		GeminiBaseURL:         envOr("GEMINI_BASE_URL", defaultGeminiBaseURL),
		SemanticScholarAPIKey: os.Getenv("SEMANTIC_SCHOLAR_API_KEY"),
		SemanticScholarURL:    envOr("SEMANTIC_SCHOLAR_URL", defaultSemanticScholarURL),
		RedisURL:              os.Getenv("REDIS_URL"),
		ProviderTimeout:       60 * time.Second,
		ProviderRPS:           1,
		Caps:                  DefaultCaps(),
	}

	if raw := os.Getenv("PROVIDER_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT %q: %w", raw, err)
		}

		cfg.ProviderTimeout = d
	}

	if raw := os.Getenv("PROVIDER_RPS"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PROVIDER_RPS %q: %w", raw, err)
		}

		cfg.ProviderRPS = rps
	}

	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New()

	err := validate.Struct(c)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}
