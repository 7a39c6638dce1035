// Package provider wraps language-model providers behind a fallback-chain
// client with per-call timeouts and bounded retry.
package provider

import (
	"context"
	"time"

	"github.com/cortexlab/cortexlab/pkg/config"
)

// CompletionRequest is one rendered prompt sent to a provider.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
}

// ChatProvider is a single completion endpoint. Failures must be returned as
// *Error so the client can classify them.
type ChatProvider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Completer is the surface stages depend on; *Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string, chain []Spec) (string, error)
}

// Spec is one entry of a provider chain: which provider and model to call,
// how hot, how long to wait, and how often the entry may be retried before
// the chain moves on. MaxRetries counts retries beyond the first attempt.
type Spec struct {
	Provider    string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Provider identifiers.
const (
	NameGroq   = "groq"
	NameGemini = "gemini"
)

// Groq models.
const (
	ModelGroqFast  = "llama-3.1-8b-instant"
	ModelGroqHeavy = "llama-3.3-70b-versatile"
)

// Gemini fallback cascade, cheapest first.
var geminiModels = []string{
	"gemini-2.0-flash",
	"gemini-2.0-flash-lite",
	"gemini-1.5-flash",
	"gemini-1.5-pro",
}

// DefaultChain builds the standard chain: Groq primary with limited retry,
// then the Gemini cascade with one attempt each. Entries whose provider has
// no configured key are omitted; the fallback chain exists for speed, not
// exhaustive retry.
func DefaultChain(cfg *config.Config, temperature float64) []Spec {
	var chain []Spec

	if cfg.GroqAPIKey != "" {
		chain = append(chain, Spec{
			Provider:    NameGroq,
			Model:       ModelGroqFast,
			Temperature: temperature,
			Timeout:     cfg.ProviderTimeout,
			MaxRetries:  2,
		})
	}

	if cfg.GoogleAPIKey != "" {
		for _, model := range geminiModels {
			chain = append(chain, Spec{
				Provider:    NameGemini,
				Model:       model,
				Temperature: temperature,
				Timeout:     cfg.ProviderTimeout,
				MaxRetries:  0,
			})
		}
	}

	return chain
}

// HeavyChain is DefaultChain with the larger Groq model in front, for stages
// doing complex synthesis.
func HeavyChain(cfg *config.Config, temperature float64) []Spec {
	chain := DefaultChain(cfg, temperature)
	if len(chain) > 0 && chain[0].Provider == NameGroq {
		chain[0].Model = ModelGroqHeavy
	}

	return chain
}
