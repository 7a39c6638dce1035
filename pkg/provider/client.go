package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cortexlab/cortexlab/pkg/config"
	"github.com/cortexlab/cortexlab/pkg/otelhelper"
	"github.com/cortexlab/cortexlab/pkg/ratelimit"
)

// Client drives a provider chain: the primary entry is attempted with its
// configured retry budget, then each fallback entry in order. The prompt is
// never altered between attempts.
type Client struct {
	providers map[string]ChatProvider
	limiter   ratelimit.Limiter
	logger    *slog.Logger
	tracer    trace.Tracer
}

// NewClient builds a client with the standard Groq and Gemini transports and
// a rate limiter derived from the configuration (Redis-backed when a Redis
// URL is set, in-process token bucket otherwise).
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	providers := map[string]ChatProvider{
		NameGroq:   NewGroq(cfg.GroqBaseURL, cfg.GroqAPIKey),
		NameGemini: NewGemini(cfg.GeminiBaseURL, cfg.GoogleAPIKey),
	}

	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL, "provider", int(cfg.ProviderRPS))
		if err != nil {
			return nil, fmt.Errorf("failed to create redis rate limiter: %w", err)
		}

		limiter = redisLimiter
	} else {
		limiter = ratelimit.NewTokenBucket(cfg.ProviderRPS, 1)
	}

	return NewClientWith(providers, limiter, logger), nil
}

// NewClientWith wires explicit providers and limiter; tests use this with
// stub providers.
func NewClientWith(providers map[string]ChatProvider, limiter ratelimit.Limiter, logger *slog.Logger) *Client {
	if limiter == nil {
		limiter = ratelimit.Unlimited{}
	}

	return &Client{
		providers: providers,
		limiter:   limiter,
		logger:    logger,
		tracer:    otel.Tracer("provider"),
	}
}

// Complete attempts the chain in order and returns the first successful
// reply. Total latency is bounded by the sum of per-entry timeouts; only the
// entry's own MaxRetries multiplies its share.
func (c *Client) Complete(ctx context.Context, prompt string, chain []Spec) (string, error) {
	if len(chain) == 0 {
		return "", ErrEmptyChain
	}

	var attempts []error

	for i, spec := range chain {
		chatProvider, ok := c.providers[spec.Provider]
		if !ok {
			attempts = append(attempts, fmt.Errorf("provider %q not registered", spec.Provider))

			continue
		}

		text, err := c.attempt(ctx, chatProvider, spec, prompt)
		if err == nil {
			return text, nil
		}

		if ctx.Err() != nil {
			// The caller is gone; stop walking the chain.
			attempts = append(attempts, err)

			break
		}

		c.logger.WarnContext(ctx, "Provider attempt failed, moving to next in chain",
			"provider", spec.Provider,
			"model", spec.Model,
			"position", i,
			"error", err)

		attempts = append(attempts, err)
	}

	return "", &ExhaustedError{Attempts: attempts}
}

// attempt runs one chain entry with its own timeout and retry budget.
func (c *Client) attempt(ctx context.Context, chatProvider ChatProvider, spec Spec, prompt string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "provider.complete", trace.WithAttributes(
		attribute.String("provider.name", spec.Provider),
		attribute.String("provider.model", spec.Model),
	))
	defer span.End()

	req := CompletionRequest{
		Model:       spec.Model,
		Prompt:      prompt,
		Temperature: spec.Temperature,
	}

	var text string

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		callCtx, cancel := context.WithTimeout(ctx, spec.Timeout)
		defer cancel()

		reply, err := chatProvider.Complete(callCtx, req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}

			return err
		}

		text = reply

		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(spec.MaxRetries)),
		ctx,
	)

	err := backoff.Retry(operation, policy)
	if err != nil {
		otelhelper.SetError(span, err)

		return "", err
	}

	return text, nil
}
