// Package cmd provides common initialization for the command-line binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cortexlab/cortexlab/pkg/agents"
	"github.com/cortexlab/cortexlab/pkg/catalog"
	"github.com/cortexlab/cortexlab/pkg/config"
	"github.com/cortexlab/cortexlab/pkg/eventbus"
	"github.com/cortexlab/cortexlab/pkg/persistence"
	"github.com/cortexlab/cortexlab/pkg/provider"
	"github.com/cortexlab/cortexlab/pkg/ratelimit"
	"github.com/cortexlab/cortexlab/pkg/retrieval"
	"github.com/cortexlab/cortexlab/pkg/runs"
)

// Engine bundles the wired collaborators behind the CLI commands.
type Engine struct {
	Config      *config.Config
	Persistence persistence.Persistence
	Bus         eventbus.EventBus
	Catalog     *catalog.Catalog
	Manager     *runs.Manager
}

// NewEngine wires persistence, the event bus, the provider client, retrieval
// and the run manager from one configuration.
func NewEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	store, err := NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize persistence: %w", err)
	}

	bus, err := NewEventBus(logger)
	if err != nil {
		return nil, err
	}

	completer, err := provider.NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}

	limiter, err := sectionLimiter(cfg)
	if err != nil {
		return nil, err
	}

	cat := catalog.New(agents.Deps{
		Completer: completer,
		Searcher:  retrieval.NewSemanticScholar(cfg.SemanticScholarURL, cfg.SemanticScholarAPIKey),
		Config:    cfg,
		Logger:    logger,
		Limiter:   limiter,
	})

	// The file backend doubles as the upload store; PostgreSQL deployments
	// run without one until uploads move to object storage.
	uploads, _ := store.(persistence.UploadStore)

	return &Engine{
		Config:      cfg,
		Persistence: store,
		Bus:         bus,
		Catalog:     cat,
		Manager:     runs.NewManager(cat, store, uploads, bus, logger),
	}, nil
}

// sectionLimiter paces per-section paper generation, shared across processes
// when Redis is configured.
func sectionLimiter(cfg *config.Config) (ratelimit.Limiter, error) {
	if cfg.RedisURL == "" {
		return ratelimit.NewTokenBucket(cfg.ProviderRPS, 1), nil
	}

	limiter, err := ratelimit.NewRedisLimiter(cfg.RedisURL, "sections", int(cfg.ProviderRPS))
	if err != nil {
		return nil, fmt.Errorf("failed to create section rate limiter: %w", err)
	}

	return limiter, nil
}

// Close releases the engine's resources.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.Bus.Close(); err != nil {
		return err
	}

	return e.Persistence.Close(ctx)
}
