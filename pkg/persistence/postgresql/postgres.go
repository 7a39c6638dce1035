// Package postgresql provides PostgreSQL persistence for runs, run events
// and artifacts.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/cortexlab/cortexlab/pkg/persistence/sqlbase"
)

var migrations = map[int]string{
	1: `
		CREATE TABLE IF NOT EXISTS runs (
			id UUID PRIMARY KEY,
			project_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			status TEXT NOT NULL,
			config JSONB,
			result JSONB,
			error_message TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP WITH TIME ZONE,
			finished_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_runs_project ON runs (project_id);
		CREATE INDEX IF NOT EXISTS idx_runs_status ON runs (status);

		CREATE TABLE IF NOT EXISTS run_events (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL,
			seq BIGINT NOT NULL,
			type TEXT NOT NULL,
			payload JSONB,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			UNIQUE (run_id, seq)
		);

		CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events (run_id, seq);

		CREATE TABLE IF NOT EXISTS artifacts (
			id UUID PRIMARY KEY,
			project_id TEXT NOT NULL,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			content_markdown TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_artifacts_project ON artifacts (project_id);
	`,
}

// Persistence implements the persistence.Persistence interface backed by
// PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence opens the database, verifies connectivity and applies
// pending migrations.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	migrator := sqlbase.NewMigrationManager(logger, db, migrations)

	err = migrator.RunMigrations(ctx)
	if err != nil {
		return nil, err
	}

	return &Persistence{db: db, logger: logger}, nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Persistence) Close(_ context.Context) error {
	return p.db.Close()
}
