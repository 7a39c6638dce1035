package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cortexlab/cortexlab/pkg/persistence"
	"github.com/cortexlab/cortexlab/pkg/persistence/file"
	"github.com/cortexlab/cortexlab/pkg/persistence/postgresql"
)

// NewPersistence selects the storage backend by URL scheme. postgres:// and
// postgresql:// URLs get PostgreSQL; everything else is treated as a file
// path, with or without a file:// prefix.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch persistenceScheme(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL)
	}
}

func persistenceScheme(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
