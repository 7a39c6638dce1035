package postgresql

import (
	"context"
	"fmt"

	"github.com/cortexlab/cortexlab/pkg/models"
)

func (p *Persistence) SaveArtifact(ctx context.Context, artifact *models.Artifact) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, project_id, type, title, content_markdown, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, content_markdown = EXCLUDED.content_markdown`,
		artifact.ID, artifact.ProjectID, artifact.Type, artifact.Title,
		artifact.ContentMarkdown, artifact.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save artifact %s: %w", artifact.ID, err)
	}

	return nil
}

func (p *Persistence) Artifacts(ctx context.Context, projectID string) ([]*models.Artifact, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, project_id, type, title, content_markdown, created_at
		FROM artifacts WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query artifacts: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	artifacts := make([]*models.Artifact, 0)

	for rows.Next() {
		var artifact models.Artifact

		err = rows.Scan(&artifact.ID, &artifact.ProjectID, &artifact.Type,
			&artifact.Title, &artifact.ContentMarkdown, &artifact.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifact: %w", err)
		}

		artifacts = append(artifacts, &artifact)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artifacts: %w", err)
	}

	return artifacts, nil
}
