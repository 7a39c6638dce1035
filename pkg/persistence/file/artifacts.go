package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/cortexlab/cortexlab/pkg/models"
)

func (fp *Persistence) artifactPath(id string) string {
	return filepath.Join(fp.root, "artifacts", id+".json")
}

func (fp *Persistence) SaveArtifact(_ context.Context, artifact *models.Artifact) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal artifact %s: %w", artifact.ID, err)
	}

	err = os.WriteFile(fp.artifactPath(artifact.ID), data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", artifact.ID, err)
	}

	return nil
}

func (fp *Persistence) Artifacts(_ context.Context, projectID string) ([]*models.Artifact, error) {
	root := os.DirFS(filepath.Join(fp.root, "artifacts"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list artifact files: %w", err)
	}

	artifacts := make([]*models.Artifact, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		data, err := os.ReadFile(filepath.Join(fp.root, "artifacts", file))
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", file, err)
		}

		var artifact models.Artifact

		err = json.Unmarshal(data, &artifact)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", file, err)
		}

		if projectID == "" || artifact.ProjectID == projectID {
			artifacts = append(artifacts, &artifact)
		}
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.After(artifacts[j].CreatedAt)
	})

	return artifacts, nil
}
