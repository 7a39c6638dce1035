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
	"github.com/cortexlab/cortexlab/pkg/persistence"
)

func (fp *Persistence) runPath(id string) string {
	return filepath.Join(fp.root, "runs", id+".json")
}

func (fp *Persistence) CreateRun(_ context.Context, run *models.Run) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if _, err := os.Stat(fp.runPath(run.ID)); err == nil {
		return persistence.NewRunError("CreateRun", run.ID, persistence.ErrRunAlreadyExists)
	}

	return fp.writeRun(run)
}

func (fp *Persistence) UpdateRun(_ context.Context, run *models.Run) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if _, err := os.Stat(fp.runPath(run.ID)); os.IsNotExist(err) {
		return persistence.NewRunError("UpdateRun", run.ID, persistence.ErrRunNotFound)
	}

	return fp.writeRun(run)
}

func (fp *Persistence) writeRun(run *models.Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	err = os.WriteFile(fp.runPath(run.ID), data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write run %s: %w", run.ID, err)
	}

	return nil
}

func (fp *Persistence) RunByID(_ context.Context, id string) (*models.Run, error) {
	data, err := os.ReadFile(fp.runPath(id))
	if os.IsNotExist(err) {
		return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", id, err)
	}

	var run models.Run

	err = json.Unmarshal(data, &run)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

func (fp *Persistence) Runs(ctx context.Context) ([]*models.Run, error) {
	root := os.DirFS(filepath.Join(fp.root, "runs"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list run files: %w", err)
	}

	runs := make([]*models.Run, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		runID := file[:len(file)-5] // Remove .json extension

		run, err := fp.RunByID(ctx, runID)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

func (fp *Persistence) FindStaleRuns(ctx context.Context) ([]*models.Run, error) {
	runs, err := fp.Runs(ctx)
	if err != nil {
		return nil, err
	}

	stale := make([]*models.Run, 0)

	for _, run := range runs {
		if !run.Status.Terminal() {
			stale = append(stale, run)
		}
	}

	return stale, nil
}
