package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/persistence"
)

func (p *Persistence) CreateRun(ctx context.Context, run *models.Run) error {
	config, result, err := marshalRunJSON(run)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO runs (id, project_id, kind, status, config, result, error_message, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		run.ID, run.ProjectID, run.Kind, run.Status, config, result,
		run.ErrorMessage, run.StartedAt, run.FinishedAt, run.CreatedAt)
	if err != nil {
		return persistence.NewRunError("CreateRun", run.ID, err)
	}

	return nil
}

func (p *Persistence) UpdateRun(ctx context.Context, run *models.Run) error {
	config, result, err := marshalRunJSON(run)
	if err != nil {
		return persistence.NewRunError("UpdateRun", run.ID, err)
	}

	res, err := p.db.ExecContext(ctx, `
		UPDATE runs
		SET status = $2, config = $3, result = $4, error_message = $5, started_at = $6, finished_at = $7
		WHERE id = $1`,
		run.ID, run.Status, config, result, run.ErrorMessage, run.StartedAt, run.FinishedAt)
	if err != nil {
		return persistence.NewRunError("UpdateRun", run.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return persistence.NewRunError("UpdateRun", run.ID, err)
	}

	if affected == 0 {
		return persistence.NewRunError("UpdateRun", run.ID, persistence.ErrRunNotFound)
	}

	return nil
}

func (p *Persistence) RunByID(ctx context.Context, id string) (*models.Run, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, project_id, kind, status, config, result, error_message, started_at, finished_at, created_at
		FROM runs WHERE id = $1`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRunError("RunByID", id, persistence.ErrRunNotFound)
	}

	if err != nil {
		return nil, persistence.NewRunError("RunByID", id, err)
	}

	return run, nil
}

func (p *Persistence) Runs(ctx context.Context) ([]*models.Run, error) {
	return p.queryRuns(ctx, `
		SELECT id, project_id, kind, status, config, result, error_message, started_at, finished_at, created_at
		FROM runs ORDER BY created_at DESC`)
}

func (p *Persistence) FindStaleRuns(ctx context.Context) ([]*models.Run, error) {
	return p.queryRuns(ctx, `
		SELECT id, project_id, kind, status, config, result, error_message, started_at, finished_at, created_at
		FROM runs WHERE status IN ($1, $2) ORDER BY created_at DESC`,
		models.RunStatusPending, models.RunStatusRunning)
}

func (p *Persistence) queryRuns(ctx context.Context, query string, args ...any) ([]*models.Run, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	runs := make([]*models.Run, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run    models.Run
		config []byte
		result []byte
	)

	err := row.Scan(&run.ID, &run.ProjectID, &run.Kind, &run.Status, &config, &result,
		&run.ErrorMessage, &run.StartedAt, &run.FinishedAt, &run.CreatedAt)
	if err != nil {
		return nil, err
	}

	if len(config) > 0 {
		err = json.Unmarshal(config, &run.Config)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal run config: %w", err)
		}
	}

	if len(result) > 0 {
		err = json.Unmarshal(result, &run.Result)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal run result: %w", err)
		}
	}

	return &run, nil
}

func marshalRunJSON(run *models.Run) ([]byte, []byte, error) {
	config, err := json.Marshal(run.Config)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal run config: %w", err)
	}

	result, err := json.Marshal(run.Result)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal run result: %w", err)
	}

	return config, result, nil
}
