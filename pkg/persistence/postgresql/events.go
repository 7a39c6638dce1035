package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cortexlab/cortexlab/pkg/models"
)

// AppendEvent assigns the next per-run sequence number inside a transaction
// so concurrent appends cannot produce duplicate positions.
func (p *Persistence) AppendEvent(ctx context.Context, event *models.RunEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	transaction, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin event transaction: %w", err)
	}

	var seq int64

	err = transaction.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) + 1 FROM run_events WHERE run_id = $1", event.RunID).Scan(&seq)
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to allocate event sequence: %w", err)
	}

	_, err = transaction.ExecContext(ctx, `
		INSERT INTO run_events (id, run_id, seq, type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.RunID, seq, event.Type, payload, event.CreatedAt)
	if err != nil {
		_ = transaction.Rollback()

		return fmt.Errorf("failed to insert event: %w", err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit event: %w", err)
	}

	event.Seq = seq

	return nil
}

func (p *Persistence) ListEvents(ctx context.Context, runID string, afterSeq int64) ([]*models.RunEvent, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, run_id, seq, type, payload, created_at
		FROM run_events WHERE run_id = $1 AND seq > $2 ORDER BY seq ASC`,
		runID, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("failed to query events for run %s: %w", runID, err)
	}

	defer func() {
		_ = rows.Close()
	}()

	events := make([]*models.RunEvent, 0)

	for rows.Next() {
		var (
			event   models.RunEvent
			payload []byte
		)

		err = rows.Scan(&event.ID, &event.RunID, &event.Seq, &event.Type, &payload, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		if len(payload) > 0 {
			err = json.Unmarshal(payload, &event.Payload)
			if err != nil {
				return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
			}
		}

		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}
