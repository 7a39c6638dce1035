package runs

import (
	"context"

	"github.com/cortexlab/cortexlab/pkg/models"
)

// StreamEvents replays a run's recorded events with Seq greater than
// afterSeq, in order. For a terminal run whose log carries no terminal event,
// one is synthesized from the run record so consumers always observe an end
// marker; the synthesized event is not persisted.
func (m *Manager) StreamEvents(ctx context.Context, runID string, afterSeq int64) ([]*models.RunEvent, error) {
	run, err := m.persistence.RunByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	all, err := m.persistence.ListEvents(ctx, runID, 0)
	if err != nil {
		return nil, err
	}

	events := make([]*models.RunEvent, 0, len(all))

	for _, event := range all {
		if event.Seq > afterSeq {
			events = append(events, event)
		}
	}

	if !run.Status.Terminal() || hasTerminalEvent(all) {
		return events, nil
	}

	var lastSeq int64
	if len(all) > 0 {
		lastSeq = all[len(all)-1].Seq
	}

	terminal := synthesizeTerminalEvent(run)
	terminal.Seq = lastSeq + 1

	if terminal.Seq > afterSeq {
		events = append(events, terminal)
	}

	return events, nil
}

func hasTerminalEvent(events []*models.RunEvent) bool {
	for _, event := range events {
		if event.Type == models.EventRunComplete || event.Type == models.EventRunError {
			return true
		}
	}

	return false
}

func synthesizeTerminalEvent(run *models.Run) *models.RunEvent {
	if run.Status == models.RunStatusFailed {
		return models.NewRunEvent(run.ID, models.EventRunError, map[string]any{
			"error": run.ErrorMessage,
		})
	}

	return models.NewRunEvent(run.ID, models.EventRunComplete, map[string]any{
		"result": run.Result,
	})
}
