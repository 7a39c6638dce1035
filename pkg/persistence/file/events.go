package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cortexlab/cortexlab/pkg/models"
)

func (fp *Persistence) eventsPath(runID string) string {
	return filepath.Join(fp.root, "events", runID+".json")
}

func (fp *Persistence) AppendEvent(_ context.Context, event *models.RunEvent) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	events, err := fp.readEvents(event.RunID)
	if err != nil {
		return err
	}

	var maxSeq int64
	for _, existing := range events {
		if existing.Seq > maxSeq {
			maxSeq = existing.Seq
		}
	}

	event.Seq = maxSeq + 1
	events = append(events, event)

	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal events for run %s: %w", event.RunID, err)
	}

	err = os.WriteFile(fp.eventsPath(event.RunID), data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write events for run %s: %w", event.RunID, err)
	}

	return nil
}

func (fp *Persistence) ListEvents(_ context.Context, runID string, afterSeq int64) ([]*models.RunEvent, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	events, err := fp.readEvents(runID)
	if err != nil {
		return nil, err
	}

	out := make([]*models.RunEvent, 0, len(events))

	for _, event := range events {
		if event.Seq > afterSeq {
			out = append(out, event)
		}
	}

	return out, nil
}

// readEvents loads the run's event log. The log is written in append order,
// so no re-sort is needed.
func (fp *Persistence) readEvents(runID string) ([]*models.RunEvent, error) {
	data, err := os.ReadFile(fp.eventsPath(runID))
	if os.IsNotExist(err) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read events for run %s: %w", runID, err)
	}

	var events []*models.RunEvent

	err = json.Unmarshal(data, &events)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal events for run %s: %w", runID, err)
	}

	return events, nil
}
