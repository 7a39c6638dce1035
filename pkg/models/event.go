package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a RunEvent.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventAgentNote     EventType = "agent_note"
	EventArtifactReady EventType = "artifact_ready"
	EventRunComplete   EventType = "run_complete"
	EventRunError      EventType = "run_error"
)

// RunEvent is one ordered, immutable progress record belonging to a run.
// Seq is assigned monotonically per run on append so replay order is exact
// even when two events share a timestamp.
type RunEvent struct {
	ID        string         `json:"id"`
	RunID     string         `json:"run_id"`
	Seq       int64          `json:"seq"`
	Type      EventType      `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRunEvent creates an event for the given run. The sequence number is
// assigned by the persistence layer on append.
func NewRunEvent(runID string, eventType EventType, payload map[string]any) *RunEvent {
	return &RunEvent{
		ID:        uuid.New().String(),
		RunID:     runID,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now().UTC(),
	}
}

// ProgressNote is a stage-attached progress message. The lifecycle manager
// turns notes into agent_note events.
type ProgressNote struct {
	Agent   string `json:"agent"`
	Content string `json:"content"`
}
