// Package events defines event types and structures for run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/cortexlab/cortexlab/pkg/models"
)

type EventType string

// Topic carries every run lifecycle event.
const Topic = "cortexlab.runs"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	RunStartedEvent    EventType = "run.started"
	StageStartedEvent  EventType = "run.stage.started"
	AgentNoteEvent     EventType = "run.agent.note"
	ArtifactReadyEvent EventType = "run.artifact.ready"
	RunCompletedEvent  EventType = "run.completed"
	RunFailedEvent     EventType = "run.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RunID     string         `json:"run_id"`
	ProjectID string         `json:"project_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, runID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		RunID:     runID,
	}
}

type RunStarted struct {
	BaseEvent

	Kind models.PipelineKind `json:"kind"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type StageStarted struct {
	BaseEvent

	Stage string `json:"stage"`
}

func (e StageStarted) GetType() EventType {
	return StageStartedEvent
}

// AgentNote is a human-readable progress message from one agent.
type AgentNote struct {
	BaseEvent

	Agent   string `json:"agent"`
	Content string `json:"content"`
}

func (e AgentNote) GetType() EventType {
	return AgentNoteEvent
}

type ArtifactReady struct {
	BaseEvent

	ArtifactID   string `json:"artifact_id"`
	ArtifactType string `json:"artifact_type"`
	Title        string `json:"title"`
}

func (e ArtifactReady) GetType() EventType {
	return ArtifactReadyEvent
}

type RunCompleted struct {
	BaseEvent

	Result   map[string]any `json:"result,omitempty"`
	Duration time.Duration  `json:"duration"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

type RunFailed struct {
	BaseEvent

	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

func (e RunFailed) GetType() EventType {
	return RunFailedEvent
}
