// Package models defines the core domain models for research pipeline runs.
package models

import (
	"time"

	"github.com/google/uuid"
)

// PipelineKind identifies one of the registered pipelines.
type PipelineKind string

const (
	PipelineDiscovery PipelineKind = "discovery"
	PipelineDeepDive  PipelineKind = "deep_dive"
	PipelinePaper     PipelineKind = "paper"
)

// RunStatus represents the lifecycle state of a run.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"   // Created, not yet picked up
	RunStatusRunning   RunStatus = "running"   // Pipeline executing
	RunStatusCompleted RunStatus = "completed" // Terminal, result available
	RunStatusFailed    RunStatus = "failed"    // Terminal, error message available
)

// Terminal reports whether the status can no longer change.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RunConfig is the caller-supplied configuration for a run. Its shape is
// validated per pipeline kind before the run starts.
type RunConfig map[string]any

// Run represents one execution instance of a pipeline.
type Run struct {
	ID           string       `json:"id"`
	ProjectID    string       `json:"project_id"`
	Kind         PipelineKind `json:"kind"`
	Status       RunStatus    `json:"status"`
	Config       RunConfig    `json:"config,omitempty"`
	Result       map[string]any `json:"result,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// NewRun creates a pending run for the given pipeline kind.
func NewRun(projectID string, kind PipelineKind, config RunConfig) *Run {
	return &Run{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Kind:      kind,
		Status:    RunStatusPending,
		Config:    config,
		CreatedAt: time.Now().UTC(),
	}
}
