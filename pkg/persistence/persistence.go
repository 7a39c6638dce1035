// Package persistence provides data storage abstraction for runs, run events
// and artifacts.
package persistence

import (
	"context"

	"github.com/cortexlab/cortexlab/pkg/models"
)

type Persistence interface {
	// CreateRun stores a new run. The run ID must not already exist.
	CreateRun(ctx context.Context, run *models.Run) error
	// UpdateRun replaces the stored run with the given value.
	UpdateRun(ctx context.Context, run *models.Run) error
	// RunByID returns the run or ErrRunNotFound.
	RunByID(ctx context.Context, id string) (*models.Run, error)
	// Runs returns all runs, newest first.
	Runs(ctx context.Context) ([]*models.Run, error)
	// FindStaleRuns returns runs left in a non-terminal status, for startup
	// recovery after a crash.
	FindStaleRuns(ctx context.Context) ([]*models.Run, error)

	// AppendEvent assigns the next sequence number for the run and stores
	// the event.
	AppendEvent(ctx context.Context, event *models.RunEvent) error
	// ListEvents returns the run's events with Seq greater than afterSeq,
	// in ascending order.
	ListEvents(ctx context.Context, runID string, afterSeq int64) ([]*models.RunEvent, error)

	// SaveArtifact stores a finished document.
	SaveArtifact(ctx context.Context, artifact *models.Artifact) error
	// Artifacts returns all artifacts for a project, newest first.
	Artifacts(ctx context.Context, projectID string) ([]*models.Artifact, error)

	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// UploadStore loads uploaded experiment result files referenced by a paper
// run's configuration.
type UploadStore interface {
	// LoadExperimentFile returns the named upload, or an error when it does
	// not exist or cannot be read.
	LoadExperimentFile(ctx context.Context, name string) (*models.ExperimentFile, error)
}
