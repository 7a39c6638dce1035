// Package runs manages the lifecycle of pipeline runs: creation, background
// execution, ordered event emission, startup recovery and event replay.
package runs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cortexlab/cortexlab/pkg/catalog"
	"github.com/cortexlab/cortexlab/pkg/eventbus"
	"github.com/cortexlab/cortexlab/pkg/events"
	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/persistence"
)

// Manager owns the run state machine: pending on creation, running once the
// background execution picks the run up, then exactly one of completed or
// failed. Progress is recorded twice, as ordered RunEvents for replay and as
// live bus events for subscribers.
type Manager struct {
	catalog     *catalog.Catalog
	persistence persistence.Persistence
	uploads     persistence.UploadStore
	bus         eventbus.EventPublisher
	logger      *slog.Logger

	wg sync.WaitGroup
}

// NewManager builds a manager. The upload store and the bus may be nil; a nil
// upload store disables experiment file loading and a nil bus disables live
// fan-out, replay via StreamEvents keeps working either way.
func NewManager(
	cat *catalog.Catalog,
	store persistence.Persistence,
	uploads persistence.UploadStore,
	bus eventbus.EventPublisher,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		catalog:     cat,
		persistence: store,
		uploads:     uploads,
		bus:         bus,
		logger:      logger,
	}
}

// Start validates the configuration, persists a pending run and launches its
// execution in the background. The returned run is a snapshot; callers track
// progress through StreamEvents or the bus, not through the returned pointer.
func (m *Manager) Start(ctx context.Context, projectID string, kind models.PipelineKind, config models.RunConfig) (*models.Run, error) {
	p, err := m.catalog.Pipeline(kind)
	if err != nil {
		return nil, err
	}

	if err := p.ValidateConfig(config); err != nil {
		return nil, err
	}

	run := models.NewRun(projectID, kind, config)

	if err := m.persistence.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	m.logger.InfoContext(ctx, "Run created", "run_id", run.ID, "kind", kind, "project_id", projectID)

	snapshot := *run

	m.wg.Add(1)

	go m.execute(p, &snapshot)

	return run, nil
}

// Wait blocks until every in-flight background run finishes. Used for
// shutdown and by tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// execute drives one run to a terminal status. It deliberately uses a fresh
// context so the run outlives the request that started it.
func (m *Manager) execute(p catalog.Pipeline, run *models.Run) {
	defer m.wg.Done()

	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Run panicked", "run_id", run.ID, "panic", r)
			m.finishFailed(ctx, run, fmt.Sprintf("internal error: %v", r))
		}
	}()

	started := time.Now().UTC()
	run.Status = models.RunStatusRunning
	run.StartedAt = &started

	if err := m.persistence.UpdateRun(ctx, run); err != nil {
		m.logger.ErrorContext(ctx, "Failed to mark run running", "run_id", run.ID, "error", err)

		return
	}

	m.record(ctx, run, models.EventRunStarted, map[string]any{"kind": string(run.Kind)})
	m.publish(ctx, run, events.RunStarted{
		BaseEvent: m.baseEvent(events.RunStartedEvent, run),
		Kind:      run.Kind,
	})

	config, err := m.prepareConfig(ctx, run)
	if err != nil {
		m.finishFailed(ctx, run, err.Error())

		return
	}

	outcome, err := p.Execute(ctx, config, &runObserver{manager: m, run: run})
	if err != nil {
		m.finishFailed(ctx, run, err.Error())

		return
	}

	if outcome.Failed() {
		m.finishFailed(ctx, run, outcome.Err)

		return
	}

	m.saveDocuments(ctx, run, outcome.Documents)
	m.finishCompleted(ctx, run, outcome.Result)
}

func (m *Manager) saveDocuments(ctx context.Context, run *models.Run, documents []catalog.Document) {
	for _, doc := range documents {
		artifact := models.NewArtifact(run.ProjectID, doc.Type, doc.Title, doc.Content)

		if err := m.persistence.SaveArtifact(ctx, artifact); err != nil {
			m.logger.ErrorContext(ctx, "Failed to save artifact",
				"run_id", run.ID, "artifact_type", doc.Type, "error", err)

			continue
		}

		m.record(ctx, run, models.EventArtifactReady, map[string]any{
			"artifact_id":   artifact.ID,
			"artifact_type": artifact.Type,
			"title":         artifact.Title,
		})

		event := events.ArtifactReady{
			BaseEvent:    m.baseEvent(events.ArtifactReadyEvent, run),
			ArtifactID:   artifact.ID,
			ArtifactType: artifact.Type,
			Title:        artifact.Title,
		}
		m.publish(ctx, run, event)
	}
}

func (m *Manager) finishCompleted(ctx context.Context, run *models.Run, result map[string]any) {
	finished := time.Now().UTC()
	run.Status = models.RunStatusCompleted
	run.Result = result
	run.FinishedAt = &finished

	if err := m.persistence.UpdateRun(ctx, run); err != nil {
		m.logger.ErrorContext(ctx, "Failed to mark run completed", "run_id", run.ID, "error", err)
	}

	m.record(ctx, run, models.EventRunComplete, map[string]any{"result": result})
	m.publish(ctx, run, events.RunCompleted{
		BaseEvent: m.baseEvent(events.RunCompletedEvent, run),
		Result:    result,
		Duration:  runDuration(run),
	})

	m.logger.InfoContext(ctx, "Run completed", "run_id", run.ID, "kind", run.Kind)
}

func (m *Manager) finishFailed(ctx context.Context, run *models.Run, message string) {
	finished := time.Now().UTC()
	run.Status = models.RunStatusFailed
	run.ErrorMessage = message
	run.FinishedAt = &finished

	if err := m.persistence.UpdateRun(ctx, run); err != nil {
		m.logger.ErrorContext(ctx, "Failed to mark run failed", "run_id", run.ID, "error", err)
	}

	m.record(ctx, run, models.EventRunError, map[string]any{"error": message})
	m.publish(ctx, run, events.RunFailed{
		BaseEvent: m.baseEvent(events.RunFailedEvent, run),
		Error:     message,
		Duration:  runDuration(run),
	})

	m.logger.ErrorContext(ctx, "Run failed", "run_id", run.ID, "kind", run.Kind, "error", message)
}

// RecoverStaleRuns fails every run left pending or running by a previous
// process. Returns how many runs were failed.
func (m *Manager) RecoverStaleRuns(ctx context.Context) (int, error) {
	stale, err := m.persistence.FindStaleRuns(ctx)
	if err != nil {
		return 0, err
	}

	for _, run := range stale {
		m.logger.WarnContext(ctx, "Failing orphaned run", "run_id", run.ID, "status", run.Status)
		m.finishFailed(ctx, run, "run interrupted before completion")
	}

	return len(stale), nil
}

// record appends a RunEvent to the run's ordered log.
func (m *Manager) record(ctx context.Context, run *models.Run, eventType models.EventType, payload map[string]any) {
	event := models.NewRunEvent(run.ID, eventType, payload)

	if err := m.persistence.AppendEvent(ctx, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to append run event",
			"run_id", run.ID, "event_type", eventType, "error", err)
	}
}

// publish fans an event out on the live bus, keyed by run so consumers can
// partition per run.
func (m *Manager) publish(ctx context.Context, run *models.Run, event eventbus.Event) {
	if m.bus == nil {
		return
	}

	if err := m.bus.Publish(ctx, run.ID, event); err != nil {
		m.logger.ErrorContext(ctx, "Failed to publish run event",
			"run_id", run.ID, "event_type", event.GetType(), "error", err)
	}
}

func (m *Manager) baseEvent(eventType events.EventType, run *models.Run) events.BaseEvent {
	base := events.NewBaseEvent(eventType, run.ID)
	base.ProjectID = run.ProjectID

	return base
}

func runDuration(run *models.Run) time.Duration {
	if run.StartedAt == nil || run.FinishedAt == nil {
		return 0
	}

	return run.FinishedAt.Sub(*run.StartedAt)
}

// runObserver bridges pipeline progress into run events.
type runObserver struct {
	manager *Manager
	run     *models.Run
}

func (o *runObserver) StageStarted(ctx context.Context, stage string) {
	o.manager.publish(ctx, o.run, events.StageStarted{
		BaseEvent: o.manager.baseEvent(events.StageStartedEvent, o.run),
		Stage:     stage,
	})
}

func (o *runObserver) NoteAdded(ctx context.Context, note models.ProgressNote) {
	o.manager.record(ctx, o.run, models.EventAgentNote, map[string]any{
		"agent":   note.Agent,
		"content": note.Content,
	})

	o.manager.publish(ctx, o.run, events.AgentNote{
		BaseEvent: o.manager.baseEvent(events.AgentNoteEvent, o.run),
		Agent:     note.Agent,
		Content:   note.Content,
	})
}
