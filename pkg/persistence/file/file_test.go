package file

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/persistence"
)

func newTestPersistence(t *testing.T) *Persistence {
	t.Helper()

	p, err := NewPersistence(t.TempDir())
	require.NoError(t, err)

	return p
}

func TestCreateAndGetRun(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	run := models.NewRun("project-1", models.PipelineDiscovery, models.RunConfig{"topic": "gnn"})

	require.NoError(t, p.CreateRun(ctx, run))

	got, err := p.RunByID(ctx, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, models.RunStatusPending, got.Status)
	assert.Equal(t, "gnn", got.Config["topic"])
}

func TestCreateRunDuplicate(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	run := models.NewRun("project-1", models.PipelineDiscovery, nil)

	require.NoError(t, p.CreateRun(ctx, run))

	err := p.CreateRun(ctx, run)
	assert.ErrorIs(t, err, persistence.ErrRunAlreadyExists)
}

func TestRunByIDNotFound(t *testing.T) {
	p := newTestPersistence(t)

	_, err := p.RunByID(context.Background(), "missing")

	assert.True(t, persistence.IsRunNotFound(err))
}

func TestUpdateRun(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	run := models.NewRun("project-1", models.PipelineDiscovery, nil)
	require.NoError(t, p.CreateRun(ctx, run))

	run.Status = models.RunStatusCompleted
	run.Result = map[string]any{"directions": []any{}}

	require.NoError(t, p.UpdateRun(ctx, run))

	got, err := p.RunByID(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusCompleted, got.Status)
}

func TestUpdateRunNotFound(t *testing.T) {
	p := newTestPersistence(t)

	err := p.UpdateRun(context.Background(), models.NewRun("project-1", models.PipelinePaper, nil))

	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunsNewestFirst(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	older := models.NewRun("project-1", models.PipelineDiscovery, nil)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)

	newer := models.NewRun("project-1", models.PipelinePaper, nil)

	require.NoError(t, p.CreateRun(ctx, older))
	require.NoError(t, p.CreateRun(ctx, newer))

	runs, err := p.Runs(ctx)
	require.NoError(t, err)

	require.Len(t, runs, 2)
	assert.Equal(t, newer.ID, runs[0].ID)
	assert.Equal(t, older.ID, runs[1].ID)
}

func TestFindStaleRuns(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	pending := models.NewRun("project-1", models.PipelineDiscovery, nil)

	running := models.NewRun("project-1", models.PipelineDeepDive, nil)
	running.Status = models.RunStatusRunning

	done := models.NewRun("project-1", models.PipelinePaper, nil)
	done.Status = models.RunStatusCompleted

	for _, run := range []*models.Run{pending, running, done} {
		require.NoError(t, p.CreateRun(ctx, run))
	}

	stale, err := p.FindStaleRuns(ctx)
	require.NoError(t, err)

	require.Len(t, stale, 2)

	ids := []string{stale[0].ID, stale[1].ID}
	assert.Contains(t, ids, pending.ID)
	assert.Contains(t, ids, running.ID)
}

func TestAppendEventAssignsSequence(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	first := models.NewRunEvent("run-1", models.EventRunStarted, nil)
	second := models.NewRunEvent("run-1", models.EventAgentNote, map[string]any{"content": "note"})
	other := models.NewRunEvent("run-2", models.EventRunStarted, nil)

	require.NoError(t, p.AppendEvent(ctx, first))
	require.NoError(t, p.AppendEvent(ctx, second))
	require.NoError(t, p.AppendEvent(ctx, other))

	assert.Equal(t, int64(1), first.Seq)
	assert.Equal(t, int64(2), second.Seq)
	assert.Equal(t, int64(1), other.Seq, "sequences are per run")
}

func TestListEventsOrderAndOffset(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	for _, eventType := range []models.EventType{models.EventRunStarted, models.EventAgentNote, models.EventRunComplete} {
		require.NoError(t, p.AppendEvent(ctx, models.NewRunEvent("run-1", eventType, nil)))
	}

	all, err := p.ListEvents(ctx, "run-1", 0)
	require.NoError(t, err)

	require.Len(t, all, 3)
	assert.Equal(t, models.EventRunStarted, all[0].Type)
	assert.Equal(t, models.EventRunComplete, all[2].Type)

	tail, err := p.ListEvents(ctx, "run-1", 1)
	require.NoError(t, err)

	require.Len(t, tail, 2)
	assert.Equal(t, int64(2), tail[0].Seq)
}

func TestListEventsUnknownRun(t *testing.T) {
	p := newTestPersistence(t)

	events, err := p.ListEvents(context.Background(), "missing", 0)

	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestSaveAndListArtifacts(t *testing.T) {
	p := newTestPersistence(t)
	ctx := context.Background()

	older := models.NewArtifact("project-1", "experiment_plan", "Plan", "# Plan")
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)

	newer := models.NewArtifact("project-1", "paper_draft", "Draft", "# Draft")
	other := models.NewArtifact("project-2", "paper_draft", "Other", "# Other")

	for _, artifact := range []*models.Artifact{older, newer, other} {
		require.NoError(t, p.SaveArtifact(ctx, artifact))
	}

	artifacts, err := p.Artifacts(ctx, "project-1")
	require.NoError(t, err)

	require.Len(t, artifacts, 2)
	assert.Equal(t, newer.ID, artifacts[0].ID)
	assert.Equal(t, older.ID, artifacts[1].ID)
}

func TestHealthCheck(t *testing.T) {
	p := newTestPersistence(t)

	assert.NoError(t, p.HealthCheck(context.Background()))
	assert.NoError(t, p.Close(context.Background()))
}
