package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testState struct {
	Step    string
	Visited []string
	Err     string
}

func (s testState) Fail(msg string) testState {
	next := s
	next.Err = msg
	next.Step = "error"

	return next
}

func (s testState) Failed() bool           { return s.Err != "" }
func (s testState) FailureMessage() string { return s.Err }
func (s testState) CurrentStep() string    { return s.Step }

func visitStage(name string) Stage[testState] {
	return Stage[testState]{
		Name: name,
		Run: func(_ context.Context, state testState) (testState, error) {
			next := state
			next.Step = name
			next.Visited = append(append([]string{}, state.Visited...), name)

			return next, nil
		},
	}
}

func failingStage(name string) Stage[testState] {
	return Stage[testState]{
		Name: name,
		Run: func(_ context.Context, state testState) (testState, error) {
			return state, errors.New("backend unavailable")
		},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestExecutorRunsStagesInOrder(t *testing.T) {
	executor := NewExecutor("test", testLogger(),
		visitStage("first"),
		visitStage("second"),
		visitStage("third"),
	)

	final, err := executor.Execute(context.Background(), testState{}, nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, final.Visited)
	assert.Equal(t, "third", final.CurrentStep())
	assert.False(t, final.Failed())
}

func TestExecutorStopsAtFirstFailure(t *testing.T) {
	calls := 0
	counting := Stage[testState]{
		Name: "after-failure",
		Run: func(_ context.Context, state testState) (testState, error) {
			calls++

			return state, nil
		},
	}

	executor := NewExecutor("test", testLogger(),
		visitStage("first"),
		failingStage("broken"),
		counting,
	)

	final, err := executor.Execute(context.Background(), testState{}, nil)

	require.NoError(t, err, "a stage failure is state, not an executor error")
	assert.True(t, final.Failed())
	assert.Equal(t, "error", final.CurrentStep())
	assert.Contains(t, final.FailureMessage(), "broken failed")
	assert.Contains(t, final.FailureMessage(), "backend unavailable")
	assert.Equal(t, 0, calls, "stages after a failure must not run")
	assert.Equal(t, []string{"first"}, final.Visited, "progress before the failure is preserved")
}

func TestExecutorStopsWhenStageMarksStateFailed(t *testing.T) {
	marking := Stage[testState]{
		Name: "marker",
		Run: func(_ context.Context, state testState) (testState, error) {
			return state.Fail("nothing to work with"), nil
		},
	}

	calls := 0
	counting := Stage[testState]{
		Name: "next",
		Run: func(_ context.Context, state testState) (testState, error) {
			calls++

			return state, nil
		},
	}

	executor := NewExecutor("test", testLogger(), marking, counting)

	final, err := executor.Execute(context.Background(), testState{}, nil)

	require.NoError(t, err)
	assert.True(t, final.Failed())
	assert.Equal(t, "nothing to work with", final.FailureMessage())
	assert.Equal(t, 0, calls)
}

func TestExecutorHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	executor := NewExecutor("test", testLogger(), visitStage("first"))

	final, err := executor.Execute(ctx, testState{}, nil)

	require.Error(t, err)
	assert.True(t, final.Failed())
	assert.Empty(t, final.Visited)
}

type recordingObserver struct {
	started   []string
	completed []string
}

func (r *recordingObserver) StageStarted(_ context.Context, name string) {
	r.started = append(r.started, name)
}

func (r *recordingObserver) StageCompleted(_ context.Context, name string, _ testState) {
	r.completed = append(r.completed, name)
}

func TestExecutorNotifiesObserver(t *testing.T) {
	observer := &recordingObserver{}

	executor := NewExecutor("test", testLogger(),
		visitStage("first"),
		failingStage("broken"),
	)

	_, err := executor.Execute(context.Background(), testState{}, observer)

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "broken"}, observer.started)
	assert.Equal(t, []string{"first"}, observer.completed, "failed stages do not complete")
}

func TestExecutorStageNames(t *testing.T) {
	executor := NewExecutor("test", testLogger(),
		visitStage("first"),
		visitStage("second"),
	)

	assert.Equal(t, "test", executor.Name())
	assert.Equal(t, []string{"first", "second"}, executor.StageNames())
}
