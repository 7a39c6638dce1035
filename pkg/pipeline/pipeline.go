// Package pipeline executes an ordered sequence of stages over an immutable
// state value. Each stage receives the current state and returns a successor;
// the executor never retries a stage and stops at the first failure.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cortexlab/cortexlab/pkg/otelhelper"
)

// State is the contract a pipeline state type satisfies. States are value
// types; stages copy before mutating so a failed stage cannot corrupt the
// input it was given.
type State[S any] interface {
	// Fail returns a copy of the state marked failed with the given message.
	Fail(msg string) S
	// Failed reports whether the state carries a failure marker.
	Failed() bool
	// FailureMessage returns the failure marker text, empty when not failed.
	FailureMessage() string
	// CurrentStep names the last progress marker a stage recorded.
	CurrentStep() string
}

// Stage is one named step of a pipeline.
type Stage[S State[S]] struct {
	Name string
	Run  func(ctx context.Context, state S) (S, error)
}

// Observer receives progress callbacks during execution. Completed fires
// after each successful stage with the stage's output state.
type Observer[S State[S]] interface {
	StageStarted(ctx context.Context, stageName string)
	StageCompleted(ctx context.Context, stageName string, state S)
}

// NopObserver ignores all callbacks.
type NopObserver[S State[S]] struct{}

func (NopObserver[S]) StageStarted(context.Context, string)      {}
func (NopObserver[S]) StageCompleted(context.Context, string, S) {}

// Executor runs stages strictly in registration order.
type Executor[S State[S]] struct {
	name   string
	stages []Stage[S]
	logger *slog.Logger
	tracer trace.Tracer
}

func NewExecutor[S State[S]](name string, logger *slog.Logger, stages ...Stage[S]) *Executor[S] {
	return &Executor[S]{
		name:   name,
		stages: stages,
		logger: logger,
		tracer: otel.Tracer("pipeline"),
	}
}

// Name returns the pipeline's registered name.
func (e *Executor[S]) Name() string {
	return e.name
}

// StageNames lists the stages in execution order.
func (e *Executor[S]) StageNames() []string {
	names := make([]string, len(e.stages))
	for i, stage := range e.stages {
		names[i] = stage.Name
	}

	return names
}

// Execute runs every stage in order and returns the final state. A stage
// error is converted into a failed state named after the stage; execution
// then stops and the state accumulated so far is returned. The returned
// error is non-nil only for pipeline-level problems such as cancellation,
// never for a stage failure.
func (e *Executor[S]) Execute(ctx context.Context, initial S, observer Observer[S]) (S, error) {
	if observer == nil {
		observer = NopObserver[S]{}
	}

	ctx, span := e.tracer.Start(ctx, "pipeline.execute", trace.WithAttributes(
		attribute.String(otelhelper.PipelineKindKey, e.name),
	))
	defer span.End()

	state := initial

	for _, stage := range e.stages {
		if err := ctx.Err(); err != nil {
			return state.Fail(fmt.Sprintf("%s cancelled: %v", stage.Name, err)), err
		}

		e.logger.InfoContext(ctx, "Executing stage", "pipeline", e.name, "stage", stage.Name)
		observer.StageStarted(ctx, stage.Name)

		next, err := e.runStage(ctx, stage, state)
		if err != nil {
			e.logger.ErrorContext(ctx, "Stage failed", "pipeline", e.name, "stage", stage.Name, "error", err)
			otelhelper.SetError(span, err)

			return state.Fail(fmt.Sprintf("%s failed: %v", stage.Name, err)), nil
		}

		state = next

		if state.Failed() {
			e.logger.ErrorContext(ctx, "Stage reported failure",
				"pipeline", e.name,
				"stage", stage.Name,
				"message", state.FailureMessage())

			return state, nil
		}

		observer.StageCompleted(ctx, stage.Name, state)
	}

	return state, nil
}

func (e *Executor[S]) runStage(ctx context.Context, stage Stage[S], state S) (S, error) {
	ctx, span := e.tracer.Start(ctx, "pipeline.stage", trace.WithAttributes(
		attribute.String(otelhelper.StageNameKey, stage.Name),
	))
	defer span.End()

	return stage.Run(ctx, state)
}
