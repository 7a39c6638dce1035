// Package catalog registers the available research pipelines and adapts each
// typed executor behind a single kind-addressed interface. Run configurations
// are validated against a per-pipeline JSON schema before a state is built.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/cortexlab/cortexlab/pkg/agents"
	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/pipeline"
)

// Document is a finished Markdown deliverable produced by a pipeline run. The
// lifecycle manager attaches documents to the run's project as artifacts.
type Document struct {
	Type    string
	Title   string
	Content string
}

// Outcome is the type-erased final state of a pipeline execution. Err is
// empty for a successful run; a failed run carries the failure message and
// its last step marker instead of a result.
type Outcome struct {
	Result    map[string]any
	Documents []Document
	Notes     []models.ProgressNote
	Step      string
	Err       string
}

// Failed reports whether the pipeline stopped at a failed stage.
func (o *Outcome) Failed() bool {
	return o.Err != ""
}

// Observer receives progress callbacks while a pipeline executes.
type Observer interface {
	StageStarted(ctx context.Context, stage string)
	NoteAdded(ctx context.Context, note models.ProgressNote)
}

// NopObserver ignores all callbacks.
type NopObserver struct{}

func (NopObserver) StageStarted(context.Context, string)          {}
func (NopObserver) NoteAdded(context.Context, models.ProgressNote) {}

// Pipeline is one registered pipeline.
type Pipeline interface {
	Kind() models.PipelineKind

	// StageNames lists the stages in execution order.
	StageNames() []string

	// ValidateConfig checks a run configuration against the pipeline's
	// schema, wrapping ErrInvalidConfig on violations.
	ValidateConfig(config models.RunConfig) error

	// Execute validates the configuration, builds the initial state and runs
	// every stage. A failed run is reported through the outcome, not the
	// returned error; the error is reserved for invalid input and
	// cancellation.
	Execute(ctx context.Context, config models.RunConfig, observer Observer) (*Outcome, error)
}

// Catalog holds the registered pipelines, addressed by kind.
type Catalog struct {
	pipelines map[models.PipelineKind]Pipeline
}

// New builds the catalog with the three standard pipelines over the given
// collaborators.
func New(deps agents.Deps) *Catalog {
	c := &Catalog{pipelines: make(map[models.PipelineKind]Pipeline)}

	c.register(&registered[agents.DiscoveryState]{
		kind:     models.PipelineDiscovery,
		schema:   discoveryConfigSchema,
		executor: agents.DiscoveryPipeline(deps),
		notes:    func(s agents.DiscoveryState) []models.ProgressNote { return s.Notes },
		outcome:  discoveryOutcome,
	})

	c.register(&registered[agents.DeepDiveState]{
		kind:     models.PipelineDeepDive,
		schema:   deepDiveConfigSchema,
		executor: agents.DeepDivePipeline(deps),
		notes:    func(s agents.DeepDiveState) []models.ProgressNote { return s.Notes },
		outcome:  deepDiveOutcome,
	})

	c.register(&registered[agents.PaperState]{
		kind:     models.PipelinePaper,
		schema:   paperConfigSchema,
		executor: agents.PaperPipeline(deps),
		notes:    func(s agents.PaperState) []models.ProgressNote { return s.Notes },
		outcome:  paperOutcome,
	})

	return c
}

func (c *Catalog) register(p Pipeline) {
	c.pipelines[p.Kind()] = p
}

// Pipeline returns the pipeline registered for the kind, or
// ErrUnknownPipeline.
func (c *Catalog) Pipeline(kind models.PipelineKind) (Pipeline, error) {
	p, ok := c.pipelines[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, kind)
	}

	return p, nil
}

// Kinds lists the registered pipeline kinds in stable order.
func (c *Catalog) Kinds() []models.PipelineKind {
	kinds := make([]models.PipelineKind, 0, len(c.pipelines))
	for kind := range c.pipelines {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}

// registered adapts one typed executor to the type-erased Pipeline interface.
type registered[S pipeline.State[S]] struct {
	kind     models.PipelineKind
	schema   map[string]any
	executor *pipeline.Executor[S]
	notes    func(S) []models.ProgressNote
	outcome  func(S) *Outcome
}

func (r *registered[S]) Kind() models.PipelineKind {
	return r.kind
}

func (r *registered[S]) StageNames() []string {
	return r.executor.StageNames()
}

func (r *registered[S]) ValidateConfig(config models.RunConfig) error {
	schemaLoader := gojsonschema.NewGoLoader(r.schema)
	configLoader := gojsonschema.NewGoLoader(map[string]any(config))

	result, err := gojsonschema.Validate(schemaLoader, configLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", r.kind, err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, violation := range result.Errors() {
			violations = append(violations, violation.String())
		}

		return fmt.Errorf("%w for %s: %s", ErrInvalidConfig, r.kind, strings.Join(violations, "; "))
	}

	return nil
}

func (r *registered[S]) Execute(ctx context.Context, config models.RunConfig, observer Observer) (*Outcome, error) {
	if err := r.ValidateConfig(config); err != nil {
		return nil, err
	}

	initial, err := stateFromConfig[S](config)
	if err != nil {
		return nil, err
	}

	if observer == nil {
		observer = NopObserver{}
	}

	final, err := r.executor.Execute(ctx, initial, &noteForwarder[S]{
		observer: observer,
		notes:    r.notes,
	})
	if err != nil {
		return nil, err
	}

	return r.outcome(final), nil
}

// stateFromConfig builds the initial state by decoding the configuration
// through JSON, so config keys align with the state's field tags. Unknown
// keys are ignored.
func stateFromConfig[S any](config models.RunConfig) (S, error) {
	var state S

	raw, err := json.Marshal(config)
	if err != nil {
		return state, fmt.Errorf("failed to encode run config: %w", err)
	}

	if err := json.Unmarshal(raw, &state); err != nil {
		return state, fmt.Errorf("failed to decode run config: %w", err)
	}

	return state, nil
}

// noteForwarder replays newly appended progress notes to the type-erased
// observer after each successful stage.
type noteForwarder[S pipeline.State[S]] struct {
	observer Observer
	notes    func(S) []models.ProgressNote
	seen     int
}

func (f *noteForwarder[S]) StageStarted(ctx context.Context, stage string) {
	f.observer.StageStarted(ctx, stage)
}

func (f *noteForwarder[S]) StageCompleted(ctx context.Context, _ string, state S) {
	notes := f.notes(state)
	for _, note := range notes[f.seen:] {
		f.observer.NoteAdded(ctx, note)
	}

	f.seen = len(notes)
}
