package agents

import (
	"github.com/cortexlab/cortexlab/pkg/models"
)

// StepError marks a state whose pipeline stopped.
const StepError = "error"

// Progress markers recorded by the stages.
const (
	StepScopeClarified      = "scope_clarified"
	StepPapersRetrieved     = "papers_retrieved"
	StepTrendsIdentified    = "trends_identified"
	StepGapsIdentified      = "gaps_identified"
	StepDirectionsGenerated = "directions_generated"
	StepDeepDiveComplete    = "deep_dive_complete"
	StepExperimentsDesigned = "experiments_designed"
	StepPaperDrafted        = "paper_drafted"
	StepPaperEdited         = "paper_edited"
)

// DomainBoundaries is the hierarchical breakdown of a research topic.
type DomainBoundaries struct {
	Field         string   `json:"field"`
	Subfield      string   `json:"subfield"`
	SpecificTopic string   `json:"specific_topic"`
	RelatedAreas  []string `json:"related_areas,omitempty"`
}

// DiscoveryState is the state threaded through the discovery pipeline. It is
// a value type; stages return a modified copy and never mutate their input.
type DiscoveryState struct {
	Topic string `json:"topic"`

	Boundaries    DomainBoundaries `json:"domain_boundaries,omitzero"`
	SearchQueries []string         `json:"search_queries,omitempty"`
	Constraints   map[string]any   `json:"constraints,omitempty"`

	Papers     []models.Paper             `json:"papers,omitempty"`
	Themes     []models.Theme             `json:"themes,omitempty"`
	Trends     map[string]any             `json:"trends,omitempty"`
	Gaps       []models.ResearchGap       `json:"gaps,omitempty"`
	Directions []models.ResearchDirection `json:"directions,omitempty"`

	Notes []models.ProgressNote `json:"messages,omitempty"`

	Step string `json:"current_step,omitempty"`
	Err  string `json:"error,omitempty"`
}

func (s DiscoveryState) Fail(msg string) DiscoveryState {
	next := s
	next.Err = msg
	next.Step = StepError

	return next
}

func (s DiscoveryState) Failed() bool           { return s.Err != "" }
func (s DiscoveryState) FailureMessage() string { return s.Err }
func (s DiscoveryState) CurrentStep() string    { return s.Step }

// Note returns a copy with a progress note appended.
func (s DiscoveryState) Note(agent, content string) DiscoveryState {
	next := s
	next.Notes = appendNote(s.Notes, agent, content)

	return next
}

// DeepDiveState is the state threaded through the deep dive pipeline.
type DeepDiveState struct {
	Direction models.ResearchDirection `json:"direction"`

	SearchQueries []string       `json:"search_queries,omitempty"`
	Papers        []models.Paper `json:"deep_dive_papers,omitempty"`

	BaselineMethods     []models.BaselineMethod `json:"baseline_methods,omitempty"`
	Datasets            []models.Dataset        `json:"datasets,omitempty"`
	Metrics             []models.Metric         `json:"metrics,omitempty"`
	FailureCases        []models.FailureCase    `json:"failure_cases,omitempty"`
	ImplementationNotes map[string]any          `json:"implementation_notes,omitempty"`

	Hypotheses      []models.Hypothesis `json:"hypotheses,omitempty"`
	ProposedMethod  map[string]any      `json:"proposed_method,omitempty"`
	Ablations       []map[string]any    `json:"ablations,omitempty"`
	ExperimentSetup map[string]any      `json:"experiment_setup,omitempty"`
	TrainingProto   map[string]any      `json:"training_protocol,omitempty"`
	EvaluationPlan  map[string]any      `json:"evaluation_plan,omitempty"`
	ComputeEstimate map[string]any      `json:"compute_estimate,omitempty"`
	Timeline        map[string]any      `json:"timeline,omitempty"`
	Risks           []map[string]any    `json:"risks,omitempty"`

	Notes []models.ProgressNote `json:"messages,omitempty"`

	Step string `json:"current_step,omitempty"`
	Err  string `json:"error,omitempty"`
}

func (s DeepDiveState) Fail(msg string) DeepDiveState {
	next := s
	next.Err = msg
	next.Step = StepError

	return next
}

func (s DeepDiveState) Failed() bool           { return s.Err != "" }
func (s DeepDiveState) FailureMessage() string { return s.Err }
func (s DeepDiveState) CurrentStep() string    { return s.Step }

func (s DeepDiveState) Note(agent, content string) DeepDiveState {
	next := s
	next.Notes = appendNote(s.Notes, agent, content)

	return next
}

// PaperState is the state threaded through the paper pipeline.
type PaperState struct {
	Direction            models.ResearchDirection `json:"direction"`
	DeepDiveReport       string                   `json:"deep_dive_report,omitempty"`
	ExperimentData       []models.ExperimentFile  `json:"experiment_data,omitempty"`
	RevisionInstructions string                   `json:"revision_instructions,omitempty"`

	Title           string            `json:"title,omitempty"`
	Outline         map[string]any    `json:"outline,omitempty"`
	Sections        map[string]string `json:"sections,omitempty"`
	PaperMarkdown   string            `json:"paper_markdown,omitempty"`
	EditorAnalysis  map[string]any    `json:"editor_analysis,omitempty"`
	RevisionSummary string            `json:"revision_summary,omitempty"`

	Notes []models.ProgressNote `json:"messages,omitempty"`

	Step string `json:"current_step,omitempty"`
	Err  string `json:"error,omitempty"`
}

func (s PaperState) Fail(msg string) PaperState {
	next := s
	next.Err = msg
	next.Step = StepError

	return next
}

func (s PaperState) Failed() bool           { return s.Err != "" }
func (s PaperState) FailureMessage() string { return s.Err }
func (s PaperState) CurrentStep() string    { return s.Step }

func (s PaperState) Note(agent, content string) PaperState {
	next := s
	next.Notes = appendNote(s.Notes, agent, content)

	return next
}

// appendNote copies the slice so sibling states never share a backing array.
func appendNote(notes []models.ProgressNote, agent, content string) []models.ProgressNote {
	out := make([]models.ProgressNote, len(notes), len(notes)+1)
	copy(out, notes)

	return append(out, models.ProgressNote{Agent: agent, Content: content})
}
