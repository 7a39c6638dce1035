package models

// BaselineMethod is an established method new work must compare against.
type BaselineMethod struct {
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	PerformanceSummary string `json:"performance_summary,omitempty"`
	PaperReference     string `json:"paper_reference,omitempty"`
}

// Dataset is a standard evaluation dataset for a research direction.
type Dataset struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Size         string `json:"size,omitempty"`
	URL          string `json:"url,omitempty"`
	CommonSplits string `json:"common_splits,omitempty"`
}

// Metric is a standard evaluation metric.
type Metric struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Formula      string `json:"formula,omitempty"`
	TypicalRange string `json:"typical_range,omitempty"`
}

// FailureCase is a scenario current methods are known to struggle with.
type FailureCase struct {
	Scenario               string `json:"scenario"`
	WhyItFails             string `json:"why_it_fails,omitempty"`
	PotentialSolutionHints string `json:"potential_solution_hints,omitempty"`
}

// Hypothesis is one testable hypothesis in an experiment plan.
type Hypothesis struct {
	ID              string `json:"id"`
	Statement       string `json:"statement"`
	Rationale       string `json:"rationale,omitempty"`
	ExpectedOutcome string `json:"expected_outcome,omitempty"`
	NullHypothesis  string `json:"null_hypothesis,omitempty"`
}
