package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/cortexlab/pkg/agents"
	"github.com/cortexlab/cortexlab/pkg/models"
)

func TestFormatDirectionsFallbacks(t *testing.T) {
	directions := []models.ResearchDirection{
		{Description: "bare direction"},
	}

	out := formatDirections(directions, nil, 12)

	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0]["id"])
	assert.Equal(t, "Untitled Direction", out[0]["title"])
	assert.Equal(t, "Analysis pending...", out[0]["past_approaches"])
	assert.Equal(t, "See detailed report", out[0]["gaps"])
	assert.Equal(t, "See experiment plan", out[0]["improvements"])
	assert.Equal(t, 7, out[0]["feasibility_score"])
	assert.Equal(t, "method", out[0]["contribution_type"])
}

func TestFormatDirectionsCapsAtFive(t *testing.T) {
	directions := make([]models.ResearchDirection, 8)
	for i := range directions {
		directions[i].Title = "d"
	}

	assert.Len(t, formatDirections(directions, nil, 0), 5)
}

func TestFormatDirectionsGapSummaryTruncated(t *testing.T) {
	gaps := []models.ResearchGap{
		{Description: strings.Repeat("a", 150)},
		{Description: "short gap"},
		{Description: "ignored third gap"},
	}

	out := formatDirections([]models.ResearchDirection{{Title: "d"}}, gaps, 0)

	require.Len(t, out, 1)

	summary, ok := out[0]["gaps"].(string)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("a", 100)+", short gap", summary)
}

func TestFormatExperimentPlan(t *testing.T) {
	state := agents.DeepDiveState{
		Hypotheses: []models.Hypothesis{
			{Statement: "Invariance improves OOD accuracy", Rationale: "prior evidence"},
		},
		BaselineMethods: []models.BaselineMethod{
			{Name: "ERM", Description: "standard training"},
		},
		Datasets: []models.Dataset{
			{Name: "OGB-Arxiv", Description: "citation graph"},
		},
		Metrics: []models.Metric{
			{Name: "Accuracy", Description: "top-1"},
		},
		TrainingProto: map[string]any{"optimizer": "AdamW"},
		Ablations: []map[string]any{
			{"name": "No regularizer", "description": "drop the invariance term"},
		},
	}

	plan := FormatExperimentPlan(state)

	assert.True(t, strings.HasPrefix(plan, "# Experiment Plan\n\n"))
	assert.Contains(t, plan, "1. **Invariance improves OOD accuracy**\n   - *Rationale*: prior evidence\n")
	assert.Contains(t, plan, "- **ERM**: standard training\n")
	assert.Contains(t, plan, "- **OGB-Arxiv**: citation graph\n")
	assert.Contains(t, plan, "- **Accuracy**: top-1\n")
	assert.Contains(t, plan, "- **Optimizer**: AdamW\n")
	assert.Contains(t, plan, "- **Learning Rate**: 1e-4\n", "missing protocol fields fall back")
	assert.Contains(t, plan, "- **No regularizer**: drop the invariance term\n")
	assert.Contains(t, plan, "## Next Steps\n")
}

func TestFormatExperimentPlanSkipsEmptySections(t *testing.T) {
	plan := FormatExperimentPlan(agents.DeepDiveState{})

	assert.NotContains(t, plan, "## Hypotheses")
	assert.NotContains(t, plan, "## Training Protocol")
	assert.Contains(t, plan, "## Next Steps")
}

func TestDeepDiveOutcome(t *testing.T) {
	state := agents.DeepDiveState{
		Direction: models.ResearchDirection{ID: "dir_2", Title: "Direction Two"},
		Hypotheses: []models.Hypothesis{
			{Statement: "H1"},
		},
		Step: agents.StepExperimentsDesigned,
	}

	outcome := deepDiveOutcome(state)

	require.False(t, outcome.Failed())
	assert.Equal(t, `Deep dive complete for "Direction Two"`, outcome.Result["message"])

	require.Len(t, outcome.Documents, 1)
	doc := outcome.Documents[0]
	assert.Equal(t, models.ArtifactTypeExperimentPlan, doc.Type)
	assert.Equal(t, "Experiment Plan: Direction Two", doc.Title)
	assert.Contains(t, doc.Content, "# Experiment Plan")
}

func TestPaperOutcome(t *testing.T) {
	state := agents.PaperState{
		Title:           "A Benchmark for Temporal Graph Shift",
		Sections:        map[string]string{"abstract": "We present..."},
		PaperMarkdown:   "# A Benchmark for Temporal Graph Shift\n\n## Abstract\n\nWe present...",
		RevisionSummary: "Revised 1 sections based on analysis",
		Step:            agents.StepPaperEdited,
	}

	outcome := paperOutcome(state)

	require.False(t, outcome.Failed())
	assert.Equal(t, "Paper draft generated", outcome.Result["message"])
	assert.Equal(t, state.Title, outcome.Result["title"])
	assert.Equal(t, state.Sections, outcome.Result["sections"])
	assert.Equal(t, state.RevisionSummary, outcome.Result["revision_summary"])

	require.Len(t, outcome.Documents, 1)
	assert.Equal(t, models.ArtifactTypePaperDraft, outcome.Documents[0].Type)
	assert.Equal(t, state.Title, outcome.Documents[0].Title)
	assert.Equal(t, state.PaperMarkdown, outcome.Documents[0].Content)
}

func TestFailedOutcomeCarriesNoResult(t *testing.T) {
	state := agents.DiscoveryState{Topic: "t"}.Fail("mine-gaps failed: provider unavailable")

	outcome := discoveryOutcome(state)

	require.True(t, outcome.Failed())
	assert.Equal(t, agents.StepError, outcome.Step)
	assert.Equal(t, "mine-gaps failed: provider unavailable", outcome.Err)
	assert.Nil(t, outcome.Result)
}
