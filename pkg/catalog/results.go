package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cortexlab/cortexlab/pkg/agents"
	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/structured"
)

const (
	// maxResultDirections bounds how many directions a discovery result keeps.
	maxResultDirections = 5

	// gapSummaryChars bounds each gap description inside the direction summary.
	gapSummaryChars = 100
)

func discoveryOutcome(state agents.DiscoveryState) *Outcome {
	out := &Outcome{Notes: state.Notes, Step: state.Step, Err: state.Err}
	if state.Err != "" {
		return out
	}

	field := state.Boundaries.Field
	if field == "" {
		field = "the field"
	}

	out.Result = map[string]any{
		"message":           fmt.Sprintf("Discovery analysis complete for %q", state.Topic),
		"field_overview":    fmt.Sprintf("Analyzed %d papers in %s", len(state.Papers), field),
		"directions":        formatDirections(state.Directions, state.Gaps, len(state.Papers)),
		"papers_analyzed":   len(state.Papers),
		"gaps_found":        len(state.Gaps),
		"themes":            state.Themes,
		"domain_boundaries": state.Boundaries,
	}

	return out
}

// formatDirections curates the top directions for the run record, filling
// missing fields with readable placeholders so the result is presentable even
// when a provider omitted them.
func formatDirections(directions []models.ResearchDirection, gaps []models.ResearchGap, paperCount int) []map[string]any {
	gapSummary := "See detailed report"

	if len(gaps) > 0 {
		parts := make([]string, 0, 2)
		for _, gap := range gaps[:min(2, len(gaps))] {
			parts = append(parts, truncate(gap.Description, gapSummaryChars))
		}

		gapSummary = strings.Join(parts, ", ")
	}

	out := make([]map[string]any, 0, min(maxResultDirections, len(directions)))

	for i, direction := range directions {
		if i == maxResultDirections {
			break
		}

		improvements := "See experiment plan"
		if len(direction.ExpectedOutcomes) > 0 {
			improvements = direction.ExpectedOutcomes[0]
		}

		score := direction.FeasibilityScore
		if score == 0 {
			score = 7
		}

		out = append(out, map[string]any{
			"id":                  orDefault(direction.ID, strconv.Itoa(i+1)),
			"title":               orDefault(direction.Title, "Untitled Direction"),
			"description":         direction.Description,
			"past_approaches":     orDefault(direction.NoveltyAngle, "Analysis pending..."),
			"current_state":       fmt.Sprintf("Based on analysis of %d papers", paperCount),
			"gaps":                gapSummary,
			"improvements":        improvements,
			"feasibility_score":   score,
			"contribution_type":   orDefault(direction.ContributionType, "method"),
			"minimum_experiments": direction.MinimumExperiments,
		})
	}

	return out
}

func deepDiveOutcome(state agents.DeepDiveState) *Outcome {
	out := &Outcome{Notes: state.Notes, Step: state.Step, Err: state.Err}
	if state.Err != "" {
		return out
	}

	out.Result = map[string]any{
		"message":           fmt.Sprintf("Deep dive complete for %q", orDefault(state.Direction.Title, "Unknown")),
		"direction":         state.Direction,
		"baseline_methods":  state.BaselineMethods,
		"datasets":          state.Datasets,
		"metrics":           state.Metrics,
		"hypotheses":        state.Hypotheses,
		"ablations":         state.Ablations,
		"training_protocol": state.TrainingProto,
		"evaluation_plan":   state.EvaluationPlan,
		"compute_estimate":  state.ComputeEstimate,
	}

	out.Documents = []Document{{
		Type:    models.ArtifactTypeExperimentPlan,
		Title:   "Experiment Plan: " + orDefault(state.Direction.Title, "Research Direction"),
		Content: FormatExperimentPlan(state),
	}}

	return out
}

func paperOutcome(state agents.PaperState) *Outcome {
	out := &Outcome{Notes: state.Notes, Step: state.Step, Err: state.Err}
	if state.Err != "" {
		return out
	}

	result := map[string]any{
		"message":  "Paper draft generated",
		"title":    orDefault(state.Title, "Research Paper"),
		"sections": state.Sections,
	}

	if state.RevisionSummary != "" {
		result["revision_summary"] = state.RevisionSummary
	}

	out.Result = result

	out.Documents = []Document{{
		Type:    models.ArtifactTypePaperDraft,
		Title:   orDefault(state.Title, "Research Paper Draft"),
		Content: state.PaperMarkdown,
	}}

	return out
}

// FormatExperimentPlan renders a deep dive state as the Experiment Plan
// document, skipping sections whose data is absent.
func FormatExperimentPlan(state agents.DeepDiveState) string {
	var b strings.Builder

	b.WriteString("# Experiment Plan\n\n")

	if len(state.Hypotheses) > 0 {
		b.WriteString("## Hypotheses\n\n")

		for i, hypothesis := range state.Hypotheses {
			fmt.Fprintf(&b, "%d. **%s**\n", i+1, hypothesis.Statement)
			fmt.Fprintf(&b, "   - *Rationale*: %s\n", hypothesis.Rationale)
		}

		b.WriteString("\n")
	}

	if len(state.BaselineMethods) > 0 {
		b.WriteString("## Baseline Methods\n\n")

		for _, method := range state.BaselineMethods {
			fmt.Fprintf(&b, "- **%s**: %s\n", orDefault(method.Name, "Unknown"), method.Description)
		}

		b.WriteString("\n")
	}

	if len(state.Datasets) > 0 {
		b.WriteString("## Datasets\n\n")

		for _, dataset := range state.Datasets {
			fmt.Fprintf(&b, "- **%s**: %s\n", orDefault(dataset.Name, "Unknown"), dataset.Description)
		}

		b.WriteString("\n")
	}

	if len(state.Metrics) > 0 {
		b.WriteString("## Evaluation Metrics\n\n")

		for _, metric := range state.Metrics {
			fmt.Fprintf(&b, "- **%s**: %s\n", orDefault(metric.Name, "Metric"), metric.Description)
		}

		b.WriteString("\n")
	}

	if len(state.TrainingProto) > 0 {
		b.WriteString("## Training Protocol\n\n")
		fmt.Fprintf(&b, "- **Optimizer**: %v\n", valueOr(state.TrainingProto, "optimizer", "Adam"))
		fmt.Fprintf(&b, "- **Learning Rate**: %v\n", valueOr(state.TrainingProto, "learning_rate", "1e-4"))
		fmt.Fprintf(&b, "- **Batch Size**: %v\n", valueOr(state.TrainingProto, "batch_size", 32))
		fmt.Fprintf(&b, "- **Epochs**: %v\n", valueOr(state.TrainingProto, "epochs", 100))
		b.WriteString("\n")
	}

	if len(state.Ablations) > 0 {
		b.WriteString("## Ablation Studies\n\n")

		for _, ablation := range state.Ablations {
			fmt.Fprintf(&b, "- **%s**: %s\n",
				orDefault(structured.StringField(ablation, "name"), "Ablation"),
				structured.StringField(ablation, "description"))
		}

		b.WriteString("\n")
	}

	b.WriteString("## Next Steps\n\n")
	b.WriteString("1. Review the experimental plan above.\n")
	b.WriteString("2. Execute the experiments locally or on your cluster.\n")
	b.WriteString("3. Upload the results (JSON, CSV, or log files) to proceed with the paper draft.\n")

	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func valueOr(m map[string]any, key string, fallback any) any {
	if v, ok := m[key]; ok && v != nil && v != "" {
		return v
	}

	return fallback
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	return s[:limit]
}
