package runs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/structured"
)

// prepareConfig enriches a paper run's configuration with context gathered
// from earlier work: the latest completed deep dive of the project and the
// contents of any uploaded experiment files. Other kinds pass through.
func (m *Manager) prepareConfig(ctx context.Context, run *models.Run) (models.RunConfig, error) {
	if run.Kind != models.PipelinePaper {
		return run.Config, nil
	}

	config := make(models.RunConfig, len(run.Config))
	for key, value := range run.Config {
		config[key] = value
	}

	if _, ok := config["deep_dive_report"]; !ok {
		if report := m.deepDiveReport(ctx, run.ProjectID); report != "" {
			config["deep_dive_report"] = report
		}
	}

	if files := m.loadExperimentFiles(ctx, config); len(files) > 0 {
		config["experiment_data"] = files
	}

	delete(config, "experiment_files")

	return config, nil
}

// deepDiveReport reconstructs a textual report from the most recent completed
// deep dive run of the project. Missing context is not an error; the paper
// pipeline degrades to the direction alone.
func (m *Manager) deepDiveReport(ctx context.Context, projectID string) string {
	runs, err := m.persistence.Runs(ctx)
	if err != nil {
		m.logger.WarnContext(ctx, "Failed to load deep dive context", "project_id", projectID, "error", err)

		return ""
	}

	// Runs come back newest first.
	for _, run := range runs {
		if run.ProjectID != projectID || run.Kind != models.PipelineDeepDive {
			continue
		}

		if run.Status != models.RunStatusCompleted || run.Result == nil {
			continue
		}

		return formatDeepDiveReport(run.Result)
	}

	return ""
}

// formatDeepDiveReport renders a deep dive result for inclusion in a paper
// prompt. The result is normalized through JSON because it may hold either
// typed values (same process) or decoded maps (loaded from storage).
func formatDeepDiveReport(result map[string]any) string {
	normalized := map[string]any{}

	if raw, err := json.Marshal(result); err == nil {
		_ = json.Unmarshal(raw, &normalized)
	}

	direction := structured.MapField(normalized, "direction")

	title := structured.StringField(direction, "title")
	if title == "" {
		title = "Unknown"
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Research Direction: %s\n", title)
	fmt.Fprintf(&b, "Description: %s\n\n", structured.StringField(direction, "description"))
	fmt.Fprintf(&b, "Hypotheses: %s\n", jsonBlock(normalized["hypotheses"]))
	fmt.Fprintf(&b, "Baseline Methods: %s\n", jsonBlock(normalized["baseline_methods"]))
	fmt.Fprintf(&b, "Datasets: %s\n", jsonBlock(normalized["datasets"]))
	fmt.Fprintf(&b, "Metrics: %s\n", jsonBlock(normalized["metrics"]))
	fmt.Fprintf(&b, "Training Protocol: %s\n", jsonBlock(normalized["training_protocol"]))

	return b.String()
}

func jsonBlock(value any) string {
	if value == nil {
		return "[]"
	}

	raw, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "[]"
	}

	return string(raw)
}

// loadExperimentFiles resolves the uploaded files named by the configuration.
// Unreadable files are skipped with a log entry so one bad upload does not
// sink the run.
func (m *Manager) loadExperimentFiles(ctx context.Context, config models.RunConfig) []models.ExperimentFile {
	names := stringList(config["experiment_files"])
	if len(names) == 0 || m.uploads == nil {
		return nil
	}

	files := make([]models.ExperimentFile, 0, len(names))

	for _, name := range names {
		file, err := m.uploads.LoadExperimentFile(ctx, name)
		if err != nil {
			m.logger.WarnContext(ctx, "Skipping unreadable experiment file", "name", name, "error", err)

			continue
		}

		files = append(files, *file)
	}

	return files
}

// stringList accepts both decoded JSON lists and native string slices.
func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))

		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}

		return out
	default:
		return nil
	}
}
