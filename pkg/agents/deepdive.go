package agents

import (
	"context"
	"fmt"

	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/pipeline"
	"github.com/cortexlab/cortexlab/pkg/provider"
	"github.com/cortexlab/cortexlab/pkg/retrieval"
	"github.com/cortexlab/cortexlab/pkg/structured"
)

const deepDiveResultsPerQuery = 15

// DeepDivePipeline assembles the deep dive stages in execution order.
func DeepDivePipeline(deps Deps) *pipeline.Executor[DeepDiveState] {
	return pipeline.NewExecutor("deep_dive", deps.Logger,
		Scout(deps),
		DesignExperimentPlan(deps),
	)
}

// Scout gathers baselines, datasets, metrics and failure cases for one
// chosen research direction. It first asks a provider for targeted search
// queries, then searches, then analyzes the merged result set.
func Scout(deps Deps) pipeline.Stage[DeepDiveState] {
	return pipeline.Stage[DeepDiveState]{
		Name: StageScout,
		Run: func(ctx context.Context, state DeepDiveState) (DeepDiveState, error) {
			if state.Direction.Title == "" {
				return state.Fail("no direction provided for deep dive"), nil
			}

			queries, err := scoutQueries(ctx, deps, state.Direction)
			if err != nil {
				return state, err
			}

			if len(queries) > deps.Config.Caps.QueriesPerStage {
				queries = queries[:deps.Config.Caps.QueriesPerStage]
			}

			found, err := retrieval.SearchAll(ctx, deps.Searcher, queries, deepDiveResultsPerQuery)
			if err != nil {
				return state, fmt.Errorf("deep dive search failed: %w", err)
			}

			papers := retrieval.Merge(found, deps.Config.Caps.DeepDivePapers)

			prompt, err := renderPrompt(deepDiveAnalysisPrompt, struct {
				DirectionTitle       string
				DirectionDescription string
				NoveltyAngle         string
				PapersText           string
			}{
				DirectionTitle:       state.Direction.Title,
				DirectionDescription: state.Direction.Description,
				NoveltyAngle:         state.Direction.NoveltyAngle,
				PapersText:           formatPapers(papers, deps.Config.Caps.DeepDiveWindow, 600, true, true),
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.DefaultChain(deps.Config, 0.3))
			if err != nil {
				return state, err
			}

			var result struct {
				BaselineMethods     []models.BaselineMethod `json:"baseline_methods"`
				Datasets            []models.Dataset        `json:"datasets"`
				Metrics             []models.Metric         `json:"metrics"`
				FailureCases        []models.FailureCase    `json:"failure_cases"`
				ImplementationNotes map[string]any          `json:"implementation_notes"`
			}

			err = structured.ParseInto(reply, &result)
			if err != nil {
				return state, err
			}

			next := state
			next.SearchQueries = queries
			next.Papers = papers
			next.BaselineMethods = result.BaselineMethods
			next.Datasets = result.Datasets
			next.Metrics = result.Metrics
			next.FailureCases = result.FailureCases
			next.ImplementationNotes = result.ImplementationNotes
			next.Step = StepDeepDiveComplete

			return next.Note(AgentDeepDiveScout, fmt.Sprintf("Found %d baselines, %d datasets, %d metrics",
				len(result.BaselineMethods), len(result.Datasets), len(result.Metrics))), nil
		},
	}
}

func scoutQueries(ctx context.Context, deps Deps, direction models.ResearchDirection) ([]string, error) {
	prompt, err := renderPrompt(deepDiveQueriesPrompt, struct {
		DirectionTitle       string
		DirectionDescription string
	}{
		DirectionTitle:       direction.Title,
		DirectionDescription: direction.Description,
	})
	if err != nil {
		return nil, err
	}

	reply, err := deps.Completer.Complete(ctx, prompt, provider.DefaultChain(deps.Config, 0.3))
	if err != nil {
		return nil, err
	}

	var queries []string

	err = structured.ParseInto(reply, &queries)
	if err != nil {
		return nil, err
	}

	if len(queries) == 0 {
		return nil, fmt.Errorf("no search queries generated for direction %q", direction.Title)
	}

	return queries, nil
}

// DesignExperimentPlan turns the scouted analysis into a full experiment
// plan. The heavier model chain is used; this is the most demanding
// reasoning step in the engine.
func DesignExperimentPlan(deps Deps) pipeline.Stage[DeepDiveState] {
	return pipeline.Stage[DeepDiveState]{
		Name: StageDesignExperimentPlan,
		Run: func(ctx context.Context, state DeepDiveState) (DeepDiveState, error) {
			if state.Direction.Title == "" {
				return state.Fail("no direction provided for experiment design"), nil
			}

			prompt, err := renderPrompt(experimentDesignPrompt, struct {
				DirectionTitle       string
				DirectionDescription string
				NoveltyAngle         string
				ContributionType     string
				BaselinesText        string
				DatasetsText         string
				MetricsText          string
				FailureCasesText     string
				ImplementationNotes  string
			}{
				DirectionTitle:       state.Direction.Title,
				DirectionDescription: state.Direction.Description,
				NoveltyAngle:         state.Direction.NoveltyAngle,
				ContributionType:     orDefault(state.Direction.ContributionType, "method"),
				BaselinesText:        jsonOrFallback(state.BaselineMethods, "No baselines identified yet"),
				DatasetsText:         jsonOrFallback(state.Datasets, "No datasets identified yet"),
				MetricsText:          jsonOrFallback(state.Metrics, "No metrics identified yet"),
				FailureCasesText:     jsonOrFallback(state.FailureCases, "No failure cases identified yet"),
				ImplementationNotes:  jsonMapOrFallback(state.ImplementationNotes, "No implementation notes"),
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.HeavyChain(deps.Config, 0.4))
			if err != nil {
				return state, err
			}

			var result struct {
				Hypotheses      []models.Hypothesis `json:"hypotheses"`
				ProposedMethod  map[string]any      `json:"proposed_method"`
				Ablations       []map[string]any    `json:"ablation_studies"`
				ExperimentSetup map[string]any      `json:"experiment_setup"`
				TrainingProto   map[string]any      `json:"training_protocol"`
				EvaluationPlan  map[string]any      `json:"evaluation_plan"`
				ComputeEstimate map[string]any      `json:"compute_estimate"`
				Timeline        map[string]any      `json:"timeline"`
				Risks           []map[string]any    `json:"risks_and_mitigations"`
			}

			err = structured.ParseInto(reply, &result)
			if err != nil {
				return state, err
			}

			next := state
			next.Hypotheses = result.Hypotheses
			next.ProposedMethod = result.ProposedMethod
			next.Ablations = result.Ablations
			next.ExperimentSetup = result.ExperimentSetup
			next.TrainingProto = result.TrainingProto
			next.EvaluationPlan = result.EvaluationPlan
			next.ComputeEstimate = result.ComputeEstimate
			next.Timeline = result.Timeline
			next.Risks = result.Risks
			next.Step = StepExperimentsDesigned

			return next.Note(AgentExperimentDesigner, fmt.Sprintf("Designed experiment plan with %d hypotheses, %d ablation studies",
				len(result.Hypotheses), len(result.Ablations))), nil
		},
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}

func jsonOrFallback[T any](items []T, fallback string) string {
	if len(items) == 0 {
		return fallback
	}

	return toJSON(items)
}

func jsonMapOrFallback(m map[string]any, fallback string) string {
	if len(m) == 0 {
		return fallback
	}

	return toJSON(m)
}
