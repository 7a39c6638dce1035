// Package agents implements the research pipeline stages. Each stage takes a
// state value, calls its collaborators, and returns a successor state with a
// progress marker; failures surface as failed states at the pipeline boundary.
package agents

import (
	"log/slog"

	"github.com/cortexlab/cortexlab/pkg/config"
	"github.com/cortexlab/cortexlab/pkg/provider"
	"github.com/cortexlab/cortexlab/pkg/ratelimit"
	"github.com/cortexlab/cortexlab/pkg/retrieval"
)

// Agent names used in progress notes.
const (
	AgentScopeClarifier     = "scope_clarifier"
	AgentLiteratureScout    = "literature_scout"
	AgentTrendSynthesizer   = "trend_synthesizer"
	AgentGapMiner           = "gap_miner"
	AgentDirectionGenerator = "direction_generator"
	AgentDeepDiveScout      = "deep_dive_scout"
	AgentExperimentDesigner = "experiment_designer"
	AgentPaperWriter        = "paper_writer"
	AgentPaperEditor        = "paper_editor"
)

// Stage names as they appear in run events.
const (
	StageClarifyScope         = "clarify-scope"
	StageRetrieveLiterature   = "retrieve-literature"
	StageSynthesizeTrends     = "synthesize-trends"
	StageMineGaps             = "mine-gaps"
	StageGenerateDirections   = "generate-directions"
	StageScout                = "scout"
	StageDesignExperimentPlan = "design-experiment-plan"
	StageDraft                = "draft"
	StageEdit                 = "edit"
)

// Deps carries the collaborators every stage may need. Limiter paces the
// per-section completions of the paper writer; nil means no pacing.
type Deps struct {
	Completer provider.Completer
	Searcher  retrieval.Searcher
	Config    *config.Config
	Logger    *slog.Logger
	Limiter   ratelimit.Limiter
}

func (d Deps) limiter() ratelimit.Limiter {
	if d.Limiter == nil {
		return ratelimit.Unlimited{}
	}

	return d.Limiter
}
