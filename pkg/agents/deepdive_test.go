package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/cortexlab/pkg/models"
)

const deepDiveQueriesReply = "```json\n" + `["gnn benchmark survey", "graph ood baselines", "temporal graph datasets"]` + "\n```"

const deepDiveAnalysisReply = "```json\n" + `{
	"baseline_methods": [
		{"name": "ERM", "description": "empirical risk minimization baseline"},
		{"name": "IRM", "description": "invariant risk minimization"}
	],
	"datasets": [
		{"name": "GOOD", "description": "graph OOD benchmark suite"}
	],
	"metrics": [
		{"name": "Accuracy", "description": "classification accuracy"}
	],
	"failure_cases": [
		{"scenario": "severe covariate shift", "why_it_fails": "spurious features dominate"}
	],
	"implementation_notes": {"common_architectures": ["GCN", "GIN"]}
}` + "\n```"

const experimentPlanReply = "```json\n" + `{
	"hypotheses": [
		{"id": "H1", "statement": "Temporal augmentation improves OOD accuracy"}
	],
	"proposed_method": {"name": "TempAug"},
	"ablation_studies": [
		{"name": "No augmentation", "variants": ["with", "without"]}
	],
	"experiment_setup": {"datasets": []},
	"training_protocol": {"framework": "PyTorch"},
	"evaluation_plan": {"validation_strategy": "holdout"},
	"compute_estimate": {"gpu_type": "A100"},
	"timeline": {"total": "12 weeks"},
	"risks_and_mitigations": [
		{"risk": "benchmark too easy", "likelihood": "medium"}
	]
}` + "\n```"

func deepDiveScript() *scriptedCompleter {
	return &scriptedCompleter{replies: []scriptedReply{
		{marker: "Generate 5 specific search queries", reply: deepDiveQueriesReply},
		{marker: "research deep dive analyst", reply: deepDiveAnalysisReply},
		{marker: "research experiment designer", reply: experimentPlanReply},
	}}
}

func testDirection() models.ResearchDirection {
	return models.ResearchDirection{
		ID:           "dir_1",
		Title:        "Temporal graph shift benchmark",
		Description:  "Build a benchmark for temporal distribution shift",
		NoveltyAngle: "first temporal OOD suite",
	}
}

func TestDeepDivePipelineEndToEnd(t *testing.T) {
	searcher := &stubSearcher{papers: []models.Paper{
		{ID: "p1", Title: "Survey", CitationCount: intPtr(100)},
		{ID: "p2", Title: "Benchmark"},
	}}

	deps := testDeps(deepDiveScript(), searcher)

	final, err := DeepDivePipeline(deps).Execute(context.Background(),
		DeepDiveState{Direction: testDirection()}, nil)

	require.NoError(t, err)
	require.False(t, final.Failed(), final.FailureMessage())

	assert.Equal(t, StepExperimentsDesigned, final.CurrentStep())
	assert.Len(t, final.SearchQueries, 3)
	assert.Equal(t, 3, searcher.calls)
	assert.Len(t, final.Papers, 2)
	assert.Equal(t, "p1", final.Papers[0].ID)
	assert.Len(t, final.BaselineMethods, 2)
	assert.Len(t, final.Datasets, 1)
	assert.Len(t, final.Hypotheses, 1)
	assert.Equal(t, "TempAug", final.ProposedMethod["name"])

	require.Len(t, final.Notes, 2)
	assert.Equal(t, AgentDeepDiveScout, final.Notes[0].Agent)
	assert.Equal(t, AgentExperimentDesigner, final.Notes[1].Agent)
}

func TestScoutRequiresDirection(t *testing.T) {
	deps := testDeps(deepDiveScript(), &stubSearcher{})

	final, err := Scout(deps).Run(context.Background(), DeepDiveState{})

	require.NoError(t, err)
	assert.True(t, final.Failed())
	assert.Contains(t, final.FailureMessage(), "no direction")
}

func TestScoutRejectsEmptyQueryList(t *testing.T) {
	completer := &scriptedCompleter{replies: []scriptedReply{
		{marker: "Generate 5 specific search queries", reply: "```json\n[]\n```"},
	}}
	deps := testDeps(completer, &stubSearcher{})

	_, err := Scout(deps).Run(context.Background(), DeepDiveState{Direction: testDirection()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no search queries generated")
}

func TestDesignExperimentPlanRequiresDirection(t *testing.T) {
	deps := testDeps(deepDiveScript(), &stubSearcher{})

	final, err := DesignExperimentPlan(deps).Run(context.Background(), DeepDiveState{})

	require.NoError(t, err)
	assert.True(t, final.Failed())
}
