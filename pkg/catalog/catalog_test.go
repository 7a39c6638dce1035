package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/cortexlab/pkg/agents"
	"github.com/cortexlab/cortexlab/pkg/config"
	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/provider"
)

// scriptedCompleter returns the reply whose marker occurs in the prompt.
type scriptedCompleter struct {
	replies []scriptedReply
}

type scriptedReply struct {
	marker string
	reply  string
}

func (c *scriptedCompleter) Complete(_ context.Context, prompt string, _ []provider.Spec) (string, error) {
	for _, r := range c.replies {
		if strings.Contains(prompt, r.marker) {
			return r.reply, nil
		}
	}

	return "", errors.New("no scripted reply for prompt")
}

type stubSearcher struct {
	papers []models.Paper
	err    error
}

func (s *stubSearcher) Search(_ context.Context, _ string, _ int) ([]models.Paper, error) {
	if s.err != nil {
		return nil, s.err
	}

	return s.papers, nil
}

// recordingObserver captures the callback stream for assertions.
type recordingObserver struct {
	stages []string
	notes  []models.ProgressNote
}

func (r *recordingObserver) StageStarted(_ context.Context, stage string) {
	r.stages = append(r.stages, stage)
}

func (r *recordingObserver) NoteAdded(_ context.Context, note models.ProgressNote) {
	r.notes = append(r.notes, note)
}

func testCatalog(completer *scriptedCompleter, searcher *stubSearcher) *Catalog {
	return New(agents.Deps{
		Completer: completer,
		Searcher:  searcher,
		Config: &config.Config{
			GroqAPIKey:      "test-key",
			ProviderTimeout: time.Second,
			Caps:            config.DefaultCaps(),
		},
		Logger: slog.New(slog.DiscardHandler),
	})
}

const scopeReply = "```json\n" + `{
	"domain_boundaries": {"field": "Machine Learning", "subfield": "Graph Learning", "specific_topic": "GNNs under shift"},
	"search_queries": ["gnn distribution shift"]
}` + "\n```"

const trendsReply = "```json\n" + `{
	"themes": [{"name": "Invariant learning", "paper_count": 2}],
	"trends": {"hot_topics": ["graph OOD benchmarks"]},
	"saturation": {"well_explored": ["node classification"], "under_explored": ["temporal graphs"]}
}` + "\n```"

const gapsReply = "```json\n" + `{
	"gaps": [{
		"id": "gap_1",
		"title": "Temporal shift benchmarks missing",
		"description": "No standard benchmark covers temporal distribution shift in graphs",
		"category": "under_explored"
	}]
}` + "\n```"

const directionsReply = "```json\n" + `{
	"directions": [
		{"id": "dir_1", "title": "Direction One", "description": "d1", "feasibility_score": 4},
		{"id": "dir_2", "title": "Direction Two", "description": "d2", "feasibility_score": 9,
		 "novelty_angle": "temporal invariance", "expected_outcomes": ["A reusable benchmark"]}
	]
}` + "\n```"

func discoveryScript() *scriptedCompleter {
	return &scriptedCompleter{replies: []scriptedReply{
		{marker: "research scope clarifier", reply: scopeReply},
		{marker: "research trend synthesizer", reply: trendsReply},
		{marker: "research gap mining expert", reply: gapsReply},
		{marker: "research direction generator", reply: directionsReply},
	}}
}

func intPtr(n int) *int {
	return &n
}

func TestCatalogKinds(t *testing.T) {
	c := testCatalog(discoveryScript(), &stubSearcher{})

	assert.Equal(t, []models.PipelineKind{
		models.PipelineDeepDive,
		models.PipelineDiscovery,
		models.PipelinePaper,
	}, c.Kinds())

	for _, kind := range c.Kinds() {
		p, err := c.Pipeline(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, p.Kind())
	}

	_, err := c.Pipeline("quantum")
	require.ErrorIs(t, err, ErrUnknownPipeline)
}

func TestCatalogStageNames(t *testing.T) {
	c := testCatalog(discoveryScript(), &stubSearcher{})

	discovery, err := c.Pipeline(models.PipelineDiscovery)
	require.NoError(t, err)
	assert.Equal(t, []string{
		agents.StageClarifyScope,
		agents.StageRetrieveLiterature,
		agents.StageSynthesizeTrends,
		agents.StageMineGaps,
		agents.StageGenerateDirections,
	}, discovery.StageNames())

	deepDive, err := c.Pipeline(models.PipelineDeepDive)
	require.NoError(t, err)
	assert.Equal(t, []string{
		agents.StageScout,
		agents.StageDesignExperimentPlan,
	}, deepDive.StageNames())

	paper, err := c.Pipeline(models.PipelinePaper)
	require.NoError(t, err)
	assert.Equal(t, []string{agents.StageDraft, agents.StageEdit}, paper.StageNames())
}

func TestValidateConfig(t *testing.T) {
	c := testCatalog(discoveryScript(), &stubSearcher{})

	tests := []struct {
		name   string
		kind   models.PipelineKind
		config models.RunConfig
		valid  bool
	}{
		{"discovery with topic", models.PipelineDiscovery, models.RunConfig{"topic": "graph learning"}, true},
		{"discovery missing topic", models.PipelineDiscovery, models.RunConfig{}, false},
		{"discovery empty topic", models.PipelineDiscovery, models.RunConfig{"topic": ""}, false},
		{"deep dive with direction", models.PipelineDeepDive,
			models.RunConfig{"direction": map[string]any{"title": "Direction Two"}}, true},
		{"deep dive missing direction", models.PipelineDeepDive, models.RunConfig{}, false},
		{"deep dive untitled direction", models.PipelineDeepDive,
			models.RunConfig{"direction": map[string]any{"id": "dir_2"}}, false},
		{"paper with direction", models.PipelinePaper,
			models.RunConfig{"direction": map[string]any{"title": "Direction Two"}}, true},
		{"paper missing direction", models.PipelinePaper,
			models.RunConfig{"revision_instructions": "tighten the abstract"}, false},
		{"paper with experiment file names", models.PipelinePaper,
			models.RunConfig{
				"direction":        map[string]any{"title": "Direction Two"},
				"experiment_files": []any{"results.json"},
			}, true},
		{"paper with non-string experiment files", models.PipelinePaper,
			models.RunConfig{
				"direction":        map[string]any{"title": "Direction Two"},
				"experiment_files": []any{42},
			}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := c.Pipeline(tt.kind)
			require.NoError(t, err)

			err = p.ValidateConfig(tt.config)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestDiscoveryExecute(t *testing.T) {
	searcher := &stubSearcher{papers: []models.Paper{
		{ID: "p1", Title: "Paper One", Abstract: "a", CitationCount: intPtr(10)},
		{ID: "p2", Title: "Paper Two", Abstract: "b", CitationCount: intPtr(5)},
	}}

	c := testCatalog(discoveryScript(), searcher)

	p, err := c.Pipeline(models.PipelineDiscovery)
	require.NoError(t, err)

	observer := &recordingObserver{}

	outcome, err := p.Execute(context.Background(),
		models.RunConfig{"topic": "graph neural networks"}, observer)

	require.NoError(t, err)
	require.False(t, outcome.Failed(), outcome.Err)

	assert.Equal(t, agents.StepDirectionsGenerated, outcome.Step)
	assert.Equal(t, `Discovery analysis complete for "graph neural networks"`, outcome.Result["message"])
	assert.Equal(t, "Analyzed 2 papers in Machine Learning", outcome.Result["field_overview"])
	assert.Equal(t, 2, outcome.Result["papers_analyzed"])
	assert.Equal(t, 1, outcome.Result["gaps_found"])

	directions, ok := outcome.Result["directions"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, directions, 2)

	first := directions[0]
	assert.Equal(t, "dir_2", first["id"], "highest feasibility first")
	assert.Equal(t, "temporal invariance", first["past_approaches"])
	assert.Equal(t, "A reusable benchmark", first["improvements"])
	assert.Equal(t, "Based on analysis of 2 papers", first["current_state"])
	assert.Contains(t, first["gaps"], "temporal distribution shift")

	second := directions[1]
	assert.Equal(t, "Analysis pending...", second["past_approaches"])
	assert.Equal(t, "See experiment plan", second["improvements"])

	assert.Empty(t, outcome.Documents, "discovery produces no document")

	assert.Equal(t, p.StageNames(), observer.stages)
	require.Len(t, observer.notes, 5)
	assert.Equal(t, agents.AgentScopeClarifier, observer.notes[0].Agent)
	assert.Equal(t, agents.AgentDirectionGenerator, observer.notes[4].Agent)
}

func TestExecuteRejectsInvalidConfig(t *testing.T) {
	c := testCatalog(discoveryScript(), &stubSearcher{})

	p, err := c.Pipeline(models.PipelineDiscovery)
	require.NoError(t, err)

	observer := &recordingObserver{}

	_, err = p.Execute(context.Background(), models.RunConfig{}, observer)
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Empty(t, observer.stages, "no stage runs on invalid config")
}

func TestExecuteFailedOutcome(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("search backend down")}

	c := testCatalog(discoveryScript(), searcher)

	p, err := c.Pipeline(models.PipelineDiscovery)
	require.NoError(t, err)

	outcome, err := p.Execute(context.Background(),
		models.RunConfig{"topic": "graph neural networks"}, nil)

	require.NoError(t, err)
	require.True(t, outcome.Failed())

	assert.Contains(t, outcome.Err, agents.StageRetrieveLiterature)
	assert.Equal(t, agents.StepError, outcome.Step)
	assert.Nil(t, outcome.Result)
	assert.Empty(t, outcome.Documents)
}
