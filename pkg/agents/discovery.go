package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cortexlab/cortexlab/pkg/models"
	"github.com/cortexlab/cortexlab/pkg/pipeline"
	"github.com/cortexlab/cortexlab/pkg/provider"
	"github.com/cortexlab/cortexlab/pkg/retrieval"
	"github.com/cortexlab/cortexlab/pkg/structured"
)

const searchResultsPerQuery = 20

// DiscoveryPipeline assembles the discovery stages in execution order.
func DiscoveryPipeline(deps Deps) *pipeline.Executor[DiscoveryState] {
	return pipeline.NewExecutor("discovery", deps.Logger,
		ClarifyScope(deps),
		RetrieveLiterature(deps),
		SynthesizeTrends(deps),
		MineGaps(deps),
		GenerateDirections(deps),
	)
}

// ClarifyScope turns the raw topic into domain boundaries, search queries and
// constraints.
func ClarifyScope(deps Deps) pipeline.Stage[DiscoveryState] {
	return pipeline.Stage[DiscoveryState]{
		Name: StageClarifyScope,
		Run: func(ctx context.Context, state DiscoveryState) (DiscoveryState, error) {
			if strings.TrimSpace(state.Topic) == "" {
				return state.Fail("no research topic provided"), nil
			}

			prompt, err := renderPrompt(scopeClarifierPrompt, struct{ Topic string }{state.Topic})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.DefaultChain(deps.Config, 0.3))
			if err != nil {
				return state, err
			}

			var result struct {
				Boundaries    DomainBoundaries `json:"domain_boundaries"`
				SearchQueries []string         `json:"search_queries"`
				Constraints   map[string]any   `json:"constraints"`
			}

			err = structured.ParseInto(reply, &result)
			if err != nil {
				return state, err
			}

			next := state
			next.Boundaries = result.Boundaries
			next.SearchQueries = result.SearchQueries
			next.Constraints = result.Constraints
			next.Step = StepScopeClarified

			topic := result.Boundaries.SpecificTopic
			if topic == "" {
				topic = "Unknown"
			}

			return next.Note(AgentScopeClarifier, "Identified research scope: "+topic), nil
		},
	}
}

// RetrieveLiterature searches for papers with the clarified queries, falling
// back to variants of the raw topic when scope clarification produced none.
func RetrieveLiterature(deps Deps) pipeline.Stage[DiscoveryState] {
	return pipeline.Stage[DiscoveryState]{
		Name: StageRetrieveLiterature,
		Run: func(ctx context.Context, state DiscoveryState) (DiscoveryState, error) {
			queries := state.SearchQueries

			if len(queries) == 0 {
				topic := strings.TrimSpace(state.Topic)
				if topic == "" {
					return state.Fail("no search queries available and no topic to fall back to"), nil
				}

				deps.Logger.WarnContext(ctx, "No search queries from scope clarification, falling back to topic variants")

				queries = retrieval.FallbackQueries(topic)
			}

			if len(queries) > deps.Config.Caps.QueriesPerStage {
				queries = queries[:deps.Config.Caps.QueriesPerStage]
			}

			papers, err := retrieval.SearchAll(ctx, deps.Searcher, queries, searchResultsPerQuery)
			if err != nil {
				return state, fmt.Errorf("literature search failed: %w", err)
			}

			next := state
			next.Papers = retrieval.Merge(papers, deps.Config.Caps.Papers)
			next.Step = StepPapersRetrieved

			return next.Note(AgentLiteratureScout, fmt.Sprintf("Found %d relevant papers", len(next.Papers))), nil
		},
	}
}

// SynthesizeTrends clusters the retrieved papers into themes and trends.
func SynthesizeTrends(deps Deps) pipeline.Stage[DiscoveryState] {
	return pipeline.Stage[DiscoveryState]{
		Name: StageSynthesizeTrends,
		Run: func(ctx context.Context, state DiscoveryState) (DiscoveryState, error) {
			if len(state.Papers) == 0 {
				return state.Fail("no papers to analyze"), nil
			}

			prompt, err := renderPrompt(trendSynthesizerPrompt, struct{ PapersText string }{
				PapersText: formatPapers(state.Papers, deps.Config.Caps.SynthesisWindow, 500, true, false),
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.DefaultChain(deps.Config, 0.3))
			if err != nil {
				return state, err
			}

			value, err := structured.Parse(reply)
			if err != nil {
				return state, err
			}

			result := structured.Map(value)

			var themes []models.Theme

			rawThemes, _ := json.Marshal(structured.SliceField(result, "themes"))
			_ = json.Unmarshal(rawThemes, &themes)

			// Saturation is folded into the trends map so downstream stages
			// see one analysis object.
			trends := structured.MapField(result, "trends")
			trends["saturation"] = structured.MapField(result, "saturation")

			next := state
			next.Themes = themes
			next.Trends = trends
			next.Step = StepTrendsIdentified

			return next.Note(AgentTrendSynthesizer, fmt.Sprintf("Identified %d research themes", len(themes))), nil
		},
	}
}

// MineGaps extracts research gaps from the papers and themes.
func MineGaps(deps Deps) pipeline.Stage[DiscoveryState] {
	return pipeline.Stage[DiscoveryState]{
		Name: StageMineGaps,
		Run: func(ctx context.Context, state DiscoveryState) (DiscoveryState, error) {
			saturation := structured.MapField(state.Trends, "saturation")

			prompt, err := renderPrompt(gapMinerPrompt, struct {
				Domain        string
				ThemesText    string
				PapersText    string
				WellExplored  string
				UnderExplored string
			}{
				Domain:        toJSON(state.Boundaries),
				ThemesText:    themesText(state.Themes),
				PapersText:    formatPapers(state.Papers, deps.Config.Caps.GapWindow, 400, false, false),
				WellExplored:  joinOrNone(structured.StringsField(saturation, "well_explored")),
				UnderExplored: joinOrNone(structured.StringsField(saturation, "under_explored")),
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.DefaultChain(deps.Config, 0.4))
			if err != nil {
				return state, err
			}

			var result struct {
				Gaps []models.ResearchGap `json:"gaps"`
			}

			err = structured.ParseInto(reply, &result)
			if err != nil {
				return state, err
			}

			next := state
			next.Gaps = result.Gaps
			next.Step = StepGapsIdentified

			return next.Note(AgentGapMiner, fmt.Sprintf("Identified %d research gaps", len(result.Gaps))), nil
		},
	}
}

// GenerateDirections converts gaps into actionable research directions,
// ordered by feasibility.
func GenerateDirections(deps Deps) pipeline.Stage[DiscoveryState] {
	return pipeline.Stage[DiscoveryState]{
		Name: StageGenerateDirections,
		Run: func(ctx context.Context, state DiscoveryState) (DiscoveryState, error) {
			if len(state.Gaps) == 0 {
				return state.Fail("no gaps to generate directions from"), nil
			}

			prompt, err := renderPrompt(directionGeneratorPrompt, struct {
				Domain   string
				GapsText string
			}{
				Domain:   toJSON(state.Boundaries),
				GapsText: toJSON(state.Gaps),
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.DefaultChain(deps.Config, 0.5))
			if err != nil {
				return state, err
			}

			var result struct {
				Directions []models.ResearchDirection `json:"directions"`
			}

			err = structured.ParseInto(reply, &result)
			if err != nil {
				return state, err
			}

			directions := result.Directions
			sort.SliceStable(directions, func(i, j int) bool {
				return directions[i].FeasibilityScore > directions[j].FeasibilityScore
			})

			next := state
			next.Directions = directions
			next.Step = StepDirectionsGenerated

			return next.Note(AgentDirectionGenerator, fmt.Sprintf("Generated %d research directions", len(directions))), nil
		},
	}
}

// formatPapers renders up to limit papers as prompt text, truncating each
// abstract to keep the prompt within context.
func formatPapers(papers []models.Paper, limit, abstractChars int, withYear, withCitations bool) string {
	if len(papers) > limit {
		papers = papers[:limit]
	}

	blocks := make([]string, 0, len(papers))

	for _, paper := range papers {
		var sb strings.Builder

		title := paper.Title
		if title == "" {
			title = "Unknown"
		}

		sb.WriteString("Title: " + title + "\n")

		if withYear {
			year := "Unknown"
			if paper.Year != 0 {
				year = fmt.Sprintf("%d", paper.Year)
			}

			sb.WriteString("Year: " + year + "\n")
		}

		if withCitations {
			sb.WriteString(fmt.Sprintf("Citations: %d\n", paper.Citations()))
		}

		abstract := paper.Abstract
		if abstract == "" {
			abstract = "No abstract"
		}

		sb.WriteString("Abstract: " + truncate(abstract, abstractChars) + "...")

		blocks = append(blocks, sb.String())
	}

	return strings.Join(blocks, "\n\n")
}

func themesText(themes []models.Theme) string {
	if len(themes) == 0 {
		return "No themes identified"
	}

	return toJSON(themes)
}

func toJSON(v any) string {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}

	return string(raw)
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None identified"
	}

	return strings.Join(items, ", ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n]
}
