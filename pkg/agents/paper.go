package agents

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/cortexlab/cortexlab/pkg/pipeline"
	"github.com/cortexlab/cortexlab/pkg/provider"
	"github.com/cortexlab/cortexlab/pkg/structured"
)

const (
	experimentPlanChars   = 3000
	experimentFileChars   = 1000
	sectionContextChars   = 500
	editorAnalysisChars   = 15000
	defaultPaperTitle     = "Research Paper Draft"
	generalImprovement    = "General improvement - make the paper clearer and more compelling."
	defaultSectionRequest = "Improve clarity and academic quality"
)

// Sections in writing and assembly order.
var sectionOrder = []string{
	"abstract",
	"introduction",
	"related_work",
	"method",
	"experiments",
	"discussion",
	"conclusion",
}

var sectionHeadings = map[string]string{
	"abstract":     "Abstract",
	"introduction": "1. Introduction",
	"related_work": "2. Related Work",
	"method":       "3. Method",
	"experiments":  "4. Experiments",
	"discussion":   "5. Discussion",
	"conclusion":   "6. Conclusion",
	"references":   "References",
}

// Recognized venue style guides for the editor's style adaptation mode.
var styleGuides = []string{"ieee", "acl", "neurips", "icml", "cvpr", "aaai", "emnlp", "naacl", "acm"}

// PaperPipeline assembles the paper stages in execution order.
func PaperPipeline(deps Deps) *pipeline.Executor[PaperState] {
	return pipeline.NewExecutor("paper", deps.Logger,
		Draft(deps),
		Edit(deps),
	)
}

// Draft writes a complete IMRaD paper draft: one outline completion, then one
// completion per section with accumulated context. Section completions are
// paced by the limiter to stay under provider token budgets; a failed section
// becomes a placeholder block instead of failing the whole draft.
func Draft(deps Deps) pipeline.Stage[PaperState] {
	return pipeline.Stage[PaperState]{
		Name: StageDraft,
		Run: func(ctx context.Context, state PaperState) (PaperState, error) {
			if state.Direction.Title == "" {
				return state.Fail("no direction provided for paper drafting"), nil
			}

			expData := experimentDataText(state)

			outlinePrompt, err := renderPrompt(paperOutlinePrompt, struct {
				DirectionInfo     string
				ExperimentPlan    string
				ExperimentResults string
			}{
				DirectionInfo:     toJSON(state.Direction),
				ExperimentPlan:    orDefault(truncate(state.DeepDiveReport, experimentPlanChars), "No experiment plan provided"),
				ExperimentResults: expData,
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, outlinePrompt, provider.DefaultChain(deps.Config, 0.3))
			if err != nil {
				return state, err
			}

			value, err := structured.Parse(reply)
			if err != nil {
				return state, err
			}

			result := structured.Map(value)
			title := orDefault(structured.StringField(result, "title"), defaultPaperTitle)
			outline := structured.MapField(result, "outline")

			sections := make(map[string]string, len(sectionOrder))

			for i, name := range sectionOrder {
				if i > 0 {
					if err := deps.limiter().Wait(ctx); err != nil {
						return state, err
					}
				}

				deps.Logger.InfoContext(ctx, "Writing paper section", "section", name)

				content, err := writeSection(ctx, deps, title, name, outline, sections, expData)
				if err != nil {
					deps.Logger.ErrorContext(ctx, "Failed to write paper section", "section", name, "error", err)

					content = fmt.Sprintf("> Error generating section %s. Please refine and regenerate.\n\nDetails: %v", name, err)
				}

				sections[name] = content
			}

			next := state
			next.Title = title
			next.Outline = outline
			next.Sections = sections
			next.PaperMarkdown = assemblePaper(title, sections)
			next.Step = StepPaperDrafted

			return next.Note(AgentPaperWriter,
				fmt.Sprintf("Generated paper draft: '%s' with %d sections", title, len(sectionOrder))), nil
		},
	}
}

func writeSection(ctx context.Context, deps Deps, title, name string, outline map[string]any, written map[string]string, expData string) (string, error) {
	var contextText strings.Builder

	for _, prev := range sectionOrder {
		if prev == name {
			break
		}

		if content, ok := written[prev]; ok {
			contextText.WriteString(fmt.Sprintf("\n## %s\n%s...\n", displayName(prev), truncate(content, sectionContextChars)))
		}
	}

	sectionData := "Not applicable for this section."
	if name == "experiments" || name == "abstract" || name == "conclusion" {
		sectionData = expData
	}

	prompt, err := renderPrompt(sectionWriterPrompt, struct {
		SectionName    string
		Title          string
		SectionOutline string
		Context        string
		ExperimentData string
	}{
		SectionName:    displayName(name),
		Title:          title,
		SectionOutline: toJSON(structured.MapField(outline, name)),
		Context:        orDefault(contextText.String(), "This is the first section."),
		ExperimentData: sectionData,
	})
	if err != nil {
		return "", err
	}

	// Short framing sections go to the fast chain; the body sections get the
	// heavier models.
	chain := provider.HeavyChain(deps.Config, 0.4)
	if name == "abstract" || name == "conclusion" {
		chain = provider.DefaultChain(deps.Config, 0.3)
	}

	return deps.Completer.Complete(ctx, prompt, chain)
}

// Edit analyzes the draft and either adapts it to a requested venue style or
// revises the sections the analysis flagged.
func Edit(deps Deps) pipeline.Stage[PaperState] {
	return pipeline.Stage[PaperState]{
		Name: StageEdit,
		Run: func(ctx context.Context, state PaperState) (PaperState, error) {
			if state.PaperMarkdown == "" {
				return state.Fail("no paper draft to edit"), nil
			}

			prompt, err := renderPrompt(editorAnalysisPrompt, struct {
				PaperMarkdown        string
				RevisionInstructions string
			}{
				PaperMarkdown:        truncate(state.PaperMarkdown, editorAnalysisChars),
				RevisionInstructions: orDefault(state.RevisionInstructions, generalImprovement),
			})
			if err != nil {
				return state, err
			}

			reply, err := deps.Completer.Complete(ctx, prompt, provider.HeavyChain(deps.Config, 0.3))
			if err != nil {
				return state, err
			}

			value, err := structured.Parse(reply)
			if err != nil {
				return state, err
			}

			analysis := structured.Map(value)

			var (
				revised string
				summary string
			)

			if style := requestedStyle(state.RevisionInstructions); style != "" {
				revised, err = adaptStyle(ctx, deps, state.PaperMarkdown, style)
				summary = "Adapted paper to " + style + " style"
			} else {
				var count int

				revised, count, err = reviseSections(ctx, deps, state, analysis)
				summary = fmt.Sprintf("Revised %d sections based on analysis", count)
			}

			if err != nil {
				return state, err
			}

			next := state
			next.PaperMarkdown = revised
			next.EditorAnalysis = analysis
			next.RevisionSummary = summary
			next.Step = StepPaperEdited

			return next.Note(AgentPaperEditor, summary), nil
		},
	}
}

// requestedStyle returns the venue style named in the instructions, or empty.
func requestedStyle(instructions string) string {
	lower := strings.ToLower(instructions)

	for _, style := range styleGuides {
		if strings.Contains(lower, style) {
			return strings.ToUpper(style)
		}
	}

	return ""
}

func adaptStyle(ctx context.Context, deps Deps, paper, style string) (string, error) {
	prompt, err := renderPrompt(styleAdaptationPrompt, struct {
		PaperMarkdown string
		StyleGuide    string
	}{
		PaperMarkdown: paper,
		StyleGuide:    style,
	})
	if err != nil {
		return "", err
	}

	return deps.Completer.Complete(ctx, prompt, provider.HeavyChain(deps.Config, 0.3))
}

func reviseSections(ctx context.Context, deps Deps, state PaperState, analysis map[string]any) (string, int, error) {
	feedback := structured.MapField(analysis, "section_feedback")
	sections := ExtractSections(state.PaperMarkdown)

	revised := make(map[string]string, len(sections))
	count := 0

	for name, content := range sections {
		sectionFeedback := structured.MapField(feedback, name)
		issues := structured.StringsField(sectionFeedback, "issues")
		suggestions := structured.StringsField(sectionFeedback, "suggestions")

		mentioned := state.RevisionInstructions != "" &&
			strings.Contains(strings.ToLower(state.RevisionInstructions), strings.ReplaceAll(name, "_", " "))

		if len(issues) == 0 && !mentioned {
			revised[name] = content

			continue
		}

		prompt, err := renderPrompt(sectionRevisionPrompt, struct {
			SectionContent       string
			RevisionInstructions string
			Issues               string
			Suggestions          string
		}{
			SectionContent:       content,
			RevisionInstructions: orDefault(state.RevisionInstructions, defaultSectionRequest),
			Issues:               toJSON(issues),
			Suggestions:          toJSON(suggestions),
		})
		if err != nil {
			return "", 0, err
		}

		text, err := deps.Completer.Complete(ctx, prompt, provider.HeavyChain(deps.Config, 0.3))
		if err != nil {
			return "", 0, err
		}

		revised[name] = text
		count++
	}

	return assemblePaper(orDefault(state.Title, "Research Paper"), revised), count, nil
}

var sectionHeaderPattern = regexp.MustCompile(`^##\s*(?:\d+\.)?\s*(.+?)$`)

// ExtractSections splits a paper draft into its level-two sections, keyed by
// normalized section name.
func ExtractSections(paperMarkdown string) map[string]string {
	sections := map[string]string{}

	var (
		current string
		content []string
	)

	for _, line := range strings.Split(paperMarkdown, "\n") {
		match := sectionHeaderPattern.FindStringSubmatch(strings.TrimSpace(line))
		if match != nil {
			if current != "" {
				sections[current] = strings.TrimSpace(strings.Join(content, "\n"))
			}

			current = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(match[1])), " ", "_")
			content = nil

			continue
		}

		if current != "" {
			content = append(content, line)
		}
	}

	if current != "" {
		sections[current] = strings.TrimSpace(strings.Join(content, "\n"))
	}

	return sections
}

func assemblePaper(title string, sections map[string]string) string {
	var sb strings.Builder

	sb.WriteString("# " + title + "\n\n")

	order := append(append([]string{}, sectionOrder...), "references")

	for _, name := range order {
		content := sections[name]

		if name == "references" && content == "" {
			content = "*References to be added based on citations in the text.*"
		}

		if content == "" {
			continue
		}

		sb.WriteString(fmt.Sprintf("## %s\n\n%s\n\n---\n\n", headingTitle(name), content))
	}

	return sb.String()
}

func headingTitle(name string) string {
	if heading, ok := sectionHeadings[name]; ok {
		return heading
	}

	return name
}

// displayName turns a section key into prose, e.g. "related_work" into
// "Related Work".
func displayName(name string) string {
	words := strings.Split(name, "_")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}

	return strings.Join(words, " ")
}

func experimentDataText(state PaperState) string {
	if len(state.ExperimentData) == 0 {
		return "No experiment results uploaded yet. Generate placeholder sections."
	}

	var sb strings.Builder

	for _, file := range state.ExperimentData {
		sb.WriteString("\nFile: " + orDefault(file.Name, "unknown") + "\n")
		sb.WriteString("Type: " + orDefault(file.Type, "unknown") + "\n")

		if file.Content != "" {
			sb.WriteString("Content Preview:\n" + truncate(file.Content, experimentFileChars) + "\n")
		}
	}

	return sb.String()
}
