package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/cortexlab/pkg/models"
)

const outlineReply = "```json\n" + `{
	"title": "TempAug: Temporal Augmentation for Graph OOD",
	"outline": {
		"abstract": {"purpose": "benchmark temporal shift"},
		"introduction": {"hook": "graphs drift over time"},
		"related_work": {"themes": []},
		"method": {"overview": "augmentation"},
		"experiments": {"main_results": "TempAug wins"},
		"discussion": {"findings": "temporal shift matters"},
		"conclusion": {"summary": "wrap up"}
	}
}` + "\n```"

const analysisNoIssuesReply = "```json\n" + `{
	"quality_score": 8,
	"overall_assessment": "solid draft",
	"section_feedback": {}
}` + "\n```"

const analysisWithIssuesReply = "```json\n" + `{
	"quality_score": 5,
	"section_feedback": {
		"introduction": {
			"issues": ["weak motivation"],
			"suggestions": ["state the gap earlier"]
		}
	}
}` + "\n```"

func paperScript(analysisReply string) *scriptedCompleter {
	return &scriptedCompleter{replies: []scriptedReply{
		{marker: "academic paper writer", reply: outlineReply},
		{marker: "You are writing the", reply: "Generated section text."},
		{marker: "academic paper editor", reply: analysisReply},
		{marker: "You are revising a section", reply: "Revised section text."},
		{marker: "Adapt this paper to follow", reply: "# Styled Paper\n\n## Abstract\n\nIEEE formatted."},
	}}
}

func TestPaperPipelineEndToEnd(t *testing.T) {
	deps := testDeps(paperScript(analysisNoIssuesReply), &stubSearcher{})

	final, err := PaperPipeline(deps).Execute(context.Background(),
		PaperState{Direction: testDirection(), DeepDiveReport: "plan summary"}, nil)

	require.NoError(t, err)
	require.False(t, final.Failed(), final.FailureMessage())

	assert.Equal(t, StepPaperEdited, final.CurrentStep())
	assert.Equal(t, "TempAug: Temporal Augmentation for Graph OOD", final.Title)
	assert.Len(t, final.Sections, 7)
	assert.Contains(t, final.PaperMarkdown, "# TempAug")
	assert.Contains(t, final.PaperMarkdown, "## 1. Introduction")
	assert.Contains(t, final.PaperMarkdown, "## References")

	require.Len(t, final.Notes, 2)
	assert.Equal(t, AgentPaperWriter, final.Notes[0].Agent)
	assert.Equal(t, AgentPaperEditor, final.Notes[1].Agent)
}

func TestDraftRequiresDirection(t *testing.T) {
	deps := testDeps(paperScript(analysisNoIssuesReply), &stubSearcher{})

	final, err := Draft(deps).Run(context.Background(), PaperState{})

	require.NoError(t, err)
	assert.True(t, final.Failed())
}

func TestDraftSectionFailureBecomesPlaceholder(t *testing.T) {
	// Outline succeeds but every section completion fails.
	completer := &scriptedCompleter{replies: []scriptedReply{
		{marker: "academic paper writer", reply: outlineReply},
	}}
	deps := testDeps(completer, &stubSearcher{})

	final, err := Draft(deps).Run(context.Background(), PaperState{Direction: testDirection()})

	require.NoError(t, err)
	require.False(t, final.Failed())
	assert.Contains(t, final.Sections["method"], "Error generating section method")
	assert.Contains(t, final.PaperMarkdown, "Please refine and regenerate")
}

func TestEditRequiresDraft(t *testing.T) {
	deps := testDeps(paperScript(analysisNoIssuesReply), &stubSearcher{})

	final, err := Edit(deps).Run(context.Background(), PaperState{})

	require.NoError(t, err)
	assert.True(t, final.Failed())
	assert.Contains(t, final.FailureMessage(), "no paper draft")
}

func TestEditStyleAdaptationMode(t *testing.T) {
	deps := testDeps(paperScript(analysisNoIssuesReply), &stubSearcher{})

	final, err := Edit(deps).Run(context.Background(), PaperState{
		Title:                "Paper",
		PaperMarkdown:        "# Paper\n\n## Abstract\n\nText.",
		RevisionInstructions: "please reformat for IEEE submission",
	})

	require.NoError(t, err)
	require.False(t, final.Failed())
	assert.Equal(t, "Adapted paper to IEEE style", final.RevisionSummary)
	assert.Contains(t, final.PaperMarkdown, "Styled Paper")
}

func TestEditRevisesFlaggedSections(t *testing.T) {
	deps := testDeps(paperScript(analysisWithIssuesReply), &stubSearcher{})

	draft := "# Paper\n\n## Abstract\n\nAbstract text.\n\n## 1. Introduction\n\nIntro text.\n"

	final, err := Edit(deps).Run(context.Background(), PaperState{
		Title:         "Paper",
		PaperMarkdown: draft,
	})

	require.NoError(t, err)
	require.False(t, final.Failed())
	assert.Equal(t, "Revised 1 sections based on analysis", final.RevisionSummary)
	assert.Contains(t, final.PaperMarkdown, "Revised section text.")
	assert.Contains(t, final.PaperMarkdown, "Abstract text.", "clean sections pass through untouched")
}

func TestExtractSections(t *testing.T) {
	paper := `# Title

## Abstract

The abstract.

## 1. Introduction

Intro line one.
Intro line two.

## 2. Related Work

Related work text.
`

	sections := ExtractSections(paper)

	require.Len(t, sections, 3)
	assert.Equal(t, "The abstract.", sections["abstract"])
	assert.Equal(t, "Intro line one.\nIntro line two.", sections["introduction"])
	assert.Equal(t, "Related work text.", sections["related_work"])
}

func TestRequestedStyle(t *testing.T) {
	assert.Equal(t, "IEEE", requestedStyle("reformat for ieee please"))
	assert.Equal(t, "NEURIPS", requestedStyle("Use NeurIPS style"))
	assert.Empty(t, requestedStyle("just tighten the prose"))
}

func TestExperimentDataText(t *testing.T) {
	empty := experimentDataText(PaperState{})
	assert.Contains(t, empty, "No experiment results uploaded yet")

	withFiles := experimentDataText(PaperState{ExperimentData: []models.ExperimentFile{
		{Name: "results.csv", Type: "csv", Content: "epoch,acc\n1,0.9"},
	}})
	assert.Contains(t, withFiles, "File: results.csv")
	assert.Contains(t, withFiles, "epoch,acc")
}
