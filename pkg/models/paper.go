package models

import (
	"time"

	"github.com/google/uuid"
)

// Paper is one academic paper returned by a retrieval collaborator.
// CitationCount is a pointer because providers routinely omit it; a missing
// count sorts as zero.
type Paper struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Authors       string `json:"authors,omitempty"`
	Year          int    `json:"year,omitempty"`
	Abstract      string `json:"abstract,omitempty"`
	URL           string `json:"url,omitempty"`
	Venue         string `json:"venue,omitempty"`
	CitationCount *int   `json:"citation_count,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

// Citations returns the citation count, treating a missing value as zero.
func (p Paper) Citations() int {
	if p.CitationCount == nil {
		return 0
	}

	return *p.CitationCount
}

// DedupKey is the stable identifier used when merging result lists. Papers
// without a provider ID fall back to their title.
func (p Paper) DedupKey() string {
	if p.ID != "" {
		return p.ID
	}

	return p.Title
}

// ResearchGap is one identified gap in the literature.
type ResearchGap struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	Evidence        []string `json:"evidence,omitempty"`
	PotentialImpact string   `json:"potential_impact,omitempty"`
	Confidence      float64  `json:"confidence,omitempty"`
}

// ResearchDirection is one actionable direction generated from gaps.
type ResearchDirection struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	NoveltyAngle       string   `json:"novelty_angle,omitempty"`
	FeasibilityScore   int      `json:"feasibility_score,omitempty"`
	ContributionType   string   `json:"contribution_type,omitempty"`
	MinimumExperiments []string `json:"minimum_experiments,omitempty"`
	ExpectedOutcomes   []string `json:"expected_outcomes,omitempty"`
	RelatedGapIDs      []string `json:"related_gap_ids,omitempty"`
	EstimatedTimeline  string   `json:"estimated_timeline,omitempty"`
	RequiredResources  string   `json:"required_resources,omitempty"`
}

// Theme is one thematic cluster identified across retrieved papers.
type Theme struct {
	Name                 string   `json:"name"`
	Description          string   `json:"description,omitempty"`
	PaperCount           int      `json:"paper_count,omitempty"`
	RepresentativePapers []string `json:"representative_papers,omitempty"`
	KeyMethods           []string `json:"key_methods,omitempty"`
}

// Artifact types produced by the pipelines.
const (
	ArtifactTypeExperimentPlan = "experiment_plan"
	ArtifactTypePaperDraft     = "paper_draft"
)

// Artifact is a finished document handed to the output collaborator.
type Artifact struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	Type            string    `json:"type"` // experiment_plan, paper_draft
	Title           string    `json:"title"`
	ContentMarkdown string    `json:"content_markdown"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewArtifact creates an artifact for the given project.
func NewArtifact(projectID, artifactType, title, content string) *Artifact {
	return &Artifact{
		ID:              uuid.New().String(),
		ProjectID:       projectID,
		Type:            artifactType,
		Title:           title,
		ContentMarkdown: content,
		CreatedAt:       time.Now().UTC(),
	}
}

// ExperimentFile is the loaded content of one uploaded experiment result.
type ExperimentFile struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
}
