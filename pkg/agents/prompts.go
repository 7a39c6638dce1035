package agents

import (
	"fmt"
	"strings"
	"text/template"
)

func mustPrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var sb strings.Builder

	err := tmpl.Execute(&sb, data)
	if err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}

	return sb.String(), nil
}

var scopeClarifierPrompt = mustPrompt("scope_clarifier", `You are a research scope clarifier agent. Your job is to analyze a researcher's query and establish clear boundaries for the research exploration.

Given the user's research interest:
"{{.Topic}}"

Analyze and provide:
1. Domain Boundaries: Break down the research area into hierarchical levels (field -> subfield -> specific topic)
2. Search Queries: Generate 5-10 effective search queries for academic databases
3. Constraints: Identify any constraints mentioned (target venues, datasets, compute limitations, timeframe)

Respond in the following JSON format:
{
    "domain_boundaries": {
        "field": "e.g., Computer Vision",
        "subfield": "e.g., Image Classification",
        "specific_topic": "e.g., Fine-grained Recognition under Distribution Shift",
        "related_areas": ["list of related topics to also search"]
    },
    "search_queries": [
        "query 1",
        "query 2"
    ],
    "constraints": {
        "target_venues": ["optional list of target conferences/journals"],
        "datasets": ["any specific datasets mentioned"],
        "compute_level": "low/medium/high or null",
        "recency": "focus on papers from last N years or null"
    }
}
`)

var trendSynthesizerPrompt = mustPrompt("trend_synthesizer", `You are a research trend synthesizer. Analyze the following papers and identify major themes and trends in this research area.

Papers (title, year, abstract):
{{.PapersText}}

Analyze these papers and identify:
1. Major Themes: Group papers into thematic clusters (methods, datasets, evaluation approaches, applications)
2. Current Trends: What's gaining traction? What methods/approaches are becoming popular?
3. Saturation Indicators: Which areas seem well-explored vs under-explored?

Respond in JSON format:
{
    "themes": [
        {
            "name": "theme name",
            "description": "brief description",
            "paper_count": number,
            "representative_papers": ["paper titles"],
            "key_methods": ["method names"]
        }
    ],
    "trends": {
        "hot_topics": ["topics gaining momentum"],
        "declining": ["topics losing interest"],
        "steady": ["consistently researched areas"]
    },
    "saturation": {
        "well_explored": ["areas with lots of work"],
        "emerging": ["newer areas with less work"],
        "under_explored": ["potential opportunity areas"]
    }
}
`)

var gapMinerPrompt = mustPrompt("gap_miner", `You are a research gap mining expert. Based on the papers and identified themes, extract concrete research gaps and opportunities.

Research Domain: {{.Domain}}

Identified Themes:
{{.ThemesText}}

Key Papers (with abstracts):
{{.PapersText}}

Saturation Analysis:
- Well explored: {{.WellExplored}}
- Under explored: {{.UnderExplored}}

Identify research gaps by looking for:
1. Limitations mentioned in paper abstracts
2. "Future work" suggestions
3. Cross-theme opportunities (combining approaches from different themes)
4. Methodological gaps (missing baselines, incomplete evaluations)
5. Data/benchmark gaps
6. Generalization failures

Respond in JSON format:
{
    "gaps": [
        {
            "id": "gap_1",
            "title": "short title",
            "description": "detailed description of the gap",
            "category": "under_explored|evaluation_blind_spot|robustness|data_constraint|methodological",
            "evidence": ["paper titles that support this gap"],
            "potential_impact": "high|medium|low",
            "confidence": 0.8
        }
    ]
}

Identify 5-10 concrete, actionable research gaps.
`)

var directionGeneratorPrompt = mustPrompt("direction_generator", `You are a research direction generator. Convert identified research gaps into concrete, actionable research directions.

Research Domain: {{.Domain}}

Identified Gaps:
{{.GapsText}}

For each promising gap, generate a research direction that a PhD student or researcher could pursue. Each direction should be:
1. Specific and actionable
2. Feasible within 3-6 months
3. Novel enough to be publishable
4. Clear about expected contribution

Respond in JSON format:
{
    "directions": [
        {
            "id": "dir_1",
            "title": "Clear, specific title",
            "description": "Detailed description of the research direction",
            "novelty_angle": "What makes this novel/different",
            "feasibility_score": 8,
            "contribution_type": "method|benchmark|analysis|application",
            "minimum_experiments": [
                "Experiment 1 description",
                "Experiment 2 description"
            ],
            "expected_outcomes": ["what you'd expect to achieve"],
            "related_gap_ids": ["gap_1"],
            "estimated_timeline": "3-6 months",
            "required_resources": "compute/data requirements"
        }
    ]
}

Generate 5-8 diverse research directions ranked by feasibility and impact.
`)

var deepDiveQueriesPrompt = mustPrompt("deep_dive_queries", `Generate 5 specific search queries to find papers about baselines, datasets, and methods for this research direction:

Direction: {{.DirectionTitle}}
Description: {{.DirectionDescription}}

Focus on finding:
1. Survey papers that cover baselines
2. Benchmark papers with dataset comparisons
3. Recent state-of-the-art methods
4. Analysis papers discussing limitations

Return as a JSON array of search query strings:
["query 1", "query 2", "query 3", "query 4", "query 5"]
`)

var deepDiveAnalysisPrompt = mustPrompt("deep_dive_analysis", `You are a research deep dive analyst. Given a specific research direction, analyze the gathered papers to extract detailed information for experiment planning.

Research Direction:
Title: {{.DirectionTitle}}
Description: {{.DirectionDescription}}
Novelty Angle: {{.NoveltyAngle}}

Papers found for this direction:
{{.PapersText}}

Analyze these papers and extract:

1. **Baseline Methods**: What are the established baseline methods that any new work must compare against?
2. **Standard Datasets**: What datasets are commonly used for evaluation in this area?
3. **Evaluation Metrics**: What metrics are standard for measuring performance?
4. **Known Failure Cases**: What scenarios or edge cases do current methods struggle with?
5. **Implementation Details**: Common architectures, hyperparameters, training procedures mentioned.

Respond in JSON format:
{
    "baseline_methods": [
        {
            "name": "method name",
            "description": "brief description",
            "performance_summary": "typical performance metrics",
            "paper_reference": "paper title that describes it"
        }
    ],
    "datasets": [
        {
            "name": "dataset name",
            "description": "what it contains",
            "size": "approximate size",
            "url": "if mentioned",
            "common_splits": "train/val/test splits if standard"
        }
    ],
    "metrics": [
        {
            "name": "metric name",
            "description": "what it measures",
            "formula": "if applicable",
            "typical_range": "expected values"
        }
    ],
    "failure_cases": [
        {
            "scenario": "description of failure case",
            "why_it_fails": "reason current methods struggle",
            "potential_solution_hints": "any mentioned approaches"
        }
    ],
    "implementation_notes": {
        "common_architectures": ["list of architectures"],
        "typical_hyperparameters": {},
        "training_tips": ["any tips mentioned"],
        "compute_requirements": "typical GPU/time requirements"
    }
}
`)

var experimentDesignPrompt = mustPrompt("experiment_design", `You are an expert research experiment designer. Based on the research direction and deep dive analysis, design a comprehensive experiment plan.

## Research Direction
Title: {{.DirectionTitle}}
Description: {{.DirectionDescription}}
Novelty Angle: {{.NoveltyAngle}}
Contribution Type: {{.ContributionType}}

## Deep Dive Analysis

### Baseline Methods:
{{.BaselinesText}}

### Standard Datasets:
{{.DatasetsText}}

### Evaluation Metrics:
{{.MetricsText}}

### Known Failure Cases:
{{.FailureCasesText}}

### Implementation Notes:
{{.ImplementationNotes}}

---

Design a complete experiment plan that would result in a publishable contribution. Be specific and actionable.

Respond in JSON format:
{
    "hypotheses": [
        {
            "id": "H1",
            "statement": "Clear, testable hypothesis statement",
            "rationale": "Why this hypothesis makes sense",
            "expected_outcome": "What we expect to observe if true",
            "null_hypothesis": "What the alternative would mean"
        }
    ],
    "proposed_method": {
        "name": "Your proposed method name",
        "description": "Detailed description of the approach",
        "key_innovations": ["list of novel aspects"],
        "architecture_overview": "High-level architecture description",
        "components": [
            {
                "name": "component name",
                "purpose": "what it does",
                "implementation_notes": "how to implement"
            }
        ]
    },
    "ablation_studies": [
        {
            "name": "Ablation study name",
            "description": "What aspect is being tested",
            "variants": ["list of variants to compare"],
            "expected_insight": "What we expect to learn"
        }
    ],
    "experiment_setup": {
        "datasets": [
            {
                "name": "dataset name",
                "purpose": "why this dataset",
                "preprocessing": "preprocessing steps",
                "splits": "train/val/test configuration"
            }
        ],
        "baselines": [
            {
                "name": "baseline name",
                "implementation": "how to implement or obtain",
                "configuration": "key hyperparameters"
            }
        ],
        "metrics": [
            {
                "name": "metric name",
                "primary": true,
                "rationale": "why this metric matters"
            }
        ]
    },
    "training_protocol": {
        "framework": "PyTorch/TensorFlow/JAX",
        "optimizer": "optimizer choice and rationale",
        "learning_rate": {
            "initial": "value",
            "schedule": "schedule type",
            "warmup": "warmup steps if any"
        },
        "batch_size": "recommended batch size",
        "epochs": "expected epochs to convergence",
        "regularization": ["list of regularization techniques"],
        "augmentation": ["data augmentation if applicable"],
        "early_stopping": "early stopping criteria",
        "checkpointing": "when to save checkpoints"
    },
    "evaluation_plan": {
        "validation_strategy": "k-fold/holdout/etc",
        "statistical_tests": ["tests to use for significance"],
        "visualization": ["what to visualize"],
        "error_analysis": "how to analyze failures",
        "reproducibility": ["steps for reproducibility"]
    },
    "compute_estimate": {
        "gpu_type": "recommended GPU",
        "gpu_hours": "estimated training time",
        "memory_requirements": "VRAM needed",
        "storage_requirements": "disk space for data/checkpoints",
        "total_experiments": "number of runs needed"
    },
    "timeline": {
        "phase1_implementation": "X weeks",
        "phase2_experiments": "X weeks",
        "phase3_analysis": "X weeks",
        "phase4_writing": "X weeks",
        "total": "total estimated time"
    },
    "risks_and_mitigations": [
        {
            "risk": "potential risk",
            "likelihood": "high/medium/low",
            "mitigation": "how to address"
        }
    ]
}
`)

var paperOutlinePrompt = mustPrompt("paper_outline", `You are an expert academic paper writer. Create a detailed outline for a research paper based on the following information.

## Research Direction
{{.DirectionInfo}}

## Experiment Plan Summary
{{.ExperimentPlan}}

## Experiment Results
{{.ExperimentResults}}

Create a comprehensive paper outline with section summaries.

Respond in JSON format:
{
    "title": "Proposed paper title (clear, specific, includes key contribution)",
    "outline": {
        "abstract": {
            "purpose": "one sentence on paper goal",
            "method": "one sentence on approach",
            "results": "one sentence on key findings",
            "conclusion": "one sentence on significance"
        },
        "introduction": {
            "hook": "Opening to grab attention",
            "problem_statement": "What problem we address",
            "motivation": "Why this matters",
            "gap": "What's missing in current work",
            "contribution": ["list of contributions"],
            "paper_structure": "Brief roadmap"
        },
        "related_work": {
            "themes": [
                {
                    "name": "theme name",
                    "description": "what this covers",
                    "key_papers": ["paper titles to cite"],
                    "our_difference": "how our work differs"
                }
            ]
        },
        "method": {
            "overview": "High-level description",
            "components": [
                {
                    "name": "component name",
                    "description": "detailed description",
                    "formulation": "mathematical formulation if applicable"
                }
            ],
            "training": "Training procedure",
            "inference": "Inference procedure"
        },
        "experiments": {
            "setup": {
                "datasets": "datasets used",
                "baselines": "methods compared against",
                "metrics": "evaluation metrics",
                "implementation": "implementation details"
            },
            "main_results": "What main experiments show",
            "ablations": "What ablation studies reveal",
            "analysis": "Additional analysis points"
        },
        "discussion": {
            "findings": "Key takeaways",
            "limitations": "Honest limitations",
            "future_work": "Potential extensions"
        },
        "conclusion": {
            "summary": "Brief recap",
            "impact": "Broader implications"
        }
    }
}
`)

var sectionWriterPrompt = mustPrompt("section_writer", `You are writing the {{.SectionName}} section of an academic research paper.

Paper Title: {{.Title}}

Section Outline:
{{.SectionOutline}}

Context from other sections:
{{.Context}}

Experiment Data (if relevant):
{{.ExperimentData}}

Write this section in academic style. Be precise, clear, and well-structured.
Use LaTeX-style math notation where appropriate (e.g., $x^2$ for inline, $$equation$$ for display).
Include placeholder citations like [Author et al., Year] that can be filled in later.

Write the complete {{.SectionName}} section in Markdown format:
`)

var editorAnalysisPrompt = mustPrompt("editor_analysis", `You are an expert academic paper editor. Analyze this paper draft and identify areas for improvement.

## Paper Draft:
{{.PaperMarkdown}}

## User's Revision Instructions (if any):
{{.RevisionInstructions}}

Analyze the paper and provide:
1. Overall quality assessment
2. Specific issues to address
3. Section-by-section recommendations

Respond in JSON format:
{
    "quality_score": 7,
    "overall_assessment": "Brief overall assessment",
    "strengths": ["list of strengths"],
    "weaknesses": ["list of weaknesses"],
    "section_feedback": {
        "abstract": {
            "issues": ["list of issues"],
            "suggestions": ["how to improve"]
        },
        "introduction": {
            "issues": [],
            "suggestions": []
        }
    },
    "priority_revisions": [
        {
            "section": "section name",
            "issue": "what needs fixing",
            "priority": "high/medium/low"
        }
    ]
}
`)

var sectionRevisionPrompt = mustPrompt("section_revision", `You are revising a section of an academic research paper.

## Original Section Content:
{{.SectionContent}}

## Revision Instructions:
{{.RevisionInstructions}}

## Specific Issues to Address:
{{.Issues}}

## Suggestions:
{{.Suggestions}}

Rewrite this section addressing all the issues and following the instructions.
Maintain academic tone and proper structure.
Keep citations in [Author et al., Year] format.

Revised section:
`)

var styleAdaptationPrompt = mustPrompt("style_adaptation", `Adapt this paper to follow {{.StyleGuide}} formatting and style conventions.

## Current Paper:
{{.PaperMarkdown}}

## Style Requirements:
- Follow {{.StyleGuide}} citation style
- Use appropriate section numbering
- Adjust language conventions as needed
- Ensure proper formatting

Rewrite the paper following these conventions. Output the complete revised paper in Markdown:
`)
