// Package retrieval finds academic papers for the pipeline stages and merges
// result lists from multiple queries into one bounded, citation-ordered set.
package retrieval

import (
	"context"
	"sort"

	"github.com/cortexlab/cortexlab/pkg/models"
)

// Searcher is a paper search backend.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.Paper, error)
}

// FallbackQueries expands a topic into the query variants issued when the
// stage has no model-generated queries to work with.
func FallbackQueries(topic string) []string {
	return []string{
		topic,
		topic + " survey",
		topic + " review",
		topic + " state of the art",
		topic + " recent advances",
	}
}

// Dedupe removes duplicate papers, keeping the first occurrence. Papers are
// considered duplicates when they share a provider ID, or a title when the ID
// is missing.
func Dedupe(papers []models.Paper) []models.Paper {
	seen := make(map[string]bool, len(papers))
	out := make([]models.Paper, 0, len(papers))

	for _, paper := range papers {
		key := paper.DedupKey()
		if key == "" || seen[key] {
			continue
		}

		seen[key] = true

		out = append(out, paper)
	}

	return out
}

// SortByCitations orders papers by citation count, highest first. The sort is
// stable so papers with equal counts keep their retrieval order.
func SortByCitations(papers []models.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].Citations() > papers[j].Citations()
	})
}

// Cap truncates the list to at most n papers.
func Cap(papers []models.Paper, n int) []models.Paper {
	if n >= 0 && len(papers) > n {
		return papers[:n]
	}

	return papers
}

// Merge dedupes, orders and caps the combined results of several queries.
func Merge(papers []models.Paper, limit int) []models.Paper {
	merged := Dedupe(papers)
	SortByCitations(merged)

	return Cap(merged, limit)
}
