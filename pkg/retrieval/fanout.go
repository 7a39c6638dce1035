package retrieval

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cortexlab/cortexlab/pkg/models"
)

const defaultConcurrency = 3

// SearchAll issues every query against the searcher with bounded concurrency
// and returns the combined results in query order. A query that fails does
// not abort the others; its error is reported only if every query failed.
func SearchAll(ctx context.Context, searcher Searcher, queries []string, perQueryLimit int) ([]models.Paper, error) {
	results := make([][]models.Paper, len(queries))
	errs := make([]error, len(queries))

	var mu sync.Mutex

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(defaultConcurrency)

	for i, query := range queries {
		group.Go(func() error {
			papers, err := searcher.Search(ctx, query, perQueryLimit)

			mu.Lock()
			defer mu.Unlock()

			results[i] = papers
			errs[i] = err

			return nil
		})
	}

	_ = group.Wait()

	var combined []models.Paper

	failures := 0

	for i := range queries {
		if errs[i] != nil {
			failures++

			continue
		}

		combined = append(combined, results[i]...)
	}

	if failures == len(queries) && len(queries) > 0 {
		return nil, errs[0]
	}

	return combined, nil
}
