package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/cortexlab/pkg/models"
)

func intPtr(n int) *int {
	return &n
}

func TestDedupe(t *testing.T) {
	papers := []models.Paper{
		{ID: "a", Title: "First"},
		{ID: "a", Title: "First again"},
		{Title: "Untitled match"},
		{Title: "Untitled match"},
		{ID: "b", Title: "Second"},
	}

	out := Dedupe(papers)

	require.Len(t, out, 3)
	assert.Equal(t, "First", out[0].Title)
	assert.Equal(t, "Untitled match", out[1].Title)
	assert.Equal(t, "b", out[2].ID)
}

func TestDedupeDropsEmptyKeys(t *testing.T) {
	papers := []models.Paper{
		{ID: "", Title: ""},
		{ID: "a", Title: "Kept"},
	}

	out := Dedupe(papers)

	require.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestSortByCitationsMissingCountSortsAsZero(t *testing.T) {
	papers := []models.Paper{
		{ID: "a", CitationCount: intPtr(3)},
		{ID: "b"},
		{ID: "c", CitationCount: intPtr(10)},
	}

	SortByCitations(papers)

	assert.Equal(t, []string{"c", "a", "b"}, []string{papers[0].ID, papers[1].ID, papers[2].ID})
}

func TestMerge(t *testing.T) {
	papers := []models.Paper{
		{ID: "a", CitationCount: intPtr(1)},
		{ID: "b", CitationCount: intPtr(9)},
		{ID: "a", CitationCount: intPtr(1)},
		{ID: "c", CitationCount: intPtr(5)},
	}

	out := Merge(papers, 2)

	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestFallbackQueries(t *testing.T) {
	queries := FallbackQueries("graph neural networks")

	require.Len(t, queries, 5)
	assert.Equal(t, "graph neural networks", queries[0])
	assert.Equal(t, "graph neural networks survey", queries[1])
	assert.Equal(t, "graph neural networks recent advances", queries[4])
}

func TestSemanticScholarSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/paper/search", r.URL.Path)
		assert.Equal(t, "transformers", r.URL.Query().Get("query"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		_, _ = w.Write([]byte(`{
			"data": [
				{
					"paperId": "p1",
					"title": "Attention Is All You Need",
					"year": 2017,
					"authors": [{"name": "Ashish Vaswani"}, {"name": "Noam Shazeer"}],
					"venue": "NeurIPS",
					"citationCount": 90000,
					"url": "https://example.org/p1"
				},
				{
					"paperId": "p2",
					"title": "A Survey",
					"citationCount": null
				}
			]
		}`))
	}))
	defer server.Close()

	searcher := NewSemanticScholar(server.URL, "secret")

	papers, err := searcher.Search(context.Background(), "transformers", 10)

	require.NoError(t, err)
	require.Len(t, papers, 2)
	assert.Equal(t, "p1", papers[0].ID)
	assert.Equal(t, "Ashish Vaswani, Noam Shazeer", papers[0].Authors)
	assert.Equal(t, 90000, papers[0].Citations())
	assert.Equal(t, "semantic_scholar", papers[0].Provider)
	assert.Equal(t, 0, papers[1].Citations())
}

func TestSemanticScholarSearchErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	searcher := NewSemanticScholar(server.URL, "")

	_, err := searcher.Search(context.Background(), "anything", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

type fakeSearcher struct {
	failOn map[string]bool
}

func (f *fakeSearcher) Search(_ context.Context, query string, _ int) ([]models.Paper, error) {
	if f.failOn[query] {
		return nil, errors.New("backend unavailable")
	}

	return []models.Paper{{ID: "id-" + query, Title: fmt.Sprintf("Result for %s", query)}}, nil
}

func TestSearchAllCombinesInQueryOrder(t *testing.T) {
	searcher := &fakeSearcher{}

	papers, err := SearchAll(context.Background(), searcher, []string{"q1", "q2", "q3"}, 10)

	require.NoError(t, err)
	require.Len(t, papers, 3)
	assert.Equal(t, "id-q1", papers[0].ID)
	assert.Equal(t, "id-q2", papers[1].ID)
	assert.Equal(t, "id-q3", papers[2].ID)
}

func TestSearchAllToleratesPartialFailure(t *testing.T) {
	searcher := &fakeSearcher{failOn: map[string]bool{"q2": true}}

	papers, err := SearchAll(context.Background(), searcher, []string{"q1", "q2", "q3"}, 10)

	require.NoError(t, err)
	require.Len(t, papers, 2)
}

func TestSearchAllAllQueriesFail(t *testing.T) {
	searcher := &fakeSearcher{failOn: map[string]bool{"q1": true, "q2": true}}

	_, err := SearchAll(context.Background(), searcher, []string{"q1", "q2"}, 10)

	require.Error(t, err)
}
