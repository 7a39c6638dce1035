package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cortexlab/cortexlab/pkg/models"
)

const (
	semanticScholarFields   = "paperId,title,abstract,year,authors,venue,citationCount,url,externalIds"
	semanticScholarMaxLimit = 100
	providerSemanticScholar = "semantic_scholar"
)

// SemanticScholar searches the Semantic Scholar Graph API.
type SemanticScholar struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewSemanticScholar(baseURL, apiKey string) *SemanticScholar {
	return &SemanticScholar{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type semanticScholarSearchResponse struct {
	Data []semanticScholarPaper `json:"data"`
}

type semanticScholarPaper struct {
	PaperID  string `json:"paperId"`
	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	Year     int    `json:"year"`
	Authors  []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Venue         string `json:"venue"`
	CitationCount *int   `json:"citationCount"`
	URL           string `json:"url"`
}

// Search runs one paper search query. The limit is clamped to the API's
// maximum page size.
func (s *SemanticScholar) Search(ctx context.Context, query string, limit int) ([]models.Paper, error) {
	if limit <= 0 || limit > semanticScholarMaxLimit {
		limit = semanticScholarMaxLimit
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", semanticScholarFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}

	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("semantic scholar returned status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read search response: %w", err)
	}

	var decoded semanticScholarSearchResponse

	err = json.Unmarshal(payload, &decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	papers := make([]models.Paper, 0, len(decoded.Data))
	for _, raw := range decoded.Data {
		papers = append(papers, raw.toPaper())
	}

	return papers, nil
}

func (p semanticScholarPaper) toPaper() models.Paper {
	names := make([]string, 0, len(p.Authors))
	for _, author := range p.Authors {
		if author.Name != "" {
			names = append(names, author.Name)
		}
	}

	return models.Paper{
		ID:            p.PaperID,
		Title:         p.Title,
		Authors:       strings.Join(names, ", "),
		Year:          p.Year,
		Abstract:      p.Abstract,
		URL:           p.URL,
		Venue:         p.Venue,
		CitationCount: p.CitationCount,
		Provider:      providerSemanticScholar,
	}
}
