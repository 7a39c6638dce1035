package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Gemini calls the Google Generative Language generateContent endpoint.
type Gemini struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGemini(baseURL, apiKey string) *Gemini {
	return &Gemini{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (g *Gemini) Name() string {
	return NameGemini
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig geminiGenConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *Gemini) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if g.apiKey == "" {
		return "", newError(NameGemini, KindStatus, errors.New("api key not configured"))
	}

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Parts: []geminiPart{{Text: req.Prompt}}}},
		GenerationConfig: geminiGenConfig{Temperature: req.Temperature},
	})
	if err != nil {
		return "", newError(NameGemini, KindTransport, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, req.Model, g.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", newError(NameGemini, KindTransport, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(NameGemini, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", newError(NameGemini, KindRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newError(NameGemini, KindStatus, fmt.Errorf("status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(NameGemini, KindTransport, err)
	}

	var decoded geminiResponse

	err = json.Unmarshal(payload, &decoded)
	if err != nil {
		return "", newError(NameGemini, KindTransport, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", newError(NameGemini, KindStatus, errors.New("response contained no candidates"))
	}

	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
