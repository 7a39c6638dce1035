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

// Groq calls an OpenAI-compatible chat completions endpoint.
type Groq struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewGroq(baseURL, apiKey string) *Groq {
	return &Groq{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

func (g *Groq) Name() string {
	return NameGroq
}

type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqResponse struct {
	Choices []struct {
		Message groqMessage `json:"message"`
	} `json:"choices"`
}

func (g *Groq) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if g.apiKey == "" {
		return "", newError(NameGroq, KindStatus, errors.New("api key not configured"))
	}

	body, err := json.Marshal(groqRequest{
		Model:       req.Model,
		Messages:    []groqMessage{{Role: "user", Content: req.Prompt}},
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", newError(NameGroq, KindTransport, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", newError(NameGroq, KindTransport, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", classifyTransportError(NameGroq, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", newError(NameGroq, KindRateLimited, fmt.Errorf("status %d", resp.StatusCode))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", newError(NameGroq, KindStatus, fmt.Errorf("status %d", resp.StatusCode))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", newError(NameGroq, KindTransport, err)
	}

	var decoded groqResponse

	err = json.Unmarshal(payload, &decoded)
	if err != nil {
		return "", newError(NameGroq, KindTransport, fmt.Errorf("failed to decode response: %w", err))
	}

	if len(decoded.Choices) == 0 {
		return "", newError(NameGroq, KindStatus, errors.New("response contained no choices"))
	}

	return decoded.Choices[0].Message.Content, nil
}

// classifyTransportError separates deadline expiry from other transport
// failures so the client can report timeouts distinctly.
func classifyTransportError(providerName string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(providerName, KindTimeout, err)
	}

	return newError(providerName, KindTransport, err)
}
