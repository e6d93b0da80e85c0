package llm

import (
	"context"
	"errors"
	"strings"

	genai "google.golang.org/genai"
)

// ErrEmptyResponse indicates the model returned no usable text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

const summaryPrompt = "Summarize the following documentation page in one short paragraph. " +
	"Describe what the page covers so a reader can decide whether to follow the link. " +
	"Reply with the summary text only."

// GeminiGenerator is a thin wrapper around the official genai client.
// It only focuses on the API call itself; retries and timeouts are applied
// by the caller.
type GeminiGenerator struct {
	cli   *genai.Client
	model string
}

// NewGeminiGenerator creates a Gemini-backed generator. If apiKey is empty the
// genai client falls back to its own environment lookup.
func NewGeminiGenerator(ctx context.Context, apiKey, model string) (*GeminiGenerator, error) {
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	cli, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{cli: cli, model: model}, nil
}

func (g *GeminiGenerator) Name() string { return "Gemini:" + g.model }

// Summarize sends the document content with the summary prompt and returns the
// model's text response.
func (g *GeminiGenerator) Summarize(ctx context.Context, req Request) (Result, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	full := summaryPrompt + "\n\n[DOCUMENT]\n" + req.Content

	resp, err := g.cli.Models.GenerateContent(ctx, model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		nil,
	)
	if err != nil {
		return Result{}, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Result{}, ErrEmptyResponse
	}
	summary := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if summary == "" {
		return Result{}, ErrEmptyResponse
	}
	return Result{Summary: summary, Model: model}, nil
}
