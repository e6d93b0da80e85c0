// Package llm abstracts the external text-generation service used to produce
// docref summaries. The backend and model are configuration inputs; nothing
// here is hardcoded to a provider.
package llm

import (
	"context"
	"fmt"
	"os"

	"git.home.luguber.info/inful/llmdocs/internal/config"
)

// Request carries the referenced document's content as generation context.
type Request struct {
	Target  string // target document identifier, for error reporting
	Content string // plain text of the referenced document
	Model   string // model identifier from configuration
}

// Result is a single block of summary text plus the model that produced it.
type Result struct {
	Summary string
	Model   string
}

// Generator produces a summary for a referenced document.
type Generator interface {
	Summarize(ctx context.Context, req Request) (Result, error)
	Name() string
}

// New constructs the configured generation backend.
func New(ctx context.Context, gc config.GeneratorConfig) (Generator, error) {
	switch gc.Provider {
	case "gemini":
		apiKey := os.Getenv(gc.APIKeyEnv)
		return NewGeminiGenerator(ctx, apiKey, gc.Model)
	case "fake":
		return NewFakeGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown generator provider: %q", gc.Provider)
	}
}
