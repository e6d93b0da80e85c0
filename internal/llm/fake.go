package llm

import (
	"context"
	"fmt"
	"sync"
)

// FakeGenerator is a deterministic in-process generator used in tests and for
// dry runs without backend credentials. It records how many calls were made.
type FakeGenerator struct {
	mu        sync.Mutex
	calls     int
	summaries map[string]string // target -> canned summary
	err       error
}

func NewFakeGenerator() *FakeGenerator {
	return &FakeGenerator{summaries: make(map[string]string)}
}

func (f *FakeGenerator) Name() string { return "fake" }

// SetSummary registers a canned summary for a target.
func (f *FakeGenerator) SetSummary(target, summary string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.summaries[target] = summary
}

// Fail makes all subsequent calls return err.
func (f *FakeGenerator) Fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Calls returns the number of Summarize invocations so far.
func (f *FakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeGenerator) Summarize(ctx context.Context, req Request) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	f.calls++
	if f.err != nil {
		return Result{}, f.err
	}
	summary, ok := f.summaries[req.Target]
	if !ok {
		summary = fmt.Sprintf("Summary of %s.", req.Target)
	}
	model := req.Model
	if model == "" {
		model = "fake"
	}
	return Result{Summary: summary, Model: model}, nil
}
