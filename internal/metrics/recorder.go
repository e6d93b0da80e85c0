// Package metrics provides observability hooks for conversion and docref
// resolution. Components receive a Recorder through dependency injection;
// NoopRecorder is the default so callers never nil-check.
package metrics

import "time"

// DocrefOutcome enumerates resolution outcomes for counters.
type DocrefOutcome string

const (
	OutcomeFresh     DocrefOutcome = "fresh"
	OutcomeGenerated DocrefOutcome = "generated"
	OutcomeFailed    DocrefOutcome = "failed"
)

// Recorder defines observability hooks for the two build pipelines.
// Implementations may forward to Prometheus; all methods must be cheap.
type Recorder interface {
	IncConversion(success bool)
	IncDocrefOutcome(outcome DocrefOutcome)
	ObserveGenerationDuration(model string, d time.Duration)
	ObserveBuildDuration(stage string, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncConversion(bool)                              {}
func (NoopRecorder) IncDocrefOutcome(DocrefOutcome)                  {}
func (NoopRecorder) ObserveGenerationDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration)      {}
