package docref

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/llmdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/llmdocs/internal/hashing"
	"git.home.luguber.info/inful/llmdocs/internal/llm"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/markdown"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/retry"
)

// TargetReader resolves a directive's target identifier to the raw source
// text of the referenced document.
type TargetReader func(target string) ([]byte, error)

// Outcome describes what happened to one directive during resolution.
type Outcome struct {
	Target    string
	State     State
	Hash      string
	Model     string
	Generated bool
	Failed    bool
	Duration  time.Duration
}

// Resolver drives the per-directive state machine for a document.
type Resolver struct {
	generator llm.Generator
	model     string
	timeout   time.Duration
	policy    retry.Policy
	recorder  metrics.Recorder
}

// NewResolver creates a resolver. recorder may be nil (defaults to noop).
func NewResolver(generator llm.Generator, model string, timeout time.Duration, policy retry.Policy, recorder metrics.Recorder) *Resolver {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Resolver{
		generator: generator,
		model:     model,
		timeout:   timeout,
		policy:    policy,
		recorder:  recorder,
	}
}

// ResolveDocument resolves every directive in source and returns the patched
// source. Fresh directives keep their original bytes, so a document whose
// references are all up to date round-trips unchanged.
//
// A generation failure aborts resolution of this document (stale summaries
// must not be silently accepted); outcomes for directives already processed
// are still returned for journaling.
func (r *Resolver) ResolveDocument(ctx context.Context, document string, source []byte, readTarget TargetReader) ([]byte, []Outcome, error) {
	directives, err := ParseDirectives(source)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryDocref, "failed to parse docref directives").
			WithContext("document", document).
			Build()
	}
	if len(directives) == 0 {
		return source, nil, nil
	}

	var outcomes []Outcome
	var changed []Directive
	for _, d := range directives {
		targetContent, err := readTarget(d.Target)
		if err != nil {
			r.recorder.IncDocrefOutcome(metrics.OutcomeFailed)
			outcomes = append(outcomes, Outcome{Target: d.Target, State: d.StateFor(""), Failed: true})
			return nil, outcomes, errors.WrapError(err, errors.CategoryDocref, "referenced document not readable").
				WithContext("document", document).
				WithContext("target", d.Target).
				Build()
		}

		currentHash := hashing.ContentHash(targetContent)
		state := d.StateFor(currentHash)
		if state == StateFresh {
			r.recorder.IncDocrefOutcome(metrics.OutcomeFresh)
			outcomes = append(outcomes, Outcome{Target: d.Target, State: state, Hash: d.Hash, Model: d.Model})
			slog.Debug("Docref is fresh", logfields.Document(document), logfields.Target(d.Target))
			continue
		}

		start := time.Now()
		result, err := r.generate(ctx, d.Target, targetContent)
		duration := time.Since(start)
		if err != nil {
			r.recorder.IncDocrefOutcome(metrics.OutcomeFailed)
			outcomes = append(outcomes, Outcome{Target: d.Target, State: state, Failed: true, Duration: duration})
			return nil, outcomes, errors.WrapError(err, errors.CategoryGeneration, "summary generation failed").
				Retryable().
				WithContext("document", document).
				WithContext("target", d.Target).
				Build()
		}
		r.recorder.IncDocrefOutcome(metrics.OutcomeGenerated)
		r.recorder.ObserveGenerationDuration(result.Model, duration)

		d.Hash = currentHash
		d.Model = result.Model
		d.Summary = result.Summary
		changed = append(changed, d)
		outcomes = append(outcomes, Outcome{
			Target:    d.Target,
			State:     state,
			Hash:      currentHash,
			Model:     result.Model,
			Generated: true,
			Duration:  duration,
		})
		slog.Info("Docref summary regenerated",
			logfields.Document(document),
			logfields.Target(d.Target),
			logfields.Model(result.Model),
			logfields.Hash(currentHash),
			logfields.DurationMS(duration.Seconds()*1000))
	}

	return Patch(source, changed), outcomes, nil
}

func (r *Resolver) generate(ctx context.Context, target string, content []byte) (llm.Result, error) {
	var result llm.Result
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		var err error
		// The prompt carries the target's plain text; markup noise only
		// inflates the context window.
		result, err = r.generator.Summarize(callCtx, llm.Request{
			Target:  target,
			Content: markdown.ExtractText(content),
			Model:   r.model,
		})
		return err
	}, func(err error) bool {
		// Context cancellation is not transient; everything else may be.
		return ctx.Err() == nil
	})
	return result, err
}
