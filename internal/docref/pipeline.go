package docref

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/llmdocs/internal/journal"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/markdown"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/observability"
)

// RunReport summarizes a resolve run over a source tree.
type RunReport struct {
	Documents int // documents scanned
	Rewritten int // documents whose directives changed
	Generated int // generation calls made
	Failed    int // documents that failed resolution
}

// Pipeline walks a source tree and resolves docref directives in every
// document. Each document is independent: a generation failure fails that
// document loudly but the walk continues, and the run as a whole reports
// failure at the end.
type Pipeline struct {
	cfg      *config.Config
	resolver *Resolver
	journal  *journal.Journal // may be nil
	recorder metrics.Recorder

	// RenderedDir, when non-empty, receives a rendered copy of each document
	// that contains directives, with docref blocks replaced by summary blocks.
	RenderedDir string
}

// NewPipeline assembles the resolve pipeline. journal and recorder may be nil.
func NewPipeline(cfg *config.Config, resolver *Resolver, j *journal.Journal, recorder metrics.Recorder) *Pipeline {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Pipeline{cfg: cfg, resolver: resolver, journal: j, recorder: recorder}
}

// Run resolves all documents under sourceDir.
func (p *Pipeline) Run(ctx context.Context, sourceDir string) (*RunReport, error) {
	start := time.Now()
	defer func() {
		p.recorder.ObserveBuildDuration("resolve", time.Since(start))
	}()

	report := &RunReport{}
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to walk source directory").
				WithContext("path", path).
				Build()
		}
		if d.IsDir() || !p.isDocument(d.Name()) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		rel, relErr := filepath.Rel(sourceDir, path)
		if relErr != nil {
			rel = path
		}
		report.Documents++
		if err := p.resolveOne(ctx, sourceDir, path, rel, report); err != nil {
			report.Failed++
			observability.ErrorContext(ctx, "Document resolution failed",
				logfields.Document(rel), logfields.Error(err))
		}
		return nil
	})
	if walkErr != nil {
		return report, walkErr
	}

	if report.Failed > 0 {
		return report, errors.NewError(errors.CategoryDocref, "one or more documents failed to resolve").
			WithContext("failed", report.Failed).
			Build()
	}

	observability.InfoContext(ctx, "Docref resolution finished",
		logfields.Stage("resolve"),
		logfields.Count(report.Documents),
		slog.Int("rewritten", report.Rewritten),
		slog.Int("generated", report.Generated))
	return report, nil
}

// ResolveFile resolves a single document (used by watch mode).
func (p *Pipeline) ResolveFile(ctx context.Context, sourceDir, path string) error {
	rel, err := filepath.Rel(sourceDir, path)
	if err != nil {
		rel = path
	}
	return p.resolveOne(ctx, sourceDir, path, rel, &RunReport{})
}

func (p *Pipeline) resolveOne(ctx context.Context, sourceDir, path, rel string, report *RunReport) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to read source document").
			WithContext("path", path).
			Build()
	}

	readTarget := p.targetReader(sourceDir)
	patched, outcomes, resolveErr := p.resolver.ResolveDocument(ctx, rel, source, readTarget)
	p.journalOutcomes(ctx, rel, outcomes)
	if resolveErr != nil {
		return resolveErr
	}

	for _, o := range outcomes {
		if o.Generated {
			report.Generated++
		}
	}

	if !bytes.Equal(patched, source) {
		if err := os.WriteFile(path, patched, 0644); err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to rewrite source document").
				Fatal().
				WithContext("path", path).
				Build()
		}
		report.Rewritten++
		slog.Debug("Source document rewritten", logfields.Document(rel))
	}

	if p.RenderedDir != "" && len(outcomes) > 0 {
		if err := p.emitRendered(sourceDir, rel, patched); err != nil {
			return err
		}
	}
	return nil
}

// isDocument reports whether a file name carries one of the configured
// source document extensions.
func (p *Pipeline) isDocument(name string) bool {
	ext := filepath.Ext(name)
	for _, candidate := range p.cfg.Output.DocExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// targetReader maps a target identifier to a file under the source tree,
// trying the identifier verbatim and with each configured doc extension.
func (p *Pipeline) targetReader(sourceDir string) TargetReader {
	return func(target string) ([]byte, error) {
		candidates := []string{filepath.Join(sourceDir, target)}
		for _, ext := range p.cfg.Output.DocExtensions {
			candidates = append(candidates, filepath.Join(sourceDir, target+ext))
		}
		var lastErr error
		for _, candidate := range candidates {
			content, err := os.ReadFile(candidate)
			if err == nil {
				return content, nil
			}
			lastErr = err
		}
		return nil, lastErr
	}
}

// emitRendered writes the document's output form with directive blocks
// replaced by rendered summary blocks.
func (p *Pipeline) emitRendered(sourceDir, rel string, source []byte) error {
	readTarget := p.targetReader(sourceDir)
	rendered, err := RenderDocument(source, func(target string) string {
		content, readErr := readTarget(target)
		if readErr != nil {
			return ""
		}
		return markdown.ExtractTitle(content)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryDocref, "failed to render document").
			WithContext("document", rel).
			Build()
	}

	outPath := filepath.Join(p.RenderedDir, rel)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create rendered directory").
			WithContext("path", outPath).
			Build()
	}
	if err := os.WriteFile(outPath, rendered, 0644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write rendered document").
			Fatal().
			WithContext("path", outPath).
			Build()
	}
	return nil
}

// journalOutcomes records generation activity; fresh reuses are not journaled.
func (p *Pipeline) journalOutcomes(ctx context.Context, document string, outcomes []Outcome) {
	if p.journal == nil {
		return
	}
	buildID := observability.BuildID(ctx)
	for _, o := range outcomes {
		var outcome string
		switch {
		case o.Generated:
			outcome = "generated"
		case o.Failed:
			outcome = "failed"
		default:
			continue // fresh reuse
		}
		entry := journal.Entry{
			BuildID:  buildID,
			Document: document,
			Target:   o.Target,
			Model:    o.Model,
			Hash:     o.Hash,
			Outcome:  outcome,
			Duration: o.Duration,
		}
		if err := p.journal.Record(ctx, entry); err != nil {
			observability.WarnContext(ctx, "Failed to record journal entry",
				logfields.Target(o.Target), logfields.Error(err))
			continue
		}
		slog.Debug("Journaled resolution",
			logfields.Document(document),
			logfields.Target(o.Target),
			logfields.Outcome(outcome))
	}
}
