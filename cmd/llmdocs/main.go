package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/convert"
	"git.home.luguber.info/inful/llmdocs/internal/docref"
	"git.home.luguber.info/inful/llmdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/llmdocs/internal/journal"
	"git.home.luguber.info/inful/llmdocs/internal/llm"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
	"git.home.luguber.info/inful/llmdocs/internal/observability"
	"git.home.luguber.info/inful/llmdocs/internal/retry"
	"git.home.luguber.info/inful/llmdocs/internal/watch"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"llmdocs.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Convert struct {
		Output string `short:"o" help:"Site build output directory to convert" default:"./site"`
	} `cmd:"" help:"Generate markdown siblings for HTML build output"`

	Resolve struct {
		Source      string `short:"s" help:"Documentation source directory" default:"./docs"`
		RenderedDir string `help:"Directory for rendered copies with summary blocks (optional)"`
		NoJournal   bool   `help:"Skip recording generation calls in the journal"`
	} `cmd:"" help:"Resolve docref directives in source documents"`

	Build struct {
		Source string `short:"s" help:"Documentation source directory" default:"./docs"`
		Output string `short:"o" help:"Site build output directory to convert" default:"./site"`
	} `cmd:"" help:"Resolve docrefs, then convert the build output"`

	Watch struct {
		Source   string        `short:"s" help:"Documentation source directory" default:"./docs"`
		Debounce time.Duration `help:"Quiet period before resolving a change batch" default:"2s"`
	} `cmd:"" help:"Watch source documents and re-resolve docrefs on change"`

	Journal struct {
		BuildID string `help:"Show entries for one build only"`
		Limit   int    `help:"Maximum number of entries to show" default:"20"`
	} `cmd:"" help:"Show recent summary generation activity"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	adapter := errors.NewCLIErrorAdapter(CLI.Verbose)
	if err := run(kctx.Command()); err != nil {
		fmt.Fprintln(os.Stderr, adapter.FormatError(err))
		os.Exit(adapter.ExitCodeFor(err))
	}
}

func run(command string) error {
	if command == "init" {
		slog.Info("Initializing configuration", logfields.Path(CLI.Config))
		return config.Init(CLI.Config, CLI.Init.Force)
	}

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to load configuration").
			WithContext("path", CLI.Config).
			Build()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	ctx = observability.WithBuildID(ctx, observability.NewBuildID())

	switch command {
	case "convert":
		return runConvert(cfg, CLI.Convert.Output)
	case "resolve":
		return runResolve(ctx, cfg, CLI.Resolve.Source, CLI.Resolve.RenderedDir, !CLI.Resolve.NoJournal)
	case "build":
		if err := runResolve(ctx, cfg, CLI.Build.Source, "", true); err != nil {
			return err
		}
		return runConvert(cfg, CLI.Build.Output)
	case "watch":
		return runWatch(ctx, cfg, CLI.Watch.Source, CLI.Watch.Debounce)
	case "journal":
		return runJournal(ctx, cfg, CLI.Journal.BuildID, CLI.Journal.Limit)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func runConvert(cfg *config.Config, outputDir string) error {
	slog.Info("Starting markdown generation", logfields.Path(outputDir))

	converter := convert.NewConverter(cfg, nil)
	report, err := converter.Run(outputDir)
	if err != nil {
		return err
	}

	fmt.Printf("Converted %d HTML files (%d skipped)\n", report.Converted, report.Skipped)
	return nil
}

func runResolve(ctx context.Context, cfg *config.Config, sourceDir, renderedDir string, useJournal bool) error {
	pipeline, cleanup, err := newPipeline(ctx, cfg, nil, useJournal)
	if err != nil {
		return err
	}
	defer cleanup()
	pipeline.RenderedDir = renderedDir

	slog.Info("Starting docref resolution",
		logfields.Path(sourceDir),
		slog.String("build_id", observability.BuildID(ctx)))

	report, err := pipeline.Run(observability.WithStage(ctx, "resolve"), sourceDir)
	if report != nil {
		fmt.Printf("Resolved %d documents: %d regenerated, %d rewritten, %d failed\n",
			report.Documents, report.Generated, report.Rewritten, report.Failed)
	}
	return err
}

func runWatch(ctx context.Context, cfg *config.Config, sourceDir string, debounce time.Duration) error {
	var recorder metrics.Recorder
	if cfg.Metrics.Enabled {
		registry := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(registry)
		go serveMetrics(ctx, cfg.Metrics.Listen, registry)
	}

	pipeline, cleanup, err := newPipeline(ctx, cfg, recorder, true)
	if err != nil {
		return err
	}
	defer cleanup()

	// Initial full pass so the tree starts fresh.
	if _, err := pipeline.Run(observability.WithStage(ctx, "resolve"), sourceDir); err != nil {
		slog.Error("Initial resolution failed", logfields.Error(err))
	}

	watcher, err := watch.NewWatcher(sourceDir, cfg.Output.DocExtensions, debounce, func(ctx context.Context, paths []string) {
		for _, path := range paths {
			if err := pipeline.ResolveFile(ctx, sourceDir, path); err != nil {
				slog.Error("Failed to resolve changed document", logfields.File(path), logfields.Error(err))
			}
		}
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create document watcher").Build()
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to start document watcher").Build()
	}

	slog.Info("Watching for document changes, press Ctrl-C to stop", logfields.Path(sourceDir))
	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping watcher")
	return nil
}

func runJournal(ctx context.Context, cfg *config.Config, buildID string, limit int) error {
	j, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to open journal").
			WithContext("path", cfg.Journal.Path).
			Build()
	}
	defer j.Close()

	var entries []journal.Entry
	if buildID != "" {
		entries, err = j.ByBuildID(ctx, buildID)
	} else {
		entries, err = j.Recent(ctx, limit)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Println("No journal entries")
		return nil
	}
	for _, e := range entries {
		fmt.Printf("%s  %-9s  %s -> %s  model=%s  %dms  build=%s\n",
			e.At.Format(time.RFC3339), e.Outcome, e.Document, e.Target,
			e.Model, e.Duration.Milliseconds(), e.BuildID)
	}
	return nil
}

// newPipeline wires the generator, retry policy, journal, and resolver from
// configuration. The returned cleanup closes the journal.
func newPipeline(ctx context.Context, cfg *config.Config, recorder metrics.Recorder, useJournal bool) (*docref.Pipeline, func(), error) {
	generator, err := llm.New(ctx, cfg.Generator)
	if err != nil {
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "failed to create generation backend").
			WithContext("provider", cfg.Generator.Provider).
			Build()
	}
	slog.Debug("Generation backend ready", slog.String("provider", generator.Name()), logfields.Model(cfg.Generator.Model))

	var j *journal.Journal
	cleanup := func() {}
	if useJournal {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return nil, nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to open journal").
				WithContext("path", cfg.Journal.Path).
				Build()
		}
		cleanup = func() {
			if err := j.Close(); err != nil {
				slog.Warn("Failed to close journal", logfields.Error(err))
			}
		}
	}

	policy := retry.FromConfig(cfg.Retry)
	if err := policy.Validate(); err != nil {
		cleanup()
		return nil, nil, errors.WrapError(err, errors.CategoryConfig, "invalid retry settings").Build()
	}

	resolver := docref.NewResolver(
		generator,
		cfg.Generator.Model,
		time.Duration(cfg.Generator.TimeoutSeconds)*time.Second,
		policy,
		recorder,
	)
	return docref.NewPipeline(cfg, resolver, j, recorder), cleanup, nil
}

func serveMetrics(ctx context.Context, listen string, registry *prom.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(registry))
	server := &http.Server{Addr: listen, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", slog.String("listen", listen))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("Metrics listener failed", logfields.Error(err))
	}
}
