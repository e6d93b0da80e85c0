// Package convert implements the post-build markdown generation pipeline:
// every HTML artifact in the site output gets a markdown sibling, and the
// generated markdown is concatenated into an llms.txt index.
package convert

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"git.home.luguber.info/inful/llmdocs/internal/foundation/errors"
	"git.home.luguber.info/inful/llmdocs/internal/htmlmd"
	"git.home.luguber.info/inful/llmdocs/internal/logfields"
	"git.home.luguber.info/inful/llmdocs/internal/metrics"
)

// LLMSTextName is the concatenated markdown index written at the output root.
const LLMSTextName = "llms.txt"

// Report summarizes a conversion run.
type Report struct {
	Converted int
	Skipped   int
	Markdown  []string // generated markdown paths, in walk order
}

// Converter walks a finished build output tree and writes markdown siblings.
type Converter struct {
	cfg      *config.Config
	recorder metrics.Recorder
}

// NewConverter creates a converter. recorder may be nil (defaults to noop).
func NewConverter(cfg *config.Config, recorder metrics.Recorder) *Converter {
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Converter{cfg: cfg, recorder: recorder}
}

// Run converts every HTML file under outputDir.
//
// Formats other than HTML no-op: the conversion only makes sense for
// standalone HTML pages. A single unparseable file is skipped with a warning;
// write failures are fatal since partial output must not pass silently.
func (c *Converter) Run(outputDir string) (*Report, error) {
	start := time.Now()
	defer func() {
		c.recorder.ObserveBuildDuration("convert", time.Since(start))
	}()

	if c.cfg.Output.Format != config.FormatHTML {
		slog.Info("Markdown generation only applies to HTML output", "format", c.cfg.Output.Format)
		return &Report{}, nil
	}

	report := &Report{}
	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to walk output directory").
				WithContext("path", path).
				Build()
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}
		mdPath, convErr := c.convertFile(path)
		if convErr != nil {
			// Write failures are fatal; an inconsistent output tree must not
			// pass silently.
			if errors.HasCategory(convErr, errors.CategoryFileSystem) {
				return convErr
			}
			// Fail-soft: one bad page must not abort the rest of the build.
			slog.Warn("Failed to convert HTML file", logfields.File(path), logfields.Error(convErr))
			c.recorder.IncConversion(false)
			report.Skipped++
			return nil
		}
		c.recorder.IncConversion(true)
		report.Converted++
		report.Markdown = append(report.Markdown, mdPath)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if c.cfg.Output.LLMSText {
		if err := writeLLMSText(outputDir, report.Markdown); err != nil {
			return nil, err
		}
	}

	slog.Info("Markdown generation finished",
		logfields.Stage("convert"),
		logfields.Count(report.Converted),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

// convertFile converts one HTML artifact and writes the markdown sibling at
// <path>.md (dotted suffix, the .html extension stays in place).
func (c *Converter) convertFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	md, err := htmlmd.Convert(content)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryHTML, "failed to parse HTML artifact").
			Warning().
			WithContext("path", path).
			Build()
	}

	mdPath := path + ".md"
	if err := os.WriteFile(mdPath, md, 0644); err != nil {
		return "", errors.WrapError(err, errors.CategoryFileSystem, "failed to write markdown artifact").
			Fatal().
			WithContext("path", mdPath).
			Build()
	}
	slog.Debug("Generated markdown artifact", logfields.File(mdPath))
	return mdPath, nil
}

// writeLLMSText concatenates all generated markdown into one index file.
func writeLLMSText(outputDir string, markdownPaths []string) error {
	var sb strings.Builder
	for _, mdPath := range markdownPaths {
		content, err := os.ReadFile(mdPath)
		if err != nil {
			return errors.WrapError(err, errors.CategoryFileSystem, "failed to read markdown artifact").
				WithContext("path", mdPath).
				Build()
		}
		sb.WriteString("# ")
		sb.WriteString(filepath.Base(mdPath))
		sb.WriteString("\n\n")
		sb.Write(content)
		sb.WriteString("\n\n")
	}

	llmsPath := filepath.Join(outputDir, LLMSTextName)
	if err := os.WriteFile(llmsPath, []byte(sb.String()), 0644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write llms.txt").
			Fatal().
			WithContext("path", llmsPath).
			Build()
	}
	slog.Info("Concatenated markdown files", logfields.Path(llmsPath), logfields.Count(len(markdownPaths)))
	return nil
}
