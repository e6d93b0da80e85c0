package convert

import (
	"os"
	"path/filepath"
	"testing"

	"git.home.luguber.info/inful/llmdocs/internal/config"
	"github.com/stretchr/testify/require"
)

func htmlConfig() *config.Config {
	return &config.Config{
		Output: config.OutputConfig{Format: config.FormatHTML, LLMSText: true},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRun_HTMLFiles_MarkdownSiblingsWritten(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<h1>Home</h1><p>Welcome</p>")
	writeFile(t, filepath.Join(dir, "sub", "page.html"), "<h2>Sub</h2>")

	report, err := NewConverter(htmlConfig(), nil).Run(dir)
	require.NoError(t, err)
	require.Equal(t, 2, report.Converted)
	require.Zero(t, report.Skipped)

	home, err := os.ReadFile(filepath.Join(dir, "index.html.md"))
	require.NoError(t, err)
	require.Equal(t, "# Home\n\nWelcome\n", string(home))

	sub, err := os.ReadFile(filepath.Join(dir, "sub", "page.html.md"))
	require.NoError(t, err)
	require.Equal(t, "## Sub\n", string(sub))
}

func TestRun_SourceHTML_NeverMutated(t *testing.T) {
	dir := t.TempDir()
	original := "<h1>Keep</h1>"
	writeFile(t, filepath.Join(dir, "index.html"), original)

	_, err := NewConverter(htmlConfig(), nil).Run(dir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	require.Equal(t, original, string(content))
}

func TestRun_ExistingMarkdown_OverwrittenUnconditionally(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<h1>New</h1>")
	writeFile(t, filepath.Join(dir, "index.html.md"), "stale content")

	_, err := NewConverter(htmlConfig(), nil).Run(dir)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dir, "index.html.md"))
	require.NoError(t, err)
	require.Equal(t, "# New\n", string(content))
}

func TestRun_Idempotent_SecondRunIdenticalOutput(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "<h1>A</h1><ul><li>x</li></ul>")

	conv := NewConverter(htmlConfig(), nil)
	_, err := conv.Run(dir)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "a.html.md"))
	require.NoError(t, err)

	_, err = conv.Run(dir)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "a.html.md"))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRun_NonHTMLFormat_NoOps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<h1>Home</h1>")

	cfg := &config.Config{Output: config.OutputConfig{Format: "pdf"}}
	report, err := NewConverter(cfg, nil).Run(dir)
	require.NoError(t, err)
	require.Zero(t, report.Converted)

	_, statErr := os.Stat(filepath.Join(dir, "index.html.md"))
	require.True(t, os.IsNotExist(statErr))
}

func TestRun_NonHTMLFiles_Ignored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "style.css"), "body {}")
	writeFile(t, filepath.Join(dir, "page.html"), "<p>x</p>")

	report, err := NewConverter(htmlConfig(), nil).Run(dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.Converted)
}

func TestRun_LLMSText_ConcatenatesGeneratedMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "<h1>Alpha</h1>")
	writeFile(t, filepath.Join(dir, "b.html"), "<h1>Beta</h1>")

	_, err := NewConverter(htmlConfig(), nil).Run(dir)
	require.NoError(t, err)

	llms, err := os.ReadFile(filepath.Join(dir, LLMSTextName))
	require.NoError(t, err)

	out := string(llms)
	require.Contains(t, out, "# a.html.md\n\n# Alpha")
	require.Contains(t, out, "# b.html.md\n\n# Beta")
}

func TestRun_LLMSTextDisabled_NoIndexWritten(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.html"), "<h1>Alpha</h1>")

	cfg := &config.Config{Output: config.OutputConfig{Format: config.FormatHTML}}
	_, err := NewConverter(cfg, nil).Run(dir)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, LLMSTextName))
	require.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingOutputDir_ClassifiedError(t *testing.T) {
	_, err := NewConverter(htmlConfig(), nil).Run(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
