package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "llmdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MinimalConfig_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, "output:\n  format: html\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, FormatHTML, cfg.Output.Format)
	require.Equal(t, []string{".md"}, cfg.Output.DocExtensions)
	require.Equal(t, DefaultProvider, cfg.Generator.Provider)
	require.Equal(t, DefaultModel, cfg.Generator.Model)
	require.Equal(t, DefaultTimeoutSeconds, cfg.Generator.TimeoutSeconds)
	require.Equal(t, DefaultJournalPath, cfg.Journal.Path)
}

func TestLoad_MissingFile_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestLoad_EnvExpansion_SubstitutesVariables(t *testing.T) {
	t.Setenv("LLMDOCS_TEST_MODEL", "gemini-2.5-pro")
	path := writeConfig(t, "generator:\n  provider: gemini\n  model: ${LLMDOCS_TEST_MODEL}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "gemini-2.5-pro", cfg.Generator.Model)
}

func TestLoad_UnknownProvider_ReturnsValidationError(t *testing.T) {
	path := writeConfig(t, "generator:\n  provider: oracle\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported generator provider")
}

func TestLoad_BadDocExtension_ReturnsValidationError(t *testing.T) {
	path := writeConfig(t, "output:\n  doc_extensions: [md]\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "must start with a dot")
}

func TestLoad_UnknownBackoffMode_ReturnsValidationError(t *testing.T) {
	path := writeConfig(t, "retry:\n  backoff: quadratic\n")

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown retry backoff mode")
}

func TestInit_ExistingFileWithoutForce_ReturnsError(t *testing.T) {
	path := writeConfig(t, "output:\n  format: html\n")

	err := Init(path, false)
	require.Error(t, err)

	require.NoError(t, Init(path, true))
	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Output.LLMSText)
}

func TestNormalizeRetryBackoff_CaseInsensitive(t *testing.T) {
	require.Equal(t, RetryBackoffExponential, NormalizeRetryBackoff(" Exponential "))
	require.Equal(t, RetryBackoffMode(""), NormalizeRetryBackoff("bogus"))
}
