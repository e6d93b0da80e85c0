package config

// FormatHTML is the only output format the markdown converter supports.
const FormatHTML = "html"

// Default generation settings applied when the config omits them.
const (
	DefaultProvider       = "gemini"
	DefaultModel          = "gemini-2.5-flash"
	DefaultAPIKeyEnv      = "GEMINI_API_KEY"
	DefaultTimeoutSeconds = 60
	DefaultJournalPath    = ".llmdocs/journal.db"
	DefaultMetricsListen  = ":9190"
)

func (c *Config) applyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = FormatHTML
	}
	if len(c.Output.DocExtensions) == 0 {
		c.Output.DocExtensions = []string{".md"}
	}
	if c.Generator.Provider == "" {
		c.Generator.Provider = DefaultProvider
	}
	if c.Generator.Model == "" {
		c.Generator.Model = DefaultModel
	}
	if c.Generator.APIKeyEnv == "" {
		c.Generator.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Generator.TimeoutSeconds <= 0 {
		c.Generator.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.Journal.Path == "" {
		c.Journal.Path = DefaultJournalPath
	}
	if c.Metrics.Enabled && c.Metrics.Listen == "" {
		c.Metrics.Listen = DefaultMetricsListen
	}
}
