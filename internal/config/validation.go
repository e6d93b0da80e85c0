package config

import (
	"fmt"
	"strings"
)

var supportedProviders = map[string]bool{
	"gemini": true,
	"fake":   true,
}

// Validate checks invariants the loaders cannot repair with defaults.
func (c *Config) Validate() error {
	if !supportedProviders[c.Generator.Provider] {
		return fmt.Errorf("unsupported generator provider: %q", c.Generator.Provider)
	}
	if strings.TrimSpace(c.Generator.Model) == "" {
		return fmt.Errorf("generator model must not be empty")
	}
	for _, ext := range c.Output.DocExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("doc extension must start with a dot: %q", ext)
		}
	}
	if mode := NormalizeRetryBackoff(c.Retry.Backoff); c.Retry.Backoff != "" && mode == "" {
		return fmt.Errorf("unknown retry backoff mode: %q", c.Retry.Backoff)
	}
	return nil
}
