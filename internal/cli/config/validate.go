package config

import (
	"fmt"
	"os"
	"slices"
	"strings"
)

// ValidOutputFormats lists the accepted values of the output key.
var ValidOutputFormats = []string{"auto", "text", "markdown", "json"}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", c.Jobs)
	}
	if !strings.HasPrefix(c.InputExt, ".") || !strings.HasPrefix(c.OutputExt, ".") {
		return fmt.Errorf("input_ext and output_ext must start with '.', got %q and %q", c.InputExt, c.OutputExt)
	}
	if c.InputExt == c.OutputExt {
		return fmt.Errorf("input_ext and output_ext must differ, both are %q", c.InputExt)
	}
	if c.OutputFormat != "" && !slices.Contains(ValidOutputFormats, c.OutputFormat) {
		return fmt.Errorf("invalid output format %q (valid: %s)", c.OutputFormat, strings.Join(ValidOutputFormats, ", "))
	}
	if _, err := c.Globals(); err != nil {
		return err
	}
	return nil
}

// ValidateDirectories checks that every include directory exists.
func (c *Config) ValidateDirectories() error {
	for _, dir := range c.IncludeDirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("include directory does not exist: %s\nHint: fix include_dirs in %s or the -I flag", dir, ConfigFileNames[0])
		}
	}
	return nil
}
