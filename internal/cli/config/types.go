// Package config provides configuration management for the svpgen CLI.
package config

// Config holds all CLI configuration options.
type Config struct {
	// Vars are global template bindings. Values keep their YAML types;
	// -v name=value flags are parsed as literals and override them.
	Vars          map[string]any    `koanf:"vars"`
	IncludeDirs   []string          `koanf:"include_dirs"`
	Defines       map[string]string `koanf:"defines"`
	Strict        bool              `koanf:"strict"`
	InputExt      string            `koanf:"input_ext"`
	OutputExt     string            `koanf:"output_ext"`
	Jobs          int               `koanf:"jobs"`
	Verbose       bool              `koanf:"verbose"`
	LogFile       string            `koanf:"log_file"`
	FailOnWarning bool              `koanf:"fail_on_warning"`
	OutputFormat  string            `koanf:"output"`

	// ProjectRoot is the directory relative paths are resolved against: the
	// directory of the config file, or the working directory.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultInputExt  = ".svp"
	DefaultOutputExt = ".sv"
	DefaultJobs      = 4
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// ConfigFileNames are searched, in order, in each directory walked upward
// from the working directory.
var ConfigFileNames = []string{"svpgen.yaml", "svpgen.yml"}
