package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/svpgen/internal/value"
)

// loggerKey is used to store logger in context.
type loggerKey struct{}

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// EnvPrefix is the prefix of configuration environment variables.
const EnvPrefix = "SVPGEN_"

// Flags that are not plain config keys and are folded in after unmarshalling.
const (
	flagConfig     = "config"
	flagVar        = "var"
	flagDefine     = "define"
	flagIncludeDir = "include-dir"
)

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// configFileIn returns the config file in dir, or "".
func configFileIn(dir string) string {
	for _, name := range ConfigFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for range maxUpwardSearchLevels {
		if f := configFileIn(dir); f != "" {
			return f
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// RegisterFlags defines the global flags LoadConfig understands.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(flagConfig, "", "config file (default: svpgen.yaml, searched upward)")
	fs.StringArrayP(flagVar, "v", nil, "Global variable name=value (repeatable)")
	fs.StringArrayP(flagDefine, "D", nil, "Predefined macro NAME or NAME=VALUE (repeatable)")
	fs.StringSliceP(flagIncludeDir, "I", nil, "Macro include directory (repeatable)")
	fs.Bool("strict", false, "Treat undefined variables as errors")
	fs.IntP("jobs", "j", DefaultJobs, "Number of templates expanded in parallel")
	fs.String("input-ext", DefaultInputExt, "Template file extension")
	fs.String("output-ext", DefaultOutputExt, "Generated file extension")
	fs.Bool("verbose", false, "Verbose output (debug logging)")
	fs.String("log-file", "", "Write a JSON debug log to this file")
	fs.Bool("fail-on-warning", false, "Exit with status 2 if any warning was reported")
	fs.String("output", "", "Output format (auto|text|markdown|json)")
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// Without an explicit cfgFile, svpgen.yaml or svpgen.yml is searched upward
// from the working directory.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"input_ext":  DefaultInputExt,
		"output_ext": DefaultOutputExt,
		"jobs":       DefaultJobs,
		"strict":     false,
		"verbose":    false,
		"output":     DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	if cfgFile == "" {
		cfgFile = findConfigUpward(cwd)
	}
	configFileUsed = cfgFile
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Load environment variables (SVPGEN_ prefix)
	// Transform: SVPGEN_INCLUDE_DIRS -> include_dirs
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// Paths from flags are relative to the working directory, everything
	// else to the project root.
	var flagIncludeDirs []string
	if flags != nil && flags.Changed(flagIncludeDir) {
		dirs, _ := flags.GetStringSlice(flagIncludeDir)
		for _, d := range dirs {
			if abs, err := filepath.Abs(d); err == nil {
				flagIncludeDirs = append(flagIncludeDirs, abs)
			}
		}
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case flagConfig, flagVar, flagDefine, flagIncludeDir:
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// 6. Resolve paths
	var includeDirs []string
	for _, entry := range cfg.IncludeDirs {
		// SVPGEN_INCLUDE_DIRS arrives as one path list.
		for _, d := range filepath.SplitList(entry) {
			includeDirs = append(includeDirs, resolvePathRelativeTo(d, projectRoot))
		}
	}
	cfg.IncludeDirs = append(includeDirs, flagIncludeDirs...)
	if cfg.LogFile != "" && !(flags != nil && flags.Changed("log-file")) {
		cfg.LogFile = resolvePathRelativeTo(cfg.LogFile, projectRoot)
	}

	// 7. Fold in -v and -D
	if flags != nil {
		if err := applyFlagBindings(&cfg, flags); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// applyFlagBindings adds -v name=value globals and -D NAME[=VALUE] defines.
func applyFlagBindings(cfg *Config, flags *pflag.FlagSet) error {
	if flags.Lookup(flagVar) != nil && flags.Changed(flagVar) {
		vars, _ := flags.GetStringArray(flagVar)
		for _, kv := range vars {
			name, raw, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(name) == "" {
				return fmt.Errorf("invalid variable %q: expected name=value", kv)
			}
			if cfg.Vars == nil {
				cfg.Vars = make(map[string]any)
			}
			cfg.Vars[strings.TrimSpace(name)] = value.ParseLiteral(raw)
		}
	}

	if flags.Lookup(flagDefine) != nil && flags.Changed(flagDefine) {
		defines, _ := flags.GetStringArray(flagDefine)
		for _, kv := range defines {
			name, raw, _ := strings.Cut(kv, "=")
			if strings.TrimSpace(name) == "" {
				return fmt.Errorf("invalid define %q: expected NAME or NAME=VALUE", kv)
			}
			if cfg.Defines == nil {
				cfg.Defines = make(map[string]string)
			}
			cfg.Defines[strings.TrimSpace(name)] = raw
		}
	}
	return nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// Globals converts Vars into template values.
func (c *Config) Globals() (map[string]value.Value, error) {
	globals, err := value.FromMap(c.Vars)
	if err != nil {
		return nil, fmt.Errorf("invalid vars: %w", err)
	}
	return globals, nil
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}
