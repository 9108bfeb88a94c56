// Package commands implements the svpgen subcommands.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/svpgen/internal/cli/config"
	"github.com/leapstack-labs/svpgen/internal/cli/output"
	"github.com/leapstack-labs/svpgen/internal/diag"
	"github.com/leapstack-labs/svpgen/internal/engine"
)

// WarningsError is returned by a command that finished but reported
// warnings while fail_on_warning is set.
type WarningsError struct {
	Count int
}

func (e *WarningsError) Error() string {
	return fmt.Sprintf("%d warning(s) reported (fail_on_warning is set)", e.Count)
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cctx := NewCommandContextWithoutEngine(cmd)

	eng, err := createEngine(cctx.Cfg, cctx.Logger)
	if err != nil {
		return nil, err
	}
	cctx.Engine = eng
	return cctx, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// checkWarnings turns reported warnings into a WarningsError when the
// configuration asks for it.
func (c *CommandContext) checkWarnings(warnings []diag.Warning) error {
	if c.Cfg.FailOnWarning && len(warnings) > 0 {
		return &WarningsError{Count: len(warnings)}
	}
	return nil
}

// getConfig returns the current configuration, or defaults if none was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		InputExt:     config.DefaultInputExt,
		OutputExt:    config.DefaultOutputExt,
		Jobs:         config.DefaultJobs,
		OutputFormat: config.DefaultOutput,
	}
}

func createEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if err := cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	globals, err := cfg.Globals()
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Globals:     globals,
		IncludeDirs: cfg.IncludeDirs,
		Defines:     cfg.Defines,
		Strict:      cfg.Strict,
		InputExt:    cfg.InputExt,
		OutputExt:   cfg.OutputExt,
		Jobs:        cfg.Jobs,
		Logger:      logger,
	}), nil
}
