// Package cli provides the command-line interface for svpgen.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/svpgen/internal/cli/commands"
	"github.com/leapstack-labs/svpgen/internal/cli/config"
	"github.com/leapstack-labs/svpgen/internal/cli/output"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var logFile io.Closer

	rootCmd := &cobra.Command{
		Use:   "svpgen",
		Short: "svpgen - SystemVerilog template expander",
		Long: `svpgen expands SystemVerilog templates.

Lines starting with //: are directives (assignments, for loops, if/elsif/else
blocks) evaluated at generation time. ${...} substitutes expression values
into the text. Backtick macro files (` + "`define, `ifdef, `include" + `) can be
pulled into a template with //:$include = "file".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			flags := cmd.Root().PersistentFlags()
			cfgFile, _ := flags.GetString("config")

			cfg, err := config.LoadConfig(cfgFile, flags)
			if err != nil {
				return err
			}

			logger, closer, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			logFile = closer

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, config.LoggerKey(), logger))

			// Print config file used (if verbose)
			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using config file: %s\n", configFile)
				}
			}

			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if logFile != nil {
				return logFile.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	config.RegisterFlags(rootCmd.PersistentFlags())

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(output.ModeAuto), string(output.ModeText), string(output.ModeMarkdown), string(output.ModeJSON)}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.MarkPersistentFlagDirname("include-dir")

	rootCmd.AddCommand(commands.NewExpandCommand())
	rootCmd.AddCommand(commands.NewMacrosCommand())
	rootCmd.AddCommand(commands.NewWatchCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger builds the process logger. Warnings already reach the user
// through the renderer, so stderr only carries errors unless verbose is set.
// With a log file every record goes there as JSON instead.
func newLogger(stderr io.Writer, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		h := slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
		return slog.New(h), f, nil
	}

	level := slog.LevelError
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})), nil, nil
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for svpgen.

To load completions:

Bash:
  $ source <(svpgen completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ svpgen completion bash > /etc/bash_completion.d/svpgen
  # macOS:
  $ svpgen completion bash > $(brew --prefix)/etc/bash_completion.d/svpgen

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ svpgen completion zsh > "${fpath[1]}/_svpgen"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ svpgen completion fish | source

  # To load completions for each session, execute once:
  $ svpgen completion fish > ~/.config/fish/completions/svpgen.fish

PowerShell:
  PS> svpgen completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> svpgen completion powershell > svpgen.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
