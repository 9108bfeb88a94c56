package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/svpgen/internal/diag"
	"github.com/leapstack-labs/svpgen/internal/macro"
)

// Macro table formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// MacrosOutput is the JSON and YAML form of the macros command.
type MacrosOutput struct {
	File     string             `json:"file" yaml:"file"`
	Files    []string           `json:"files" yaml:"files"`
	Macros   []macro.Definition `json:"macros" yaml:"macros"`
	Warnings []diag.Warning     `json:"warnings" yaml:"warnings"`
}

// NewMacrosCommand creates the macros command.
func NewMacrosCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "macros <file>",
		Short: "Resolve a macro file and print its macro table",
		Long: `Run the backtick preprocessor over a macro file and everything it
includes, then print every defined macro with its fully expanded value.

Includes are searched next to the including file, then in the configured
include directories (include_dirs, -I).`,
		Example: `  # Show the macro table
  svpgen macros rtl/defs.svh

  # With a predefined macro, as YAML
  svpgen macros rtl/defs.svh -D SIM --format yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMacros(cmd, args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatTable, "Output format (table|json|yaml)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{FormatTable, FormatJSON, FormatYAML}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runMacros(cmd *cobra.Command, path, format string) error {
	switch format {
	case FormatTable, FormatJSON, FormatYAML:
	default:
		return fmt.Errorf("invalid format %q (valid: %s, %s, %s)", format, FormatTable, FormatJSON, FormatYAML)
	}

	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cctx.Renderer

	res, err := cctx.Engine.ResolveMacros(path)
	if err != nil {
		return err
	}

	out := MacrosOutput{File: path, Files: res.Files, Macros: res.Definitions, Warnings: res.Warnings}
	if out.Macros == nil {
		out.Macros = []macro.Definition{}
	}
	if out.Warnings == nil {
		out.Warnings = []diag.Warning{}
	}

	switch format {
	case FormatJSON:
		if err := r.JSON(out); err != nil {
			return err
		}
	case FormatYAML:
		if err := r.YAML(out); err != nil {
			return err
		}
	default:
		rows := make([][]string, 0, len(res.Definitions))
		for _, d := range res.Definitions {
			rows = append(rows, []string{d.Name, singleLine(d.Value), location(d)})
		}
		r.Table([]string{"Macro", "Value", "Defined at"}, rows)
		r.Println(r.Muted(fmt.Sprintf("%d macros from %d files", len(res.Definitions), len(res.Files))))
		r.Warnings(res.Warnings)
	}

	return cctx.checkWarnings(res.Warnings)
}

// singleLine folds continuation lines for table cells.
func singleLine(s string) string {
	return strings.ReplaceAll(s, "\n", " \\ ")
}

func location(d macro.Definition) string {
	if d.Line == 0 {
		return d.File
	}
	return d.File + ":" + strconv.Itoa(d.Line)
}
