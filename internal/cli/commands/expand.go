package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/svpgen/internal/cli/output"
	"github.com/leapstack-labs/svpgen/internal/diag"
	"github.com/leapstack-labs/svpgen/internal/engine"
)

// StdinPath names standard input as an expand argument.
const StdinPath = "-"

// ExpandOutput is the JSON form of an expand run.
type ExpandOutput struct {
	Files    []ExpandedFile `json:"files"`
	Warnings []diag.Warning `json:"warnings"`
}

// ExpandedFile is one expanded template in ExpandOutput.
type ExpandedFile struct {
	Input    string `json:"input"`
	Output   string `json:"output,omitempty"`
	Warnings int    `json:"warnings"`
	Error    string `json:"error,omitempty"`
}

// NewExpandCommand creates the expand command.
func NewExpandCommand() *cobra.Command {
	var (
		dir string
		out string
	)

	cmd := &cobra.Command{
		Use:   "expand [files...]",
		Short: "Expand template files",
		Long: `Expand //: directives and ${...} substitutions in template files.

Each template is written next to its input with the input extension
replaced (foo.svp becomes foo.sv). With -d every template under the
directory is expanded in parallel. "-" reads a template from standard
input and writes the result to standard output.`,
		Example: `  # Expand one file
  svpgen expand fifo.svp

  # Expand to an explicit output path with global variables
  svpgen expand fifo.svp -o gen/fifo.sv -v DEPTH=16 -v NAME=fifo

  # Expand every template under rtl/
  svpgen expand -d rtl

  # Expand from a pipe
  printf '//:$x = 1 + 2\n${x}\n' | svpgen expand -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExpand(cmd, args, dir, out)
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Expand every template under this directory")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output path (single input file only)")

	return cmd
}

func runExpand(cmd *cobra.Command, files []string, dir, out string) error {
	if dir == "" && len(files) == 0 {
		return errors.New("nothing to expand: give template files or -d DIR")
	}
	if out != "" && (len(files) != 1 || dir != "") {
		return errors.New("-o requires exactly one input file")
	}

	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	eng, r := cctx.Engine, cctx.Renderer

	var results []engine.FileResult
	for _, in := range files {
		if in == StdinPath {
			warnings, err := expandStdin(cmd, eng, out)
			if err != nil {
				return err
			}
			results = append(results, engine.FileResult{Input: in, Output: out, Warnings: warnings})
			continue
		}

		fr := engine.FileResult{Input: in, Output: out}
		if fr.Output == "" {
			fr.Output = eng.OutputPath(in)
		}
		res, err := eng.ExpandFile(in, fr.Output)
		if err != nil {
			// A fatal error aborts the run.
			return err
		}
		fr.Warnings = res.Warnings
		results = append(results, fr)
	}

	var dirErr error
	if dir != "" {
		report, err := eng.ExpandDir(cmd.Context(), dir)
		if err != nil {
			return err
		}
		results = append(results, report.Files...)
		dirErr = report.Err()
	}

	var warnings []diag.Warning
	for _, fr := range results {
		warnings = append(warnings, fr.Warnings...)
	}

	if err := renderExpand(r, results, warnings); err != nil {
		return err
	}
	if dirErr != nil {
		return dirErr
	}
	return cctx.checkWarnings(warnings)
}

// expandStdin expands standard input. The result goes to out, or to the
// command's output if out is empty.
func expandStdin(cmd *cobra.Command, eng *engine.Engine, out string) ([]diag.Warning, error) {
	src, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read standard input: %w", err)
	}
	res, err := eng.Expand(string(src), "<stdin>", nil)
	if err != nil {
		return nil, err
	}
	if out != "" {
		if err := engine.WriteOutput(out, res.Output); err != nil {
			return nil, err
		}
	} else {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	}
	return res.Warnings, nil
}

func renderExpand(r *output.Renderer, results []engine.FileResult, warnings []diag.Warning) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := ExpandOutput{Files: make([]ExpandedFile, 0, len(results)), Warnings: warnings}
		for _, fr := range results {
			ef := ExpandedFile{Input: fr.Input, Output: fr.Output, Warnings: len(fr.Warnings)}
			if fr.Err != nil {
				ef.Error = fr.Err.Error()
			}
			out.Files = append(out.Files, ef)
		}
		if out.Warnings == nil {
			out.Warnings = []diag.Warning{}
		}
		return r.JSON(out)

	case output.ModeMarkdown:
		rows := make([][]string, 0, len(results))
		for _, fr := range results {
			if fr.Input == StdinPath && fr.Output == "" {
				continue
			}
			rows = append(rows, []string{fr.Input, fr.Output, strconv.Itoa(len(fr.Warnings)), status(fr)})
		}
		if len(rows) > 0 {
			r.Table([]string{"Template", "Output", "Warnings", "Status"}, rows)
		}

	default:
		for _, fr := range results {
			switch {
			case fr.Err != nil:
				r.Error(fmt.Sprintf("%s: %v", fr.Input, fr.Err))
			case fr.Input == StdinPath && fr.Output == "":
			default:
				r.Success(fmt.Sprintf("%s -> %s", fr.Input, fr.Output))
			}
		}
	}

	r.Warnings(warnings)
	return nil
}

func status(fr engine.FileResult) string {
	if fr.Err != nil {
		return "failed: " + fr.Err.Error()
	}
	return "ok"
}
