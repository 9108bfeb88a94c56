package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/svpgen/internal/template"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Re-expand templates whenever they change",
		Long: `Expand every template under a directory once, then keep watching it
and re-expand each template that is written or created. Stop with Ctrl+C.`,
		Example: `  svpgen watch rtl -v DEPTH=32`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0])
		},
	}
}

func runWatch(cmd *cobra.Command, dir string) error {
	cctx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	eng, r := cctx.Engine, cctx.Renderer

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := eng.ExpandDir(ctx, dir)
	if err != nil {
		return err
	}
	for _, fr := range report.Files {
		if fr.Err != nil {
			r.Error(fmt.Sprintf("%s: %v", fr.Input, fr.Err))
			continue
		}
		r.Success(fmt.Sprintf("%s -> %s", fr.Input, fr.Output))
		r.Warnings(fr.Warnings)
	}
	r.Println(r.Muted(report.Summary()))
	r.Println(r.Muted("Watching " + dir + " (Ctrl+C to stop)"))

	return eng.Watch(ctx, dir, func(path string, res *template.Result, err error) {
		if err != nil {
			r.Error(fmt.Sprintf("%s: %v", path, err))
			return
		}
		r.Success(fmt.Sprintf("%s -> %s", path, eng.OutputPath(path)))
		r.Warnings(res.Warnings)
	})
}
