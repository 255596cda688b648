package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/ui"
	"github.com/josephgoksu/CostWing/internal/watch"
	"github.com/josephgoksu/CostWing/models"
)

func newLevelCmd() *cobra.Command {
	var (
		save    bool
		watchIt bool
	)
	cmd := &cobra.Command{
		Use:   "level <project-file>",
		Short: "Level resource usage without moving the project end date",
		Long: `Level places every task inside its float window, choosing the start with the
lowest peak utilization. Tasks that cannot fit without exceeding capacity are
placed at their earliest start and reported as conflicts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			logger.SetRunOptions(runOptions())

			run := func(ctx context.Context) error {
				p, err := loadProject(path)
				if err != nil {
					return err
				}
				res, err := newOptimizer().Level(ctx, p)
				if err != nil {
					return err
				}
				if err := emit(cmd, res, func() string { return ui.RenderSchedule(res) }); err != nil {
					return err
				}
				if save {
					rec, err := saveResult(ctx, p.ID, models.KindLevel, "", res)
					if err != nil {
						return err
					}
					reportSaved(cmd, rec)
				}
				return nil
			}

			if err := run(cmd.Context()); err != nil || !watchIt {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			w, err := watch.New(path, func(ctx context.Context) {
				fmt.Fprintln(cmd.OutOrStdout())
				if err := run(ctx); err != nil {
					PrintError(userMessage(err), err)
				}
			}, appLogger)
			if err != nil {
				return err
			}
			if !jsonOutput() && ui.IsInteractive() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", ui.StyleSubtle.Render("Watching "+path+" for changes (Ctrl+C to stop)"))
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the result in the workspace")
	cmd.Flags().BoolVarP(&watchIt, "watch", "w", false, "re-run when the project file changes")
	return cmd
}
