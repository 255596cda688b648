package cmd

import (
	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/ui"
	"github.com/josephgoksu/CostWing/models"
)

func newSmoothCmd() *cobra.Command {
	var (
		save       bool
		extraHours int
		threshold  float64
	)
	cmd := &cobra.Command{
		Use:   "smooth <project-file>",
		Short: "Flatten resource utilization within a bounded horizon",
		Long: `Smooth first levels the project, then moves tasks inside the horizon
(project end plus --extra-hours) to minimise usage above the threshold.
Dependencies are always honoured and no resource peak is allowed to rise.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("extra-hours") {
				GlobalAppConfig.Engine.ExtraHours = extraHours
			}
			if cmd.Flags().Changed("threshold") {
				GlobalAppConfig.Engine.SmoothingThreshold = threshold
			}
			logger.SetRunOptions(runOptions())

			p, err := loadProject(args[0])
			if err != nil {
				return err
			}
			res, err := newOptimizer().Smooth(cmd.Context(), p)
			if err != nil {
				return err
			}
			if err := emit(cmd, res, func() string { return ui.RenderSmoothing(res) }); err != nil {
				return err
			}
			if save {
				rec, err := saveResult(cmd.Context(), p.ID, models.KindSmooth, "", res)
				if err != nil {
					return err
				}
				reportSaved(cmd, rec)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "store the result in the workspace")
	cmd.Flags().IntVar(&extraHours, "extra-hours", 0, "hours the schedule may extend past the leveled end (overrides engine.extraHours)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "utilization above which usage counts as contention (overrides engine.smoothingThreshold)")
	return cmd
}
