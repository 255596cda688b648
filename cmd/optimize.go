package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/optimizer"
	"github.com/josephgoksu/CostWing/internal/ui"
	"github.com/josephgoksu/CostWing/models"
)

func objectiveNames() string {
	names := make([]string, 0, len(optimizer.Objectives()))
	for _, o := range optimizer.Objectives() {
		names = append(names, string(o))
	}
	return strings.Join(names, ", ")
}

func newOptimizeCmd() *cobra.Command {
	var (
		save      bool
		objective string
	)
	cmd := &cobra.Command{
		Use:   "optimize <project-file>",
		Short: "Schedule a project for one objective and summarise cost and utilization",
		Long: fmt.Sprintf(`Optimize resolves skill requirements, levels the schedule (and smooths it
for balance_resources), then reports cost, duration, utilization, conflicts
and recommendations.

Objectives: %s`, objectiveNames()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := optimizer.ParseObjective(objective)
			if err != nil {
				return err
			}
			logger.SetRunOptions(runOptions("objective=" + objective))

			p, err := loadProject(args[0])
			if err != nil {
				return err
			}
			res, err := newOptimizer().Optimize(cmd.Context(), p, obj)
			if err != nil {
				return err
			}
			if err := emit(cmd, res, func() string { return ui.RenderOptimization(res) }); err != nil {
				return err
			}
			if save {
				rec, err := saveResult(cmd.Context(), p.ID, models.KindOptimize, string(obj), res)
				if err != nil {
					return err
				}
				reportSaved(cmd, rec)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&objective, "objective", "o", string(optimizer.MinimizeCost), "optimization objective ("+objectiveNames()+")")
	cmd.Flags().BoolVar(&save, "save", false, "store the result in the workspace")
	return cmd
}
