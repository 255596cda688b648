package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/optimizer"
	"github.com/josephgoksu/CostWing/internal/ui"
	"github.com/josephgoksu/CostWing/models"
)

func newScenariosCmd() *cobra.Command {
	var (
		save      bool
		objective string
		vary      []string
	)
	cmd := &cobra.Command{
		Use:   "scenarios <project-file>",
		Short: "Compare what-if variations of a project against the base run",
		Long: `Scenarios runs the base project and every --vary variation concurrently
and compares cost, duration and conflicts. A variation scales task durations
and resource costs:

  costwing scenarios project.yaml --vary fast:duration=0.8,cost=1.2 --vary cheap:cost=0.9`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			obj, err := optimizer.ParseObjective(objective)
			if err != nil {
				return err
			}
			variations := make(map[string]optimizer.Variation, len(vary))
			for _, spec := range vary {
				name, v, err := optimizer.ParseVariation(spec)
				if err != nil {
					return err
				}
				if _, dup := variations[name]; dup {
					return fmt.Errorf("scenario %q given twice", name)
				}
				variations[name] = v
			}
			logger.SetRunOptions(runOptions("objective="+objective, fmt.Sprintf("scenarios=%d", len(variations))))

			p, err := loadProject(args[0])
			if err != nil {
				return err
			}
			results, err := newOptimizer().CompareScenarios(cmd.Context(), p, obj, variations)
			if err != nil {
				return err
			}
			if !jsonOutput() {
				ui.RenderPageHeader(cmd.OutOrStdout(), "Scenarios: "+p.ID, obj.Title())
			}
			if err := emit(cmd, results, func() string { return ui.RenderScenarios(results) }); err != nil {
				return err
			}
			if save {
				rec, err := saveResult(cmd.Context(), p.ID, models.KindScenarios, string(obj), results)
				if err != nil {
					return err
				}
				reportSaved(cmd, rec)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&objective, "objective", "o", string(optimizer.MinimizeCost), "optimization objective ("+objectiveNames()+")")
	cmd.Flags().StringArrayVar(&vary, "vary", nil, "variation as name:duration=<factor>,cost=<factor> (repeatable)")
	cmd.Flags().BoolVar(&save, "save", false, "store the comparison in the workspace")
	return cmd
}
