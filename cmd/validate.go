package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/ui"
)

// validationReport is the JSON shape of a successful validation.
type validationReport struct {
	ProjectID    string   `json:"project_id"`
	Tasks        int      `json:"tasks"`
	Resources    int      `json:"resources"`
	CriticalPath []string `json:"critical_path"`
	ProjectEnd   float64  `json:"project_end"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <project-file>",
		Short: "Check a project file without scheduling it",
		Long: `Validate parses the project, checks field rules and unique ids, resolves
skill requirements and verifies the dependency graph is acyclic.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(args[0])
			if err != nil {
				return err
			}
			prep, err := newOptimizer().Prepare(cmd.Context(), p, false)
			if err != nil {
				return err
			}
			report := validationReport{
				ProjectID:    p.ID,
				Tasks:        len(p.Tasks),
				Resources:    len(p.Resources),
				CriticalPath: prep.Analysis.CriticalPath,
				ProjectEnd:   prep.Analysis.ProjectEnd,
			}
			return emit(cmd, report, func() string {
				return fmt.Sprintf("%s %s is valid: %d tasks, %d resources, critical path %s (%s h)\n",
					ui.Icon("✓", ui.StylePrefixDone), p.ID, report.Tasks, report.Resources,
					strings.Join(report.CriticalPath, " → "), ui.Hours(report.ProjectEnd))
			})
		},
	}
}
