package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/config"
	"github.com/josephgoksu/CostWing/internal/ui"
	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/store"
)

func newHistoryCmd() *cobra.Command {
	var (
		kind   string
		latest bool
		del    bool
	)
	cmd := &cobra.Command{
		Use:   "history <project-id>",
		Short: "List, show or delete stored results of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			switch models.RecordKind(kind) {
			case "", models.KindLevel, models.KindSmooth, models.KindOptimize, models.KindScenarios:
			default:
				return fmt.Errorf("unknown kind %q (use level, smooth, optimize or scenarios)", kind)
			}

			s, err := config.OpenStore(GlobalAppConfig, workspaceRoot)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			out := cmd.OutOrStdout()
			switch {
			case del:
				n, err := s.DeleteProject(projectID)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return writeJSON(out, map[string]any{"project_id": projectID, "deleted": n})
				}
				fmt.Fprintf(out, "Deleted %d result(s) of %s\n", n, projectID)
				return nil

			case latest:
				rec, err := s.Latest(projectID, models.RecordKind(kind))
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no stored results for %s", projectID)
				}
				if err != nil {
					return err
				}
				// The payload is already JSON; print it as is in both modes.
				if jsonOutput() {
					return writeJSON(out, struct {
						models.Record
						Payload json.RawMessage `json:"payload"`
					}{rec, json.RawMessage(rec.Payload)})
				}
				fmt.Fprintf(out, "%s %s (%s)\n", ui.StyleTitle.Render(string(rec.Kind)), rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04"))
				return writeJSON(out, json.RawMessage(rec.Payload))

			default:
				records, err := s.List(projectID)
				if err != nil {
					return err
				}
				if kind != "" {
					filtered := records[:0]
					for _, r := range records {
						if string(r.Kind) == kind {
							filtered = append(filtered, r)
						}
					}
					records = filtered
				}
				if jsonOutput() {
					if records == nil {
						records = []models.Record{}
					}
					return writeJSON(out, records)
				}
				fmt.Fprint(out, ui.RenderHistory(records))
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only results of this kind (level, smooth, optimize, scenarios)")
	cmd.Flags().BoolVar(&latest, "latest", false, "print the newest result")
	cmd.Flags().BoolVar(&del, "delete", false, "delete every stored result of the project")
	cmd.MarkFlagsMutuallyExclusive("latest", "delete")
	return cmd
}
