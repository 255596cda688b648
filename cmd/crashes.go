package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/ui"
)

func newCrashesCmd() *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "crashes",
		Short: "List crash logs, or print the newest one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := logger.CrashLogs()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if show {
				if len(logs) == 0 {
					return fmt.Errorf("no crash logs in %s", logger.Dir())
				}
				content, err := logger.ReadCrashLog(logs[0].Path)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return writeJSON(out, map[string]any{"path": logs[0].Path, "time": logs[0].Time, "content": content})
				}
				fmt.Fprint(out, content)
				return nil
			}

			if jsonOutput() {
				if logs == nil {
					logs = []logger.CrashLogFile{}
				}
				return writeJSON(out, logs)
			}
			if len(logs) == 0 {
				fmt.Fprintln(out, ui.StyleSubtle.Render("No crash logs."))
				return nil
			}
			t := &ui.Table{Headers: []string{"Time", "File"}}
			for _, l := range logs {
				t.Rows = append(t.Rows, []string{l.Time.Format("2006-01-02 15:04:05"), filepath.Base(l.Path)})
			}
			fmt.Fprint(out, t.Render())
			fmt.Fprintln(out, ui.StyleSubtle.Render("in "+logger.Dir()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "print the newest crash log")
	return cmd
}
