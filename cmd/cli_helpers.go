package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/josephgoksu/CostWing/internal/config"
	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/optimizer"
	"github.com/josephgoksu/CostWing/internal/project"
	"github.com/josephgoksu/CostWing/models"
)

// loadProject reads a project file through the OS filesystem.
func loadProject(path string) (models.Project, error) {
	logger.SetProjectFile(path)
	return project.NewLoader(afero.NewOsFs()).Load(path)
}

// newOptimizer builds an optimizer from the loaded configuration.
func newOptimizer() *optimizer.Optimizer {
	return optimizer.New(config.OptimizerConfig(GlobalAppConfig, appLogger))
}

// jsonOutput reports whether --json was given.
func jsonOutput() bool {
	return GetConfig().JSON
}

// writeJSON prints v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints v as JSON with --json, otherwise the rendered text.
func emit(cmd *cobra.Command, v any, render func() string) error {
	if jsonOutput() {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	_, err := fmt.Fprint(cmd.OutOrStdout(), render())
	return err
}

// saveResult persists a run result in the configured store.
func saveResult(ctx context.Context, projectID string, kind models.RecordKind, objective string, payload any) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to encode result: %w", err)
	}

	s, err := config.OpenStore(GlobalAppConfig, workspaceRoot)
	if err != nil {
		return models.Record{}, err
	}
	defer func() {
		if err := s.Close(); err != nil {
			LogError("failed to close result store", err)
		}
	}()

	rec, err := s.Save(models.Record{
		ProjectID: projectID,
		Kind:      kind,
		Objective: objective,
		Payload:   string(data),
	})
	if err != nil {
		return models.Record{}, fmt.Errorf("failed to save result: %w", err)
	}
	appLogger.Debug("result saved", "id", rec.ID, "kind", rec.Kind, "project", projectID)
	return rec, nil
}

// reportSaved tells the user where a result went. Quiet in JSON mode so the
// output stays machine readable.
func reportSaved(cmd *cobra.Command, rec models.Record) {
	if jsonOutput() {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nSaved %s result %s\n", rec.Kind, rec.ID)
}

// runOptions summarises engine settings for crash logs.
func runOptions(extra ...string) string {
	e := GlobalAppConfig.Engine
	parts := append([]string{
		fmt.Sprintf("threshold=%g", e.SmoothingThreshold),
		fmt.Sprintf("extraHours=%d", e.ExtraHours),
	}, extra...)
	return strings.Join(parts, " ")
}
