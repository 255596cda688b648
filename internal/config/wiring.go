package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/josephgoksu/CostWing/internal/memory"
	"github.com/josephgoksu/CostWing/internal/optimizer"
	"github.com/josephgoksu/CostWing/store"
	"github.com/josephgoksu/CostWing/types"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// OptimizerConfig maps the engine settings onto an optimizer configuration.
func OptimizerConfig(cfg types.AppConfig, logger *slog.Logger) optimizer.Config {
	oc := optimizer.DefaultConfig()
	oc.Threshold = cfg.Engine.SmoothingThreshold
	oc.ExtraHours = cfg.Engine.ExtraHours
	if cfg.Engine.MaxScenarios > 0 {
		oc.MaxScenarios = cfg.Engine.MaxScenarios
	}
	if cfg.Engine.Concurrency > 0 {
		oc.Concurrency = cfg.Engine.Concurrency
	}
	if cfg.Engine.MaxHorizonHours > 0 {
		oc.MaxHorizon = cfg.Engine.MaxHorizonHours
	}
	for name, m := range cfg.Objectives {
		oc.Multipliers[optimizer.Objective(name)] = optimizer.Multipliers{Cost: m.Cost, Duration: m.Duration}
	}
	if logger != nil {
		oc.Logger = logger
	}
	return oc
}

// OpenStore creates and initializes the configured result store under root.
func OpenStore(cfg types.AppConfig, root string) (store.ResultStore, error) {
	path := DataPath(cfg, root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	var s store.ResultStore
	settings := map[string]string{"dataFile": path}
	switch cfg.Data.Backend {
	case BackendSQLite:
		s = memory.NewSQLiteStore()
	case BackendFile, "":
		s = store.NewFileResultStore()
		settings["dataFileFormat"] = cfg.Data.Format
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.Data.Backend)
	}
	if err := s.Initialize(settings); err != nil {
		return nil, fmt.Errorf("failed to initialize %s store at %s: %w", cfg.Data.Backend, path, err)
	}
	return s, nil
}
