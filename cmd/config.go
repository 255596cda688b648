/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/CostWing/internal/config"
	"github.com/josephgoksu/CostWing/internal/logger"
	"github.com/josephgoksu/CostWing/internal/project"
	"github.com/josephgoksu/CostWing/types"
)

var (
	// GlobalAppConfig holds the global application configuration instance.
	GlobalAppConfig types.AppConfig
	// workspaceRoot is the directory owning the workspace directory.
	workspaceRoot string
	// appLogger is the logger configured for the current command.
	appLogger = slog.Default()
)

// InitConfig loads configuration, sets up logging and locates the workspace.
func InitConfig(cmd *cobra.Command, cfgFile string) error {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	GlobalAppConfig = cfg
	appLogger = logger.Setup(cmd.ErrOrStderr(), cfg.Verbose)
	if used := viper.ConfigFileUsed(); used != "" {
		appLogger.Debug("using config file", "path", used)
	}

	dirName := cfg.Project.RootDir
	if filepath.IsAbs(dirName) {
		dirName = config.DefaultRootDir
	}
	ctx, err := project.NewDetector(afero.NewOsFs(), dirName).DetectOrCwd(".")
	if err != nil {
		return fmt.Errorf("failed to detect workspace: %w", err)
	}
	workspaceRoot = ctx.RootPath

	logger.SetDir(config.CrashLogDir(cfg, workspaceRoot))
	logger.SetVersion(version)
	logger.SetCommand(cmd.CommandPath())
	return nil
}

// GetConfig returns a pointer to the global types.AppConfig instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}
