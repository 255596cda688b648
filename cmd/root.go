/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/josephgoksu/CostWing/internal/logger"
)

// version is the application version.
var version = "0.1.0"

// GetVersion returns the application version.
func GetVersion() string {
	return version
}

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// flag state never leaks between runs.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "costwing",
		Short: "CostWing - resource leveling and smoothing for project schedules",
		Long: `CostWing schedules project tasks against finite resources.

It computes the critical path, levels resource usage without moving the
project end date, smooths utilization over a bounded horizon and compares
optimization objectives and what-if scenarios.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return InitConfig(cmd, cfgFile)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./.costwing/.costwing.yaml or $HOME/.costwing.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().Bool("json", false, "print results as JSON")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))

	rootCmd.AddCommand(
		newLevelCmd(),
		newSmoothCmd(),
		newOptimizeCmd(),
		newScenariosCmd(),
		newHistoryCmd(),
		newValidateCmd(),
		newCrashesCmd(),
	)
	return rootCmd
}

// Execute runs the CLI. This is called by main.main().
func Execute() {
	defer logger.HandlePanic()

	if err := NewRootCmd().Execute(); err != nil {
		PrintError(userMessage(err), err)
		os.Exit(1)
	}
}
