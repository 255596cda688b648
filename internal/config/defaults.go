// Package config provides configuration defaults, loading and the wiring from
// configuration to the engine and the result store.
package config

import (
	"github.com/spf13/viper"

	"github.com/josephgoksu/CostWing/internal/optimizer"
	"github.com/josephgoksu/CostWing/internal/schedule"
)

const (
	// ConfigName is the config file base name (.costwing.yaml).
	ConfigName = ".costwing"
	// EnvPrefix prefixes environment overrides, e.g. COSTWING_ENGINE_EXTRAHOURS.
	EnvPrefix = "COSTWING"
	// DefaultRootDir is the workspace directory name.
	DefaultRootDir = ".costwing"
)

// Storage backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

const (
	DefaultDataFile     = "results.json"
	DefaultDataFormat   = "json"
	DefaultSQLiteFile   = "results.db"
	DefaultMaxScenarios = 20
	DefaultConcurrency  = 4
)

// DefaultMaxHorizonHours bounds task durations and the scheduling horizon.
const DefaultMaxHorizonHours = optimizer.DefaultMaxHorizon

// SetDefaults registers every default on v. Env overrides only apply to keys
// viper knows about, so every key needs a default here.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", false)
	v.SetDefault("json", false)

	v.SetDefault("project.rootDir", DefaultRootDir)

	v.SetDefault("data.backend", BackendFile)
	v.SetDefault("data.file", DefaultDataFile)
	v.SetDefault("data.format", DefaultDataFormat)

	v.SetDefault("engine.smoothingThreshold", schedule.DefaultThreshold)
	v.SetDefault("engine.extraHours", 0)
	v.SetDefault("engine.maxScenarios", DefaultMaxScenarios)
	v.SetDefault("engine.concurrency", DefaultConcurrency)
	v.SetDefault("engine.maxHorizonHours", DefaultMaxHorizonHours)

	for o, m := range optimizer.DefaultMultipliers() {
		v.SetDefault("objectives."+string(o)+".cost", m.Cost)
		v.SetDefault("objectives."+string(o)+".duration", m.Duration)
	}
}
