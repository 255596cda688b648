/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package types

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose    bool                        `mapstructure:"verbose"`
	Config     string                      `mapstructure:"config"`
	JSON       bool                        `mapstructure:"json"`
	Project    ProjectConfig               `mapstructure:"project" validate:"required"`
	Data       DataConfig                  `mapstructure:"data" validate:"required"`
	Engine     EngineConfig                `mapstructure:"engine" validate:"required"`
	Objectives map[string]MultiplierConfig `mapstructure:"objectives" validate:"dive,keys,oneof=minimize_cost minimize_duration balance_resources maximize_utilization,endkeys"`
}

// ProjectConfig holds workspace settings
type ProjectConfig struct {
	RootDir string `mapstructure:"rootDir" validate:"required"`
}

// DataConfig holds result storage configuration
type DataConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=file sqlite"`
	File    string `mapstructure:"file" validate:"required"`
	Format  string `mapstructure:"format" validate:"required,oneof=json yaml toml"`
}

// EngineConfig tunes leveling, smoothing and scenario comparison.
type EngineConfig struct {
	SmoothingThreshold float64 `mapstructure:"smoothingThreshold" validate:"gt=0,lte=1"`
	ExtraHours         int     `mapstructure:"extraHours" validate:"min=0"`
	MaxScenarios       int     `mapstructure:"maxScenarios" validate:"min=1,max=1000"`
	Concurrency        int     `mapstructure:"concurrency" validate:"min=1,max=64"`
	MaxHorizonHours    int     `mapstructure:"maxHorizonHours" validate:"min=1,max=16777216"`
}

// MultiplierConfig overrides the cost and duration factors of one objective.
type MultiplierConfig struct {
	Cost     float64 `mapstructure:"cost" validate:"gt=0"`
	Duration float64 `mapstructure:"duration" validate:"gt=0"`
}
