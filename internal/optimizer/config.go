package optimizer

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/josephgoksu/CostWing/internal/allocator"
	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/internal/schedule"
	"github.com/josephgoksu/CostWing/types"
)

// Objective selects the heuristics applied to a run.
type Objective string

const (
	MinimizeCost        Objective = "minimize_cost"
	MinimizeDuration    Objective = "minimize_duration"
	BalanceResources    Objective = "balance_resources"
	MaximizeUtilization Objective = "maximize_utilization"
)

// Objectives lists every supported objective.
func Objectives() []Objective {
	return []Objective{MinimizeCost, MinimizeDuration, BalanceResources, MaximizeUtilization}
}

// ParseObjective validates an objective name.
func ParseObjective(s string) (Objective, error) {
	for _, o := range Objectives() {
		if string(o) == s {
			return o, nil
		}
	}
	return "", types.NewInvalidInputError(fmt.Sprintf("unknown objective %q", s),
		map[string]interface{}{"allowed": Objectives()})
}

// Title renders the objective for humans, e.g. "Minimize Cost".
func (o Objective) Title() string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(o), "_", " "))
}

// Multipliers scale the baseline cost and duration for an objective.
type Multipliers struct {
	Cost     float64 `mapstructure:"cost" json:"cost" validate:"gt=0"`
	Duration float64 `mapstructure:"duration" json:"duration" validate:"gt=0"`
}

// DefaultMultipliers returns the built-in heuristic factors.
func DefaultMultipliers() map[Objective]Multipliers {
	return map[Objective]Multipliers{
		MinimizeCost:        {Cost: 0.9, Duration: 1.1},
		MinimizeDuration:    {Cost: 1.15, Duration: 0.85},
		BalanceResources:    {Cost: 1.0, Duration: 1.0},
		MaximizeUtilization: {Cost: 0.95, Duration: 1.0},
	}
}

// DefaultMaxHorizon is two years of hours.
const DefaultMaxHorizon = 2 * 365 * 24

// Config is everything a run needs. It is passed explicitly; the optimizer
// keeps no package-level state.
type Config struct {
	Threshold    float64
	ExtraHours   int
	Multipliers  map[Objective]Multipliers
	MaxScenarios int
	Concurrency  int
	// MaxHorizon bounds, in hours, every task duration and the project end
	// plus ExtraHours. Larger projects are rejected before scheduling.
	MaxHorizon int
	Solver       allocator.Solver
	Logger       *slog.Logger
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Threshold:    schedule.DefaultThreshold,
		Multipliers:  DefaultMultipliers(),
		MaxScenarios: 20,
		Concurrency:  4,
		MaxHorizon:   DefaultMaxHorizon,
		Solver:       allocator.NewGreedySolver(),
		Logger:       slog.Default(),
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Threshold == 0 {
		c.Threshold = d.Threshold
	}
	if c.MaxScenarios <= 0 {
		c.MaxScenarios = d.MaxScenarios
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	switch {
	case c.MaxHorizon <= 0:
		c.MaxHorizon = d.MaxHorizon
	case c.MaxHorizon > ledger.MaxHours:
		c.MaxHorizon = ledger.MaxHours
	}
	if c.Solver == nil {
		c.Solver = d.Solver
	}
	if c.Logger == nil {
		c.Logger = d.Logger
	}
	m := make(map[Objective]Multipliers, len(d.Multipliers))
	for o, v := range d.Multipliers {
		if custom, ok := c.Multipliers[o]; ok && custom.Cost > 0 && custom.Duration > 0 {
			v = custom
		}
		m[o] = v
	}
	c.Multipliers = m
	return c
}
