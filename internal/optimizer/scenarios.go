package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// Variation keys.
const (
	VaryDuration = "duration"
	VaryCost     = "cost"
)

// BaseScenario is the reserved name of the unmodified run.
const BaseScenario = "base"

// Variation maps a key (VaryDuration, VaryCost) to a multiplicative factor.
type Variation map[string]float64

// Apply returns a deep copy of p with the factors applied: duration scales
// every task's duration, cost scales every resource's cost_per_hour.
func (v Variation) Apply(p models.Project) models.Project {
	c := p.Clone()
	if f, ok := v[VaryDuration]; ok {
		for i := range c.Tasks {
			c.Tasks[i].Duration *= f
		}
	}
	if f, ok := v[VaryCost]; ok {
		for i := range c.Resources {
			c.Resources[i].CostPerHour *= f
		}
	}
	return c
}

func (v Variation) validate(name string) error {
	for key, f := range v {
		if key != VaryDuration && key != VaryCost {
			return types.NewInvalidInputError(fmt.Sprintf("scenario %q: unknown variation %q", name, key),
				map[string]interface{}{"allowed": []string{VaryDuration, VaryCost}})
		}
		if !(f > 0) || math.IsInf(f, 0) {
			return types.NewInvalidInputError(fmt.Sprintf("scenario %q: factor for %s must be a positive number, got %v", name, key, f), nil)
		}
	}
	return nil
}

// ParseVariation parses "name:duration=1.2,cost=0.9".
func ParseVariation(s string) (string, Variation, error) {
	name, spec, ok := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.TrimSpace(spec) == "" {
		return "", nil, types.NewInvalidInputError(fmt.Sprintf("invalid scenario %q, expected name:key=factor[,key=factor]", s), nil)
	}
	v := Variation{}
	for _, pair := range strings.Split(spec, ",") {
		key, val, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return "", nil, types.NewInvalidInputError(fmt.Sprintf("scenario %q: expected key=factor, got %q", name, pair), nil)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return "", nil, types.NewInvalidInputError(fmt.Sprintf("scenario %q: invalid factor %q", name, val), nil)
		}
		v[strings.TrimSpace(key)] = f
	}
	if err := v.validate(name); err != nil {
		return "", nil, err
	}
	return name, v, nil
}

type scenarioRun struct {
	name   string
	result *Result
}

// CompareScenarios runs the base project and every variation, each on its own
// copy and ledger, through a bounded worker pool. Results are keyed by
// scenario name and include BaseScenario. A fatal error in any run aborts
// the comparison.
func (o *Optimizer) CompareScenarios(ctx context.Context, base models.Project, objective Objective, variations map[string]Variation) (map[string]*Result, error) {
	if len(variations) > o.cfg.MaxScenarios {
		return nil, types.NewInvalidInputError(
			fmt.Sprintf("%d scenarios requested, at most %d allowed", len(variations), o.cfg.MaxScenarios),
			map[string]interface{}{"max_scenarios": o.cfg.MaxScenarios})
	}
	names := make([]string, 0, len(variations))
	for name, v := range variations {
		if name == BaseScenario {
			return nil, types.NewInvalidInputError(fmt.Sprintf("scenario name %q is reserved", BaseScenario), nil)
		}
		if strings.TrimSpace(name) == "" {
			return nil, types.NewInvalidInputError("scenario name cannot be empty", nil)
		}
		if err := v.validate(name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	p := pool.NewWithResults[scenarioRun]().
		WithContext(ctx).
		WithMaxGoroutines(o.cfg.Concurrency).
		WithCancelOnError().
		WithFirstError()

	submit := func(name string, project models.Project) {
		p.Go(func(ctx context.Context) (scenarioRun, error) {
			r, err := o.Optimize(ctx, project, objective)
			if err != nil {
				return scenarioRun{}, fmt.Errorf("scenario %s: %w", name, err)
			}
			return scenarioRun{name: name, result: r}, nil
		})
	}
	submit(BaseScenario, base.Clone())
	for _, name := range names {
		submit(name, variations[name].Apply(base))
	}

	runs, err := p.Wait()
	if err != nil {
		return nil, err
	}
	out := make(map[string]*Result, len(runs))
	for _, run := range runs {
		out[run.name] = run.result
	}
	o.cfg.Logger.Info("scenario comparison complete", "project", base.ID, "scenarios", len(out))
	return out, nil
}
