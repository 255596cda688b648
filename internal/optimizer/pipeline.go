package optimizer

import (
	"context"
	"fmt"
	"math"

	"github.com/josephgoksu/CostWing/internal/allocator"
	"github.com/josephgoksu/CostWing/internal/schedule"
	"github.com/josephgoksu/CostWing/internal/task"
	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// Prepared is a validated project with every requirement bound to a
// concrete resource, plus its graph analysis.
type Prepared struct {
	Project  models.Project
	Analysis *task.Analysis
	Bindings []allocator.Binding
}

// Prepare clones the project, applies defaults, validates it, resolves
// skill requirements and analyzes the dependency graph. Projects whose tasks
// or horizon exceed MaxHorizon are rejected as invalid input. The caller's
// project is never modified.
func (o *Optimizer) Prepare(ctx context.Context, project models.Project, preferCheapest bool) (*Prepared, error) {
	p := project.Clone()
	p.ApplyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	limit := float64(o.cfg.MaxHorizon)
	for _, t := range p.Tasks {
		if t.Duration > limit {
			e := types.NewInvalidInputError(fmt.Sprintf("duration %g h exceeds the maximum horizon of %d h", t.Duration, o.cfg.MaxHorizon),
				map[string]interface{}{"duration": t.Duration, "max_horizon": o.cfg.MaxHorizon})
			e.TaskID = t.ID
			return nil, e
		}
	}

	assignment, err := o.cfg.Solver.Solve(ctx, allocator.Problem{
		Tasks:          p.Tasks,
		Resources:      p.Resources,
		PreferCheapest: preferCheapest,
	})
	if err != nil {
		return nil, err
	}
	p.Tasks = assignment.Tasks

	analysis, err := task.Analyze(p.Tasks)
	if err != nil {
		return nil, err
	}
	if need := math.Ceil(analysis.ProjectEnd) + float64(o.cfg.ExtraHours); need > limit {
		return nil, types.NewInvalidInputError(
			fmt.Sprintf("project needs %g h including %d extra hours, the maximum horizon is %d h", need, o.cfg.ExtraHours, o.cfg.MaxHorizon),
			map[string]interface{}{"project_end": analysis.ProjectEnd, "extra_hours": o.cfg.ExtraHours, "max_horizon": o.cfg.MaxHorizon})
	}
	return &Prepared{Project: p, Analysis: analysis, Bindings: assignment.Bindings}, nil
}

// Level prepares the project and levels it without changing the project end.
func (o *Optimizer) Level(ctx context.Context, project models.Project) (*schedule.Result, error) {
	prep, err := o.Prepare(ctx, project, false)
	if err != nil {
		return nil, err
	}
	return schedule.Level(ctx, prep.Project, prep.Analysis, schedule.Options{
		Logger: o.cfg.Logger.With("project", project.ID),
	})
}

// Smooth levels the project and then smooths it over the configured horizon.
func (o *Optimizer) Smooth(ctx context.Context, project models.Project) (*schedule.SmoothResult, error) {
	prep, err := o.Prepare(ctx, project, false)
	if err != nil {
		return nil, err
	}
	log := o.cfg.Logger.With("project", project.ID)
	leveled, err := schedule.Level(ctx, prep.Project, prep.Analysis, schedule.Options{Logger: log})
	if err != nil {
		return nil, err
	}
	return schedule.Smooth(ctx, prep.Project, prep.Analysis, leveled, schedule.SmoothOptions{
		Threshold:  o.cfg.Threshold,
		ExtraHours: o.cfg.ExtraHours,
		Logger:     log,
	})
}
