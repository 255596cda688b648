// Package optimizer runs the full pipeline for one objective: requirement
// resolution, graph analysis, leveling, optional smoothing, then the cost and
// utilization summary with recommendations.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/josephgoksu/CostWing/internal/allocator"
	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/internal/schedule"
	"github.com/josephgoksu/CostWing/models"
)

// Allocation is the cost of one task on one resource.
type Allocation struct {
	TaskID     string  `json:"task_id"`
	ResourceID string  `json:"resource_id"`
	Quantity   float64 `json:"quantity"`
	Hours      float64 `json:"hours"`
	Cost       float64 `json:"cost"`
}

// SmoothingSummary is the peak comparison attached to balance_resources runs.
type SmoothingSummary struct {
	OriginalPeaks map[string]schedule.Peak `json:"original_peaks"`
	SmoothedPeaks map[string]schedule.Peak `json:"smoothed_peaks"`
	Threshold     float64                  `json:"threshold"`
	Horizon       int                      `json:"horizon"`
	Improved      bool                     `json:"improved"`
	Reverted      bool                     `json:"reverted,omitempty"`
}

// Result is the optimizer summary for one run. It carries no timestamps
// beyond those derived from the project, so identical input gives an
// identical result.
type Result struct {
	ProjectID           string              `json:"project_id"`
	Objective           Objective           `json:"objective"`
	TotalCost           float64             `json:"total_cost"`
	TotalDuration       float64             `json:"total_duration"`
	BaselineCost        float64             `json:"baseline_cost"`
	BaselineDuration    float64             `json:"baseline_duration"`
	ScheduledDuration   float64             `json:"scheduled_duration"`
	ResourceUtilization map[string]float64  `json:"resource_utilization"`
	PeakUtilization     map[string]float64  `json:"peak_utilization"`
	Allocations         []Allocation        `json:"allocations"`
	Bindings            []allocator.Binding `json:"bindings,omitempty"`
	ResourceConflicts   []ledger.Conflict   `json:"resource_conflicts"`
	Recommendations     []string            `json:"recommendations"`
	Schedule            *schedule.Result    `json:"schedule"`
	Smoothing           *SmoothingSummary   `json:"smoothing,omitempty"`
}

// Optimizer runs objectives against projects. It is safe for concurrent use.
type Optimizer struct {
	cfg Config
}

// New creates an optimizer. Zero fields of cfg take their defaults.
func New(cfg Config) *Optimizer {
	return &Optimizer{cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (o *Optimizer) Config() Config {
	return o.cfg
}

// Optimize runs the pipeline for one objective. Fatal errors (invalid input,
// invalid graph, no suitable resource) abort before anything is scheduled;
// capacity conflicts are reported in the result.
func (o *Optimizer) Optimize(ctx context.Context, project models.Project, objective Objective) (*Result, error) {
	if _, err := ParseObjective(string(objective)); err != nil {
		return nil, err
	}
	log := o.cfg.Logger.With("project", project.ID, "objective", string(objective))

	prep, err := o.Prepare(ctx, project, objective == MinimizeCost)
	if err != nil {
		return nil, err
	}
	p, analysis := prep.Project, prep.Analysis
	log.Debug("graph analyzed", "tasks", len(p.Tasks), "critical_path", analysis.CriticalPath, "project_end", analysis.ProjectEnd)

	leveled, err := schedule.Level(ctx, p, analysis, schedule.Options{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("leveling failed: %w", err)
	}

	final := leveled
	var smoothing *SmoothingSummary
	if objective == BalanceResources {
		s, err := schedule.Smooth(ctx, p, analysis, leveled, schedule.SmoothOptions{
			Threshold:  o.cfg.Threshold,
			ExtraHours: o.cfg.ExtraHours,
			Logger:     log,
		})
		if err != nil {
			return nil, fmt.Errorf("smoothing failed: %w", err)
		}
		final = &s.Result
		smoothing = &SmoothingSummary{
			OriginalPeaks: s.OriginalPeaks,
			SmoothedPeaks: s.SmoothedPeaks,
			Threshold:     s.Threshold,
			Horizon:       s.Horizon,
			Improved:      s.Improved,
			Reverted:      s.Reverted,
		}
	}

	r := summarize(p, objective, o.cfg.Multipliers[objective], final)
	r.Bindings = prep.Bindings
	r.Smoothing = smoothing
	log.Info("optimization complete", "total_cost", r.TotalCost, "scheduled_duration", r.ScheduledDuration, "conflicts", len(r.ResourceConflicts))
	return r, nil
}

func summarize(p models.Project, objective Objective, m Multipliers, final *schedule.Result) *Result {
	r := &Result{
		ProjectID:           p.ID,
		Objective:           objective,
		ScheduledDuration:   final.ProjectDuration,
		ResourceUtilization: make(map[string]float64, len(p.Resources)),
		PeakUtilization:     make(map[string]float64, len(p.Resources)),
		Allocations:         []Allocation{},
		ResourceConflicts:   final.Conflicts,
		Schedule:            final,
	}
	if r.ResourceConflicts == nil {
		r.ResourceConflicts = []ledger.Conflict{}
	}

	used := make(map[string]float64, len(p.Resources))
	for _, t := range p.Tasks {
		r.BaselineDuration += t.Duration
		for _, u := range demandOf(t) {
			res, _ := p.ResourceByID(u.ResourceID)
			cost := t.Duration * res.CostPerHour * u.Quantity
			r.BaselineCost += cost
			used[u.ResourceID] += u.Quantity
			r.Allocations = append(r.Allocations, Allocation{
				TaskID:     t.ID,
				ResourceID: u.ResourceID,
				Quantity:   u.Quantity,
				Hours:      t.Duration,
				Cost:       cost,
			})
		}
	}
	sort.SliceStable(r.Allocations, func(i, j int) bool {
		if r.Allocations[i].TaskID != r.Allocations[j].TaskID {
			return r.Allocations[i].TaskID < r.Allocations[j].TaskID
		}
		return r.Allocations[i].ResourceID < r.Allocations[j].ResourceID
	})

	r.TotalCost = r.BaselineCost * m.Cost
	r.TotalDuration = r.BaselineDuration * m.Duration

	n := float64(len(p.Tasks))
	for _, res := range p.Resources {
		r.ResourceUtilization[res.ID] = math.Min(1, used[res.ID]/(res.Capacity*n))
		r.PeakUtilization[res.ID] = final.Ledger.Peak(res.ID) / res.Capacity
	}

	r.Recommendations = recommendations(objective, r.ResourceConflicts)
	return r
}

// demandOf sums quantity per distinct resource, in first-seen order.
func demandOf(t models.Task) []schedule.Usage {
	var out []schedule.Usage
	seen := make(map[string]bool)
	for _, req := range t.Requirements {
		if seen[req.ResourceID] {
			continue
		}
		seen[req.ResourceID] = true
		out = append(out, schedule.Usage{ResourceID: req.ResourceID, Quantity: t.QuantityOf(req.ResourceID)})
	}
	return out
}
