// Package allocator binds task requirements to concrete resources.
//
// Requirements name either a resource directly or a skill. Skill requirements
// are resolved by a Solver before scheduling so that the engines only ever see
// resource ids. GreedySolver is the built-in strategy; a linear-programming
// solver can be plugged in behind the same interface.
package allocator

import (
	"context"
	"fmt"
	"sort"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// Problem is one assignment request.
type Problem struct {
	Tasks     []models.Task
	Resources []models.Resource
	// PreferCheapest selects the lowest cost_per_hour among skill holders
	// instead of the highest capacity.
	PreferCheapest bool
}

// Binding records how one requirement was satisfied.
type Binding struct {
	TaskID     string  `json:"task_id"`
	Skill      string  `json:"skill,omitempty"`
	ResourceID string  `json:"resource_id"`
	Quantity   float64 `json:"quantity"`
}

// Assignment is a solved Problem: tasks whose requirements all carry a
// resource id, plus the bindings in task id order.
type Assignment struct {
	Tasks    []models.Task
	Bindings []Binding
}

// Solver resolves requirements to resources.
type Solver interface {
	Solve(ctx context.Context, p Problem) (Assignment, error)
}

// GreedySolver resolves requirements one task at a time in id order.
type GreedySolver struct{}

// NewGreedySolver returns the default solver.
func NewGreedySolver() *GreedySolver {
	return &GreedySolver{}
}

// Solve implements Solver. The input tasks are not modified.
func (s *GreedySolver) Solve(ctx context.Context, p Problem) (Assignment, error) {
	byID := make(map[string]models.Resource, len(p.Resources))
	for _, r := range p.Resources {
		byID[r.ID] = r
	}
	load := make(map[string]float64, len(p.Resources))

	order := make([]int, len(p.Tasks))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return p.Tasks[order[a]].ID < p.Tasks[order[b]].ID })

	out := Assignment{Tasks: make([]models.Task, len(p.Tasks))}
	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return Assignment{}, fmt.Errorf("allocation cancelled: %w", err)
		}

		t := p.Tasks[i].Clone()
		for j, req := range t.Requirements {
			var res models.Resource
			if req.ResourceID != "" {
				r, ok := byID[req.ResourceID]
				if !ok {
					return Assignment{}, types.NewNoSuitableResourceError(t.ID,
						fmt.Sprintf("resource %q does not exist", req.ResourceID),
						map[string]interface{}{"resource_id": req.ResourceID})
				}
				res = r
			} else {
				r, ok := pick(p.Resources, req, load, p.PreferCheapest)
				if !ok {
					return Assignment{}, types.NewNoSuitableResourceError(t.ID,
						fmt.Sprintf("no resource with skill %q and capacity for quantity %g", req.Skill, req.Quantity),
						map[string]interface{}{"skill": req.Skill, "quantity": req.Quantity})
				}
				res = r
			}

			load[res.ID] += req.Quantity * t.Duration
			out.Bindings = append(out.Bindings, Binding{
				TaskID:     t.ID,
				Skill:      req.Skill,
				ResourceID: res.ID,
				Quantity:   req.Quantity,
			})
			t.Requirements[j] = models.Requirement{ResourceID: res.ID, Quantity: req.Quantity}
		}
		out.Tasks[i] = t
	}
	return out, nil
}

func pick(resources []models.Resource, req models.Requirement, load map[string]float64, cheapest bool) (models.Resource, bool) {
	var (
		best  models.Resource
		found bool
	)
	for _, r := range resources {
		if !r.HasSkill(req.Skill) || r.Capacity < req.Quantity {
			continue
		}
		if !found || better(r, best, load, cheapest) {
			best, found = r, true
		}
	}
	return best, found
}

// better reports whether a beats b.
func better(a, b models.Resource, load map[string]float64, cheapest bool) bool {
	if cheapest && a.CostPerHour != b.CostPerHour {
		return a.CostPerHour < b.CostPerHour
	}
	if a.Capacity != b.Capacity {
		return a.Capacity > b.Capacity
	}
	if load[a.ID] != load[b.ID] {
		return load[a.ID] < load[b.ID]
	}
	return a.ID < b.ID
}
