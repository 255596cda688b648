// Package schedule places tasks on an hourly timeline against finite
// resource capacity. Level keeps every task inside its float window so the
// project end never moves; Smooth trades float for flatter utilization
// within a bounded horizon.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/internal/task"
	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// Usage is the quantity of one resource a scheduled task holds.
type Usage struct {
	ResourceID string  `json:"resource_id"`
	Quantity   float64 `json:"quantity"`
}

// Entry is the placement of one task. Offsets are hours from the project start.
type Entry struct {
	TaskID     string    `json:"task_id"`
	Name       string    `json:"name,omitempty"`
	Start      float64   `json:"start_offset"`
	End        float64   `json:"end_offset"`
	StartTime  time.Time `json:"start"`
	EndTime    time.Time `json:"end"`
	Duration   float64   `json:"duration"`
	Resources  []Usage   `json:"resources,omitempty"`
	Critical   bool      `json:"is_critical"`
	Float      float64   `json:"float"`
	Conflicted bool      `json:"conflicted,omitempty"`

	EarliestStart     float64   `json:"earliest_start_offset"`
	LatestStart       float64   `json:"latest_start_offset"`
	LatestFinish      float64   `json:"latest_finish_offset"`
	EarliestStartTime time.Time `json:"earliest_start"`
	LatestFinishTime  time.Time `json:"latest_finish"`
}

// Result is a complete schedule for one run.
type Result struct {
	Entries          []Entry                    `json:"tasks"`
	ResourceUsage    map[string]map[int]float64 `json:"resource_usage"`
	CriticalPath     []string                   `json:"critical_path"`
	ProjectDuration  float64                    `json:"project_duration"`
	ProjectStartDate time.Time                  `json:"project_start_date"`
	ProjectEndDate   time.Time                  `json:"project_end_date"`
	Conflicts        []ledger.Conflict          `json:"resource_conflicts"`
	Warnings         []*types.ScheduleError     `json:"warnings,omitempty"`

	// Ledger is the tracker the schedule was committed to.
	Ledger *ledger.Ledger `json:"-"`
}

// Entry looks up the placement of a task.
func (r *Result) Entry(taskID string) (Entry, bool) {
	for _, e := range r.Entries {
		if e.TaskID == taskID {
			return e, true
		}
	}
	return Entry{}, false
}

// Peak is a resource's highest usage relative to its capacity.
type Peak struct {
	Peak        float64 `json:"peak"`
	Capacity    float64 `json:"capacity"`
	Utilization float64 `json:"utilization"`
}

// Peaks computes the peak utilization of every resource that carries usage.
func Peaks(l *ledger.Ledger) map[string]Peak {
	out := make(map[string]Peak)
	for _, id := range l.Resources() {
		peak := l.Peak(id)
		if peak <= 0 {
			continue
		}
		p := Peak{Peak: peak, Capacity: l.Capacity(id)}
		if p.Capacity > 0 {
			p.Utilization = peak / p.Capacity
		} else {
			p.Utilization = math.Inf(1)
		}
		out[id] = p
	}
	return out
}

// placement is the chosen slot of one task, indexed like the analysis arena.
type placement struct {
	start      float64
	end        float64
	conflicted bool
}

// placeFunc chooses a start for node n given the earliest instant all its
// predecessors have finished. It commits the reservation itself.
type placeFunc func(ctx context.Context, n *task.Node, ready float64) (start float64, conflicted bool, err error)

// cancelEvery is how many candidates are scored between context checks.
const cancelEvery = 16

// checkCandidate returns the context error on every cancelEvery-th candidate.
func checkCandidate(ctx context.Context, k int) error {
	if k%cancelEvery != 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("scheduling cancelled: %w", err)
	}
	return nil
}

// serial runs the serial schedule-generation scheme: a task becomes eligible
// once every predecessor is placed, and the eligible set is drained in
// (critical, priority, earliest start, id) order.
func serial(ctx context.Context, a *task.Analysis, place placeFunc) ([]placement, error) {
	placed := make([]placement, len(a.Nodes))
	waiting := make([]int, len(a.Nodes))
	var eligible []int
	for i, n := range a.Nodes {
		waiting[i] = len(n.Preds)
		if waiting[i] == 0 {
			eligible = append(eligible, i)
		}
	}

	for len(eligible) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("scheduling cancelled: %w", err)
		}
		sort.Slice(eligible, func(x, y int) bool { return before(&a.Nodes[eligible[x]], &a.Nodes[eligible[y]]) })
		i := eligible[0]
		eligible = eligible[1:]

		n := &a.Nodes[i]
		ready := 0.0
		for _, p := range n.Preds {
			ready = math.Max(ready, placed[p].end)
		}
		start, conflicted, err := place(ctx, n, ready)
		if err != nil {
			return nil, err
		}
		placed[i] = placement{start: start, end: start + n.Duration, conflicted: conflicted}

		for _, s := range n.Succs {
			waiting[s]--
			if waiting[s] == 0 {
				eligible = append(eligible, s)
			}
		}
	}
	return placed, nil
}

func before(a, b *task.Node) bool {
	if a.Critical != b.Critical {
		return a.Critical
	}
	if ra, rb := a.Priority.Rank(), b.Priority.Rank(); ra != rb {
		return ra > rb
	}
	if a.EarliestStart != b.EarliestStart {
		return a.EarliestStart < b.EarliestStart
	}
	return a.ID < b.ID
}

// demand lists the distinct resources a task draws on, sorted by id.
func demand(t models.Task) []Usage {
	var ids []string
	seen := make(map[string]bool)
	for _, r := range t.Requirements {
		if r.ResourceID == "" || seen[r.ResourceID] {
			continue
		}
		seen[r.ResourceID] = true
		ids = append(ids, r.ResourceID)
	}
	sort.Strings(ids)
	out := make([]Usage, len(ids))
	for i, id := range ids {
		out[i] = Usage{ResourceID: id, Quantity: t.QuantityOf(id)}
	}
	return out
}

func commit(l *ledger.Ledger, use []Usage, start, end float64) {
	for _, u := range use {
		l.ReserveSpan(u.ResourceID, start, end, u.Quantity)
	}
}

func build(p models.Project, a *task.Analysis, placed []placement, l *ledger.Ledger, logger *slog.Logger) *Result {
	at := func(offset float64) time.Time {
		return p.StartDate.Add(time.Duration(offset * float64(time.Hour)))
	}

	r := &Result{
		Entries:          make([]Entry, 0, len(placed)),
		ResourceUsage:    l.Snapshot(),
		CriticalPath:     append([]string(nil), a.CriticalPath...),
		ProjectStartDate: p.StartDate,
		Ledger:           l,
	}
	for i, pl := range placed {
		n := &a.Nodes[i]
		t := p.Tasks[i]
		r.Entries = append(r.Entries, Entry{
			TaskID:            t.ID,
			Name:              t.Name,
			Start:             pl.start,
			End:               pl.end,
			StartTime:         at(pl.start),
			EndTime:           at(pl.end),
			Duration:          t.Duration,
			Resources:         demand(t),
			Critical:          n.Critical,
			Float:             n.Float,
			Conflicted:        pl.conflicted,
			EarliestStart:     n.EarliestStart,
			LatestStart:       n.LatestStart,
			LatestFinish:      n.LatestFinish,
			EarliestStartTime: at(n.EarliestStart),
			LatestFinishTime:  at(n.LatestFinish),
		})
		r.ProjectDuration = math.Max(r.ProjectDuration, pl.end)
	}
	sort.Slice(r.Entries, func(x, y int) bool {
		if r.Entries[x].Start != r.Entries[y].Start {
			return r.Entries[x].Start < r.Entries[y].Start
		}
		return r.Entries[x].TaskID < r.Entries[y].TaskID
	})
	r.ProjectEndDate = at(r.ProjectDuration)
	r.Conflicts = l.Conflicts()

	for _, e := range r.Entries {
		if !e.Conflicted {
			continue
		}
		for _, u := range e.Resources {
			if !overlapsConflict(r.Conflicts, u.ResourceID, e) {
				continue
			}
			r.Warnings = append(r.Warnings, types.NewCapacityConflictError(e.TaskID, u.ResourceID,
				fmt.Sprintf("no conflict-free start found; placed at hour %g", e.Start)))
			logger.Warn("capacity conflict", "task", e.TaskID, "resource", u.ResourceID, "start", e.Start)
		}
	}
	return r
}

func overlapsConflict(cs []ledger.Conflict, resourceID string, e Entry) bool {
	for _, c := range cs {
		if c.ResourceID == resourceID && float64(c.StartHour) < e.End && float64(c.EndHour) > e.Start {
			return true
		}
	}
	return false
}

func validateInput(p models.Project, a *task.Analysis) error {
	if a == nil || len(a.Nodes) != len(p.Tasks) {
		return types.NewInvalidInputError("analysis does not match the project's tasks", nil)
	}
	if a.ProjectEnd > ledger.MaxHours {
		return types.NewInvalidInputError(fmt.Sprintf("project spans %g hours, at most %d can be scheduled", a.ProjectEnd, ledger.MaxHours),
			map[string]interface{}{"project_end": a.ProjectEnd, "max_hours": ledger.MaxHours})
	}
	for i, t := range p.Tasks {
		if a.Nodes[i].ID != t.ID {
			return types.NewInvalidInputError(fmt.Sprintf("analysis node %d is %q, want %q", i, a.Nodes[i].ID, t.ID), nil)
		}
		for _, req := range t.Requirements {
			if req.ResourceID == "" {
				return types.NewInvalidInputError(fmt.Sprintf("task %q has an unresolved skill requirement %q", t.ID, req.Skill), nil)
			}
			if _, ok := p.ResourceByID(req.ResourceID); !ok {
				return types.NewNoSuitableResourceError(t.ID,
					fmt.Sprintf("resource %q does not exist", req.ResourceID),
					map[string]interface{}{"resource_id": req.ResourceID})
			}
		}
	}
	return nil
}
