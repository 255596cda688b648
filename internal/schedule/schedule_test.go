package schedule

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/josephgoksu/CostWing/internal/task"
	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)

func req(resourceID string, qty float64) []models.Requirement {
	return []models.Requirement{{ResourceID: resourceID, Quantity: qty}}
}

func analyze(t *testing.T, p models.Project) *task.Analysis {
	t.Helper()
	a, err := task.Analyze(p.Tasks)
	require.NoError(t, err)
	return a
}

// chainProject is A(4) -> B(4) plus an independent C(4), all on one
// single-capacity resource.
func chainProject() models.Project {
	return models.Project{
		ID:        "chain",
		StartDate: start,
		Tasks: []models.Task{
			{ID: "A", Duration: 4, Requirements: req("dev", 1)},
			{ID: "B", Duration: 4, Dependencies: []string{"A"}, Requirements: req("dev", 1)},
			{ID: "C", Duration: 4, Requirements: req("dev", 1)},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 1, CostPerHour: 50}},
	}
}

func TestLevel_ChainWithParallelTask(t *testing.T) {
	p := chainProject()
	a := analyze(t, p)

	r, err := Level(context.Background(), p, a, Options{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "B"}, r.CriticalPath)
	assert.Equal(t, 8.0, r.ProjectDuration)
	assert.Equal(t, start.Add(8*time.Hour), r.ProjectEndDate)

	c, ok := r.Entry("C")
	require.True(t, ok)
	assert.False(t, c.Critical)
	assert.Equal(t, 4.0, c.Float)

	// Nothing inside C's float avoids A or B on a capacity-1 resource, so
	// the over-allocation is reported rather than the end date moved.
	assert.True(t, c.Conflicted)
	assert.Equal(t, 0.0, c.Start)
	require.Len(t, r.Conflicts, 1)
	assert.Equal(t, "dev", r.Conflicts[0].ResourceID)
	assert.Equal(t, 0, r.Conflicts[0].StartHour)
	assert.Equal(t, 4, r.Conflicts[0].EndHour)
	assert.InDelta(t, 1.0, r.Conflicts[0].Excess, 1e-9)
	require.Len(t, r.Warnings, 1)
	assert.True(t, errors.Is(r.Warnings[0], types.ErrCapacityConflict))
	assert.False(t, r.Warnings[0].IsFatal())
}

func TestLevel_ConcurrentTasksWithinCapacity(t *testing.T) {
	p := models.Project{
		ID:        "pair",
		StartDate: start,
		Tasks: []models.Task{
			{ID: "x", Duration: 4, Requirements: req("dev", 1)},
			{ID: "y", Duration: 4, Requirements: req("dev", 1)},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 2}},
	}

	r, err := Level(context.Background(), p, analyze(t, p), Options{})
	require.NoError(t, err)

	for _, e := range r.Entries {
		assert.Equal(t, 0.0, e.Start, e.TaskID)
		assert.False(t, e.Conflicted, e.TaskID)
	}
	assert.Empty(t, r.Conflicts)
	assert.Equal(t, 2.0, r.Ledger.Peak("dev"))
}

func TestLevel_UsesFloatToAvoidConflict(t *testing.T) {
	// A(2) -> B(4) is the critical chain; C(2) has 4h float and shares A's resource.
	p := models.Project{
		ID:        "float",
		StartDate: start,
		Tasks: []models.Task{
			{ID: "A", Duration: 2, Requirements: req("dev", 1)},
			{ID: "B", Duration: 4, Dependencies: []string{"A"}, Requirements: req("qa", 1)},
			{ID: "C", Duration: 2, Requirements: req("dev", 1)},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 1}, {ID: "qa", Capacity: 1}},
	}

	r, err := Level(context.Background(), p, analyze(t, p), Options{})
	require.NoError(t, err)

	c, _ := r.Entry("C")
	assert.Equal(t, 2.0, c.Start)
	assert.False(t, c.Conflicted)
	assert.Empty(t, r.Conflicts)
	assert.Equal(t, 6.0, r.ProjectDuration)
}

func TestLevel_PrefersLowerPeak(t *testing.T) {
	// Capacity 2: C could start at 0 next to A (peak 2/2) or at 2 alone (peak 1/2).
	p := models.Project{
		ID:        "peak",
		StartDate: start,
		Tasks: []models.Task{
			{ID: "A", Duration: 2, Requirements: req("dev", 1)},
			{ID: "B", Duration: 4, Dependencies: []string{"A"}},
			{ID: "C", Duration: 2, Requirements: req("dev", 1)},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 2}},
	}

	r, err := Level(context.Background(), p, analyze(t, p), Options{})
	require.NoError(t, err)

	c, _ := r.Entry("C")
	assert.Equal(t, 2.0, c.Start)
	assert.Equal(t, 1.0, r.Ledger.Peak("dev"))
}

func TestLevel_RespectsAvailabilityWindow(t *testing.T) {
	from := start.Add(2 * time.Hour)
	p := models.Project{
		ID:        "window",
		StartDate: start,
		Tasks: []models.Task{
			{ID: "long", Duration: 6},
			{ID: "night", Duration: 2, Requirements: req("ops", 1)},
		},
		Resources: []models.Resource{{ID: "ops", Capacity: 1, Availability: &models.Availability{Start: &from}}},
	}

	r, err := Level(context.Background(), p, analyze(t, p), Options{})
	require.NoError(t, err)

	e, _ := r.Entry("night")
	assert.Equal(t, 2.0, e.Start)
	assert.Empty(t, r.Conflicts)
}

func TestLevel_UnresolvedSkillRejected(t *testing.T) {
	p := models.Project{
		ID:        "skill",
		StartDate: start,
		Tasks:     []models.Task{{ID: "a", Duration: 1, Requirements: []models.Requirement{{Skill: "go", Quantity: 1}}}},
	}

	_, err := Level(context.Background(), p, analyze(t, p), Options{})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestLevel_UnknownResourceRejected(t *testing.T) {
	p := models.Project{
		ID:        "ghost",
		StartDate: start,
		Tasks:     []models.Task{{ID: "a", Duration: 1, Requirements: req("ghost", 1)}},
	}

	_, err := Level(context.Background(), p, analyze(t, p), Options{})
	assert.True(t, errors.Is(err, types.ErrNoSuitableResource))
}

func TestLevel_Cancelled(t *testing.T) {
	p := chainProject()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Level(ctx, p, analyze(t, p), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

// expiringCtx reports cancellation once Err has been called left times.
type expiringCtx struct {
	context.Context
	left int
}

func (c *expiringCtx) Err() error {
	if c.left <= 0 {
		return context.Canceled
	}
	c.left--
	return nil
}

// floatProject has a long critical task and a short one with wide float,
// so the short task scans many candidate starts.
func floatProject() models.Project {
	return models.Project{
		ID:        "float",
		StartDate: start,
		Tasks: []models.Task{
			{ID: "A", Duration: 100, Requirements: req("dev", 1)},
			{ID: "B", Duration: 10, Requirements: req("dev", 1)},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 2}},
	}
}

func TestLevel_CancelledDuringCandidateSearch(t *testing.T) {
	p := floatProject()
	// Three checks pass: before A, A's first candidate, before B.
	ctx := &expiringCtx{Context: context.Background(), left: 3}

	_, err := Level(ctx, p, analyze(t, p), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSmooth_CancelledDuringCandidateSearch(t *testing.T) {
	p := floatProject()
	a := analyze(t, p)
	leveled, err := Level(context.Background(), p, a, Options{})
	require.NoError(t, err)

	ctx := &expiringCtx{Context: context.Background(), left: 3}
	_, err = Smooth(ctx, p, a, leveled, SmoothOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLevel_RejectsSpanBeyondLedgerRange(t *testing.T) {
	p := models.Project{
		ID:        "huge",
		StartDate: start,
		Tasks:     []models.Task{{ID: "A", Duration: 1e15, Requirements: req("dev", 1)}},
		Resources: []models.Resource{{ID: "dev", Capacity: 1}},
	}
	_, err := Level(context.Background(), p, analyze(t, p), Options{})
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}

func TestSmooth_ExtendedHorizonRemovesOverlap(t *testing.T) {
	p := chainProject()
	a := analyze(t, p)
	leveled, err := Level(context.Background(), p, a, Options{})
	require.NoError(t, err)

	s, err := Smooth(context.Background(), p, a, leveled, SmoothOptions{ExtraHours: 4})
	require.NoError(t, err)

	assert.Equal(t, 12, s.Horizon)
	assert.Equal(t, DefaultThreshold, s.Threshold)
	c, _ := s.Entry("C")
	assert.Equal(t, 8.0, c.Start)
	assert.False(t, c.Conflicted)
	assert.Empty(t, s.Conflicts)
	assert.True(t, s.Improved)
	assert.False(t, s.Reverted)
	assert.Equal(t, 2.0, s.OriginalPeaks["dev"].Utilization)
	assert.Equal(t, 1.0, s.SmoothedPeaks["dev"].Utilization)
}

func TestSmooth_WithoutExtraHoursNeverRaisesPeak(t *testing.T) {
	p := chainProject()
	a := analyze(t, p)
	leveled, err := Level(context.Background(), p, a, Options{})
	require.NoError(t, err)

	s, err := Smooth(context.Background(), p, a, leveled, SmoothOptions{})
	require.NoError(t, err)

	assert.Equal(t, 8, s.Horizon)
	assert.LessOrEqual(t, s.SmoothedPeaks["dev"].Utilization, s.OriginalPeaks["dev"].Utilization)
	assert.LessOrEqual(t, s.ProjectDuration, float64(s.Horizon))
}

func TestSmooth_RejectsBadOptions(t *testing.T) {
	p := chainProject()
	a := analyze(t, p)
	leveled, err := Level(context.Background(), p, a, Options{})
	require.NoError(t, err)

	_, err = Smooth(context.Background(), p, a, leveled, SmoothOptions{Threshold: 1.5})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
	_, err = Smooth(context.Background(), p, a, leveled, SmoothOptions{ExtraHours: -1})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
	_, err = Smooth(context.Background(), p, a, leveled, SmoothOptions{ExtraHours: math.MaxInt})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
	_, err = Smooth(context.Background(), p, a, nil, SmoothOptions{})
	assert.True(t, errors.Is(err, types.ErrInvalidInput))
}

func TestLedgerResources_Window(t *testing.T) {
	from := start.Add(-5 * time.Hour)
	until := start.Add(48 * time.Hour)
	p := models.Project{
		StartDate: start,
		Resources: []models.Resource{
			{ID: "a", Capacity: 1},
			{ID: "b", Capacity: 2, Availability: &models.Availability{Start: &from, End: &until, DailyHours: 8}},
		},
	}

	got := LedgerResources(p)
	require.Len(t, got, 2)
	assert.True(t, math.IsInf(got[0].Window.Until, 1))
	assert.Equal(t, 0.0, got[1].Window.From)
	assert.Equal(t, 48.0, got[1].Window.Until)
	assert.Equal(t, 8.0, got[1].Window.DailyHours)
}

// randomProject builds an acyclic project whose tasks only depend on
// lower-numbered tasks.
func randomProject(rng *rand.Rand) models.Project {
	p := models.Project{ID: "random", StartDate: start}
	nres := 1 + rng.Intn(3)
	for r := 0; r < nres; r++ {
		p.Resources = append(p.Resources, models.Resource{ID: fmt.Sprintf("r%d", r), Capacity: float64(1 + rng.Intn(3))})
	}
	priorities := []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityCritical}
	n := 2 + rng.Intn(10)
	for i := 0; i < n; i++ {
		tk := models.Task{
			ID:       fmt.Sprintf("t%02d", i),
			Duration: float64(1 + rng.Intn(6)),
			Priority: priorities[rng.Intn(len(priorities))],
		}
		if rng.Float64() < 0.2 {
			tk.Duration += 0.5
		}
		for j := 0; j < i; j++ {
			if rng.Float64() < 0.2 {
				tk.Dependencies = append(tk.Dependencies, p.Tasks[j].ID)
			}
		}
		if rng.Float64() < 0.9 {
			res := p.Resources[rng.Intn(nres)]
			tk.Requirements = req(res.ID, 1)
		}
		p.Tasks = append(p.Tasks, tk)
	}
	return p
}

func TestScheduleProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 40; round++ {
		p := randomProject(rng)
		a, err := task.Analyze(p.Tasks)
		require.NoError(t, err)

		leveled, err := Level(context.Background(), p, a, Options{})
		require.NoError(t, err)
		again, err := Level(context.Background(), p, a, Options{})
		require.NoError(t, err)

		assert.Equal(t, leveled.Entries, again.Entries, "round %d: leveling is not deterministic", round)
		assert.Equal(t, leveled.ResourceUsage, again.ResourceUsage, "round %d", round)
		assert.LessOrEqual(t, leveled.ProjectDuration, a.ProjectEnd+task.FloatTolerance, "round %d: leveling moved the end date", round)
		assertDependenciesHonoured(t, p, leveled, round)

		for _, e := range leveled.Entries {
			assert.GreaterOrEqual(t, e.Start, e.EarliestStart-task.FloatTolerance, "round %d: %s", round, e.TaskID)
			assert.LessOrEqual(t, e.Start, e.LatestStart+task.FloatTolerance, "round %d: %s", round, e.TaskID)
		}

		extra := rng.Intn(6)
		smoothed, err := Smooth(context.Background(), p, a, leveled, SmoothOptions{ExtraHours: extra})
		require.NoError(t, err)
		assertDependenciesHonoured(t, p, &smoothed.Result, round)
		assert.LessOrEqual(t, smoothed.ProjectDuration, float64(smoothed.Horizon)+task.FloatTolerance, "round %d", round)
		for id, sp := range smoothed.SmoothedPeaks {
			assert.LessOrEqual(t, sp.Utilization, smoothed.OriginalPeaks[id].Utilization+1e-9, "round %d: %s peak rose", round, id)
		}
	}
}

func assertDependenciesHonoured(t *testing.T, p models.Project, r *Result, round int) {
	t.Helper()
	for _, tk := range p.Tasks {
		e, ok := r.Entry(tk.ID)
		require.True(t, ok)
		for _, dep := range tk.Dependencies {
			d, _ := r.Entry(dep)
			assert.GreaterOrEqual(t, e.Start, d.End-1e-9, "round %d: %s starts before %s ends", round, tk.ID, dep)
		}
	}
}
