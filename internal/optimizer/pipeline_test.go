package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

func TestPrepare_BindsSkillsWithoutMutatingInput(t *testing.T) {
	in := project()
	prep, err := New(Config{}).Prepare(context.Background(), in, false)
	require.NoError(t, err)

	require.Len(t, prep.Bindings, 1)
	assert.Equal(t, "build", prep.Bindings[0].TaskID)
	assert.Equal(t, "dev", prep.Bindings[0].ResourceID)
	assert.Equal(t, "go", in.Tasks[1].Requirements[0].Skill, "input must keep its skill requirement")
	assert.Equal(t, 12.0, prep.Analysis.ProjectEnd)
}

func TestOptimizerLevel(t *testing.T) {
	res, err := New(Config{}).Level(context.Background(), project())
	require.NoError(t, err)

	assert.Len(t, res.Entries, 3)
	assert.Equal(t, 12.0, res.ProjectDuration)
	build, ok := res.Entry("build")
	require.True(t, ok)
	assert.Equal(t, 4.0, build.Start)
	assert.Equal(t, []string{"design", "build"}, res.CriticalPath)
}

func chainProject() models.Project {
	dev := []models.Requirement{{ResourceID: "dev", Quantity: 1}}
	return models.Project{
		ID:        "chain",
		StartDate: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		Tasks: []models.Task{
			{ID: "A", Duration: 4, Requirements: dev},
			{ID: "B", Duration: 4, Dependencies: []string{"A"}, Requirements: dev},
			{ID: "C", Duration: 4, Requirements: dev},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 1, CostPerHour: 50}},
	}
}

func TestPrepare_RejectsDurationBeyondMaxHorizon(t *testing.T) {
	p := models.Project{
		ID:        "huge",
		StartDate: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		Tasks:     []models.Task{{ID: "big", Duration: 1e15, Requirements: []models.Requirement{{ResourceID: "dev", Quantity: 1}}}},
		Resources: []models.Resource{{ID: "dev", Capacity: 1, CostPerHour: 10}},
	}

	_, err := New(Config{}).Optimize(context.Background(), p, MinimizeCost)
	require.ErrorIs(t, err, types.ErrInvalidInput)
	var se *types.ScheduleError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "big", se.TaskID)
}

func TestPrepare_RejectsLongProjectsBeforeScheduling(t *testing.T) {
	dev := []models.Requirement{{ResourceID: "dev", Quantity: 1}}
	p := models.Project{
		ID:        "long",
		StartDate: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC),
		Tasks: []models.Task{
			{ID: "a", Duration: 40000, Requirements: dev},
			{ID: "b", Duration: 20000, Requirements: dev},
		},
		Resources: []models.Resource{{ID: "dev", Capacity: 2}},
	}

	started := time.Now()
	_, err := New(Config{}).Level(context.Background(), p)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
	assert.Less(t, time.Since(started), time.Second)
}

func TestPrepare_HorizonIncludesExtraHours(t *testing.T) {
	// The chain ends at hour 8.
	_, err := New(Config{MaxHorizon: 10, ExtraHours: 4}).Smooth(context.Background(), chainProject())
	assert.ErrorIs(t, err, types.ErrInvalidInput)

	res, err := New(Config{MaxHorizon: 10, ExtraHours: 2}).Smooth(context.Background(), chainProject())
	require.NoError(t, err)
	assert.Equal(t, 10, res.Horizon)
}

func TestNew_ClampsMaxHorizon(t *testing.T) {
	assert.Equal(t, DefaultMaxHorizon, New(Config{}).Config().MaxHorizon)
	assert.Equal(t, ledger.MaxHours, New(Config{MaxHorizon: 1 << 30}).Config().MaxHorizon)
}

func TestOptimizerSmooth_UsesConfiguredHorizon(t *testing.T) {
	res, err := New(Config{ExtraHours: 4}).Smooth(context.Background(), chainProject())
	require.NoError(t, err)

	assert.Equal(t, 12, res.Horizon)
	assert.True(t, res.Improved)
	c, ok := res.Entry("C")
	require.True(t, ok)
	assert.Equal(t, 8.0, c.Start)
	assert.Empty(t, res.Conflicts)
}

func TestOptimizerLevel_RejectsInvalidProject(t *testing.T) {
	p := chainProject()
	p.Tasks[0].Dependencies = []string{"B"}

	_, err := New(Config{}).Level(context.Background(), p)
	assert.True(t, errors.Is(err, types.ErrInvalidGraph), "got %v", err)
}
