package allocator

import (
	"context"
	"errors"
	"testing"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resources() []models.Resource {
	return []models.Resource{
		{ID: "senior", Capacity: 1, CostPerHour: 120, Skills: []string{"go", "sql"}},
		{ID: "junior", Capacity: 1, CostPerHour: 60, Skills: []string{"go"}},
		{ID: "team", Capacity: 3, CostPerHour: 90, Skills: []string{"go"}},
	}
}

func TestGreedySolver_ExplicitResource(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 2, Requirements: []models.Requirement{{ResourceID: "junior", Quantity: 1}}}}

	got, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources()})
	require.NoError(t, err)

	assert.Equal(t, "junior", got.Tasks[0].Requirements[0].ResourceID)
	assert.Equal(t, []Binding{{TaskID: "a", ResourceID: "junior", Quantity: 1}}, got.Bindings)
}

func TestGreedySolver_UnknownResource(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 2, Requirements: []models.Requirement{{ResourceID: "ghost", Quantity: 1}}}}

	_, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources()})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrNoSuitableResource))

	var se *types.ScheduleError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "a", se.TaskID)
}

func TestGreedySolver_SkillByCapacity(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 2, Requirements: []models.Requirement{{Skill: "go", Quantity: 1}}}}

	got, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources()})
	require.NoError(t, err)
	assert.Equal(t, "team", got.Tasks[0].Requirements[0].ResourceID)
	assert.Equal(t, "go", got.Bindings[0].Skill)
}

func TestGreedySolver_SkillByCost(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 2, Requirements: []models.Requirement{{Skill: "go", Quantity: 1}}}}

	got, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources(), PreferCheapest: true})
	require.NoError(t, err)
	assert.Equal(t, "junior", got.Tasks[0].Requirements[0].ResourceID)
}

func TestGreedySolver_SpreadsLoadAcrossEqualResources(t *testing.T) {
	res := []models.Resource{
		{ID: "r2", Capacity: 1, Skills: []string{"qa"}},
		{ID: "r1", Capacity: 1, Skills: []string{"qa"}},
	}
	tasks := []models.Task{
		{ID: "b", Duration: 4, Requirements: []models.Requirement{{Skill: "qa", Quantity: 1}}},
		{ID: "a", Duration: 4, Requirements: []models.Requirement{{Skill: "qa", Quantity: 1}}},
	}

	got, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: res})
	require.NoError(t, err)

	// Tasks are resolved in id order: a takes r1 (id tie-break), b takes the less loaded r2.
	assert.Equal(t, "r2", got.Tasks[0].Requirements[0].ResourceID)
	assert.Equal(t, "r1", got.Tasks[1].Requirements[0].ResourceID)
}

func TestGreedySolver_NoSkillHolder(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 1, Requirements: []models.Requirement{{Skill: "rust", Quantity: 1}}}}

	_, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources()})
	assert.True(t, errors.Is(err, types.ErrNoSuitableResource))
}

func TestGreedySolver_InsufficientCapacity(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 1, Requirements: []models.Requirement{{Skill: "sql", Quantity: 2}}}}

	_, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources()})
	assert.True(t, errors.Is(err, types.ErrNoSuitableResource))
}

func TestGreedySolver_DoesNotMutateInput(t *testing.T) {
	tasks := []models.Task{{ID: "a", Duration: 1, Requirements: []models.Requirement{{Skill: "go", Quantity: 1}}}}

	_, err := NewGreedySolver().Solve(context.Background(), Problem{Tasks: tasks, Resources: resources()})
	require.NoError(t, err)
	assert.Empty(t, tasks[0].Requirements[0].ResourceID)
	assert.Equal(t, "go", tasks[0].Requirements[0].Skill)
}

func TestGreedySolver_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewGreedySolver().Solve(ctx, Problem{Tasks: []models.Task{{ID: "a", Duration: 1}}})
	assert.ErrorIs(t, err, context.Canceled)
}
