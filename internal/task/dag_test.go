package task

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

func TestVerifyDAG_NoCycle(t *testing.T) {
	// A -> B -> C (linear, no cycle)
	tasks := []models.Task{
		{ID: "task-A", Duration: 1},
		{ID: "task-B", Duration: 1, Dependencies: []string{"task-A"}},
		{ID: "task-C", Duration: 1, Dependencies: []string{"task-B"}},
	}

	if err := VerifyDAG(tasks); err != nil {
		t.Errorf("VerifyDAG() returned error for valid DAG: %v", err)
	}
}

func TestVerifyDAG_WithCycle(t *testing.T) {
	// A -> B -> C -> A (cycle)
	tasks := []models.Task{
		{ID: "task-A", Duration: 1, Dependencies: []string{"task-C"}},
		{ID: "task-B", Duration: 1, Dependencies: []string{"task-A"}},
		{ID: "task-C", Duration: 1, Dependencies: []string{"task-B"}},
	}

	err := VerifyDAG(tasks)
	if err == nil {
		t.Fatal("VerifyDAG() should return error for cycle, got nil")
	}
	if !errors.Is(err, types.ErrInvalidGraph) {
		t.Errorf("expected INVALID_GRAPH, got %v", err)
	}
}

func TestVerifyDAG_TwoTaskCycle(t *testing.T) {
	tasks := []models.Task{
		{ID: "A", Duration: 2, Dependencies: []string{"B"}},
		{ID: "B", Duration: 2, Dependencies: []string{"A"}},
		{ID: "C", Duration: 2},
	}

	err := VerifyDAG(tasks)
	if !errors.Is(err, types.ErrInvalidGraph) {
		t.Fatalf("expected INVALID_GRAPH, got %v", err)
	}

	var se *types.ScheduleError
	if !errors.As(err, &se) {
		t.Fatalf("expected *types.ScheduleError, got %T", err)
	}
	unresolved, _ := se.Details["unresolved"].([]string)
	if len(unresolved) != 2 || unresolved[0] != "A" || unresolved[1] != "B" {
		t.Errorf("expected unresolved [A B], got %v", se.Details["unresolved"])
	}
}

func TestVerifyDAG_SelfDependency(t *testing.T) {
	tasks := []models.Task{{ID: "A", Duration: 1, Dependencies: []string{"A"}}}
	if err := VerifyDAG(tasks); !errors.Is(err, types.ErrInvalidGraph) {
		t.Errorf("expected INVALID_GRAPH for self dependency, got %v", err)
	}
}

func TestVerifyDAG_DanglingDependency(t *testing.T) {
	tasks := []models.Task{{ID: "A", Duration: 1, Dependencies: []string{"ghost"}}}

	err := VerifyDAG(tasks)
	if !errors.Is(err, types.ErrInvalidGraph) {
		t.Fatalf("expected INVALID_GRAPH, got %v", err)
	}
	var se *types.ScheduleError
	if errors.As(err, &se) && se.TaskID != "A" {
		t.Errorf("expected offending task A, got %q", se.TaskID)
	}
}

func TestVerifyDAG_EmptyID(t *testing.T) {
	tasks := []models.Task{{ID: "", Duration: 1}}

	err := VerifyDAG(tasks)
	if !errors.Is(err, types.ErrInvalidInput) {
		t.Errorf("VerifyDAG() should return INVALID_INPUT for empty ID, got %v", err)
	}
}

func TestTopologicalSort_LinearDependencies(t *testing.T) {
	// C depends on B, B depends on A
	// Expected order: A, B, C
	tasks := []models.Task{
		{ID: "task-C", Duration: 1, Dependencies: []string{"task-B"}},
		{ID: "task-A", Duration: 1},
		{ID: "task-B", Duration: 1, Dependencies: []string{"task-A"}},
	}

	sorted, err := TopologicalSort(tasks)
	if err != nil {
		t.Fatalf("TopologicalSort() error: %v", err)
	}

	if len(sorted) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(sorted))
	}
	for i, want := range []string{"task-A", "task-B", "task-C"} {
		if sorted[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, sorted[i].ID)
		}
	}
}

func TestTopologicalSort_DiamondDependencies(t *testing.T) {
	// Diamond: D depends on B and C, B and C both depend on A
	//     A
	//    / \
	//   B   C
	//    \ /
	//     D
	tasks := []models.Task{
		{ID: "task-D", Duration: 1, Dependencies: []string{"task-B", "task-C"}},
		{ID: "task-B", Duration: 1, Dependencies: []string{"task-A"}},
		{ID: "task-C", Duration: 1, Dependencies: []string{"task-A"}},
		{ID: "task-A", Duration: 1},
	}

	sorted, err := TopologicalSort(tasks)
	if err != nil {
		t.Fatalf("TopologicalSort() error: %v", err)
	}

	if len(sorted) != 4 {
		t.Fatalf("Expected 4 tasks, got %d", len(sorted))
	}

	// A must come first, D must come last
	if sorted[0].ID != "task-A" {
		t.Errorf("Expected first task to be A, got %s", sorted[0].ID)
	}
	if sorted[3].ID != "task-D" {
		t.Errorf("Expected last task to be D, got %s", sorted[3].ID)
	}
}

func TestAnalyze_ChainWithParallelTask(t *testing.T) {
	// A(4) -> B(4); C(4) independent. Critical path A,B (8h); C has 4h float.
	tasks := []models.Task{
		{ID: "A", Duration: 4},
		{ID: "B", Duration: 4, Dependencies: []string{"A"}},
		{ID: "C", Duration: 4},
	}

	a, err := Analyze(tasks)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if a.ProjectEnd != 8 {
		t.Errorf("expected project end 8, got %v", a.ProjectEnd)
	}
	assertNode(t, a, "A", 0, 4, 0, 4, true)
	assertNode(t, a, "B", 4, 8, 4, 8, true)
	assertNode(t, a, "C", 0, 4, 4, 8, false)

	c, _ := a.Node("C")
	if c.Float != 4 {
		t.Errorf("expected C float 4, got %v", c.Float)
	}
	if len(a.CriticalPath) != 2 || a.CriticalPath[0] != "A" || a.CriticalPath[1] != "B" {
		t.Errorf("expected critical path [A B], got %v", a.CriticalPath)
	}
}

func TestAnalyze_Diamond(t *testing.T) {
	//   A(2)
	//  /    \
	// B(3)  C(1)
	//  \    /
	//   D(2)
	tasks := []models.Task{
		{ID: "A", Duration: 2},
		{ID: "B", Duration: 3, Dependencies: []string{"A"}},
		{ID: "C", Duration: 1, Dependencies: []string{"A"}},
		{ID: "D", Duration: 2, Dependencies: []string{"B", "C"}},
	}

	a, err := Analyze(tasks)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}

	if a.ProjectEnd != 7 {
		t.Errorf("expected project end 7, got %v", a.ProjectEnd)
	}
	assertNode(t, a, "C", 2, 3, 4, 5, false)
	assertNode(t, a, "D", 5, 7, 5, 7, true)
	if got := a.Tail(a.index["C"]); got != 2 {
		t.Errorf("expected C tail 2, got %v", got)
	}
}

func TestAnalyze_FractionalDurationsWithinTolerance(t *testing.T) {
	tasks := []models.Task{
		{ID: "A", Duration: 0.1},
		{ID: "B", Duration: 0.2, Dependencies: []string{"A"}},
		{ID: "C", Duration: 0.3},
	}

	a, err := Analyze(tasks)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	// 0.1 + 0.2 is not exactly 0.3 in floating point; all three must still be critical.
	if len(a.CriticalPath) != 3 {
		t.Errorf("expected all tasks critical, got %v", a.CriticalPath)
	}
}

func TestAnalyze_DuplicateDependencyCollapsed(t *testing.T) {
	tasks := []models.Task{
		{ID: "A", Duration: 1},
		{ID: "B", Duration: 1, Dependencies: []string{"A", "A"}},
	}
	a, err := Analyze(tasks)
	if err != nil {
		t.Fatalf("Analyze() error: %v", err)
	}
	b, _ := a.Node("B")
	if len(b.Preds) != 1 {
		t.Errorf("expected 1 predecessor, got %d", len(b.Preds))
	}
}

func TestAnalyze_PropertiesAndDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 25; round++ {
		n := 3 + rng.Intn(12)
		tasks := make([]models.Task, n)
		for i := range tasks {
			tasks[i] = models.Task{ID: string(rune('a' + i)), Duration: float64(1 + rng.Intn(8))}
			// Only depend on lower indexes so the graph stays acyclic.
			for j := 0; j < i; j++ {
				if rng.Float64() < 0.25 {
					tasks[i].Dependencies = append(tasks[i].Dependencies, tasks[j].ID)
				}
			}
		}

		a, err := Analyze(tasks)
		if err != nil {
			t.Fatalf("round %d: Analyze() error: %v", round, err)
		}

		for _, node := range a.Nodes {
			if node.EarliestStart > node.LatestStart+FloatTolerance {
				t.Errorf("round %d: %s has ES %v > LS %v", round, node.ID, node.EarliestStart, node.LatestStart)
			}
			if node.Float < 0 {
				t.Errorf("round %d: %s has negative float %v", round, node.ID, node.Float)
			}
			if node.Critical && math.Abs(node.Float) > FloatTolerance {
				t.Errorf("round %d: critical %s has float %v", round, node.ID, node.Float)
			}
		}

		shuffled := append([]models.Task(nil), tasks...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		b, err := Analyze(shuffled)
		if err != nil {
			t.Fatalf("round %d: Analyze(shuffled) error: %v", round, err)
		}
		if len(a.CriticalPath) != len(b.CriticalPath) {
			t.Fatalf("round %d: critical path differs by input order: %v vs %v", round, a.CriticalPath, b.CriticalPath)
		}
		for i := range a.CriticalPath {
			if a.CriticalPath[i] != b.CriticalPath[i] {
				t.Fatalf("round %d: critical path differs by input order: %v vs %v", round, a.CriticalPath, b.CriticalPath)
			}
		}
		for _, node := range a.Nodes {
			other, _ := b.Node(node.ID)
			if other.EarliestStart != node.EarliestStart || other.LatestStart != node.LatestStart {
				t.Errorf("round %d: %s times differ by input order", round, node.ID)
			}
		}
	}
}

func assertNode(t *testing.T, a *Analysis, id string, es, ef, ls, lf float64, critical bool) {
	t.Helper()
	n, ok := a.Node(id)
	if !ok {
		t.Fatalf("node %s not found", id)
	}
	if n.EarliestStart != es || n.EarliestFinish != ef || n.LatestStart != ls || n.LatestFinish != lf {
		t.Errorf("%s: got ES=%v EF=%v LS=%v LF=%v, want ES=%v EF=%v LS=%v LF=%v",
			id, n.EarliestStart, n.EarliestFinish, n.LatestStart, n.LatestFinish, es, ef, ls, lf)
	}
	if n.Critical != critical {
		t.Errorf("%s: critical = %v, want %v", id, n.Critical, critical)
	}
}
