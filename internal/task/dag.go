package task

import (
	"fmt"
	"math"
	"sort"

	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// FloatTolerance is the slack below which a task is considered critical.
const FloatTolerance = 1e-3

// Node holds the computed CPM times for one task. Nodes live in an arena
// indexed by the task's position in the input slice.
type Node struct {
	Index    int
	ID       string
	Duration float64
	Priority models.Priority
	Preds    []int
	Succs    []int

	EarliestStart  float64
	EarliestFinish float64
	LatestStart    float64
	LatestFinish   float64
	Float          float64
	Critical       bool
}

// Analysis is the result of a forward and backward pass over a task graph.
type Analysis struct {
	Nodes        []Node
	Order        []int // topological order, ties broken by task id
	ProjectEnd   float64
	CriticalPath []string

	index map[string]int
}

// Node returns the node for a task id.
func (a *Analysis) Node(id string) (*Node, bool) {
	i, ok := a.index[id]
	if !ok {
		return nil, false
	}
	return &a.Nodes[i], true
}

// Tail returns the length of the longest successor chain after the task
// finishes, i.e. how much of the project remains once it is done.
func (a *Analysis) Tail(i int) float64 {
	return a.ProjectEnd - a.Nodes[i].LatestFinish
}

// Analyze builds the dependency graph and computes earliest/latest times,
// float and the critical path. The result does not depend on input ordering.
func Analyze(tasks []models.Task) (*Analysis, error) {
	a := &Analysis{
		Nodes: make([]Node, len(tasks)),
		index: make(map[string]int, len(tasks)),
	}

	for i, t := range tasks {
		if t.ID == "" {
			return nil, types.NewInvalidInputError("task ID cannot be empty", map[string]interface{}{"index": i})
		}
		if _, dup := a.index[t.ID]; dup {
			return nil, types.NewInvalidInputError(fmt.Sprintf("duplicate task id %q", t.ID), nil)
		}
		a.index[t.ID] = i
		a.Nodes[i] = Node{Index: i, ID: t.ID, Duration: t.Duration, Priority: t.Priority}
	}

	for i, t := range tasks {
		seen := make(map[int]bool, len(t.Dependencies))
		for _, depID := range t.Dependencies {
			j, ok := a.index[depID]
			if !ok {
				return nil, types.NewInvalidGraphError(t.ID,
					fmt.Sprintf("dependency %q does not exist", depID),
					map[string]interface{}{"dependency": depID})
			}
			if seen[j] {
				continue
			}
			seen[j] = true
			a.Nodes[i].Preds = append(a.Nodes[i].Preds, j)
			a.Nodes[j].Succs = append(a.Nodes[j].Succs, i)
		}
	}
	for i := range a.Nodes {
		a.sortByID(a.Nodes[i].Preds)
		a.sortByID(a.Nodes[i].Succs)
	}

	order, err := a.topoSort()
	if err != nil {
		return nil, err
	}
	a.Order = order

	// Forward pass
	for _, i := range order {
		n := &a.Nodes[i]
		es := 0.0
		for _, p := range n.Preds {
			es = math.Max(es, a.Nodes[p].EarliestFinish)
		}
		n.EarliestStart = es
		n.EarliestFinish = es + n.Duration
		a.ProjectEnd = math.Max(a.ProjectEnd, n.EarliestFinish)
	}

	// Backward pass
	for k := len(order) - 1; k >= 0; k-- {
		n := &a.Nodes[order[k]]
		lf := a.ProjectEnd
		for _, s := range n.Succs {
			lf = math.Min(lf, a.Nodes[s].LatestStart)
		}
		n.LatestFinish = lf
		n.LatestStart = lf - n.Duration

		n.Float = n.LatestStart - n.EarliestStart
		if math.Abs(n.Float) <= FloatTolerance {
			n.Float = 0
			n.Critical = true
		}
	}

	for _, i := range order {
		if a.Nodes[i].Critical {
			a.CriticalPath = append(a.CriticalPath, a.Nodes[i].ID)
		}
	}

	return a, nil
}

// topoSort runs Kahn's algorithm over an explicit worklist. Tasks still
// unresolved once the worklist drains are on, or behind, a cycle.
func (a *Analysis) topoSort() ([]int, error) {
	inDegree := make([]int, len(a.Nodes))
	var ready []int
	for i, n := range a.Nodes {
		inDegree[i] = len(n.Preds)
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	a.sortByID(ready)

	order := make([]int, 0, len(a.Nodes))
	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]
		order = append(order, i)

		var released []int
		for _, s := range a.Nodes[i].Succs {
			inDegree[s]--
			if inDegree[s] == 0 {
				released = append(released, s)
			}
		}
		if len(released) > 0 {
			ready = append(ready, released...)
			a.sortByID(ready)
		}
	}

	if len(order) != len(a.Nodes) {
		var unresolved []string
		for i, d := range inDegree {
			if d > 0 {
				unresolved = append(unresolved, a.Nodes[i].ID)
			}
		}
		sort.Strings(unresolved)
		return nil, types.NewInvalidGraphError(unresolved[0],
			fmt.Sprintf("cycle detected: %d of %d tasks unresolved %v", len(unresolved), len(a.Nodes), unresolved),
			map[string]interface{}{"unresolved": unresolved})
	}
	return order, nil
}

func (a *Analysis) sortByID(idx []int) {
	sort.Slice(idx, func(x, y int) bool { return a.Nodes[idx[x]].ID < a.Nodes[idx[y]].ID })
}

// VerifyDAG checks that the tasks form a valid Directed Acyclic Graph with
// every dependency present in the set.
func VerifyDAG(tasks []models.Task) error {
	_, err := Analyze(tasks)
	return err
}

// TopologicalSort returns tasks in dependency order (dependencies first).
// Returns an INVALID_GRAPH error if a cycle or dangling dependency is found.
func TopologicalSort(tasks []models.Task) ([]models.Task, error) {
	a, err := Analyze(tasks)
	if err != nil {
		return nil, err
	}
	sorted := make([]models.Task, 0, len(tasks))
	for _, i := range a.Order {
		sorted = append(sorted, tasks[i])
	}
	return sorted, nil
}
