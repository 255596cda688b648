package optimizer

import (
	"fmt"

	"github.com/josephgoksu/CostWing/internal/ledger"
)

var guidance = map[Objective][]string{
	MinimizeCost: {
		"Assign lower-cost resources to non-critical tasks",
		"Schedule non-critical tasks within their float to avoid premium overtime",
		"Review high-cost resources on tasks with slack for cheaper substitutes",
	},
	MinimizeDuration: {
		"Add capacity to resources on the critical path",
		"Parallelize independent tasks where capacity allows",
		"Break long critical tasks into smaller units that can overlap",
	},
	BalanceResources: {
		"Shift non-critical tasks to flatten peak resource usage",
		"Cross-train team members to spread load across resources",
		"Keep sustained utilization below the contention threshold",
	},
	MaximizeUtilization: {
		"Fill idle gaps with backlog work for underused resources",
		"Consolidate small tasks onto shared resources",
		"Release resources that stay idle for most of the schedule",
	},
}

func recommendations(objective Objective, conflicts []ledger.Conflict) []string {
	out := append([]string(nil), guidance[objective]...)
	if len(conflicts) > 0 {
		out = append(out, fmt.Sprintf("Resolve %d resource over-allocation window(s) by adding capacity or extending the schedule", len(conflicts)))
	}
	return out
}
