package schedule

import (
	"math"

	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/models"
)

// LedgerResources converts project resources into ledger resources, turning
// absolute availability instants into hour offsets from the project start.
func LedgerResources(p models.Project) []ledger.Resource {
	out := make([]ledger.Resource, 0, len(p.Resources))
	for _, r := range p.Resources {
		out = append(out, ledger.Resource{ID: r.ID, Capacity: r.Capacity, Window: window(p, r.Availability)})
	}
	return out
}

func window(p models.Project, a *models.Availability) ledger.Window {
	w := ledger.Always()
	if a == nil {
		return w
	}
	if a.Start != nil {
		w.From = math.Max(0, a.Start.Sub(p.StartDate).Hours())
	}
	if a.End != nil {
		w.Until = a.End.Sub(p.StartDate).Hours()
	}
	w.DailyHours = a.DailyHours
	return w
}
