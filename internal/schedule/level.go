package schedule

import (
	"context"
	"log/slog"
	"math"

	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/internal/task"
	"github.com/josephgoksu/CostWing/models"
)

// Options configures a leveling run.
type Options struct {
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Level schedules every task inside its float window. Candidate starts are
// whole hours from the earliest feasible instant up to the latest start; the
// winner is the conflict-free candidate with the lowest peak utilization,
// ties going to the earliest. When no candidate fits, the task is placed at
// its earliest feasible instant and the over-allocation is reported.
//
// The project's tasks must already have every requirement bound to a
// resource id, and a must come from task.Analyze on those same tasks.
func Level(ctx context.Context, p models.Project, a *task.Analysis, opts Options) (*Result, error) {
	if err := validateInput(p, a); err != nil {
		return nil, err
	}
	log := opts.logger()
	l := ledger.New(LedgerResources(p)...)

	placed, err := serial(ctx, a, func(ctx context.Context, n *task.Node, ready float64) (float64, bool, error) {
		use := demand(p.Tasks[n.Index])
		lo := math.Max(n.EarliestStart, ready)
		hi := math.Max(lo, n.LatestStart)

		best, bestPeak := -1.0, math.Inf(1)
		for c, k := lo, 0; c <= hi+task.FloatTolerance; c, k = c+1, k+1 {
			if err := checkCandidate(ctx, k); err != nil {
				return 0, false, err
			}
			start := math.Min(c, hi)
			peak, ok := peakIfPlaced(l, use, start, start+n.Duration)
			if !ok {
				continue
			}
			if peak < bestPeak-ledger.Epsilon {
				best, bestPeak = start, peak
			}
		}

		if best < 0 {
			log.Warn("no conflict-free slot within float", "task", n.ID, "earliest", lo, "latest", hi)
			commit(l, use, lo, lo+n.Duration)
			return lo, true, nil
		}
		log.Debug("task leveled", "task", n.ID, "start", best, "peak_utilization", bestPeak)
		commit(l, use, best, best+n.Duration)
		return best, false, nil
	})
	if err != nil {
		return nil, err
	}

	return build(p, a, placed, l, log), nil
}

// peakIfPlaced simulates the reservation and returns the highest resulting
// usage/capacity ratio across the task's resources. ok is false when any
// hour would exceed the capacity available at that hour.
func peakIfPlaced(l *ledger.Ledger, use []Usage, start, end float64) (peak float64, ok bool) {
	slots := ledger.Slots(start, end)
	for _, u := range use {
		capacity := l.Capacity(u.ResourceID)
		for _, s := range slots {
			add := u.Quantity * s.Fraction
			if !l.Fits(u.ResourceID, s.Hour, add) {
				return 0, false
			}
			if capacity > 0 {
				peak = math.Max(peak, (l.Usage(u.ResourceID, s.Hour)+add)/capacity)
			}
		}
	}
	return peak, true
}
