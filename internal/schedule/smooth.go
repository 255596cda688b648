package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/internal/task"
	"github.com/josephgoksu/CostWing/models"
	"github.com/josephgoksu/CostWing/types"
)

// DefaultThreshold is the share of capacity above which usage counts as contention.
const DefaultThreshold = 0.7

// SmoothOptions configures a smoothing run.
type SmoothOptions struct {
	// Threshold is the utilization above which usage is penalised. Zero means DefaultThreshold.
	Threshold float64
	// ExtraHours widens the horizon beyond the leveled project duration.
	ExtraHours int
	Logger     *slog.Logger
}

// SmoothResult is a smoothed schedule plus the peak comparison against the
// leveled schedule it started from.
type SmoothResult struct {
	Result
	OriginalPeaks map[string]Peak `json:"original_peaks"`
	SmoothedPeaks map[string]Peak `json:"smoothed_peaks"`
	Threshold     float64         `json:"threshold"`
	Horizon       int             `json:"horizon"`
	// Improved is true when at least one resource peak went down.
	Improved bool `json:"improved"`
	// Reverted is true when the search raised a peak and the leveled
	// schedule was kept instead.
	Reverted bool `json:"reverted,omitempty"`
}

// score orders smoothing candidates lexicographically.
type score struct {
	overflow   float64
	contention float64
}

func (s score) less(o score) bool {
	if math.Abs(s.overflow-o.overflow) > ledger.Epsilon {
		return s.overflow < o.overflow
	}
	return s.contention < o.contention-ledger.Epsilon
}

// Smooth re-places every task over a horizon of the leveled duration (rounded
// up to whole hours) plus opts.ExtraHours, minimising usage above the
// threshold. Original float does not bound the search, but dependencies do:
// a task never starts before its predecessors end, and never so late that its
// longest successor chain would overrun the horizon.
//
// No resource ever ends up with a higher peak utilization than in leveled:
// if the search would raise one, the leveled placement is returned.
func Smooth(ctx context.Context, p models.Project, a *task.Analysis, leveled *Result, opts SmoothOptions) (*SmoothResult, error) {
	if err := validateInput(p, a); err != nil {
		return nil, err
	}
	if leveled == nil || leveled.Ledger == nil {
		return nil, types.NewInvalidInputError("smoothing needs a leveled schedule", nil)
	}
	if opts.ExtraHours < 0 || opts.ExtraHours > ledger.MaxHours {
		return nil, types.NewInvalidInputError(fmt.Sprintf("extra hours must be within [0, %d]", ledger.MaxHours),
			map[string]interface{}{"extra_hours": opts.ExtraHours})
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, types.NewInvalidInputError("threshold must be within (0, 1]", map[string]interface{}{"threshold": threshold})
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	horizon := int(math.Ceil(leveled.ProjectDuration-task.FloatTolerance)) + opts.ExtraHours
	if horizon > ledger.MaxHours {
		return nil, types.NewInvalidInputError(fmt.Sprintf("smoothing horizon of %d hours exceeds %d", horizon, ledger.MaxHours),
			map[string]interface{}{"horizon": horizon})
	}
	l := ledger.New(LedgerResources(p)...)

	placed, err := serial(ctx, a, func(ctx context.Context, n *task.Node, ready float64) (float64, bool, error) {
		use := demand(p.Tasks[n.Index])
		lo := ready
		hi := math.Max(lo, float64(horizon)-a.Tail(n.Index)-n.Duration)

		best := lo
		var bestScore score
		first := true
		for c, k := lo, 0; c <= hi+task.FloatTolerance; c, k = c+1, k+1 {
			if err := checkCandidate(ctx, k); err != nil {
				return 0, false, err
			}
			start := math.Min(c, hi)
			s := contention(l, use, start, start+n.Duration, threshold)
			if first || s.less(bestScore) {
				best, bestScore, first = start, s, false
			}
		}
		commit(l, use, best, best+n.Duration)
		log.Debug("task smoothed", "task", n.ID, "start", best, "overflow", bestScore.overflow, "contention", bestScore.contention)
		return best, bestScore.overflow > ledger.Epsilon, nil
	})
	if err != nil {
		return nil, err
	}

	original := Peaks(leveled.Ledger)
	smoothed := build(p, a, placed, l, log)
	smoothedPeaks := Peaks(l)

	out := &SmoothResult{
		OriginalPeaks: original,
		Threshold:     threshold,
		Horizon:       horizon,
	}
	for id, sp := range smoothedPeaks {
		if op, ok := original[id]; !ok || sp.Utilization > op.Utilization+ledger.Epsilon {
			log.Info("smoothing raised a resource peak, keeping leveled schedule", "resource", id,
				"leveled", original[id].Utilization, "smoothed", sp.Utilization)
			out.Result = *leveled
			out.SmoothedPeaks = original
			out.Reverted = true
			return out, nil
		}
	}

	out.Result = *smoothed
	out.SmoothedPeaks = smoothedPeaks
	for id, op := range original {
		if smoothedPeaks[id].Utilization < op.Utilization-ledger.Epsilon {
			out.Improved = true
			break
		}
	}
	return out, nil
}

// contention scores a candidate: hours over capacity first, then usage
// above threshold×capacity, both weighted by the covered fraction of each hour.
func contention(l *ledger.Ledger, use []Usage, start, end, threshold float64) score {
	var s score
	slots := ledger.Slots(start, end)
	for _, u := range use {
		capacity := l.Capacity(u.ResourceID)
		for _, sl := range slots {
			after := l.Usage(u.ResourceID, sl.Hour) + u.Quantity*sl.Fraction
			if over := after - l.CapacityAt(u.ResourceID, sl.Hour); over > ledger.Epsilon {
				s.overflow += over * sl.Fraction
			}
			if above := after - threshold*capacity; above > 0 {
				s.contention += above * sl.Fraction
			}
		}
	}
	return s
}
