// Package ledger tracks cumulative resource usage per hour for a single
// scheduling run. Reservations only accumulate; nothing is ever released.
package ledger

import (
	"math"
	"slices"
	"sort"
)

// Epsilon absorbs float noise in capacity comparisons.
const Epsilon = 1e-9

// MaxHours is the largest hour offset a ledger can track. Callers must keep
// spans below it; Slots allocates one entry per covered hour.
const MaxHours = 1 << 24

// Window restricts the hours in which a resource carries capacity. Offsets
// are hours from the project start. Until may be +Inf; DailyHours 0 means
// the resource is available around the clock.
type Window struct {
	From       float64 `json:"from"`
	Until      float64 `json:"until"`
	DailyHours float64 `json:"daily_hours,omitempty"`
}

// Always is a window without limits.
func Always() Window {
	return Window{From: 0, Until: math.Inf(1)}
}

func (w Window) open(hour int) bool {
	h := float64(hour)
	if h < w.From-Epsilon || h+1 > w.Until+Epsilon {
		return false
	}
	if w.DailyHours > 0 && float64(hour%24)+1 > w.DailyHours+Epsilon {
		return false
	}
	return true
}

// Resource is the ledger's view of a resource.
type Resource struct {
	ID       string
	Capacity float64
	Window   Window
}

// Slot is one hour overlapped by a span, with the covered fraction.
type Slot struct {
	Hour     int
	Fraction float64
}

// Slots splits [start, end) into hour slots. An integer span yields
// fraction 1 for every hour.
func Slots(start, end float64) []Slot {
	if end <= start {
		return nil
	}
	first := int(math.Floor(start))
	last := int(math.Ceil(end))
	out := make([]Slot, 0, last-first)
	for h := first; h < last; h++ {
		lo := math.Max(start, float64(h))
		hi := math.Min(end, float64(h+1))
		if hi-lo > Epsilon {
			out = append(out, Slot{Hour: h, Fraction: hi - lo})
		}
	}
	return out
}

// Conflict is a maximal run of consecutive hours in which a resource's usage
// exceeds its capacity. EndHour is exclusive.
type Conflict struct {
	ResourceID string  `json:"resource_id"`
	StartHour  int     `json:"start_hour"`
	EndHour    int     `json:"end_hour"`
	PeakUsage  float64 `json:"peak_usage"`
	Capacity   float64 `json:"capacity"`
	Excess     float64 `json:"excess"`
}

// Ledger maps resource id to hour to cumulative allocated quantity.
// It is not safe for concurrent use; every run owns its own ledger.
type Ledger struct {
	resources map[string]Resource
	usage     map[string]map[int]float64
}

// New creates an empty ledger for the given resources.
func New(resources ...Resource) *Ledger {
	l := &Ledger{
		resources: make(map[string]Resource, len(resources)),
		usage:     make(map[string]map[int]float64, len(resources)),
	}
	for _, r := range resources {
		l.resources[r.ID] = r
	}
	return l
}

// Reserve adds quantity to a resource at one hour. Reservations against an
// unknown resource are kept and show up as conflicts (capacity 0).
func (l *Ledger) Reserve(resourceID string, hour int, quantity float64) {
	hours, ok := l.usage[resourceID]
	if !ok {
		hours = make(map[int]float64)
		l.usage[resourceID] = hours
	}
	hours[hour] += quantity
}

// ReserveSpan reserves quantity over [start, end), scaled by how much of
// each hour the span covers.
func (l *Ledger) ReserveSpan(resourceID string, start, end, quantity float64) {
	for _, s := range Slots(start, end) {
		l.Reserve(resourceID, s.Hour, quantity*s.Fraction)
	}
}

// Usage returns the cumulative quantity at an hour.
func (l *Ledger) Usage(resourceID string, hour int) float64 {
	return l.usage[resourceID][hour]
}

// PeakUsage returns the maximum usage over hours [from, to).
func (l *Ledger) PeakUsage(resourceID string, from, to int) float64 {
	var peak float64
	for h, u := range l.usage[resourceID] {
		if h >= from && h < to && u > peak {
			peak = u
		}
	}
	return peak
}

// Peak returns the maximum usage over every reserved hour.
func (l *Ledger) Peak(resourceID string) float64 {
	var peak float64
	for _, u := range l.usage[resourceID] {
		peak = math.Max(peak, u)
	}
	return peak
}

// Capacity returns the nominal capacity of a resource.
func (l *Ledger) Capacity(resourceID string) float64 {
	return l.resources[resourceID].Capacity
}

// CapacityAt returns the capacity available at an hour: the nominal capacity
// inside the availability window and 0 outside it.
func (l *Ledger) CapacityAt(resourceID string, hour int) float64 {
	r, ok := l.resources[resourceID]
	if !ok || hour < 0 || !r.Window.open(hour) {
		return 0
	}
	return r.Capacity
}

// Fits reports whether adding quantity at an hour stays within capacity.
func (l *Ledger) Fits(resourceID string, hour int, quantity float64) bool {
	return l.Usage(resourceID, hour)+quantity <= l.CapacityAt(resourceID, hour)+Epsilon
}

// Resources returns the ids of every resource known to the ledger or
// reserved against, sorted.
func (l *Ledger) Resources() []string {
	ids := make([]string, 0, len(l.resources))
	for id := range l.resources {
		ids = append(ids, id)
	}
	for id := range l.usage {
		if _, ok := l.resources[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Snapshot returns a deep copy of the usage table.
func (l *Ledger) Snapshot() map[string]map[int]float64 {
	out := make(map[string]map[int]float64, len(l.usage))
	for id, hours := range l.usage {
		cp := make(map[int]float64, len(hours))
		for h, u := range hours {
			cp[h] = u
		}
		out[id] = cp
	}
	return out
}

// Rollup groups hours into buckets of the given size and returns the peak
// usage per bucket index. A bucket size of 24 gives the daily view.
func (l *Ledger) Rollup(resourceID string, bucketHours int) map[int]float64 {
	if bucketHours <= 0 {
		bucketHours = 1
	}
	out := make(map[int]float64)
	for h, u := range l.usage[resourceID] {
		b := h / bucketHours
		if h < 0 && h%bucketHours != 0 {
			b--
		}
		if u > out[b] {
			out[b] = u
		}
	}
	return out
}

// Conflicts reports every over-allocated run, sorted by resource then start.
func (l *Ledger) Conflicts() []Conflict {
	var out []Conflict
	for _, id := range l.Resources() {
		hours := make([]int, 0, len(l.usage[id]))
		for h := range l.usage[id] {
			hours = append(hours, h)
		}
		slices.Sort(hours)

		var cur *Conflict
		for _, h := range hours {
			u := l.usage[id][h]
			capAt := l.CapacityAt(id, h)
			if u <= capAt+Epsilon {
				cur = nil
				continue
			}
			if cur != nil && cur.EndHour == h {
				cur.EndHour = h + 1
				if u-capAt > cur.Excess {
					cur.Excess = u - capAt
					cur.Capacity = capAt
				}
				cur.PeakUsage = math.Max(cur.PeakUsage, u)
				continue
			}
			out = append(out, Conflict{
				ResourceID: id,
				StartHour:  h,
				EndHour:    h + 1,
				PeakUsage:  u,
				Capacity:   capAt,
				Excess:     u - capAt,
			})
			cur = &out[len(out)-1]
		}
	}
	return out
}
