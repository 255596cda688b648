package ui

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/josephgoksu/CostWing/internal/ledger"
	"github.com/josephgoksu/CostWing/internal/optimizer"
	"github.com/josephgoksu/CostWing/internal/schedule"
	"github.com/josephgoksu/CostWing/models"
)

const timeLayout = "2006-01-02 15:04"

// Hours formats an hour quantity without trailing zeros.
func Hours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

// Money formats a cost with two decimals.
func Money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Percent formats a ratio in [0, 1] as a percentage.
func Percent(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

// RenderSchedule renders the task placements, critical path and conflicts.
func RenderSchedule(res *schedule.Result) string {
	var sb strings.Builder

	t := &Table{
		Headers:    []string{"Task", "Start", "End", "Hours", "Float", "Resources", ""},
		RightAlign: map[int]bool{3: true, 4: true},
		MaxWidth:   40,
	}
	for _, e := range res.Entries {
		var marks []string
		if e.Critical {
			marks = append(marks, "critical")
		}
		if e.Conflicted {
			marks = append(marks, "conflict")
		}
		t.Rows = append(t.Rows, []string{
			e.TaskID,
			e.StartTime.Format(timeLayout),
			e.EndTime.Format(timeLayout),
			Hours(e.Duration),
			Hours(e.Float),
			usageList(e.Resources),
			strings.Join(marks, ","),
		})
	}
	sb.WriteString(t.Render())

	sb.WriteString("\n")
	fmt.Fprintf(&sb, "%s %s\n", StyleTitle.Render("Critical path:"), StyleCritical.Render(strings.Join(res.CriticalPath, " → ")))
	fmt.Fprintf(&sb, "%s %s h (%s → %s)\n", StyleTitle.Render("Duration:"),
		Hours(res.ProjectDuration), res.ProjectStartDate.Format(timeLayout), res.ProjectEndDate.Format(timeLayout))

	if len(res.Conflicts) > 0 {
		sb.WriteString("\n")
		sb.WriteString(RenderConflicts(res.Conflicts))
	}
	return sb.String()
}

// RenderConflicts lists over-allocation windows.
func RenderConflicts(conflicts []ledger.Conflict) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", Icon("⚠", StylePrefixWarn), StyleWarning.Render(fmt.Sprintf("%d resource conflict(s)", len(conflicts))))
	t := &Table{
		Headers:    []string{"Resource", "Hours", "Peak", "Capacity", "Excess"},
		RightAlign: map[int]bool{2: true, 3: true, 4: true},
	}
	for _, c := range conflicts {
		t.Rows = append(t.Rows, []string{
			c.ResourceID,
			fmt.Sprintf("%d–%d", c.StartHour, c.EndHour),
			Hours(c.PeakUsage),
			Hours(c.Capacity),
			Hours(c.Excess),
		})
	}
	sb.WriteString(t.Render())
	return sb.String()
}

// RenderPeaks compares peak utilization before and after smoothing.
func RenderPeaks(original, smoothed map[string]schedule.Peak) string {
	ids := make([]string, 0, len(original))
	for id := range original {
		ids = append(ids, id)
	}
	for id := range smoothed {
		if _, ok := original[id]; !ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	t := &Table{
		Headers:    []string{"Resource", "Capacity", "Leveled peak", "Smoothed peak"},
		RightAlign: map[int]bool{1: true, 2: true, 3: true},
	}
	for _, id := range ids {
		o, s := original[id], smoothed[id]
		capacity := o.Capacity
		if capacity == 0 {
			capacity = s.Capacity
		}
		t.Rows = append(t.Rows, []string{
			id,
			Hours(capacity),
			fmt.Sprintf("%s (%s)", Hours(o.Peak), Percent(o.Utilization)),
			fmt.Sprintf("%s (%s)", Hours(s.Peak), Percent(s.Utilization)),
		})
	}
	return t.Render()
}

// RenderSmoothing renders a smoothing run.
func RenderSmoothing(res *schedule.SmoothResult) string {
	var sb strings.Builder
	sb.WriteString(RenderSchedule(&res.Result))
	sb.WriteString("\n")
	sb.WriteString(StyleSectionTitle.Render("Peak utilization"))
	sb.WriteString("\n")
	sb.WriteString(RenderPeaks(res.OriginalPeaks, res.SmoothedPeaks))
	sb.WriteString("\n")
	summary := fmt.Sprintf("Horizon %d h, threshold %s.", res.Horizon, Percent(res.Threshold))
	switch {
	case res.Reverted:
		sb.WriteString(RenderWarningPanel("Kept leveled schedule", summary+"\nSmoothing raised a peak."))
	case res.Improved:
		sb.WriteString(RenderSuccessPanel("Peaks reduced", summary))
	default:
		sb.WriteString(NewPanel("No peak could be reduced", summary).Render())
	}
	sb.WriteString("\n")
	return sb.String()
}

// RenderOptimization renders the optimizer summary for one objective.
func RenderOptimization(res *optimizer.Result) string {
	var sb strings.Builder

	sb.WriteString(StyleSectionTitle.Render(res.Objective.Title()))
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "  Total cost      %s  (baseline %s)\n", Money(res.TotalCost), Money(res.BaselineCost))
	fmt.Fprintf(&sb, "  Total duration  %s h  (baseline %s h, scheduled %s h)\n",
		Hours(round2(res.TotalDuration)), Hours(res.BaselineDuration), Hours(res.ScheduledDuration))
	sb.WriteString("\n")

	t := &Table{
		Headers:    []string{"Resource", "Utilization", "Peak"},
		RightAlign: map[int]bool{1: true, 2: true},
	}
	ids := make([]string, 0, len(res.ResourceUtilization))
	for id := range res.ResourceUtilization {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		t.Rows = append(t.Rows, []string{id, Percent(res.ResourceUtilization[id]), Percent(res.PeakUtilization[id])})
	}
	sb.WriteString(t.Render())

	if res.Schedule != nil {
		sb.WriteString("\n")
		sb.WriteString(RenderSchedule(res.Schedule))
	}
	if res.Smoothing != nil {
		sb.WriteString("\n")
		sb.WriteString(RenderPeaks(res.Smoothing.OriginalPeaks, res.Smoothing.SmoothedPeaks))
	}
	if len(res.Recommendations) > 0 {
		lines := make([]string, len(res.Recommendations))
		for i, r := range res.Recommendations {
			lines[i] = "• " + r
		}
		sb.WriteString("\n")
		panel := NewPanel("Recommendations", strings.Join(lines, "\n"))
		if len(res.ResourceConflicts) > 0 {
			panel = panel.WithBorderColor(ColorError)
		}
		sb.WriteString(panel.Render())
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderScenarios compares scenario results side by side, base first.
func RenderScenarios(results map[string]*optimizer.Result) string {
	names := make([]string, 0, len(results))
	for name := range results {
		if name != optimizer.BaseScenario {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := results[optimizer.BaseScenario]; ok {
		names = append([]string{optimizer.BaseScenario}, names...)
	}

	t := &Table{
		Headers:    []string{"Scenario", "Cost", "Duration", "Scheduled", "Conflicts"},
		RightAlign: map[int]bool{1: true, 2: true, 3: true, 4: true},
	}
	for _, name := range names {
		r := results[name]
		t.Rows = append(t.Rows, []string{
			name,
			Money(r.TotalCost),
			Hours(round2(r.TotalDuration)),
			Hours(r.ScheduledDuration),
			strconv.Itoa(len(r.ResourceConflicts)),
		})
	}
	return t.Render()
}

// RenderHistory lists stored run records.
func RenderHistory(records []models.Record) string {
	if len(records) == 0 {
		return StyleSubtle.Render("No stored results.") + "\n"
	}
	t := &Table{Headers: []string{"ID", "Kind", "Objective", "Created"}}
	for _, r := range records {
		t.Rows = append(t.Rows, []string{
			shortID(r.ID),
			string(r.Kind),
			r.Objective,
			r.CreatedAt.Local().Format(timeLayout),
		})
	}
	return t.Render()
}

func usageList(us []schedule.Usage) string {
	parts := make([]string, 0, len(us))
	for _, u := range us {
		parts = append(parts, fmt.Sprintf("%s×%s", u.ResourceID, Hours(u.Quantity)))
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
