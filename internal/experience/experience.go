// Package experience derives tenure and skill tiers from employment history.
// Everything here is pure: "now" is always passed in.
package experience

import (
	"sort"
	"time"

	"github.com/spigell/jd-matcher/internal/profile"
)

// DefaultGapToleranceMonths is the largest gap still treated as contiguous employment.
const DefaultGapToleranceMonths = 3

// Interval is one employment period. End may be the current marker.
type Interval struct {
	Start profile.Date
	End   profile.Date
}

// Intervals extracts the employment periods of a history.
func Intervals(history []profile.Employment) []Interval {
	out := make([]Interval, 0, len(history))
	for _, e := range history {
		out = append(out, Interval{Start: e.StartDate, End: e.EndDate})
	}
	return out
}

// TotalMonths sums tenure over intervals sorted by start date. An interval
// starting more than gapTolerance months after the previous end counts its
// own span; otherwise it extends the previous one and counts the months from
// the previous end to its own end, which is negative for an interval that
// ends before the previous one. Intervals without a start or end are ignored.
func TotalMonths(intervals []Interval, gapTolerance int, now time.Time) int {
	sorted := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Start.IsZero() || iv.End.IsZero() {
			continue
		}
		sorted = append(sorted, iv)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start.Resolve(now).Before(sorted[j].Start.Resolve(now))
	})

	total := 0
	var prevEnd *time.Time
	for _, iv := range sorted {
		start := iv.Start.Resolve(now)
		end := iv.End.Resolve(now)

		if prevEnd == nil || profile.MonthsBetween(*prevEnd, start) > gapTolerance {
			total += profile.MonthsBetween(start, end)
		} else {
			total += profile.MonthsBetween(*prevEnd, end)
		}
		prevEnd = &end
	}
	return total
}

// Calculate returns the total tenure of a history.
func Calculate(history []profile.Employment, gapTolerance int, now time.Time) profile.Tenure {
	return profile.TenureFromMonths(TotalMonths(Intervals(history), gapTolerance, now))
}
