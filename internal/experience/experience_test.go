package experience

import (
	"slices"
	"testing"
	"time"

	"github.com/spigell/jd-matcher/internal/profile"
)

var now = time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

func iv(start, end string) Interval {
	return Interval{Start: profile.MustDate(start), End: profile.MustDate(end)}
}

func TestTotalMonthsContiguousMatchesSingleInterval(t *testing.T) {
	split := TotalMonths([]Interval{iv("2020-01", "2020-06"), iv("2020-07", "2021-01")}, DefaultGapToleranceMonths, now)
	single := TotalMonths([]Interval{iv("2020-01", "2021-01")}, DefaultGapToleranceMonths, now)

	if single != 12 {
		t.Fatalf("expected single interval to span 12 months, got %d", single)
	}
	if split != single {
		t.Fatalf("contiguous intervals gave %d months, single interval %d", split, single)
	}
}

func TestTotalMonthsLargeGapIsNotMerged(t *testing.T) {
	got := TotalMonths([]Interval{iv("2022-01", "2022-06"), iv("2018-01", "2018-06")}, DefaultGapToleranceMonths, now)
	if got != 10 {
		t.Fatalf("expected 5+5=10 months, got %d", got)
	}
}

func TestTotalMonthsOverlapCountsExtensionOnly(t *testing.T) {
	got := TotalMonths([]Interval{iv("2019-01", "2020-01"), iv("2019-06", "2020-07")}, DefaultGapToleranceMonths, now)
	if got != 18 {
		t.Fatalf("expected 12+6=18 months, got %d", got)
	}
}

func TestTotalMonthsNestedIntervalIsNotCollapsed(t *testing.T) {
	// the nested role ends 6 months before the outer one and subtracts them
	got := TotalMonths([]Interval{iv("2018-01", "2020-01"), iv("2018-03", "2019-07")}, DefaultGapToleranceMonths, now)
	if got != 24-6 {
		t.Fatalf("expected 18 months, got %d", got)
	}
}

func TestTotalMonthsCurrentResolvesToNow(t *testing.T) {
	got := TotalMonths([]Interval{{Start: profile.MustDate("2024-06-01"), End: profile.Current()}}, DefaultGapToleranceMonths, now)
	if got != 12 {
		t.Fatalf("expected 12 months until now, got %d", got)
	}
}

func TestTotalMonthsSkipsUndated(t *testing.T) {
	got := TotalMonths([]Interval{{End: profile.MustDate("2020-01")}, iv("2021-01", "2021-04")}, DefaultGapToleranceMonths, now)
	if got != 3 {
		t.Fatalf("expected undated interval to be skipped, got %d", got)
	}
	if TotalMonths(nil, DefaultGapToleranceMonths, now) != 0 {
		t.Fatalf("expected zero for empty history")
	}
}

func TestCalculate(t *testing.T) {
	history := []profile.Employment{
		{StartDate: profile.MustDate("2019-01-01"), EndDate: profile.MustDate("2021-07-01")},
	}
	got := Calculate(history, DefaultGapToleranceMonths, now)
	if got != (profile.Tenure{Years: 2, Months: 6}) {
		t.Fatalf("unexpected tenure %+v", got)
	}
}

func TestTiers(t *testing.T) {
	history := []profile.Employment{
		{
			StartDate:        profile.MustDate("2022-01-01"),
			EndDate:          profile.Current(),
			SkillsUsedInRole: []string{"go", "postgres", "go"},
		},
		{
			// too old
			StartDate:        profile.MustDate("2015-01-01"),
			EndDate:          profile.MustDate("2018-01-01"),
			SkillsUsedInRole: []string{"java"},
		},
		{
			// recent but too short
			StartDate:        profile.MustDate("2024-01-01"),
			EndDate:          profile.MustDate("2024-03-01"),
			SkillsUsedInRole: []string{"rust"},
		},
	}
	projects := []profile.Project{
		{SkillsUsedInProject: []string{"react", "go", "react"}},
	}
	skills := []string{"docker", "go", "java"}

	tiers := Tiers(history, projects, skills, DefaultTierRule(), now)

	if !slices.Equal(tiers.Advanced, []string{"go", "postgres"}) {
		t.Fatalf("unexpected advanced: %v", tiers.Advanced)
	}
	if !slices.Equal(tiers.Medium, []string{"react"}) {
		t.Fatalf("unexpected medium: %v", tiers.Medium)
	}
	if !slices.Equal(tiers.Basic, []string{"docker", "java", "rust"}) {
		t.Fatalf("unexpected basic: %v", tiers.Basic)
	}
}

func TestTiersAreDisjoint(t *testing.T) {
	history := []profile.Employment{{
		StartDate:        profile.MustDate("2023-01-01"),
		EndDate:          profile.MustDate("2024-01-01"),
		SkillsUsedInRole: []string{"a", "b"},
	}}
	projects := []profile.Project{{SkillsUsedInProject: []string{"b", "c"}}}
	tiers := Tiers(history, projects, []string{"a", "c", "d"}, DefaultTierRule(), now)

	seen := map[string]int{}
	for _, tier := range [][]string{tiers.Advanced, tiers.Medium, tiers.Basic} {
		for _, s := range tier {
			seen[s]++
		}
	}
	for s, n := range seen {
		if n != 1 {
			t.Fatalf("skill %q appears in %d tiers", s, n)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 distinct skills, got %v", seen)
	}
}

func TestIsRecentUsesCalendarYears(t *testing.T) {
	if !IsRecent(profile.MustDate("2023-01-01"), 2, now) {
		t.Fatalf("2023 should be within 2 years of 2025")
	}
	if IsRecent(profile.MustDate("2022-12-31"), 2, now) {
		t.Fatalf("2022 should be outside 2 years of 2025")
	}
}
