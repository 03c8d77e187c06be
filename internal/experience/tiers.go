package experience

import (
	"time"

	"github.com/spigell/jd-matcher/internal/profile"
)

// TierRule sets the thresholds for advanced skills.
type TierRule struct {
	// RecencyYears is the largest calendar-year distance between a role's end and now.
	RecencyYears int
	// MinDurationMonths is the shortest role whose skills count as advanced.
	MinDurationMonths int
}

func DefaultTierRule() TierRule {
	return TierRule{RecencyYears: 2, MinDurationMonths: 6}
}

// Qualifies reports whether a role is recent and long enough.
func (r TierRule) Qualifies(e profile.Employment, now time.Time) bool {
	if e.StartDate.IsZero() || e.EndDate.IsZero() {
		return false
	}
	return IsRecent(e.EndDate, r.RecencyYears, now) &&
		abs(profile.MonthIndex(e.StartDate.Resolve(now))-profile.MonthIndex(e.EndDate.Resolve(now))) >= r.MinDurationMonths
}

// IsRecent compares calendar years only: a role ending in any month of
// now.Year()-years still counts.
func IsRecent(end profile.Date, years int, now time.Time) bool {
	if end.IsZero() {
		return false
	}
	return abs(end.Resolve(now).Year()-now.UTC().Year()) <= years
}

// Tiers classifies skills into disjoint deduplicated sets. Advanced skills
// come from qualifying roles, medium from personal projects and basic from
// everything else the candidate lists.
func Tiers(history []profile.Employment, projects []profile.Project, skills []string, rule TierRule, now time.Time) profile.SkillTiers {
	var advanced []string
	for _, e := range history {
		if rule.Qualifies(e, now) {
			advanced = append(advanced, e.SkillsUsedInRole...)
		}
	}
	advanced = profile.Dedupe(advanced)
	inAdvanced := set(advanced)

	var medium []string
	for _, p := range projects {
		for _, s := range p.SkillsUsedInProject {
			if _, ok := inAdvanced[s]; !ok {
				medium = append(medium, s)
			}
		}
	}
	medium = profile.Dedupe(medium)
	inMedium := set(medium)

	all := append([]string(nil), skills...)
	for _, e := range history {
		all = append(all, e.SkillsUsedInRole...)
	}
	for _, p := range projects {
		all = append(all, p.SkillsUsedInProject...)
	}

	var basic []string
	for _, s := range profile.Dedupe(all) {
		_, a := inAdvanced[s]
		_, m := inMedium[s]
		if !a && !m && s != "" {
			basic = append(basic, s)
		}
	}

	return profile.SkillTiers{
		Advanced: nonNil(advanced),
		Medium:   nonNil(medium),
		Basic:    nonNil(basic),
	}
}

func set(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
