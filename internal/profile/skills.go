package profile

import (
	"regexp"
	"strings"
)

var (
	skillStrip = regexp.MustCompile(`[^a-z0-9\s]`)
	skillSpace = regexp.MustCompile(`\s+`)
)

// CleanSkill normalizes a skill name: lowercase, alphanumerics only,
// whitespace runs joined with underscores.
func CleanSkill(skill string) string {
	s := strings.ToLower(skill)
	s = skillStrip.ReplaceAllString(s, "")
	return skillSpace.ReplaceAllString(s, "_")
}

// CleanSkills applies CleanSkill to every entry and drops empty results.
func CleanSkills(skills []string) []string {
	if skills == nil {
		return nil
	}
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if c := CleanSkill(s); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// Dedupe keeps the first occurrence of every value, preserving order.
func Dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
