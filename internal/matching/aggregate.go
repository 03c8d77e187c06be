package matching

import (
	"fmt"
	"slices"
	"strings"
)

// DefaultWeights is the system weight table. Skill weights add up to 60.
var DefaultWeights = map[string]float64{
	JobTitle:                  10,
	PrimaryResponsibilities:   25,
	EducationalQualifications: 5,
	CoreSkills:                40,
	GoodToHaveSkills:          20,
}

// CompositeResult is the final score of one match. The zero value is the
// degraded result of a failed aggregation.
type CompositeResult struct {
	NodeScores      map[string]float64 `json:"nodeScores,omitempty"`
	TotalScore      float64            `json:"totalScore"`
	TotalWeightSum  float64            `json:"totalWeightSum"`
	NormalizedScore float64            `json:"normalizedScore"`
	Checks          map[string]bool    `json:"checks,omitempty"`
}

// IsEmpty reports a degraded result.
func (c CompositeResult) IsEmpty() bool {
	return c.NodeScores == nil && c.Checks == nil
}

// ScoringPolicy decides how each dimension enters the composite.
type ScoringPolicy struct {
	// Gating dimensions only record their passed flag.
	Gating []string
	// GatingWeighted dimensions record their passed flag and are weighted.
	GatingWeighted []string
	// Excluded dimensions are ignored.
	Excluded []string
}

// DefaultPolicy gates on experience and mandatory skills, double-counts core
// skills and leaves the flag dimensions out.
func DefaultPolicy() ScoringPolicy {
	return ScoringPolicy{
		Gating:         []string{WorkExperience, MandatorySkills},
		GatingWeighted: []string{CoreSkills},
		Excluded:       []string{RedFlags, StrongGreenFlags},
	}
}

// AggregationError reports a results map that cannot be scored.
type AggregationError struct {
	Dimension string
	Reason    string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregate %s: %s", e.Dimension, e.Reason)
}

// Aggregate combines the results of dimensions into a CompositeResult.
// weights must already contain job overrides.
func Aggregate(results map[string]Result, dimensions []string, weights map[string]float64, policy ScoringPolicy) (CompositeResult, error) {
	out := CompositeResult{
		NodeScores: map[string]float64{},
		Checks:     map[string]bool{},
	}

	for _, dim := range dimensions {
		if slices.Contains(policy.Excluded, dim) {
			continue
		}

		res, ok := results[dim]
		if !ok {
			return CompositeResult{}, &AggregationError{Dimension: dim, Reason: "result is missing"}
		}

		gating := slices.Contains(policy.Gating, dim)
		if gating || slices.Contains(policy.GatingWeighted, dim) {
			out.Checks[dim] = res.Passed != nil && *res.Passed
		}
		if gating {
			continue
		}

		value, ok := res.Value()
		if !ok {
			return CompositeResult{}, &AggregationError{Dimension: dim, Reason: "neither score nor confidence is set"}
		}
		weight, ok := weights[dim]
		switch {
		case !ok:
			return CompositeResult{}, &AggregationError{Dimension: dim, Reason: "no weight configured"}
		case weight < 0:
			return CompositeResult{}, &AggregationError{Dimension: dim, Reason: fmt.Sprintf("negative weight %v", weight)}
		}

		weighted := weight * value
		out.NodeScores[dim] = weighted
		out.TotalScore += weighted
		out.TotalWeightSum += weight
	}

	if out.TotalWeightSum > 0 {
		out.NormalizedScore = out.TotalScore / out.TotalWeightSum
	}
	return out, nil
}

// NormalizeWeights maps weight keys onto dimension names ignoring case.
// Configuration loaders lowercase map keys.
func NormalizeWeights(raw map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for key, w := range raw {
		dim, ok := lookupDimension(key)
		if !ok {
			return nil, fmt.Errorf("unknown dimension %q in weights", key)
		}
		if w < 0 {
			return nil, fmt.Errorf("weight for %s must not be negative, got %v", dim, w)
		}
		out[dim] = w
	}
	return out, nil
}

// ResolveWeights overlays job overrides on the base table.
func ResolveWeights(base, overrides map[string]float64) (map[string]float64, error) {
	out := make(map[string]float64, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	normalized, err := NormalizeWeights(overrides)
	if err != nil {
		return nil, err
	}
	for k, v := range normalized {
		out[k] = v
	}
	return out, nil
}

func lookupDimension(key string) (string, bool) {
	key = strings.TrimSpace(key)
	for _, dim := range Dimensions {
		if strings.EqualFold(dim, key) {
			return dim, true
		}
	}
	return "", false
}
