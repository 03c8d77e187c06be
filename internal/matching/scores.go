package matching

import "math"

// CoreSkillsScore is the tier-weighted share of core skills the candidate holds.
func CoreSkillsScore(levels SkillLevels, advanced, medium, basic, lagging int) float64 {
	total := advanced + medium + basic + lagging
	if total == 0 {
		return 0
	}
	raw := float64(advanced)*levels.Advanced + float64(medium)*levels.Medium + float64(basic)*levels.Basic
	return raw / float64(total)
}

// MandatorySkillsScore is the share of mandatory skills present. A skill list
// that the evaluator left empty never passes.
func MandatorySkillsScore(matched, lagging int) (float64, bool) {
	total := matched + lagging
	if total == 0 {
		return 0, false
	}
	score := float64(matched) / float64(total)
	return score, score == 1
}

// ShareScore is matched over matched plus lagging, 0 for an empty split.
func ShareScore(matched, lagging int) float64 {
	total := matched + lagging
	if total == 0 {
		return 0
	}
	return float64(matched) / float64(total)
}

// ExperienceBand scores tenure against a required range widened by margin.
type ExperienceBand struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Lagging float64 `json:"laggingExperience"`
	Leading float64 `json:"leadingExperience"`
	Score   float64 `json:"score"`
}

func ScoreExperience(min, max, margin, tenure float64) ExperienceBand {
	band := ExperienceBand{
		Min: math.Max(0, min-margin),
		Max: math.Max(0, max+margin),
	}
	band.Lagging = math.Max(0, band.Min-tenure)
	band.Leading = math.Max(0, tenure-band.Max)
	if tenure >= band.Min && tenure <= band.Max {
		band.Score = 1
	}
	return band
}

// MeanConfidence averages per-responsibility confidence, 0 for none.
func MeanConfidence(matches []ResponsibilityMatch) float64 {
	if len(matches) == 0 {
		return 0
	}
	sum := 0.0
	for _, m := range matches {
		sum += m.ConfidenceScore
	}
	return sum / float64(len(matches))
}
