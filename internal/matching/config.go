package matching

import (
	"fmt"
	"time"
)

// SkillLevels weighs the core skill tiers.
type SkillLevels struct {
	Advanced float64
	Medium   float64
	Basic    float64
}

// Config tunes the matching graph.
type Config struct {
	// ExperienceMargin widens the required experience band in years on both sides.
	ExperienceMargin float64
	// RecencyYears limits responsibility evidence to roles that ended this recently.
	RecencyYears int
	// RecentJobs caps the number of roles sent for responsibility evaluation.
	RecentJobs          int
	CoreSkillsThreshold float64
	CoreSkillLevels     SkillLevels
	// GreenFlags enables the strong green flags dimension.
	GreenFlags bool
	// SkipAnalysisWhen is an expr-lang condition on the run state. When it
	// holds the run goes straight to scoring with previous results.
	SkipAnalysisWhen string
	Weights          map[string]float64
	Policy           ScoringPolicy
	// Model overrides the evaluator's default model.
	Model       string
	Timeout     time.Duration
	Concurrency int
	Now         func() time.Time
}

func DefaultConfig() Config {
	return Config{
		ExperienceMargin:    2,
		RecencyYears:        2,
		RecentJobs:          2,
		CoreSkillsThreshold: 0.5,
		CoreSkillLevels:     SkillLevels{Advanced: 1, Medium: 0.7, Basic: 0.5},
		SkipAnalysisWhen:    "job?.UpdatedWeights ?? false",
		Weights:             DefaultWeights,
		Policy:              DefaultPolicy(),
		Timeout:             5 * time.Minute,
	}
}

func (c Config) validate() error {
	if c.ExperienceMargin < 0 {
		return fmt.Errorf("experience margin must not be negative, got %v", c.ExperienceMargin)
	}
	if c.RecencyYears < 0 {
		return fmt.Errorf("recency years must not be negative, got %d", c.RecencyYears)
	}
	if c.RecentJobs <= 0 {
		return fmt.Errorf("recent jobs must be positive, got %d", c.RecentJobs)
	}
	if c.CoreSkillsThreshold < 0 || c.CoreSkillsThreshold > 1 {
		return fmt.Errorf("core skills threshold must be within [0,1], got %v", c.CoreSkillsThreshold)
	}
	return nil
}

// dimensions returns the dimensions run by the graph.
func (c Config) dimensions() []string {
	if c.GreenFlags {
		return Dimensions
	}
	out := make([]string, 0, len(Dimensions)-1)
	for _, d := range Dimensions {
		if d != StrongGreenFlags {
			out = append(out, d)
		}
	}
	return out
}
