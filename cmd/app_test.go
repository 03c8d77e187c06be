package cmd

import (
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/matching"
)

func TestGetConfigDefaults(t *testing.T) {
	config, err := getConfig()
	if err != nil {
		t.Fatalf("getConfig: %v", err)
	}

	if config.AI.Provider != providerOpenAI {
		t.Fatalf("expected default provider %s, got %q", providerOpenAI, config.AI.Provider)
	}
	if config.Batch.Limit != 5 || config.Redis.Prefix != "jdm" {
		t.Fatalf("unexpected batch/redis defaults: %+v %+v", config.Batch, config.Redis)
	}
	if config.Matching.Timeout != 5*time.Minute {
		t.Fatalf("expected 5m matching timeout, got %s", config.Matching.Timeout)
	}
	if len(config.Extraction.Models) != 2 {
		t.Fatalf("expected two fallback models, got %v", config.Extraction.Models)
	}
}

func TestMatchingConfigOverlaysWeights(t *testing.T) {
	a := &application{
		config: &Config{Matching: &MatchingConfig{
			ExperienceMargin:    1,
			RecencyYears:        3,
			CoreSkillsThreshold: 0.6,
			Weights:             map[string]float64{"coreskills": 10},
		}},
		logger: zap.NewNop(),
	}

	cfg, err := a.matchingConfig()
	if err != nil {
		t.Fatalf("matchingConfig: %v", err)
	}
	if cfg.Weights[matching.CoreSkills] != 10 {
		t.Fatalf("expected core skills weight 10, got %v", cfg.Weights[matching.CoreSkills])
	}
	if cfg.Weights[matching.JobTitle] != matching.DefaultWeights[matching.JobTitle] {
		t.Fatalf("expected default job title weight, got %v", cfg.Weights[matching.JobTitle])
	}
	if cfg.SkipAnalysisWhen != matching.DefaultConfig().SkipAnalysisWhen {
		t.Fatalf("expected default skip expression, got %q", cfg.SkipAnalysisWhen)
	}
	if cfg.RecencyYears != 3 || cfg.ExperienceMargin != 1 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestMatchingConfigRejectsUnknownWeight(t *testing.T) {
	a := &application{
		config: &Config{Matching: &MatchingConfig{Weights: map[string]float64{"salary": 1}}},
		logger: zap.NewNop(),
	}
	if _, err := a.matchingConfig(); err == nil {
		t.Fatalf("expected an error for an unknown dimension")
	}
}

func TestVersionStringNamesBinary(t *testing.T) {
	got := versionString()
	if !strings.HasPrefix(got, "jd-matcher version: ") || !strings.Contains(got, "commit ") {
		t.Fatalf("unexpected version string %q", got)
	}
}
