package matching

import "github.com/spigell/jd-matcher/internal/evaluator"

// Assessment is the part every evaluated dimension returns.
type Assessment struct {
	Confidence       float64  `json:"confidence"`
	PositiveComments []string `json:"positiveComments"`
	NegativeComments []string `json:"negativeComments"`
}

type coreSkillsOutput struct {
	Assessment
	AdvancedCoreSkills         []string `json:"advancedCoreSkills"`
	MediumCoreSkills           []string `json:"mediumCoreSkills"`
	BasicCoreSkills            []string `json:"basicCoreSkills"`
	LaggingCoreTechnicalSkills []string `json:"laggingCoreTechnicalSkills"`
}

type mandatorySkillsOutput struct {
	Assessment
	MatchingMandatorySkills []string `json:"matchingMandatorySkills"`
	LaggingMandatorySkills  []string `json:"laggingMandatorySkills"`
}

type goodToHaveOutput struct {
	Assessment
	MatchingGoodToHaveSkills []string `json:"matchingGoodToHaveSkills"`
	LaggingGoodToHaveSkills  []string `json:"laggingGoodToHaveSkills"`
}

// ResponsibilityMatch rates one job responsibility against recent roles.
type ResponsibilityMatch struct {
	Responsibility  string  `json:"responsibility"`
	ConfidenceScore float64 `json:"confidenceScore"`
	Reason          string  `json:"reason"`
}

type responsibilitiesOutput struct {
	Assessment
	Summary          string                `json:"summary"`
	Responsibilities []ResponsibilityMatch `json:"responsibilities"`
}

type educationOutput struct {
	Assessment
	Score float64 `json:"score"`
}

// GreenFlags are signals of an exceptional candidate.
type GreenFlags struct {
	ConsistentCareerGrowth    bool `json:"consistentCareerGrowth"`
	IndustryRecognition       bool `json:"industryRecognition"`
	LeadershipExperience      bool `json:"leadershipExperience"`
	OpenSourceContributions   bool `json:"openSourceContributions"`
	RelevantCertifications    bool `json:"relevantCertifications"`
	TopTierEducation          bool `json:"topTierEducation"`
	HighImpactAccomplishments bool `json:"highImpactAccomplishments"`
}

type greenFlagsOutput struct {
	Assessment
	GreenFlags
}

var (
	jobTitleSchema = evaluator.Base

	coreSkillsSchema = evaluator.Base.Extend(map[string]any{
		"advancedCoreSkills":         evaluator.StringList("Core skills the candidate holds at an advanced level"),
		"mediumCoreSkills":           evaluator.StringList("Core skills the candidate holds at a medium level"),
		"basicCoreSkills":            evaluator.StringList("Core skills the candidate holds at a basic level"),
		"laggingCoreTechnicalSkills": evaluator.StringList("Core skills the candidate lacks"),
	}, "advancedCoreSkills", "mediumCoreSkills", "basicCoreSkills", "laggingCoreTechnicalSkills")

	mandatorySkillsSchema = evaluator.Base.Extend(map[string]any{
		"matchingMandatorySkills": evaluator.StringList("Mandatory skills present in the resume"),
		"laggingMandatorySkills":  evaluator.StringList("Mandatory skills missing from the resume"),
	}, "matchingMandatorySkills", "laggingMandatorySkills")

	goodToHaveSchema = evaluator.Base.Extend(map[string]any{
		"matchingGoodToHaveSkills": evaluator.StringList("Good to have skills present in the resume"),
		"laggingGoodToHaveSkills":  evaluator.StringList("Good to have skills missing from the resume"),
	}, "matchingGoodToHaveSkills", "laggingGoodToHaveSkills")

	responsibilitiesSchema = evaluator.Base.Extend(map[string]any{
		"summary": evaluator.String("Short summary of how the recent roles cover the responsibilities"),
		"responsibilities": evaluator.Array("One entry per job responsibility", evaluator.Object(map[string]any{
			"responsibility":  evaluator.String("The responsibility from the job description"),
			"confidenceScore": evaluator.Number("How well recent roles cover it", 0, 1),
			"reason":          evaluator.String("Why the score was given"),
		}, "responsibility", "confidenceScore", "reason")),
	}, "summary", "responsibilities")

	educationSchema = evaluator.Base.Extend(map[string]any{
		"score": map[string]any{
			"type":        "number",
			"description": "1 when the requirement is met, otherwise 0",
			"enum":        []any{0, 1},
		},
	}, "score")

	greenFlagsSchema = evaluator.Base.Extend(map[string]any{
		"consistentCareerGrowth":    evaluator.Boolean("Steady promotions or growing scope"),
		"industryRecognition":       evaluator.Boolean("Awards, talks or publications"),
		"leadershipExperience":      evaluator.Boolean("Led teams or initiatives"),
		"openSourceContributions":   evaluator.Boolean("Meaningful open source work"),
		"relevantCertifications":    evaluator.Boolean("Certifications relevant to the job"),
		"topTierEducation":          evaluator.Boolean("Degree from a top tier institution"),
		"highImpactAccomplishments": evaluator.Boolean("Measurable, high impact results"),
	}, "consistentCareerGrowth", "industryRecognition", "leadershipExperience",
		"openSourceContributions", "relevantCertifications", "topTierEducation", "highImpactAccomplishments")
)
