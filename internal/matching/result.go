// Package matching scores a candidate against a job requirement along
// independent dimensions and aggregates them into one weighted result.
package matching

import "maps"

// Dimension keys, also used as state keys and weight table keys.
const (
	JobTitle                  = "jobTitle"
	WorkExperience            = "workExperience"
	CoreSkills                = "coreSkills"
	MandatorySkills           = "mandatorySkills"
	GoodToHaveSkills          = "goodToHaveSkills"
	PrimaryResponsibilities   = "primaryResponsibilities"
	EducationalQualifications = "educationalQualifications"
	RedFlags                  = "redFlags"
	StrongGreenFlags          = "strongGreenFlags"
)

// Dimensions lists every dimension in scoring order.
var Dimensions = []string{
	JobTitle,
	GoodToHaveSkills,
	EducationalQualifications,
	RedFlags,
	WorkExperience,
	MandatorySkills,
	CoreSkills,
	PrimaryResponsibilities,
	StrongGreenFlags,
}

// Comments explain a dimension result.
type Comments struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
}

// Result is the outcome of one dimension. Score is nil for dimensions that
// only report confidence.
type Result struct {
	Score      *float64       `json:"score"`
	Passed     *bool          `json:"passed,omitempty"`
	Confidence *float64       `json:"confidence"`
	Comments   Comments       `json:"comments"`
	ShowOnUI   bool           `json:"showOnUI"`
	Title      string         `json:"title"`
	Details    map[string]any `json:"details,omitempty"`
}

// Value is the number that enters the weighted sum.
func (r Result) Value() (float64, bool) {
	switch {
	case r.Score != nil:
		return *r.Score, true
	case r.Confidence != nil:
		return *r.Confidence, true
	default:
		return 0, false
	}
}

func ptr[T any](v T) *T { return &v }

type defaults struct {
	title  string
	show   bool
	score  *float64
	passed *bool
}

var dimensionDefaults = map[string]defaults{
	JobTitle:                  {title: "Job Title", show: true},
	WorkExperience:            {title: "Work Experience", score: ptr(0.0)},
	CoreSkills:                {title: "Core Skills", show: true, score: ptr(1.0), passed: ptr(true)},
	MandatorySkills:           {title: "Mandatory Skills", score: ptr(1.0), passed: ptr(true)},
	GoodToHaveSkills:          {title: "Good to Have Skills", show: true, score: ptr(1.0)},
	PrimaryResponsibilities:   {title: "Primary Responsibilities", show: true, score: ptr(1.0)},
	EducationalQualifications: {title: "Educational Qualifications", show: true, score: ptr(0.0)},
	RedFlags:                  {title: "Red Flags", score: ptr(0.0)},
	StrongGreenFlags:          {title: "Strong Green Flags", score: ptr(0.0)},
}

// Default returns the result a dimension reports when it has nothing to evaluate.
func Default(dimension string) Result {
	d := dimensionDefaults[dimension]
	r := Result{
		Confidence: ptr(0.0),
		Comments:   Comments{Positive: []string{}, Negative: []string{}},
		ShowOnUI:   d.show,
		Title:      d.title,
	}
	if d.score != nil {
		r.Score = ptr(*d.score)
	}
	if d.passed != nil {
		r.Passed = ptr(*d.passed)
	}
	return r
}

func (r Result) withAssessment(a Assessment) Result {
	r.Confidence = ptr(a.Confidence)
	r.Comments = Comments{Positive: nonNil(a.PositiveComments), Negative: nonNil(a.NegativeComments)}
	return r
}

func (r Result) withDetails(details map[string]any) Result {
	r.Details = maps.Clone(details)
	return r
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
