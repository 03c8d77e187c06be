package profile

import "reflect"

// Candidate is a structured resume plus the derived tenure, skill tiers and red flags.
type Candidate struct {
	ID                    string                `json:"id,omitempty"`
	Name                  string                `json:"name"`
	Email                 string                `json:"email"`
	PhoneNumber           string                `json:"phoneNumber"`
	LanguagesKnown        []string              `json:"languagesKnown,omitempty"`
	CurrentCompanyDetails *CompanyDetails       `json:"currentCompanyDetails,omitempty"`
	RelocationDetails     []string              `json:"relocationDetails,omitempty"`
	CurrentNoticePeriod   *float64              `json:"currentNoticePeriod,omitempty"`
	CTCDetails            *CTCDetails           `json:"ctcDetails,omitempty"`
	EmploymentHistory     []Employment          `json:"employmentHistory"`
	Skills                []string              `json:"skills"`
	Certifications        []Certification       `json:"certifications,omitempty"`
	SocialProfiles        []SocialProfile       `json:"socialProfiles,omitempty"`
	EducationalBackground []EducationBackground `json:"educationalBackground"`
	PersonalProjects      []Project             `json:"personalProjects"`

	TotalExperience Tenure     `json:"totalExperience"`
	AnalysedSkills  SkillTiers `json:"analysedSkills"`
	RedFlags        *RedFlags  `json:"redFlags,omitempty"`
}

type CompanyDetails struct {
	CompanyName string `json:"companyName"`
	Designation string `json:"designation"`
}

type CTCDetails struct {
	ExpectedCTC CTC `json:"expectedCTC"`
}

type CTC struct {
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Currency string  `json:"currency,omitempty"`
	Duration string  `json:"duration,omitempty"`
}

// Employment is one role. EndDate may be the current marker.
type Employment struct {
	CompanyName               string   `json:"companyName"`
	Designation               string   `json:"designation"`
	StartDate                 Date     `json:"startDate"`
	EndDate                   Date     `json:"endDate"`
	WorkExperienceDescription string   `json:"workExperienceDescription"`
	SkillsUsedInRole          []string `json:"skillsUsedInRole"`
}

type Certification struct {
	Name                    string `json:"name"`
	IssuingAuthority        string `json:"issuingAuthority,omitempty"`
	CertificateLink         string `json:"certificateLink,omitempty"`
	CertificateCredentialID string `json:"certificateCredentialID,omitempty"`
}

type SocialProfile struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type EducationBackground struct {
	EducationType   string `json:"educationType"`
	InstitutionName string `json:"institutionName"`
	StartDate       string `json:"startDate,omitempty"`
	EndDate         string `json:"endDate,omitempty"`
	FieldOfStudy    string `json:"fieldOfStudy"`
	ScoreAchieved   string `json:"scoreAchieved,omitempty"`
}

type Project struct {
	ProjectName         string   `json:"projectName"`
	ProjectDescription  string   `json:"projectDescription"`
	ProjectLink         string   `json:"projectLink,omitempty"`
	SkillsUsedInProject []string `json:"skillsUsedInProject"`
}

// Tenure is total experience split into whole years and remaining months.
type Tenure struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

func TenureFromMonths(total int) Tenure {
	return Tenure{Years: total / 12, Months: total % 12}
}

// InYears returns the tenure as fractional years.
func (t Tenure) InYears() float64 {
	return float64(t.Years) + float64(t.Months)/12
}

// SkillTiers holds disjoint skill sets ordered by confidence.
type SkillTiers struct {
	Advanced []string `json:"advanced"`
	Medium   []string `json:"medium"`
	Basic    []string `json:"basic"`
}

// RedFlags are resume warning signs with supporting descriptions.
type RedFlags struct {
	ContainsMistakes                  bool   `json:"containsMistakes"`
	ContainsMistakesDescription       string `json:"containsMistakesDescription,omitempty"`
	FrequentJobSwitcher               bool   `json:"frequentJobSwitcher"`
	FrequentJobSwitcherDescription    string `json:"frequentJobSwitcherDescription,omitempty"`
	OverstatedAchievements            bool   `json:"overstatedAchievements"`
	OverstatedAchievementsDescription string `json:"overstatedAchievementsDescription,omitempty"`
	EmploymentGap                     bool   `json:"employmentGap"`
	EmploymentGapDescription          string `json:"employmentGapDescription,omitempty"`
	IncompleteEducation               bool   `json:"incompleteEducation"`
	IncompleteEducationDescription    string `json:"incompleteEducationDescription,omitempty"`
	LackOfRoleProgression             bool   `json:"lackOfRoleProgression"`
	LackOfRoleProgressionDescription  string `json:"lackOfRoleProgressionDescription,omitempty"`
}

// Count returns the number of raised flags.
func (r *RedFlags) Count() int {
	if r == nil {
		return 0
	}
	return CountTrue(*r)
}

// CountTrue counts the true bool fields of a flag struct.
func CountTrue(flags any) int {
	v := reflect.Indirect(reflect.ValueOf(flags))
	if v.Kind() != reflect.Struct {
		return 0
	}
	n := 0
	for i := 0; i < v.NumField(); i++ {
		if f := v.Field(i); f.Kind() == reflect.Bool && f.Bool() {
			n++
		}
	}
	return n
}
