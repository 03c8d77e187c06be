package profile

import (
	"errors"
	"fmt"
)

// JobRequirement is a structured job description.
type JobRequirement struct {
	ID                        string                    `json:"id,omitempty"`
	JobTitle                  string                    `json:"jobTitle"`
	JobLevel                  string                    `json:"jobLevel"`
	JobDepartment             string                    `json:"jobDepartment,omitempty"`
	JobLocation               string                    `json:"jobLocation"`
	GeographicJobLocations    []string                  `json:"geographicJobLocations,omitempty"`
	JobType                   string                    `json:"jobType,omitempty"`
	SalaryRange               *SalaryRange              `json:"salaryRange,omitempty"`
	JoiningAvailability       *float64                  `json:"joiningAvailability,omitempty"`
	PrimaryResponsibilities   []string                  `json:"primaryResponsibilities"`
	CoreSkills                []string                  `json:"coreSkills"`
	MandatorySkills           []string                  `json:"mandatorySkills"`
	GoodToHaveSkills          []string                  `json:"goodToHaveSkills,omitempty"`
	SoftSkills                []string                  `json:"softSkills,omitempty"`
	Experience                ExperienceRange           `json:"experience"`
	EducationalQualifications EducationalQualifications `json:"educationalQualifications"`
	ContractDuration          string                    `json:"contractDuration,omitempty"`
	WorkEnvironment           string                    `json:"workEnvironment,omitempty"`
	PerksAndBenefits          []string                  `json:"perksAndBenefits,omitempty"`
	WorkHours                 *float64                  `json:"workHours,omitempty"`
	RelocationSupportProvided bool                      `json:"relocationSupportProvided,omitempty"`
	TravelRequirements        string                    `json:"travelRequirements,omitempty"`
	ToolsAndSoftware          []string                  `json:"toolsAndSoftware,omitempty"`
	VisaSponsorshipProvided   bool                      `json:"visaSponsorshipProvided,omitempty"`
	ReportingTo               string                    `json:"reportingTo,omitempty"`

	// Weights overrides the default dimension weights for this job.
	Weights map[string]float64 `json:"weights,omitempty"`
	// UpdatedWeights marks a job whose weights changed after matching;
	// matching then only re-aggregates stored dimension results.
	UpdatedWeights bool      `json:"updatedWeights,omitempty"`
	MetaData       *MetaData `json:"metaData,omitempty"`
}

type SalaryRange struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Currency   string  `json:"currency"`
	Negotiable bool    `json:"negotiable"`
	Duration   string  `json:"duration"`
}

// ExperienceRange is the required experience in years.
type ExperienceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type EducationalQualifications struct {
	DegreeType           string `json:"degreeType"`
	Major                string `json:"major"`
	RelatedFieldAccepted bool   `json:"relatedFieldAccepted"`
}

// IsEmpty reports that the job states no education requirement.
func (e EducationalQualifications) IsEmpty() bool {
	return e.DegreeType == "" && e.Major == ""
}

// MetaData records how a job description was extracted.
type MetaData struct {
	ModelName string `json:"modelName"`
}

// Normalize cleans skill lists and raises a maximum experience below the minimum.
func (j *JobRequirement) Normalize() {
	j.CoreSkills = CleanSkills(j.CoreSkills)
	j.MandatorySkills = CleanSkills(j.MandatorySkills)
	j.ToolsAndSoftware = CleanSkills(j.ToolsAndSoftware)
	if j.Experience.Max < j.Experience.Min {
		j.Experience.Max = j.Experience.Min
	}
}

// Validate checks the fields a usable job description must carry.
func (j *JobRequirement) Validate() error {
	var errs []error
	if j.JobTitle == "" {
		errs = append(errs, errors.New("jobTitle is required"))
	}
	if j.JobLevel == "" {
		errs = append(errs, errors.New("jobLevel is required"))
	}
	if j.JobLocation == "" {
		errs = append(errs, errors.New("jobLocation is required"))
	}
	if j.CoreSkills == nil {
		errs = append(errs, errors.New("coreSkills must be a list"))
	}
	if j.MandatorySkills == nil {
		errs = append(errs, errors.New("mandatorySkills must be a list"))
	}
	if j.JobType == "CONTRACT" && j.ContractDuration == "" {
		errs = append(errs, errors.New("contractDuration is required when jobType is CONTRACT"))
	}
	for name, w := range j.Weights {
		if w < 0 {
			errs = append(errs, fmt.Errorf("weight %q is negative", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid job requirement: %w", errors.Join(errs...))
	}
	return nil
}
