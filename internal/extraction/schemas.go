package extraction

import "github.com/spigell/jd-matcher/internal/evaluator"

var experienceRange = evaluator.Object(map[string]any{
	"min": evaluator.Number("Minimum years of experience", 0, 60),
	"max": evaluator.Number("Maximum years of experience", 0, 60),
}, "min", "max")

var jobSchema = evaluator.Object(map[string]any{
	"jobTitle":                evaluator.String("Title of the position"),
	"jobLevel":                evaluator.String("Seniority level, Associate when not stated"),
	"jobDepartment":           evaluator.String("Department"),
	"jobLocation":             evaluator.String("Remote, Hybrid or In-Office"),
	"geographicJobLocations":  evaluator.StringList("Cities or regions"),
	"jobType":                 evaluator.String("FULL_TIME, PART_TIME, CONTRACT or INTERNSHIP"),
	"primaryResponsibilities": evaluator.StringList("Main duties of the role"),
	"coreSkills":              evaluator.StringList("Technical skills central to the role, no soft skills"),
	"mandatorySkills":         evaluator.StringList("Skills the candidate must have, a subset of core skills"),
	"goodToHaveSkills":        evaluator.StringList("Nice to have skills"),
	"softSkills":              evaluator.StringList("Soft skills"),
	"experience":              experienceRange,
	"educationalQualifications": evaluator.Object(map[string]any{
		"degreeType":           evaluator.String("Required degree type"),
		"major":                evaluator.String("Required major"),
		"relatedFieldAccepted": evaluator.Boolean("Whether a related field is accepted"),
	}),
	"contractDuration":   evaluator.String("Contract duration when jobType is CONTRACT"),
	"workEnvironment":    evaluator.String("Work environment"),
	"perksAndBenefits":   evaluator.StringList("Perks and benefits"),
	"travelRequirements": evaluator.String("Travel requirements"),
	"toolsAndSoftware":   evaluator.StringList("Tools that are not core or mandatory skills"),
	"reportingTo":        evaluator.String("Role the position reports to"),
}, "jobTitle", "jobLevel", "jobLocation", "primaryResponsibilities", "coreSkills", "mandatorySkills", "experience")

var employmentItem = evaluator.Object(map[string]any{
	"companyName":               evaluator.String("Company name"),
	"designation":               evaluator.String("Job title held"),
	"startDate":                 evaluator.String("Start date in YYYY-MM-DD format"),
	"endDate":                   evaluator.String("End date in YYYY-MM-DD format or 'current'"),
	"workExperienceDescription": evaluator.String("Summary of the work done in at most 200 words"),
	"skillsUsedInRole":          evaluator.StringList("Technologies used in this role"),
}, "companyName", "designation", "startDate", "endDate", "skillsUsedInRole")

var projectItem = evaluator.Object(map[string]any{
	"projectName":         evaluator.String("Project name"),
	"projectDescription":  evaluator.String("Short description"),
	"projectLink":         evaluator.String("Link to the project"),
	"skillsUsedInProject": evaluator.StringList("Technologies used in the project"),
}, "projectName", "skillsUsedInProject")

var educationItem = evaluator.Object(map[string]any{
	"educationType":   evaluator.String("Degree or certificate type"),
	"institutionName": evaluator.String("Institution"),
	"startDate":       evaluator.String("Start date"),
	"endDate":         evaluator.String("End date or 'current'"),
	"fieldOfStudy":    evaluator.String("Field of study"),
	"scoreAchieved":   evaluator.String("GPA or percentage"),
}, "educationType", "institutionName", "fieldOfStudy")

var resumeSchema = evaluator.Object(map[string]any{
	"name":                  evaluator.String("Full name"),
	"email":                 evaluator.String("Email address"),
	"phoneNumber":           evaluator.String("Phone number"),
	"languagesKnown":        evaluator.StringList("Spoken languages"),
	"relocationDetails":     evaluator.StringList("Places the candidate would relocate to"),
	"employmentHistory":     evaluator.Array("Roles sorted by most recent first", employmentItem),
	"skills":                evaluator.StringList("Technologies listed in the skills section"),
	"certifications":        evaluator.Array("Certifications", evaluator.Object(map[string]any{"name": evaluator.String("Certificate name")}, "name")),
	"socialProfiles":        evaluator.Array("Social profiles", evaluator.Object(map[string]any{"platform": evaluator.String("Platform"), "url": evaluator.String("Profile URL")})),
	"educationalBackground": evaluator.Array("Education entries", educationItem),
	"personalProjects":      evaluator.Array("Personal projects", projectItem),
}, "name", "employmentHistory", "skills", "educationalBackground", "personalProjects")

var refinementSchema = evaluator.Object(map[string]any{
	"languages": evaluator.Array("One entry per skill", evaluator.Object(map[string]any{
		"library": evaluator.String("The skill as it appears in the resume"),
		"values":  evaluator.StringList("Related programming languages and expanded stack members, including the original"),
		"reason":  evaluator.String("Why these values apply to this resume"),
	}, "library", "values")),
}, "languages")

var redFlagsSchema = evaluator.Object(map[string]any{
	"containsMistakes":                  evaluator.Boolean("Grammar errors, typos or spelling mistakes"),
	"containsMistakesDescription":       evaluator.String("The mistakes found"),
	"frequentJobSwitcher":               evaluator.Boolean("Many short tenures suggesting instability"),
	"frequentJobSwitcherDescription":    evaluator.String("The job changes"),
	"overstatedAchievements":            evaluator.Boolean("Exaggerated achievements or vague metrics"),
	"overstatedAchievementsDescription": evaluator.String("The overstated claims"),
	"employmentGap":                     evaluator.Boolean("Unexplained gaps in employment"),
	"employmentGapDescription":          evaluator.String("The gaps"),
	"incompleteEducation":               evaluator.Boolean("Education started but not finished"),
	"incompleteEducationDescription":    evaluator.String("The incomplete education"),
	"lackOfRoleProgression":             evaluator.Boolean("No growth in responsibility over time"),
	"lackOfRoleProgressionDescription":  evaluator.String("The stagnation"),
}, "frequentJobSwitcher", "overstatedAchievements", "employmentGap", "incompleteEducation", "lackOfRoleProgression")
