package matching

import (
	"context"
	"errors"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/experience"
	"github.com/spigell/jd-matcher/internal/graph"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/profile"
)

// State keys besides the dimension results.
const (
	KeyJob         = "job"
	KeyCandidate   = "candidate"
	KeyFinalScores = "finalScores"
)

var errMissingInput = errors.New("job and candidate must be set in state")

type nodes struct {
	ev     evaluator.Evaluator
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

func (n *nodes) inputs(s graph.State) (*profile.JobRequirement, *profile.Candidate, error) {
	job, okJob := graph.Get[*profile.JobRequirement](s, KeyJob)
	cand, okCand := graph.Get[*profile.Candidate](s, KeyCandidate)
	if !okJob || !okCand || job == nil || cand == nil {
		return nil, nil, errMissingInput
	}
	return job, cand, nil
}

func (n *nodes) request(dimension, instruction string, schema evaluator.Schema, input map[string]any) evaluator.Request {
	return evaluator.Request{
		Dimension:   dimension,
		Instruction: instruction,
		Input:       input,
		Schema:      schema,
		Model:       n.cfg.Model,
	}
}

func patch(dimension string, r Result) graph.Result {
	return graph.Update(graph.State{dimension: r})
}

func (n *nodes) defaulted(dimension, reason string) graph.Result {
	n.logger.Debug("dimension skipped, using defaults",
		zap.String(logger.FieldDimension, dimension),
		zap.String("reason", reason),
	)
	return patch(dimension, Default(dimension))
}

func (n *nodes) jobTitle(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}
	if len(cand.EmploymentHistory) == 0 {
		n.logger.Warn("candidate has no employment history",
			zap.String(logger.FieldDimension, JobTitle),
		)
		return patch(JobTitle, Default(JobTitle)), nil
	}

	out, err := evaluator.Call[Assessment](ctx, n.ev, n.request(JobTitle, jobTitleInstruction, jobTitleSchema, map[string]any{
		"jobTitle":          job.JobTitle,
		"jobLevel":          job.JobLevel,
		"employmentHistory": cand.EmploymentHistory,
	}))
	if err != nil {
		return graph.Result{}, err
	}
	return patch(JobTitle, Default(JobTitle).withAssessment(out)), nil
}

func (n *nodes) workExperience(_ context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}

	tenure := cand.TotalExperience.InYears()
	band := ScoreExperience(job.Experience.Min, job.Experience.Max, n.cfg.ExperienceMargin, tenure)

	r := Default(WorkExperience)
	r.Score = ptr(band.Score)
	r.Passed = ptr(band.Score == 1)
	return patch(WorkExperience, r.withDetails(map[string]any{
		"requiredMin":       band.Min,
		"requiredMax":       band.Max,
		"candidateYears":    tenure,
		"laggingExperience": band.Lagging,
		"leadingExperience": band.Leading,
	})), nil
}

func (n *nodes) coreSkills(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}
	if len(job.CoreSkills) == 0 {
		return n.defaulted(CoreSkills, "job lists no core skills"), nil
	}

	out, err := evaluator.Call[coreSkillsOutput](ctx, n.ev, n.request(CoreSkills, coreSkillsInstruction, coreSkillsSchema, map[string]any{
		"coreSkills":     job.CoreSkills,
		"analysedSkills": cand.AnalysedSkills,
	}))
	if err != nil {
		return graph.Result{}, err
	}

	advanced := profile.CleanSkills(out.AdvancedCoreSkills)
	medium := profile.CleanSkills(out.MediumCoreSkills)
	basic := profile.CleanSkills(out.BasicCoreSkills)
	lagging := profile.CleanSkills(out.LaggingCoreTechnicalSkills)

	score := CoreSkillsScore(n.cfg.CoreSkillLevels, len(advanced), len(medium), len(basic), len(lagging))
	r := Default(CoreSkills).withAssessment(out.Assessment)
	r.Score = ptr(score)
	r.Passed = ptr(score >= n.cfg.CoreSkillsThreshold)
	return patch(CoreSkills, r.withDetails(map[string]any{
		"advancedCoreSkills":         advanced,
		"mediumCoreSkills":           medium,
		"basicCoreSkills":            basic,
		"laggingCoreTechnicalSkills": lagging,
	})), nil
}

func (n *nodes) mandatorySkills(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}
	if len(job.MandatorySkills) == 0 {
		return n.defaulted(MandatorySkills, "job lists no mandatory skills"), nil
	}

	out, err := evaluator.Call[mandatorySkillsOutput](ctx, n.ev, n.request(MandatorySkills, mandatorySkillsInstruction, mandatorySkillsSchema, map[string]any{
		"mandatorySkills": job.MandatorySkills,
		"resume":          resumeEvidence(cand),
	}))
	if err != nil {
		return graph.Result{}, err
	}

	matched := profile.CleanSkills(out.MatchingMandatorySkills)
	lagging := profile.CleanSkills(out.LaggingMandatorySkills)
	score, passed := MandatorySkillsScore(len(matched), len(lagging))

	r := Default(MandatorySkills).withAssessment(out.Assessment)
	r.Score = ptr(score)
	r.Passed = ptr(passed)
	return patch(MandatorySkills, r.withDetails(map[string]any{
		"matchingMandatorySkills": matched,
		"laggingMandatorySkills":  lagging,
	})), nil
}

func (n *nodes) goodToHaveSkills(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}
	if len(job.GoodToHaveSkills) == 0 {
		return n.defaulted(GoodToHaveSkills, "job lists no good to have skills"), nil
	}

	out, err := evaluator.Call[goodToHaveOutput](ctx, n.ev, n.request(GoodToHaveSkills, goodToHaveInstruction, goodToHaveSchema, map[string]any{
		"goodToHaveSkills": job.GoodToHaveSkills,
		"resume":           resumeEvidence(cand),
	}))
	if err != nil {
		return graph.Result{}, err
	}

	r := Default(GoodToHaveSkills).withAssessment(out.Assessment)
	r.Score = ptr(ShareScore(len(out.MatchingGoodToHaveSkills), len(out.LaggingGoodToHaveSkills)))
	return patch(GoodToHaveSkills, r.withDetails(map[string]any{
		"matchingGoodToHaveSkills": nonNil(out.MatchingGoodToHaveSkills),
		"laggingGoodToHaveSkills":  nonNil(out.LaggingGoodToHaveSkills),
	})), nil
}

func (n *nodes) primaryResponsibilities(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}
	if len(job.PrimaryResponsibilities) == 0 {
		return n.defaulted(PrimaryResponsibilities, "job lists no responsibilities"), nil
	}

	recent := recentJobs(cand.EmploymentHistory, n.cfg.RecencyYears, n.cfg.RecentJobs, n.now())
	if len(recent) == 0 {
		r := Default(PrimaryResponsibilities)
		r.Score = ptr(0.0)
		r.Comments.Negative = []string{"No recent work experience to compare against the responsibilities"}
		return patch(PrimaryResponsibilities, r), nil
	}

	out, err := evaluator.Call[responsibilitiesOutput](ctx, n.ev, n.request(PrimaryResponsibilities, responsibilitiesInstruction, responsibilitiesSchema, map[string]any{
		"primaryResponsibilities": job.PrimaryResponsibilities,
		"recentEmployment":        recent,
	}))
	if err != nil {
		return graph.Result{}, err
	}

	r := Default(PrimaryResponsibilities).withAssessment(out.Assessment)
	r.Score = ptr(MeanConfidence(out.Responsibilities))
	return patch(PrimaryResponsibilities, r.withDetails(map[string]any{
		"summary":          out.Summary,
		"responsibilities": out.Responsibilities,
	})), nil
}

func (n *nodes) educationalQualifications(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}
	req := job.EducationalQualifications
	if req.IsEmpty() {
		return n.defaulted(EducationalQualifications, "job states no education requirement"), nil
	}

	out, err := evaluator.Call[educationOutput](ctx, n.ev, n.request(EducationalQualifications, educationInstruction, educationSchema, map[string]any{
		"degreeType":            req.DegreeType,
		"major":                 req.Major,
		"relatedFieldAccepted":  flagString(req.RelatedFieldAccepted),
		"educationalBackground": cand.EducationalBackground,
	}))
	if err != nil {
		return graph.Result{}, err
	}

	r := Default(EducationalQualifications).withAssessment(out.Assessment)
	r.Score = ptr(out.Score)
	return patch(EducationalQualifications, r), nil
}

func (n *nodes) redFlags(_ context.Context, s graph.State) (graph.Result, error) {
	_, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}

	flags := profile.RedFlags{}
	if cand.RedFlags != nil {
		flags = *cand.RedFlags
	}

	r := Default(RedFlags)
	r.Score = ptr(float64(flags.Count()))
	return patch(RedFlags, r.withDetails(map[string]any{"flags": flags})), nil
}

func (n *nodes) strongGreenFlags(ctx context.Context, s graph.State) (graph.Result, error) {
	job, cand, err := n.inputs(s)
	if err != nil {
		return graph.Result{}, err
	}

	out, err := evaluator.Call[greenFlagsOutput](ctx, n.ev, n.request(StrongGreenFlags, greenFlagsInstruction, greenFlagsSchema, map[string]any{
		"job":       job,
		"candidate": cand,
	}))
	if err != nil {
		return graph.Result{}, err
	}

	r := Default(StrongGreenFlags).withAssessment(out.Assessment)
	r.Score = ptr(float64(profile.CountTrue(out.GreenFlags)))
	return patch(StrongGreenFlags, r.withDetails(map[string]any{"flags": out.GreenFlags})), nil
}

// scoring aggregates whatever dimension results are in state. A malformed
// result set degrades to an empty composite.
func (n *nodes) scoring(_ context.Context, s graph.State) (graph.Result, error) {
	job, _ := graph.Get[*profile.JobRequirement](s, KeyJob)

	results := make(map[string]Result)
	for _, dim := range n.cfg.dimensions() {
		if r, ok := graph.Get[Result](s, dim); ok {
			results[dim] = r
		}
	}

	var overrides map[string]float64
	if job != nil {
		overrides = job.Weights
	}

	scores, err := func() (CompositeResult, error) {
		weights, err := ResolveWeights(n.cfg.Weights, overrides)
		if err != nil {
			return CompositeResult{}, &AggregationError{Dimension: "weights", Reason: err.Error()}
		}
		return Aggregate(results, n.cfg.dimensions(), weights, n.cfg.Policy)
	}()
	if err != nil {
		n.logger.Error("aggregation failed, returning empty scores", zap.Error(err))
		scores = CompositeResult{}
	}

	return graph.Update(graph.State{KeyFinalScores: scores}), nil
}

// resumeEvidence is the part of a resume that can show a skill.
func resumeEvidence(c *profile.Candidate) map[string]any {
	return map[string]any{
		"skills":            c.Skills,
		"employmentHistory": c.EmploymentHistory,
		"personalProjects":  c.PersonalProjects,
		"certifications":    c.Certifications,
	}
}

// recentJobs returns at most limit roles that ended within years of now,
// latest first.
func recentJobs(history []profile.Employment, years, limit int, now time.Time) []profile.Employment {
	var recent []profile.Employment
	for _, e := range history {
		if experience.IsRecent(e.EndDate, years, now) {
			recent = append(recent, e)
		}
	}
	slices.SortStableFunc(recent, func(a, b profile.Employment) int {
		return b.EndDate.Resolve(now).Compare(a.EndDate.Resolve(now))
	})
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}

func flagString(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}
