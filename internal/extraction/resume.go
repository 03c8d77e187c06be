package extraction

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/experience"
	"github.com/spigell/jd-matcher/internal/graph"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/profile"
)

const (
	ResumeGraphName         = "resume"
	AgentNode               = "agent"
	CalculateExperienceNode = "calculateExperienceNode"
	SkillsRefinementNode    = "skillsRefinementNode"
	RedFlagNode             = "redFlagNode"

	keyResume          = "resume"
	keyUpdateNotes     = "updateNotes"
	keyExtracted       = "extractedResume"
	keyTotalExperience = "totalExperience"
	keyAnalysedSkills  = "analysedSkills"
	keyRedFlags        = "redFlags"
)

// derived fields are computed by the graph, never taken from the model.
var derived = []string{keyTotalExperience, keyAnalysedSkills, keyRedFlags}

type ResumeConfig struct {
	// Model overrides the evaluator default for extraction and red flags.
	Model string
	// RefinementModel is used for skill refinement, Model when empty.
	RefinementModel    string
	GapToleranceMonths int
	TierRule           experience.TierRule
	Now                func() time.Time
}

func DefaultResumeConfig() ResumeConfig {
	return ResumeConfig{
		GapToleranceMonths: experience.DefaultGapToleranceMonths,
		TierRule:           experience.DefaultTierRule(),
	}
}

// ResumeExtractor extracts a resume, then computes tenure, skill tiers and
// red flags concurrently.
type ResumeExtractor struct {
	ev     evaluator.Evaluator
	cfg    ResumeConfig
	graph  *graph.Graph
	engine *graph.Engine
	logger *zap.Logger
}

func NewResumeExtractor(ev evaluator.Evaluator, cfg ResumeConfig, log *zap.Logger, observer graph.Observer) (*ResumeExtractor, error) {
	if ev == nil {
		return nil, errors.New("resume extractor requires an evaluator")
	}
	if cfg.GapToleranceMonths < 0 {
		return nil, fmt.Errorf("gap tolerance must not be negative, got %d", cfg.GapToleranceMonths)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RefinementModel == "" {
		cfg.RefinementModel = cfg.Model
	}

	log = logger.WithFields(log, zap.String(logger.FieldGraph, ResumeGraphName))
	x := &ResumeExtractor{ev: ev, cfg: cfg, logger: log}

	g, err := graph.NewBuilder(ResumeGraphName).
		AddNode(AgentNode, x.agent).
		AddNode(CalculateExperienceNode, x.calculateExperience).
		AddNode(SkillsRefinementNode, x.skillsRefinement).
		AddNode(RedFlagNode, x.redFlag).
		AddEdge(graph.Start, AgentNode).
		AddEdge(AgentNode, CalculateExperienceNode).
		AddEdge(AgentNode, SkillsRefinementNode).
		AddEdge(AgentNode, RedFlagNode).
		AddEdge(CalculateExperienceNode, graph.End).
		AddEdge(SkillsRefinementNode, graph.End).
		AddEdge(RedFlagNode, graph.End).
		Compile()
	if err != nil {
		return nil, err
	}
	x.graph = g

	opts := []graph.Option{graph.WithLogger(log)}
	if observer != nil {
		opts = append(opts, graph.WithObserver(observer))
	}
	x.engine = graph.NewEngine(opts...)
	return x, nil
}

func (x *ResumeExtractor) Graph() *graph.Graph { return x.graph }

// Extract returns the complete candidate profile for a resume text.
// updateNotes are corrections applied on top of the resume, may be empty.
func (x *ResumeExtractor) Extract(ctx context.Context, resume, updateNotes string) (*profile.Candidate, error) {
	if strings.TrimSpace(resume) == "" {
		return nil, errors.New("resume is required")
	}

	final, _, err := x.engine.Run(ctx, x.graph, graph.State{
		keyResume:      resume,
		keyUpdateNotes: updateNotes,
	})
	if err != nil {
		return nil, fmt.Errorf("extract resume: %w", err)
	}

	extracted, ok := graph.Get[*profile.Candidate](final, keyExtracted)
	if !ok {
		return nil, fmt.Errorf("%w: no resume in final state", ErrExtractionFailed)
	}

	cand := *extracted
	cand.TotalExperience, _ = graph.Get[profile.Tenure](final, keyTotalExperience)
	cand.AnalysedSkills, _ = graph.Get[profile.SkillTiers](final, keyAnalysedSkills)
	if flags, ok := graph.Get[profile.RedFlags](final, keyRedFlags); ok {
		cand.RedFlags = &flags
	}
	return &cand, nil
}

func (x *ResumeExtractor) agent(ctx context.Context, s graph.State) (graph.Result, error) {
	resume, _ := graph.Get[string](s, keyResume)
	notes, _ := graph.Get[string](s, keyUpdateNotes)

	input := map[string]any{"resume": resume}
	if strings.TrimSpace(notes) != "" {
		input["updateNotes"] = notes
	}

	raw, err := evaluator.Call[map[string]any](ctx, x.ev, evaluator.Request{
		Dimension:   "resume",
		Instruction: resumeInstruction,
		Input:       input,
		Schema:      resumeSchema,
		Model:       x.cfg.Model,
	})
	if err != nil {
		return graph.Result{}, err
	}
	for _, key := range derived {
		delete(raw, key)
	}

	var cand profile.Candidate
	if err := evaluator.Decode(raw, &cand); err != nil {
		return graph.Result{}, &evaluator.Error{Dimension: "resume", Model: x.cfg.Model, Err: err}
	}
	cleanCandidateSkills(&cand)

	return graph.Update(graph.State{keyExtracted: &cand}), nil
}

func (x *ResumeExtractor) calculateExperience(_ context.Context, s graph.State) (graph.Result, error) {
	cand, err := extracted(s)
	if err != nil {
		return graph.Result{}, err
	}
	tenure := experience.Calculate(cand.EmploymentHistory, x.cfg.GapToleranceMonths, x.cfg.Now())
	return graph.Update(graph.State{keyTotalExperience: tenure}), nil
}

func (x *ResumeExtractor) skillsRefinement(ctx context.Context, s graph.State) (graph.Result, error) {
	cand, err := extracted(s)
	if err != nil {
		return graph.Result{}, err
	}

	out, err := evaluator.Call[refinementOutput](ctx, x.ev, evaluator.Request{
		Dimension:   "skillsRefinement",
		Instruction: refinementInstruction,
		Input: map[string]any{
			"skills":            allSkills(cand),
			"employmentHistory": cand.EmploymentHistory,
			"personalProjects":  cand.PersonalProjects,
		},
		Schema: refinementSchema,
		Model:  x.cfg.RefinementModel,
	})
	if err != nil {
		return graph.Result{}, err
	}

	refined := applyRefinement(cand, out.Languages)
	tiers := experience.Tiers(refined.EmploymentHistory, refined.PersonalProjects, refined.Skills, x.cfg.TierRule, x.cfg.Now())
	return graph.Update(graph.State{keyAnalysedSkills: tiers}), nil
}

// redFlag never fails the run: an evaluator error yields no raised flags.
func (x *ResumeExtractor) redFlag(ctx context.Context, s graph.State) (graph.Result, error) {
	resume, _ := graph.Get[string](s, keyResume)

	flags, err := evaluator.Call[profile.RedFlags](ctx, x.ev, evaluator.Request{
		Dimension:   "resumeRedFlags",
		Instruction: redFlagsInstruction,
		Input:       map[string]any{"resume": resume},
		Schema:      redFlagsSchema,
		Model:       x.cfg.Model,
	})
	if err != nil {
		if ctx.Err() != nil {
			return graph.Result{}, ctx.Err()
		}
		x.logger.Error("red flag analysis failed, using defaults", zap.Error(err))
		flags = profile.RedFlags{}
	}
	return graph.Update(graph.State{keyRedFlags: flags}), nil
}

func extracted(s graph.State) (*profile.Candidate, error) {
	cand, ok := graph.Get[*profile.Candidate](s, keyExtracted)
	if !ok || cand == nil {
		return nil, errors.New("extracted resume is missing from state")
	}
	return cand, nil
}

type skillMapping struct {
	Library string   `json:"library"`
	Values  []string `json:"values"`
	Reason  string   `json:"reason"`
}

type refinementOutput struct {
	Languages []skillMapping `json:"languages"`
}

func cleanCandidateSkills(c *profile.Candidate) {
	c.Skills = profile.CleanSkills(c.Skills)
	for i := range c.EmploymentHistory {
		c.EmploymentHistory[i].SkillsUsedInRole = profile.CleanSkills(c.EmploymentHistory[i].SkillsUsedInRole)
	}
	for i := range c.PersonalProjects {
		c.PersonalProjects[i].SkillsUsedInProject = profile.CleanSkills(c.PersonalProjects[i].SkillsUsedInProject)
	}
}

func allSkills(c *profile.Candidate) []string {
	all := slices.Clone(c.Skills)
	for _, e := range c.EmploymentHistory {
		all = append(all, e.SkillsUsedInRole...)
	}
	for _, p := range c.PersonalProjects {
		all = append(all, p.SkillsUsedInProject...)
	}
	return profile.Dedupe(all)
}

// applyRefinement returns a copy of c whose skill lists also carry the mapped
// values of every library they contain. c itself is shared with sibling
// nodes and stays untouched.
func applyRefinement(c *profile.Candidate, mappings []skillMapping) profile.Candidate {
	cleaned := make([]skillMapping, 0, len(mappings))
	for _, m := range mappings {
		cleaned = append(cleaned, skillMapping{Library: profile.CleanSkill(m.Library), Values: profile.CleanSkills(m.Values)})
	}

	expand := func(list []string) []string {
		out := slices.Clone(list)
		for _, m := range cleaned {
			if slices.Contains(list, m.Library) {
				out = append(out, m.Values...)
			}
		}
		return profile.Dedupe(out)
	}

	refined := *c
	refined.Skills = expand(c.Skills)
	refined.EmploymentHistory = make([]profile.Employment, len(c.EmploymentHistory))
	for i, e := range c.EmploymentHistory {
		e.SkillsUsedInRole = expand(e.SkillsUsedInRole)
		refined.EmploymentHistory[i] = e
	}
	refined.PersonalProjects = make([]profile.Project, len(c.PersonalProjects))
	for i, p := range c.PersonalProjects {
		p.SkillsUsedInProject = expand(p.SkillsUsedInProject)
		refined.PersonalProjects[i] = p
	}
	return refined
}
