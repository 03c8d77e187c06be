package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/metrics"
	"github.com/spigell/jd-matcher/internal/profile"
)

const DefaultLimit = 5

type Matcher interface {
	Match(ctx context.Context, in matching.Input) (*matching.Outcome, error)
}

type ResumeExtractor interface {
	Extract(ctx context.Context, resume, updateNotes string) (*profile.Candidate, error)
}

// Report summarises one pass.
type Report struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (r *Report) add(err error) {
	r.Processed++
	if err != nil {
		r.Failed++
		return
	}
	r.Succeeded++
}

// Runner executes single batch passes. A failing membership is marked ERROR
// and never stops the pass.
type Runner struct {
	store   Store
	matcher Matcher
	resumes ResumeExtractor
	limit   int
	logger  *zap.Logger
	now     func() time.Time
}

func NewRunner(store Store, matcher Matcher, resumes ResumeExtractor, limit int, log *zap.Logger) *Runner {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Runner{
		store:   store,
		matcher: matcher,
		resumes: resumes,
		limit:   limit,
		logger:  logger.OrNop(log),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ParsePending extracts the resumes of pending memberships one at a time.
func (r *Runner) ParsePending(ctx context.Context) (Report, error) {
	var report Report
	if r.resumes == nil {
		return report, errors.New("parse pending: no resume extractor configured")
	}

	pending, err := r.store.ListByStatus(ctx, StatusPending, r.limit)
	if err != nil {
		return report, err
	}

	for _, m := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.add(r.parse(ctx, m))
	}
	return report, nil
}

func (r *Runner) parse(ctx context.Context, m *Membership) error {
	log := r.logger.With(zap.String(logger.FieldMembership, m.ID))

	if err := r.transition(ctx, m, StatusProcessing); err != nil {
		log.Error("failed to claim membership", zap.Error(err))
		return err
	}

	err := func() error {
		text, err := resumeText(m)
		if err != nil {
			return err
		}
		cand, err := r.resumes.Extract(ctx, text, m.UpdateNotes)
		if err != nil {
			return err
		}
		if m.CandidateID == "" {
			m.CandidateID = uuid.NewString()
		}
		cand.ID = m.CandidateID
		if err := r.store.SaveCandidate(ctx, cand); err != nil {
			return err
		}
		return r.transition(ctx, m, StatusMatching)
	}()
	if err != nil {
		log.Error("resume parsing failed", zap.Error(err))
		return r.fail(ctx, m, err)
	}

	log.Info("resume parsed", zap.String("candidate_id", m.CandidateID))
	return nil
}

// MatchReady matches memberships waiting for a result in parallel.
func (r *Runner) MatchReady(ctx context.Context) (Report, error) {
	if r.matcher == nil {
		return Report{}, errors.New("match ready: no matcher configured")
	}
	ready, err := r.store.ListByStatus(ctx, StatusMatching, r.limit)
	if err != nil {
		return Report{}, err
	}
	return r.each(ready, func(m *Membership) error { return r.match(ctx, m, nil) }), nil
}

// Rescore re-aggregates the finished memberships of a job with its current
// weights, reusing the stored dimension results.
func (r *Runner) Rescore(ctx context.Context, jobID string) (Report, error) {
	if r.matcher == nil {
		return Report{}, errors.New("rescore: no matcher configured")
	}
	job, err := r.store.Job(ctx, jobID)
	if err != nil {
		return Report{}, err
	}
	all, err := r.store.ListByJob(ctx, jobID)
	if err != nil {
		return Report{}, err
	}

	var done []*Membership
	for _, m := range all {
		if m.Status == StatusDone && len(m.Dimensions) > 0 {
			done = append(done, m)
		}
	}

	rescoring := *job
	rescoring.UpdatedWeights = true

	report := r.each(done, func(m *Membership) error { return r.match(ctx, m, &rescoring) })
	if report.Failed == 0 && job.UpdatedWeights {
		job.UpdatedWeights = false
		if err := r.store.SaveJob(ctx, job); err != nil {
			return report, err
		}
	}
	return report, nil
}

// match scores one membership. A non-nil job re-aggregates stored results.
func (r *Runner) match(ctx context.Context, m *Membership, rescoring *profile.JobRequirement) error {
	log := r.logger.With(zap.String(logger.FieldMembership, m.ID))

	err := func() error {
		job := rescoring
		if job == nil {
			var err error
			if job, err = r.store.Job(ctx, m.JobID); err != nil {
				return err
			}
		}
		cand, err := r.store.Candidate(ctx, m.CandidateID)
		if err != nil {
			return err
		}

		in := matching.Input{Job: job, Candidate: cand}
		if rescoring != nil {
			in.Previous = m.Dimensions
		}
		out, err := r.matcher.Match(ctx, in)
		if err != nil {
			return err
		}
		if out.Scores.IsEmpty() {
			return fmt.Errorf("match %s produced no scores", out.RunID)
		}

		m.RunID = out.RunID
		m.Dimensions = out.Dimensions
		m.Scores = &out.Scores
		metrics.ObserveMatch(out.Scores.NormalizedScore)
		return r.transition(ctx, m, StatusDone)
	}()
	if err != nil {
		log.Error("matching failed", zap.Error(err))
		return r.fail(ctx, m, err)
	}

	log.Info("membership matched", zap.Float64("normalized_score", m.Scores.NormalizedScore))
	return nil
}

// each runs fn for every item with at most r.limit calls in flight.
func (r *Runner) each(items []*Membership, fn func(*Membership) error) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report Report
	)
	sem := make(chan struct{}, r.limit)
	for _, m := range items {
		wg.Add(1)
		sem <- struct{}{}
		go func(m *Membership) {
			defer wg.Done()
			defer func() { <-sem }()
			err := fn(m)
			mu.Lock()
			report.add(err)
			mu.Unlock()
		}(m)
	}
	wg.Wait()
	return report
}

func (r *Runner) transition(ctx context.Context, m *Membership, next Status) error {
	if err := m.moveTo(next, r.now()); err != nil {
		return err
	}
	if err := r.store.SaveMembership(ctx, m); err != nil {
		return err
	}
	metrics.ObserveTransition(string(next))
	return nil
}

// fail records err on the membership and returns it.
func (r *Runner) fail(ctx context.Context, m *Membership, cause error) error {
	m.Status = StatusError
	m.Error = cause.Error()
	m.Scores = nil
	m.UpdatedAt = r.now()
	if err := r.store.SaveMembership(context.WithoutCancel(ctx), m); err != nil {
		r.logger.Error("failed to record membership error",
			zap.String(logger.FieldMembership, m.ID),
			zap.Error(err),
		)
	}
	metrics.ObserveTransition(string(StatusError))
	return cause
}

func resumeText(m *Membership) (string, error) {
	if strings.TrimSpace(m.ResumeText) != "" {
		return m.ResumeText, nil
	}
	if m.ResumePath == "" {
		return "", errors.New("membership has neither resume text nor resume path")
	}
	data, err := os.ReadFile(m.ResumePath)
	if err != nil {
		return "", fmt.Errorf("read resume: %w", err)
	}
	return string(data), nil
}
