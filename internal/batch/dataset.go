package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/profile"
)

// Dataset is the import file format.
type Dataset struct {
	Jobs        []*profile.JobRequirement `json:"jobs"`
	Candidates  []*profile.Candidate      `json:"candidates"`
	Memberships []*Membership             `json:"memberships"`
}

func DecodeDataset(r io.Reader) (*Dataset, error) {
	var d Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &d, nil
}

// Import stores a dataset. Missing ids are generated. A membership without a
// status starts as PENDING, or MATCHING when it already has a candidate.
func (r *Runner) Import(ctx context.Context, d *Dataset) (Report, error) {
	var report Report

	for _, job := range d.Jobs {
		if job.ID == "" {
			job.ID = uuid.NewString()
		}
		job.Normalize()
		err := job.Validate()
		if err == nil {
			err = r.store.SaveJob(ctx, job)
		}
		if err != nil {
			r.logger.Error("job import failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		report.add(err)
	}

	for _, c := range d.Candidates {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		err := r.store.SaveCandidate(ctx, c)
		if err != nil {
			r.logger.Error("candidate import failed", zap.String("candidate_id", c.ID), zap.Error(err))
		}
		report.add(err)
	}

	for _, m := range d.Memberships {
		err := r.importMembership(ctx, m)
		if err != nil {
			r.logger.Error("membership import failed", zap.String(logger.FieldMembership, m.ID), zap.Error(err))
		}
		report.add(err)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (r *Runner) importMembership(ctx context.Context, m *Membership) error {
	if m.JobID == "" {
		return errors.New("membership has no job id")
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = StatusPending
		if m.CandidateID != "" {
			m.Status = StatusMatching
		}
	}
	now := r.now()
	m.CreatedAt, m.UpdatedAt = now, now
	return r.store.SaveMembership(ctx, m)
}
