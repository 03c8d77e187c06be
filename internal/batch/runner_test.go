package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/profile"
)

type fakeExtractor struct {
	fail map[string]bool
}

func (f *fakeExtractor) Extract(_ context.Context, resume, _ string) (*profile.Candidate, error) {
	if f.fail[resume] {
		return nil, errors.New("unreadable resume")
	}
	return &profile.Candidate{Name: resume, TotalExperience: profile.Tenure{Years: 3}}, nil
}

type fakeMatcher struct {
	mu     sync.Mutex
	inputs []matching.Input
	fail   map[string]bool
	delay  time.Duration
	active int32
	peak   int32
}

func (f *fakeMatcher) Match(_ context.Context, in matching.Input) (*matching.Outcome, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	if f.delay > 0 {
		n := atomic.AddInt32(&f.active, 1)
		for {
			peak := atomic.LoadInt32(&f.peak)
			if n <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, n) {
				break
			}
		}
		time.Sleep(f.delay)
		atomic.AddInt32(&f.active, -1)
	}

	if f.fail[in.Candidate.ID] {
		return nil, errors.New("evaluator down")
	}
	score := 1.0
	if in.Job.UpdatedWeights {
		score = 0.5
	}
	return &matching.Outcome{
		RunID:      "run-" + in.Candidate.ID,
		Dimensions: map[string]matching.Result{matching.CoreSkills: {Score: &score}},
		Scores:     matching.CompositeResult{NormalizedScore: score, Checks: map[string]bool{}},
	}, nil
}

func seedJob(t *testing.T, store Store) {
	t.Helper()
	require.NoError(t, store.SaveJob(context.Background(), &profile.JobRequirement{
		ID: "j1", JobTitle: "SRE", JobLevel: "Senior", JobLocation: "Remote",
		CoreSkills: []string{"go"}, MandatorySkills: []string{},
	}))
}

func TestParsePending(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	seedJob(t, store)

	resumePath := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(resumePath, []byte("from file"), 0o600))

	require.NoError(t, store.SaveMembership(ctx, &Membership{ID: "ok", JobID: "j1", Status: StatusPending, ResumeText: "good"}))
	require.NoError(t, store.SaveMembership(ctx, &Membership{ID: "file", JobID: "j1", Status: StatusPending, ResumePath: resumePath}))
	require.NoError(t, store.SaveMembership(ctx, &Membership{ID: "bad", JobID: "j1", Status: StatusPending, ResumeText: "broken"}))

	runner := NewRunner(store, &fakeMatcher{}, &fakeExtractor{fail: map[string]bool{"broken": true}}, 5, nil)
	report, err := runner.ParsePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Processed: 3, Succeeded: 2, Failed: 1}, report)

	ok, err := store.Membership(ctx, "ok")
	require.NoError(t, err)
	assert.Equal(t, StatusMatching, ok.Status)
	require.NotEmpty(t, ok.CandidateID)

	cand, err := store.Candidate(ctx, ok.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, "good", cand.Name)

	fromFile, err := store.Membership(ctx, "file")
	require.NoError(t, err)
	assert.Equal(t, StatusMatching, fromFile.Status)

	bad, err := store.Membership(ctx, "bad")
	require.NoError(t, err)
	assert.Equal(t, StatusError, bad.Status)
	assert.Contains(t, bad.Error, "unreadable resume")
}

func TestParsePendingRespectsLimit(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveMembership(ctx, &Membership{ID: id, JobID: "j1", Status: StatusPending, ResumeText: id}))
	}

	runner := NewRunner(store, &fakeMatcher{}, &fakeExtractor{}, 2, nil)
	report, err := runner.ParsePending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[StatusPending])
	assert.Equal(t, int64(2), counts[StatusMatching])
}

func TestMatchReady(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	seedJob(t, store)

	for _, id := range []string{"c1", "c2", "c3"} {
		require.NoError(t, store.SaveCandidate(ctx, &profile.Candidate{ID: id}))
		require.NoError(t, store.SaveMembership(ctx, &Membership{ID: "m-" + id, JobID: "j1", CandidateID: id, Status: StatusMatching}))
	}

	matcher := &fakeMatcher{fail: map[string]bool{"c2": true}}
	runner := NewRunner(store, matcher, nil, 5, nil)

	report, err := runner.MatchReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, Report{Processed: 3, Succeeded: 2, Failed: 1}, report)

	done, err := store.Membership(ctx, "m-c1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, done.Status)
	require.NotNil(t, done.Scores)
	assert.Equal(t, 1.0, done.Scores.NormalizedScore)
	assert.Equal(t, "run-c1", done.RunID)

	failed, err := store.Membership(ctx, "m-c2")
	require.NoError(t, err)
	assert.Equal(t, StatusError, failed.Status)
	assert.Equal(t, "evaluator down", failed.Error)
}

func TestMatchReadyMissingCandidateFails(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	seedJob(t, store)
	require.NoError(t, store.SaveMembership(ctx, &Membership{ID: "m1", JobID: "j1", CandidateID: "ghost", Status: StatusMatching}))

	report, err := NewRunner(store, &fakeMatcher{}, nil, 5, nil).MatchReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)

	m, err := store.Membership(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, StatusError, m.Status)
	assert.Contains(t, m.Error, "not found")
}

func TestRescoreReusesStoredDimensions(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveJob(ctx, &profile.JobRequirement{ID: "j1", JobTitle: "SRE", UpdatedWeights: true}))
	require.NoError(t, store.SaveCandidate(ctx, &profile.Candidate{ID: "c1"}))

	prev := 0.9
	require.NoError(t, store.SaveMembership(ctx, &Membership{
		ID: "m1", JobID: "j1", CandidateID: "c1", Status: StatusDone,
		Dimensions: map[string]matching.Result{matching.CoreSkills: {Score: &prev}},
		Scores:     &matching.CompositeResult{NormalizedScore: 0.9},
	}))
	require.NoError(t, store.SaveMembership(ctx, &Membership{ID: "m2", JobID: "j1", CandidateID: "c1", Status: StatusMatching}))

	matcher := &fakeMatcher{}
	report, err := NewRunner(store, matcher, nil, 5, nil).Rescore(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, Report{Processed: 1, Succeeded: 1}, report)

	require.Len(t, matcher.inputs, 1)
	in := matcher.inputs[0]
	assert.True(t, in.Job.UpdatedWeights)
	assert.Equal(t, 0.9, *in.Previous[matching.CoreSkills].Score)

	m, err := store.Membership(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, m.Status)
	assert.Equal(t, 0.5, m.Scores.NormalizedScore)

	job, err := store.Job(ctx, "j1")
	require.NoError(t, err)
	assert.False(t, job.UpdatedWeights)
}

func TestRescoreBoundsParallelMatches(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveJob(ctx, &profile.JobRequirement{ID: "j1", JobTitle: "SRE", UpdatedWeights: true}))
	require.NoError(t, store.SaveCandidate(ctx, &profile.Candidate{ID: "c1"}))

	prev := 0.9
	for _, id := range []string{"m1", "m2", "m3", "m4", "m5"} {
		require.NoError(t, store.SaveMembership(ctx, &Membership{
			ID: id, JobID: "j1", CandidateID: "c1", Status: StatusDone,
			Dimensions: map[string]matching.Result{matching.CoreSkills: {Score: &prev}},
		}))
	}

	matcher := &fakeMatcher{delay: 20 * time.Millisecond}
	report, err := NewRunner(store, matcher, nil, 2, nil).Rescore(ctx, "j1")
	require.NoError(t, err)

	assert.Equal(t, Report{Processed: 5, Succeeded: 5}, report)
	assert.LessOrEqual(t, atomic.LoadInt32(&matcher.peak), int32(2))
	assert.Len(t, matcher.inputs, 5)
}

func TestImportDataset(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	input := `{
		"jobs": [
			{"id": "j1", "jobTitle": "SRE", "jobLevel": "Senior", "jobLocation": "Remote", "coreSkills": ["Go"], "mandatorySkills": []},
			{"id": "j2", "jobTitle": "No level"}
		],
		"candidates": [{"id": "c1", "name": "Ari", "employmentHistory": [], "skills": []}],
		"memberships": [
			{"jobId": "j1", "resumeText": "resume"},
			{"id": "m2", "jobId": "j1", "candidateId": "c1"},
			{"id": "m3"}
		]
	}`
	d, err := DecodeDataset(bytes.NewBufferString(input))
	require.NoError(t, err)

	report, err := NewRunner(store, &fakeMatcher{}, nil, 5, nil).Import(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, Report{Processed: 6, Succeeded: 4, Failed: 2}, report)

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[StatusPending])
	assert.Equal(t, int64(1), counts[StatusMatching])

	job, err := store.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, job.CoreSkills)

	_, err = store.Job(ctx, "j2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeDatasetRejectsUnknownFields(t *testing.T) {
	_, err := DecodeDataset(bytes.NewBufferString(`{"resumes": []}`))
	assert.Error(t, err)
}
