package batch

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/profile"
)

func setupStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, "test"), mr
}

func TestStoreJobRoundTrip(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	job := &profile.JobRequirement{ID: "j1", JobTitle: "SRE", Weights: map[string]float64{"coreSkills": 30}}
	require.NoError(t, store.SaveJob(ctx, job))

	got, err := store.Job(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, job, got)

	_, err = store.Job(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreCandidateKeepsDates(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	cand := &profile.Candidate{
		ID: "c1",
		EmploymentHistory: []profile.Employment{{
			CompanyName: "Acme",
			StartDate:   profile.NewDate(2020, time.March),
			EndDate:     profile.Current(),
		}},
	}
	require.NoError(t, store.SaveCandidate(ctx, cand))

	got, err := store.Candidate(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, got.EmploymentHistory[0].EndDate.IsCurrent())
	assert.Equal(t, cand.EmploymentHistory[0].StartDate.String(), got.EmploymentHistory[0].StartDate.String())
}

func TestStoreMembershipStatusIndex(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	base := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, store.SaveMembership(ctx, &Membership{
			ID:        id,
			JobID:     "j1",
			Status:    StatusPending,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	pending, err := store.ListByStatus(ctx, StatusPending, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "m1", pending[0].ID)
	assert.Equal(t, "m2", pending[1].ID)

	m2 := pending[1]
	m2.Status = StatusProcessing
	require.NoError(t, store.SaveMembership(ctx, m2))

	members, err := mr.ZMembers("test:status:PENDING")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m3"}, members)

	counts, err := store.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[StatusPending])
	assert.Equal(t, int64(1), counts[StatusProcessing])
	assert.Zero(t, counts[StatusDone])

	byJob, err := store.ListByJob(ctx, "j1")
	require.NoError(t, err)
	assert.Len(t, byJob, 3)
}

func TestStoreMembershipKeepsResults(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	score := 0.8
	passed := true
	m := &Membership{
		ID:     "m1",
		JobID:  "j1",
		Status: StatusDone,
		Dimensions: map[string]matching.Result{
			matching.CoreSkills: {Score: &score, Passed: &passed, Title: "Core Skills"},
		},
		Scores: &matching.CompositeResult{NormalizedScore: 0.8, Checks: map[string]bool{matching.CoreSkills: true}},
	}
	require.NoError(t, store.SaveMembership(ctx, m))

	got, err := store.Membership(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 0.8, *got.Dimensions[matching.CoreSkills].Score)
	assert.True(t, got.Scores.Checks[matching.CoreSkills])
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStoreRejectsUnknownStatus(t *testing.T) {
	store, _ := setupStore(t)
	err := store.SaveMembership(context.Background(), &Membership{ID: "m1", JobID: "j1", Status: "LOST"})
	assert.ErrorContains(t, err, "unknown status")
}

func TestMembershipTransitions(t *testing.T) {
	now := time.Now()
	m := &Membership{ID: "m1", Status: StatusPending}

	require.ErrorIs(t, m.moveTo(StatusDone, now), ErrInvalidTransition)
	require.NoError(t, m.moveTo(StatusProcessing, now))
	require.NoError(t, m.moveTo(StatusMatching, now))

	m.Scores = &matching.CompositeResult{NormalizedScore: 1}
	require.NoError(t, m.moveTo(StatusDone, now))
	assert.NotNil(t, m.Scores)

	require.NoError(t, m.moveTo(StatusMatching, now))
	assert.Nil(t, m.Scores, "leaving DONE drops the scores")
}
