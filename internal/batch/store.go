package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/jd-matcher/internal/profile"
)

var ErrNotFound = errors.New("not found")

// Store persists jobs, candidates and memberships.
type Store interface {
	SaveJob(ctx context.Context, job *profile.JobRequirement) error
	Job(ctx context.Context, id string) (*profile.JobRequirement, error)
	SaveCandidate(ctx context.Context, c *profile.Candidate) error
	Candidate(ctx context.Context, id string) (*profile.Candidate, error)
	SaveMembership(ctx context.Context, m *Membership) error
	Membership(ctx context.Context, id string) (*Membership, error)
	// ListByStatus returns up to limit memberships, least recently updated first.
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Membership, error)
	ListByJob(ctx context.Context, jobID string) ([]*Membership, error)
	CountByStatus(ctx context.Context) (map[Status]int64, error)
}

type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore keeps documents as JSON strings and one sorted set per status
// scored by update time.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "jdm"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) jobKey(id string) string        { return s.prefix + ":job:" + id }
func (s *RedisStore) candidateKey(id string) string  { return s.prefix + ":candidate:" + id }
func (s *RedisStore) membershipKey(id string) string { return s.prefix + ":membership:" + id }
func (s *RedisStore) statusKey(st Status) string     { return s.prefix + ":status:" + string(st) }
func (s *RedisStore) jobIndexKey(jobID string) string {
	return s.prefix + ":job:" + jobID + ":memberships"
}

func (s *RedisStore) SaveJob(ctx context.Context, job *profile.JobRequirement) error {
	if job.ID == "" {
		return errors.New("save job: id is required")
	}
	return s.put(ctx, s.jobKey(job.ID), job)
}

func (s *RedisStore) Job(ctx context.Context, id string) (*profile.JobRequirement, error) {
	var job profile.JobRequirement
	if err := s.get(ctx, s.jobKey(id), &job); err != nil {
		return nil, fmt.Errorf("job %s: %w", id, err)
	}
	return &job, nil
}

func (s *RedisStore) SaveCandidate(ctx context.Context, c *profile.Candidate) error {
	if c.ID == "" {
		return errors.New("save candidate: id is required")
	}
	return s.put(ctx, s.candidateKey(c.ID), c)
}

func (s *RedisStore) Candidate(ctx context.Context, id string) (*profile.Candidate, error) {
	var c profile.Candidate
	if err := s.get(ctx, s.candidateKey(id), &c); err != nil {
		return nil, fmt.Errorf("candidate %s: %w", id, err)
	}
	return &c, nil
}

// SaveMembership writes the document and moves it to its status index in
// one transaction.
func (s *RedisStore) SaveMembership(ctx context.Context, m *Membership) error {
	if m.ID == "" {
		return errors.New("save membership: id is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("save membership %s: unknown status %q", m.ID, m.Status)
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = time.Now().UTC()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = m.UpdatedAt
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode membership %s: %w", m.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.membershipKey(m.ID), data, 0)
		for _, st := range Statuses {
			if st != m.Status {
				pipe.ZRem(ctx, s.statusKey(st), m.ID)
			}
		}
		pipe.ZAdd(ctx, s.statusKey(m.Status), redis.Z{Score: float64(m.UpdatedAt.UnixMilli()), Member: m.ID})
		pipe.SAdd(ctx, s.jobIndexKey(m.JobID), m.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save membership %s: %w", m.ID, err)
	}
	return nil
}

func (s *RedisStore) Membership(ctx context.Context, id string) (*Membership, error) {
	var m Membership
	if err := s.get(ctx, s.membershipKey(id), &m); err != nil {
		return nil, fmt.Errorf("membership %s: %w", id, err)
	}
	return &m, nil
}

func (s *RedisStore) ListByStatus(ctx context.Context, status Status, limit int) ([]*Membership, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.client.ZRange(ctx, s.statusKey(status), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s memberships: %w", status, err)
	}
	return s.memberships(ctx, ids)
}

func (s *RedisStore) ListByJob(ctx context.Context, jobID string) ([]*Membership, error) {
	ids, err := s.client.SMembers(ctx, s.jobIndexKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list memberships of job %s: %w", jobID, err)
	}
	return s.memberships(ctx, ids)
}

func (s *RedisStore) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	cmds := make(map[Status]*redis.IntCmd, len(Statuses))
	_, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, st := range Statuses {
			cmds[st] = pipe.ZCard(ctx, s.statusKey(st))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("count memberships: %w", err)
	}

	out := make(map[Status]int64, len(cmds))
	for st, cmd := range cmds {
		out[st] = cmd.Val()
	}
	return out, nil
}

func (s *RedisStore) memberships(ctx context.Context, ids []string) ([]*Membership, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.membershipKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load memberships: %w", err)
	}

	out := make([]*Membership, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// index entry without a document
			continue
		}
		var m Membership
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("decode membership %s: %w", ids[i], err)
		}
		out = append(out, &m)
	}
	return out, nil
}

func (s *RedisStore) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
