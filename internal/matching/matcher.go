package matching

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/graph"
	"github.com/spigell/jd-matcher/internal/logger"
	"github.com/spigell/jd-matcher/internal/profile"
)

// Matcher scores candidates against jobs.
type Matcher struct {
	graph  *graph.Graph
	engine *graph.Engine
	cfg    Config
	logger *zap.Logger
	dims   []string
}

// Input is one match request. Previous carries stored dimension results for
// runs that only re-aggregate.
type Input struct {
	Job       *profile.JobRequirement
	Candidate *profile.Candidate
	Previous  map[string]Result
}

// Outcome is the result of one match.
type Outcome struct {
	RunID      string            `json:"runId"`
	Dimensions map[string]Result `json:"dimensions"`
	Scores     CompositeResult   `json:"finalScores"`
	Trace      *graph.Trace      `json:"trace,omitempty"`
}

func NewMatcher(ev evaluator.Evaluator, cfg Config, log *zap.Logger, observer graph.Observer) (*Matcher, error) {
	if ev == nil {
		return nil, errors.New("matcher requires an evaluator")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights
	}
	weights, err := NormalizeWeights(cfg.Weights)
	if err != nil {
		return nil, fmt.Errorf("matching config: %w", err)
	}
	cfg.Weights = weights
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	log = logger.WithFields(log, zap.String(logger.FieldGraph, GraphName))
	n := &nodes{ev: ev, cfg: cfg, logger: log, now: cfg.Now}

	g, err := buildGraph(n)
	if err != nil {
		return nil, err
	}

	opts := []graph.Option{graph.WithLogger(log), graph.WithConcurrency(cfg.Concurrency)}
	if observer != nil {
		opts = append(opts, graph.WithObserver(observer))
	}

	return &Matcher{
		graph:  g,
		engine: graph.NewEngine(opts...),
		cfg:    cfg,
		logger: log,
		dims:   cfg.dimensions(),
	}, nil
}

// Graph returns the compiled matching graph.
func (m *Matcher) Graph() *graph.Graph { return m.graph }

func (m *Matcher) Match(ctx context.Context, in Input) (*Outcome, error) {
	if in.Job == nil {
		return nil, errors.New("match: job is required")
	}
	if in.Candidate == nil {
		return nil, errors.New("match: candidate is required")
	}

	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	initial := graph.State{
		KeyJob:       in.Job,
		KeyCandidate: in.Candidate,
	}
	for dim, r := range in.Previous {
		initial[dim] = r
	}

	final, trace, err := m.engine.Run(ctx, m.graph, initial)
	if err != nil {
		return nil, fmt.Errorf("match job %q: %w", in.Job.ID, err)
	}

	out := &Outcome{
		RunID:      trace.RunID,
		Dimensions: make(map[string]Result, len(m.dims)),
		Trace:      trace,
	}
	for _, dim := range m.dims {
		if r, ok := graph.Get[Result](final, dim); ok {
			out.Dimensions[dim] = r
		}
	}
	out.Scores, _ = graph.Get[CompositeResult](final, KeyFinalScores)

	m.logger.Info("match finished",
		zap.String(logger.FieldRunID, out.RunID),
		zap.String("job_id", in.Job.ID),
		zap.String("candidate_id", in.Candidate.ID),
		zap.Float64("normalized_score", out.Scores.NormalizedScore),
		zap.Bool("rescored", slices.Equal(trace.Entry, []string{ScoringNode})),
	)
	return out, nil
}
