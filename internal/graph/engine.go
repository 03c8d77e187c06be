package graph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/logger"
)

const defaultMaxSteps = 10_000

// Engine executes compiled graphs. It holds no per-run state and may run
// many graphs concurrently.
type Engine struct {
	logger      *zap.Logger
	observer    Observer
	maxSteps    int
	concurrency int
	now         func() time.Time
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger.OrNop(l) }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithMaxSteps bounds the number of node dispatches in a single run.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// WithConcurrency limits how many nodes of one run execute at once. Zero means unlimited.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.concurrency = n
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   zap.NewNop(),
		observer: nopObserver{},
		maxSteps: defaultMaxSteps,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type completion struct {
	node     string
	result   Result
	err      error
	started  time.Time
	duration time.Duration
}

type run struct {
	engine *Engine
	graph  *Graph
	ctx    context.Context
	log    *zap.Logger
	state  State
	trace  *Trace

	inflight map[string]int
	active   int
	arrivals map[string]int
	blocked  map[string]bool
	failures []*NodeError
	steps    int

	done chan completion
	stop chan struct{}
	sem  chan struct{}
}

// Run executes g from its entry until no node is pending. The returned state
// is nil when the context ends first or any branch failed.
func (e *Engine) Run(ctx context.Context, g *Graph, initial State) (State, *Trace, error) {
	if g == nil {
		return nil, nil, errors.New("graph is nil")
	}

	r := &run{
		engine:   e,
		graph:    g,
		ctx:      ctx,
		state:    initial.Clone(),
		trace:    &Trace{RunID: uuid.NewString(), Graph: g.name},
		inflight: map[string]int{},
		arrivals: map[string]int{},
		blocked:  map[string]bool{},
		done:     make(chan completion),
		stop:     make(chan struct{}),
	}
	r.log = e.logger.With(logger.RunFields(g.name, r.trace.RunID)...)
	if e.concurrency > 0 {
		r.sem = make(chan struct{}, e.concurrency)
	}
	defer close(r.stop)

	started := e.now()

	entry, err := g.entry(r.state)
	if err != nil {
		e.observer.ObserveRun(g.name, OutcomeFailed, e.now().Sub(started))
		return nil, r.trace, fmt.Errorf("graph %q: resolve entry: %w", g.name, err)
	}
	r.trace.Entry = entry
	r.log.Debug("graph run started", zap.Strings("entry", entry))

	for _, name := range entry {
		r.activate(name)
	}
	r.fireJoins()

	for r.active > 0 {
		select {
		case <-ctx.Done():
			return nil, r.trace, r.cancelled(started)
		case c := <-r.done:
			r.complete(c)
		}
		r.fireJoins()
	}

	if ctx.Err() != nil {
		return nil, r.trace, r.cancelled(started)
	}

	elapsed := e.now().Sub(started)
	if len(r.failures) > 0 {
		e.observer.ObserveRun(g.name, OutcomeFailed, elapsed)
		return nil, r.trace, &RunError{Graph: g.name, RunID: r.trace.RunID, Failures: r.failures}
	}

	e.observer.ObserveRun(g.name, OutcomeSucceeded, elapsed)
	r.log.Debug("graph run finished", zap.Duration("duration", elapsed), zap.Int("steps", len(r.trace.Steps)))
	return r.state, r.trace, nil
}

func (r *run) cancelled(started time.Time) error {
	r.log.Warn("graph run cancelled, partial state discarded",
		zap.Error(r.ctx.Err()),
		zap.Int("in_flight", r.active),
	)
	r.engine.observer.ObserveRun(r.graph.name, OutcomeCancelled, r.engine.now().Sub(started))
	return r.ctx.Err()
}

func (r *run) activate(name string) {
	if name == End {
		return
	}
	if r.graph.joins[name] {
		r.arrivals[name]++
		return
	}
	r.dispatch(name)
}

func (r *run) dispatch(name string) {
	r.steps++
	if r.steps > r.engine.maxSteps {
		r.fail(&NodeError{Node: name, Err: ErrStepLimit})
		return
	}

	r.inflight[name]++
	r.active++

	n := r.graph.nodes[name]
	snapshot := r.state.Clone()
	go r.execute(n, snapshot)
}

func (r *run) execute(n *node, snapshot State) {
	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-r.ctx.Done():
			r.send(completion{node: n.name, err: r.ctx.Err()})
			return
		}
	}

	r.log.Debug("node started", zap.String(logger.FieldNode, n.name))
	started := r.engine.now()
	res, err := invoke(r.ctx, n, snapshot)
	r.send(completion{
		node:     n.name,
		result:   res,
		err:      err,
		started:  started,
		duration: r.engine.now().Sub(started),
	})
}

func (r *run) send(c completion) {
	select {
	case r.done <- c:
	case <-r.stop:
	}
}

func invoke(ctx context.Context, n *node, state State) (res Result, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &NodeError{Node: n.name, Err: fmt.Errorf("%v", v), Panic: true, Stack: debug.Stack()}
		}
	}()
	return n.fn(ctx, state)
}

func (r *run) complete(c completion) {
	r.inflight[c.node]--
	r.active--

	step := Step{Node: c.node, StartedAt: c.started, DurationMicros: c.duration.Microseconds()}

	if c.err != nil {
		nerr := asNodeError(c.node, c.err)
		step.Error = nerr.Error()
		r.trace.add(step)
		r.engine.observer.ObserveNode(r.graph.name, c.node, c.duration, nerr)
		r.fail(nerr)
		return
	}

	r.state.merge(c.result.Patch)

	next, err := r.next(c.node, c.result)
	if err != nil {
		nerr := &NodeError{Node: c.node, Err: err}
		step.Error = nerr.Error()
		r.trace.add(step)
		r.engine.observer.ObserveNode(r.graph.name, c.node, c.duration, nerr)
		r.fail(nerr)
		return
	}

	step.Next = next
	r.trace.add(step)
	r.engine.observer.ObserveNode(r.graph.name, c.node, c.duration, nil)
	r.log.Debug("node finished",
		zap.String(logger.FieldNode, c.node),
		zap.Duration("duration", c.duration),
		zap.Strings("next", next),
	)

	for _, name := range next {
		r.activate(name)
	}
}

// next resolves the successors of a finished node. An explicit goto
// replaces static and conditional edges.
func (r *run) next(name string, res Result) ([]string, error) {
	if target, ok := res.Next(); ok {
		if target != End && !slices.Contains(r.graph.nodes[name].gotos, target) {
			return nil, fmt.Errorf("goto to undeclared node %q", target)
		}
		return []string{target}, nil
	}

	targets := slices.Clone(r.graph.edges[name])
	if rt := r.graph.routes[name]; rt != nil {
		chosen, err := resolveRoute(name, rt, r.state)
		if err != nil {
			return nil, err
		}
		for _, t := range chosen {
			if !slices.Contains(targets, t) {
				targets = append(targets, t)
			}
		}
	}
	return targets, nil
}

func (r *run) fail(err *NodeError) {
	r.failures = append(r.failures, err)
	r.log.Error("graph branch failed", zap.String(logger.FieldNode, err.Node), zap.Error(err))

	for join := range r.graph.reach[err.Node] {
		if r.graph.joins[join] {
			r.blocked[join] = true
		}
	}
}

// fireJoins runs every join whose live predecessors have all settled.
func (r *run) fireJoins() {
	for _, name := range r.graph.order {
		if !r.graph.joins[name] || r.arrivals[name] == 0 || r.inflight[name] > 0 {
			continue
		}
		if !r.joinReady(name) {
			continue
		}

		r.arrivals[name] = 0
		if r.blocked[name] {
			r.log.Warn("join skipped after upstream failure", zap.String(logger.FieldNode, name))
			r.trace.add(Step{Node: name, StartedAt: r.engine.now(), Skipped: true})
			continue
		}
		r.dispatch(name)
	}
}

// joinReady reports that no predecessor of join is running, waiting as a
// join itself, or can still be reached from a running or waiting node.
func (r *run) joinReady(join string) bool {
	for _, p := range r.graph.preds[join] {
		if r.inflight[p] > 0 {
			return false
		}
		for other, n := range r.inflight {
			if n > 0 && other != join && r.graph.reach[other][p] {
				return false
			}
		}
		for other, n := range r.arrivals {
			if n == 0 || other == join || r.graph.reach[join][other] {
				continue
			}
			if other == p || r.graph.reach[other][p] {
				return false
			}
		}
	}
	return true
}

func (g *Graph) entry(s State) ([]string, error) {
	if rt := g.routes[Start]; rt != nil {
		return resolveRoute(Start, rt, s)
	}
	return slices.Clone(g.edges[Start]), nil
}

func resolveRoute(from string, rt *route, s State) ([]string, error) {
	targets, err := rt.fn(s.Clone())
	if err != nil {
		return nil, fmt.Errorf("route from %q: %w", from, err)
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("route from %q chose no targets", from)
	}

	out := make([]string, 0, len(targets))
	for _, t := range targets {
		if !slices.Contains(rt.destinations, t) {
			return nil, fmt.Errorf("route from %q chose undeclared node %q", from, t)
		}
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out, nil
}
