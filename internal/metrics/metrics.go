// Package metrics holds the Prometheus collectors of jd-matcher.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/graph"
)

var (
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jdm_graph_node_duration_seconds",
			Help:    "Duration of graph node executions in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"graph", "node"},
	)

	NodeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jdm_graph_node_failures_total",
			Help: "Total number of failed graph node executions",
		},
		[]string{"graph", "node"},
	)

	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jdm_graph_runs_total",
			Help: "Total number of graph runs by outcome",
		},
		[]string{"graph", "outcome"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jdm_graph_run_duration_seconds",
			Help:    "Duration of graph runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"graph"},
	)

	EvaluatorCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jdm_evaluator_calls_total",
			Help: "Total number of evaluator calls by dimension and result",
		},
		[]string{"dimension", "result"},
	)

	EvaluatorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jdm_evaluator_call_duration_seconds",
			Help:    "Duration of evaluator calls in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"dimension"},
	)

	MatchScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jdm_match_normalized_score",
			Help:    "Normalized composite score of finished matches",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		},
	)

	MembershipTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jdm_batch_membership_transitions_total",
			Help: "Total number of membership status transitions by target status",
		},
		[]string{"status"},
	)
)

// GraphObserver records graph engine events.
type GraphObserver struct{}

var _ graph.Observer = GraphObserver{}

func (GraphObserver) ObserveNode(graphName, node string, d time.Duration, err error) {
	NodeDuration.WithLabelValues(graphName, node).Observe(d.Seconds())
	if err != nil {
		NodeFailures.WithLabelValues(graphName, node).Inc()
	}
}

func (GraphObserver) ObserveRun(graphName string, outcome graph.Outcome, d time.Duration) {
	RunsTotal.WithLabelValues(graphName, string(outcome)).Inc()
	RunDuration.WithLabelValues(graphName).Observe(d.Seconds())
}

type instrumented struct {
	next evaluator.Evaluator
}

// InstrumentEvaluator counts and times every call of ev.
func InstrumentEvaluator(ev evaluator.Evaluator) evaluator.Evaluator {
	return instrumented{next: ev}
}

func (i instrumented) Evaluate(ctx context.Context, req evaluator.Request) (map[string]any, error) {
	started := time.Now()
	out, err := i.next.Evaluate(ctx, req)
	EvaluatorDuration.WithLabelValues(req.Dimension).Observe(time.Since(started).Seconds())

	result := "ok"
	if err != nil {
		result = "error"
	}
	EvaluatorCalls.WithLabelValues(req.Dimension, result).Inc()
	return out, err
}

func ObserveMatch(normalizedScore float64) {
	MatchScore.Observe(normalizedScore)
}

func ObserveTransition(status string) {
	MembershipTransitions.WithLabelValues(status).Inc()
}

// WriteFile writes every registered metric to path in the text exposition
// format, for the node exporter textfile collector.
func WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}
	return nil
}
