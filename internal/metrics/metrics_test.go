package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/graph"
)

func TestGraphObserverCountsFailuresAndRuns(t *testing.T) {
	obs := GraphObserver{}

	obs.ObserveNode("observer-test", "a", 10*time.Millisecond, nil)
	obs.ObserveNode("observer-test", "a", 10*time.Millisecond, errors.New("boom"))
	obs.ObserveRun("observer-test", graph.OutcomeFailed, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(NodeFailures.WithLabelValues("observer-test", "a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RunsTotal.WithLabelValues("observer-test", "failed")))
	assert.Zero(t, testutil.ToFloat64(RunsTotal.WithLabelValues("observer-test", "succeeded")))
}

func TestGraphObserverWithEngine(t *testing.T) {
	g, err := graph.NewBuilder("observer-engine").
		AddNode("only", func(context.Context, graph.State) (graph.Result, error) {
			return graph.Update(graph.State{"done": true}), nil
		}).
		AddEdge(graph.Start, "only").
		AddEdge("only", graph.End).
		Compile()
	require.NoError(t, err)

	_, _, err = graph.NewEngine(graph.WithObserver(GraphObserver{})).Run(context.Background(), g, graph.State{})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(RunsTotal.WithLabelValues("observer-engine", "succeeded")))
	assert.Zero(t, testutil.ToFloat64(NodeFailures.WithLabelValues("observer-engine", "only")))
}

func TestInstrumentEvaluator(t *testing.T) {
	calls := 0
	ev := InstrumentEvaluator(evaluator.Func(func(_ context.Context, req evaluator.Request) (map[string]any, error) {
		calls++
		if req.Model == "bad" {
			return nil, errors.New("unavailable")
		}
		return map[string]any{"confidence": 1}, nil
	}))

	_, err := ev.Evaluate(context.Background(), evaluator.Request{Dimension: "instrumented"})
	require.NoError(t, err)
	_, err = ev.Evaluate(context.Background(), evaluator.Request{Dimension: "instrumented", Model: "bad"})
	require.Error(t, err)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(EvaluatorCalls.WithLabelValues("instrumented", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(EvaluatorCalls.WithLabelValues("instrumented", "error")))
}

func TestWriteFile(t *testing.T) {
	ObserveTransition("TEXTFILE")
	ObserveMatch(0.42)

	path := filepath.Join(t.TempDir(), "jdm.prom")
	require.NoError(t, WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `jdm_batch_membership_transitions_total{status="TEXTFILE"} 1`)
	assert.Contains(t, string(data), "jdm_match_normalized_score_bucket")
}

func TestWriteFileBadPath(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "dir", "jdm.prom"))
	assert.ErrorContains(t, err, "write metrics")
}
