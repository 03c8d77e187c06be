package graph

import "time"

// Outcome classifies a finished run.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Observer receives timing for every executed node and finished run.
// Implementations must be safe for concurrent use across runs.
type Observer interface {
	ObserveNode(graph, node string, d time.Duration, err error)
	ObserveRun(graph string, outcome Outcome, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveNode(string, string, time.Duration, error) {}
func (nopObserver) ObserveRun(string, Outcome, time.Duration)        {}
