package graph

import "time"

// Trace records what one run executed, in completion order.
type Trace struct {
	RunID string   `json:"run_id"`
	Graph string   `json:"graph"`
	Entry []string `json:"entry"`
	Steps []Step   `json:"steps"`
}

// Step is a single node execution. Skipped joins are recorded with Skipped set.
type Step struct {
	Node           string    `json:"node"`
	StartedAt      time.Time `json:"started_at"`
	DurationMicros int64     `json:"duration_micros"`
	Next           []string  `json:"next,omitempty"`
	Error          string    `json:"error,omitempty"`
	Skipped        bool      `json:"skipped,omitempty"`
}

// Visited returns executed node names in completion order, skipped joins excluded.
func (t *Trace) Visited() []string {
	if t == nil {
		return nil
	}
	out := make([]string, 0, len(t.Steps))
	for _, s := range t.Steps {
		if !s.Skipped {
			out = append(out, s.Node)
		}
	}
	return out
}

// Count returns how many times node was executed.
func (t *Trace) Count(node string) int {
	n := 0
	for _, name := range t.Visited() {
		if name == node {
			n++
		}
	}
	return n
}

func (t *Trace) add(step Step) {
	t.Steps = append(t.Steps, step)
}
