package graph

// State is the shared workflow state of one execution. Nodes receive a
// snapshot and return a patch; the engine is the only writer of the run state.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s State) merge(patch State) {
	for k, v := range patch {
		s[k] = v
	}
}

// Get returns the value stored under key as T. Absent keys, nil values and
// type mismatches report false.
func Get[T any](s State, key string) (T, bool) {
	var zero T
	v, ok := s[key]
	if !ok || v == nil {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

// Result is what a node returns: a state patch, optionally with an explicit
// next node that replaces the node's static and conditional edges.
type Result struct {
	Patch State
	next  string
}

// Update returns a result that follows the node's edges.
func Update(patch State) Result {
	return Result{Patch: patch}
}

// Goto returns a result that continues at node, which may be the node itself or End.
func Goto(patch State, node string) Result {
	return Result{Patch: patch, next: node}
}

// Next reports the explicit next node, if any.
func (r Result) Next() (string, bool) {
	return r.next, r.next != ""
}
