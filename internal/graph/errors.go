package graph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStepLimit is reported when a run dispatches more nodes than allowed.
var ErrStepLimit = errors.New("step limit exceeded (possible cycle)")

// ExecutionError describes a structurally invalid graph. It is returned by Compile only.
type ExecutionError struct {
	Graph    string
	Problems []string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("graph %q is invalid: %s", e.Graph, strings.Join(e.Problems, "; "))
}

// NodeError is a failure contained to one branch of a run.
type NodeError struct {
	Node  string
	Err   error
	Panic bool
	Stack []byte
}

func (e *NodeError) Error() string {
	if e.Panic {
		return fmt.Sprintf("node %q panicked: %v", e.Node, e.Err)
	}
	return fmt.Sprintf("node %q: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

// RunError reports a run that finished with failed branches. No state is
// returned alongside it.
type RunError struct {
	Graph    string
	RunID    string
	Failures []*NodeError
}

func (e *RunError) Error() string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("graph %q run %s: %d branch(es) failed: %s", e.Graph, e.RunID, len(e.Failures), strings.Join(msgs, "; "))
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

func asNodeError(node string, err error) *NodeError {
	var nerr *NodeError
	if errors.As(err, &nerr) && nerr.Node == node {
		return nerr
	}
	return &NodeError{Node: node, Err: err}
}
