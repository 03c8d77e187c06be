// Package evaluator defines the structured judgment capability used by scoring
// and extraction nodes, and the boundary checks applied to its output.
package evaluator

import (
	"context"
	"errors"
	"fmt"
)

// ErrSchema marks output that does not conform to the requested schema.
var ErrSchema = errors.New("output does not match schema")

// Request is a single structured evaluation.
type Request struct {
	// Dimension names the caller, used in logs, metrics and errors.
	Dimension string
	// Instruction is the task description for the evaluator.
	Instruction string
	// Input is the structured context, encoded as JSON for the evaluator.
	Input map[string]any
	// Schema is the JSON schema the output must satisfy.
	Schema Schema
	// Model overrides the evaluator's default model when set.
	Model string
}

type Evaluator interface {
	Evaluate(ctx context.Context, req Request) (map[string]any, error)
}

// Func adapts an ordinary function to Evaluator.
type Func func(ctx context.Context, req Request) (map[string]any, error)

func (f Func) Evaluate(ctx context.Context, req Request) (map[string]any, error) {
	return f(ctx, req)
}

// Error is a failed evaluation. Callers propagate it; only fallback chains recover from it.
type Error struct {
	Dimension string
	Model     string
	Err       error
}

func (e *Error) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("evaluate %s (model %s): %v", e.Dimension, e.Model, e.Err)
	}
	return fmt.Sprintf("evaluate %s: %v", e.Dimension, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(req Request, err error) error {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		return err
	}
	return &Error{Dimension: req.Dimension, Model: req.Model, Err: err}
}

// Call runs req, validates the output against req.Schema and decodes it into T.
func Call[T any](ctx context.Context, ev Evaluator, req Request) (T, error) {
	var result T

	if err := ctx.Err(); err != nil {
		return result, wrap(req, err)
	}

	out, err := ev.Evaluate(ctx, req)
	if err != nil {
		return result, wrap(req, err)
	}
	if err := Validate(req.Schema, out); err != nil {
		return result, wrap(req, err)
	}
	if err := Decode(out, &result); err != nil {
		return result, wrap(req, err)
	}
	return result, nil
}
