// Package ai implements the evaluator capability on top of a text generation
// model: it renders a prompt, calls the model and parses a JSON object back.
package ai

import "context"

// Generator produces text for a prompt. An empty model means the generator default.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
	Model() string
	Provider() string
}
