package graph

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
)

// ExprRoute builds a route from a boolean expr-lang expression evaluated
// against the state. An empty expression always chooses whenFalse.
func ExprRoute(expression string, whenTrue, whenFalse []string) (RouteFunc, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return func(State) ([]string, error) { return whenFalse, nil }, nil
	}

	program, err := expr.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("compile route expression %q: %w", expression, err)
	}

	return func(s State) ([]string, error) {
		out, err := expr.Run(program, map[string]any(s))
		if err != nil {
			return nil, fmt.Errorf("evaluate route expression %q: %w", expression, err)
		}
		matched, ok := out.(bool)
		if !ok {
			return nil, fmt.Errorf("route expression %q returned %T, want bool", expression, out)
		}
		if matched {
			return whenTrue, nil
		}
		return whenFalse, nil
	}, nil
}
