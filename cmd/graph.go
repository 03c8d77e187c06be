package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/jd-matcher/internal/evaluator"
	"github.com/spigell/jd-matcher/internal/graph"
)

// idleEvaluator is never called: graphs are only compiled for export.
var idleEvaluator = evaluator.Func(func(context.Context, evaluator.Request) (map[string]any, error) {
	return nil, errors.New("evaluator is not available")
})

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the compiled graphs",
}

var graphDotCmd = &cobra.Command{
	Use:       "dot matching|resume|job",
	Short:     "Print a graph in Graphviz DOT format",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"matching", "resume", "job"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApplication()
		if err != nil {
			return err
		}
		defer a.close()

		g, err := a.compiled(strings.ToLower(args[0]))
		if err != nil {
			return err
		}

		dot, err := g.DOT()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), dot)
		return nil
	},
}

func init() {
	graphCmd.AddCommand(graphDotCmd)
	rootCmd.AddCommand(graphCmd)
}

func (a *application) compiled(name string) (*graph.Graph, error) {
	switch name {
	case "matching":
		m, err := a.matcher(idleEvaluator)
		if err != nil {
			return nil, err
		}
		return m.Graph(), nil
	case "resume":
		x, err := a.resumeExtractor(idleEvaluator)
		if err != nil {
			return nil, err
		}
		return x.Graph(), nil
	case "job":
		x, err := a.jobExtractor(idleEvaluator)
		if err != nil {
			return nil, err
		}
		return x.Graph(), nil
	default:
		return nil, fmt.Errorf("unknown graph %q", name)
	}
}
