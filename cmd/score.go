package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/matching"
	"github.com/spigell/jd-matcher/internal/metrics"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one candidate against one job",
	Long: `Score reads a structured job and candidate profile from JSON files, runs the
matching graph and prints the dimension results with the final scores.`,
	RunE: runScore,
}

func init() {
	scoreCmd.Flags().String("job", "", "path to the job requirement JSON")
	scoreCmd.Flags().String("candidate", "", "path to the candidate profile JSON")
	scoreCmd.Flags().String("previous", "", "path to stored dimension results JSON, used for rescoring")
	scoreCmd.Flags().Bool("trace", false, "include the graph trace in the output")
	_ = scoreCmd.MarkFlagRequired("job")
	_ = scoreCmd.MarkFlagRequired("candidate")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	a, err := newApplication()
	if err != nil {
		return err
	}
	defer a.close()

	jobPath, _ := cmd.Flags().GetString("job")
	candidatePath, _ := cmd.Flags().GetString("candidate")
	previousPath, _ := cmd.Flags().GetString("previous")
	withTrace, _ := cmd.Flags().GetBool("trace")

	var in matching.Input
	if err := readJSON(jobPath, &in.Job); err != nil {
		return err
	}
	if err := readJSON(candidatePath, &in.Candidate); err != nil {
		return err
	}
	if previousPath != "" {
		if err := readJSON(previousPath, &in.Previous); err != nil {
			return err
		}
	}
	if in.Job != nil {
		in.Job.Normalize()
	}

	ctx := cmd.Context()
	ev, err := a.evaluator(ctx)
	if err != nil {
		return err
	}
	m, err := a.matcher(ev)
	if err != nil {
		return err
	}

	out, err := m.Match(ctx, in)
	if err != nil {
		a.logger.Error("match failed", zap.Error(err))
		return err
	}
	metrics.ObserveMatch(out.Scores.NormalizedScore)

	if !withTrace {
		out.Trace = nil
	}
	return printJSON(out)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
