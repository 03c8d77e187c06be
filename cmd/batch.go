package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/batch"
	"github.com/spigell/jd-matcher/internal/evaluator"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errAborted = errors.New("aborted by user")

// rescoreEvaluator refuses calls: rescoring only re-aggregates stored results.
var rescoreEvaluator = evaluator.Func(func(_ context.Context, req evaluator.Request) (map[string]any, error) {
	return nil, fmt.Errorf("dimension %s requested an evaluator call during rescoring", req.Dimension)
})

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process job memberships stored in redis",
}

var batchParseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract resumes of pending memberships",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd, needResumes, "parse pending memberships", func(ctx context.Context, r *batch.Runner) (batch.Report, error) {
			return r.ParsePending(ctx)
		})
	},
}

var batchMatchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match memberships with parsed resumes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunner(cmd, needMatcher, "match ready memberships", func(ctx context.Context, r *batch.Runner) (batch.Report, error) {
			return r.MatchReady(ctx)
		})
	},
}

var batchRescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Re-aggregate finished memberships of a job with its current weights",
	RunE: func(cmd *cobra.Command, _ []string) error {
		jobID, _ := cmd.Flags().GetString("job")
		return withRunner(cmd, needRescorer, fmt.Sprintf("rescore memberships of job %s", jobID), func(ctx context.Context, r *batch.Runner) (batch.Report, error) {
			return r.Rescore(ctx, jobID)
		})
	},
}

var batchImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import jobs, candidates and memberships from a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		dataset, err := batch.DecodeDataset(f)
		if err != nil {
			return err
		}

		label := fmt.Sprintf("import %d jobs, %d candidates and %d memberships",
			len(dataset.Jobs), len(dataset.Candidates), len(dataset.Memberships))
		return withRunner(cmd, 0, label, func(ctx context.Context, r *batch.Runner) (batch.Report, error) {
			return r.Import(ctx, dataset)
		})
	},
}

func init() {
	batchCmd.PersistentFlags().BoolP("yes", "y", false, "do not ask for confirmation")
	batchRescoreCmd.Flags().String("job", "", "job id")
	_ = batchRescoreCmd.MarkFlagRequired("job")

	batchCmd.AddCommand(batchParseCmd, batchMatchCmd, batchRescoreCmd, batchImportCmd)
	rootCmd.AddCommand(batchCmd)
}

type runnerNeeds int

const (
	needResumes runnerNeeds = 1 << iota
	needMatcher
	needRescorer
)

func withRunner(cmd *cobra.Command, needs runnerNeeds, action string,
	fn func(ctx context.Context, r *batch.Runner) (batch.Report, error),
) error {
	a, err := newApplication()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	store, err := a.store(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	runner, err := a.runner(ctx, store, needs)
	if err != nil {
		return err
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		return err
	}
	fields := make([]zap.Field, 0, len(batch.Statuses))
	for _, st := range batch.Statuses {
		fields = append(fields, zap.Int64(string(st), counts[st]))
	}
	a.logger.Info("memberships by status", fields...)

	yes, _ := cmd.Flags().GetBool("yes")
	if !yes {
		if err := confirm(action); err != nil {
			return err
		}
	}

	report, err := fn(ctx, runner)
	a.logger.Info("batch pass finished",
		zap.String("action", action),
		zap.Int("processed", report.Processed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed),
	)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func (a *application) runner(ctx context.Context, store batch.Store, needs runnerNeeds) (*batch.Runner, error) {
	var (
		matcher batch.Matcher
		resumes batch.ResumeExtractor
	)

	if needs&(needResumes|needMatcher) != 0 {
		ev, err := a.evaluator(ctx)
		if err != nil {
			return nil, err
		}
		if needs&needResumes != 0 {
			x, err := a.resumeExtractor(ev)
			if err != nil {
				return nil, err
			}
			resumes = x
		}
		if needs&needMatcher != 0 {
			m, err := a.matcher(ev)
			if err != nil {
				return nil, err
			}
			matcher = m
		}
	}

	if needs&needRescorer != 0 {
		m, err := a.matcher(rescoreEvaluator)
		if err != nil {
			return nil, err
		}
		matcher = m
	}

	return batch.NewRunner(store, matcher, resumes, a.config.Batch.Limit, a.logger), nil
}

func confirm(action string) error {
	prompt := promptui.Select{
		Label: fmt.Sprintf("Proceed to %s?", action),
		Items: []string{PromptYes, PromptNo},
	}

	_, selected, err := prompt.Run()
	if err != nil {
		return err
	}
	if selected != PromptYes {
		return errAborted
	}
	return nil
}
