package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured profiles from free text",
}

var extractJobCmd = &cobra.Command{
	Use:   "job FILE",
	Short: "Extract a job requirement from a job description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(args[0])
		if err != nil {
			return err
		}

		a, err := newApplication()
		if err != nil {
			return err
		}
		defer a.close()

		ev, err := a.evaluator(cmd.Context())
		if err != nil {
			return err
		}
		x, err := a.jobExtractor(ev)
		if err != nil {
			return err
		}

		job, err := x.Extract(cmd.Context(), text)
		if err != nil {
			a.logger.Error("job extraction failed", zap.String("file", args[0]), zap.Error(err))
			return err
		}
		return printJSON(job)
	},
}

var extractResumeCmd = &cobra.Command{
	Use:   "resume FILE",
	Short: "Extract a candidate profile from a resume",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(args[0])
		if err != nil {
			return err
		}
		notes, _ := cmd.Flags().GetString("notes")

		a, err := newApplication()
		if err != nil {
			return err
		}
		defer a.close()

		ev, err := a.evaluator(cmd.Context())
		if err != nil {
			return err
		}
		x, err := a.resumeExtractor(ev)
		if err != nil {
			return err
		}

		candidate, err := x.Extract(cmd.Context(), text, notes)
		if err != nil {
			a.logger.Error("resume extraction failed", zap.String("file", args[0]), zap.Error(err))
			return err
		}
		return printJSON(candidate)
	},
}

func init() {
	extractResumeCmd.Flags().String("notes", "", "update notes applied on top of the resume")

	extractCmd.AddCommand(extractJobCmd, extractResumeCmd)
	rootCmd.AddCommand(extractCmd)
}

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
