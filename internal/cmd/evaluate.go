package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <run-id>",
	Short: "Re-score a stored planning run",
	Args:  cobra.ExactArgs(1),
	RunE:  runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	a, err := openOffline()
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Evaluate(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Evaluation of %s (%s)\n", args[0], report.Destination)
	fmt.Fprintf(out, "  Performance:       %.2f\n", report.Scores.Performance)
	fmt.Fprintf(out, "  Quality:           %.2f\n", report.Scores.Quality)
	fmt.Fprintf(out, "  Feature coverage:  %.2f\n", report.Scores.FeatureCoverage)
	fmt.Fprintf(out, "  User satisfaction: %.2f\n", report.Scores.UserSatisfaction)
	fmt.Fprintf(out, "  Overall:           %.2f %s\n", report.Overall, report.Grade)
	fmt.Fprintln(out, "Recommendations:")
	for _, r := range report.Recommendations {
		fmt.Fprintf(out, "  - %s\n", r)
	}
	return nil
}
