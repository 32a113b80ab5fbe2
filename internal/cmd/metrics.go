package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old execution metric records",
	RunE:  runMetricsCleanup,
}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show daily token usage",
	RunE:  runUsage,
}

var (
	cleanupDays int
	usageDays   int
)

func init() {
	rootCmd.AddCommand(metricsCleanupCmd)
	rootCmd.AddCommand(usageCmd)
	metricsCleanupCmd.Flags().IntVar(&cleanupDays, "days", 30, "keep records for the last N days")
	usageCmd.Flags().IntVar(&usageDays, "days", 7, "number of days to show")
}

func runMetricsCleanup(cmd *cobra.Command, args []string) error {
	if cleanupDays < 0 {
		return fmt.Errorf("--days must not be negative, got %d", cleanupDays)
	}

	a, err := openOffline()
	if err != nil {
		return err
	}
	defer a.Close()

	affected, err := a.CleanupMetrics(cmd.Context(), cleanupDays)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
	return nil
}

func runUsage(cmd *cobra.Command, args []string) error {
	a, err := openOffline()
	if err != nil {
		return err
	}
	defer a.Close()

	usage, err := a.Usage(cmd.Context(), usageDays)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(usage) == 0 {
		fmt.Fprintln(out, "No usage recorded.")
		return nil
	}
	for _, u := range usage {
		fmt.Fprintf(out, "%s  prompt=%d completion=%d calls=%d\n", u.Date, u.TotalPrompt, u.TotalCompletion, u.TotalExecution)
	}
	return nil
}
