package cmd

import (
	"fmt"
	"text/tabwriter"

	"ai-trip-planner/internal/trip"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent planning runs",
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "number of runs to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	a, err := openOffline()
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.History(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No planning runs yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESTINATION\tDATES\tTIER\tROUNDS\tSCORE\tGRADE\tCREATED")
	for _, r := range runs {
		score := fmt.Sprintf("%.1f", r.Score)
		if r.ForceApproved {
			score += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s - %s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID,
			r.Destination,
			r.StartDate.Format(trip.DateLayout),
			r.EndDate.Format(trip.DateLayout),
			r.Tier,
			r.Iterations,
			score,
			r.Grade,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}
