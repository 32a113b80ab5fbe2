package cmd

import (
	"fmt"
	"text/tabwriter"

	"ai-trip-planner/internal/trip"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored trip sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsList,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>...",
	Short: "Delete stored sessions and their history",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	a, err := openOffline()
	if err != nil {
		return err
	}
	defer a.Close()

	summaries, err := a.Sessions()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored sessions.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDESTINATION\tDATES\tTIER\tSCORE\tCREATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s - %s\t%s\t%.1f\t%s\n",
			s.ID,
			s.Destination,
			s.StartDate.Format(trip.DateLayout),
			s.EndDate.Format(trip.DateLayout),
			s.Metadata.Tier,
			s.Metadata.Score,
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := openOffline()
	if err != nil {
		return err
	}
	defer a.Close()

	for _, id := range args {
		if err := a.DeleteSession(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
	}
	return nil
}
