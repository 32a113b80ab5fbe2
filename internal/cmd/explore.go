package cmd

import (
	"fmt"
	"strconv"

	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"

	"github.com/spf13/cobra"
)

var exploreCmd = &cobra.Command{
	Use:   "explore <destination> <days>",
	Short: "Get a high-level overview of a destination before planning",
	Long: `Explore asks for an overview of a country or region: the places worth
visiting, two or three ways to structure the trip, seasonal and practical
notes, and what to plan next. Nothing is stored.

Example:

  trip-planner explore Japan 10 --interests culture,food,temples --budget mid-range`,
	Args: cobra.ExactArgs(2),
	RunE: runExplore,
}

var (
	exploreInterests []string
	exploreBudget    string
)

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().StringSliceVar(&exploreInterests, "interests", nil, "interests, comma separated")
	exploreCmd.Flags().StringVar(&exploreBudget, "budget", string(trip.BudgetMid), "budget level: budget, mid-range or luxury")
}

func runExplore(cmd *cobra.Command, args []string) error {
	days, err := strconv.Atoi(args[1])
	if err != nil {
		return &trip.InputError{Field: "days", Reason: fmt.Sprintf("%q is not a number", args[1])}
	}
	req := planner.ExploreRequest{
		Destination: args[0],
		Days:        days,
		Interests:   exploreInterests,
		Budget:      trip.BudgetTier(exploreBudget),
	}
	if err := req.Validate(); err != nil {
		return err
	}

	a, err := openOnline(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Exploring %s for %d days...\n", req.Destination, req.Days)
	res, err := a.Explore(cmd.Context(), req)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, export.ExplorationPanel(req.Destination, res.Report))
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "1. Review the suggested trip structures above")
	fmt.Fprintln(out, "2. Choose which cities or regions to include")
	fmt.Fprintln(out, "3. Write a trip file with your chosen destinations")
	fmt.Fprintln(out, "4. Run the full planner: trip-planner plan -f your_trip.yaml")
	return nil
}
