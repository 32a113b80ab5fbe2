package cmd

import (
	"errors"
	"fmt"
	"io"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan a trip described in a YAML file",
	Long: `Plan runs the full agent loop for the trip in the given file, stores the
session and its evaluation, and writes itinerary.md, itinerary.json,
itinerary.txt and evaluation.json to the output directory.

Example trip file:

  destination: "Tokyo, Japan"
  dates:
    start_date: "2025-04-01"
    end_date: "2025-04-10"
  preferences:
    budget_level: mid-range
    pace_preference: moderate
    interests: [food, temples]`,
	RunE: runPlan,
}

var (
	planFile    string
	planTier    string
	planOutDir  string
	planPublish bool
	planQuiet   bool
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "trip file (YAML)")
	planCmd.Flags().StringVar(&planTier, "tier", "", "review tier: lenient or strict (default from config)")
	planCmd.Flags().StringVarP(&planOutDir, "out", "o", "", "output directory (default from config)")
	planCmd.Flags().BoolVar(&planPublish, "publish", false, "publish the itinerary to the configured Ghost blog")
	planCmd.Flags().BoolVarP(&planQuiet, "quiet", "q", false, "do not print progress")
	_ = planCmd.MarkFlagRequired("file")
}

func runPlan(cmd *cobra.Command, args []string) error {
	params, err := trip.LoadFile(planFile)
	if err != nil {
		return err
	}
	if err := params.Validate(); err != nil {
		return err
	}

	a, err := openOnline(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	outDir := planOutDir
	if outDir == "" {
		outDir = a.Config().Storage.OutputDir
	}

	opts := app.PlanOptions{
		Tier:      planTier,
		OutputDir: outDir,
		Publish:   planPublish,
	}
	if !planQuiet {
		opts.Observer = progressObserver(out)
	}

	fmt.Fprintf(out, "Planning %d days in %s...\n", params.Dates.Days(), params.Destination)
	outcome, err := a.PlanTrip(cmd.Context(), params, opts)
	if errors.Is(err, planner.ErrGeneration) {
		return fmt.Errorf("the planner could not finish this trip, please try again later: %w", err)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, export.ConsoleSummary(outcome.Session))
	for _, f := range outcome.Files {
		fmt.Fprintf(out, "  wrote %s\n", f)
	}
	if outcome.Post != nil {
		fmt.Fprintf(out, "  published %s\n", outcome.Post.URL)
	}
	return nil
}

func progressObserver(w io.Writer) *planner.Observer {
	return &planner.Observer{
		OnResearch: func(f trip.ResearchFindings) {
			fmt.Fprintf(w, "  research done: %d attractions, %s\n", len(f.Attractions), f.Weather.TemperatureRange)
		},
		OnDraft: func(iteration int, d trip.PlanDraft) {
			fmt.Fprintf(w, "  draft %d ready: %d days\n", iteration, len(d.Days))
		},
		OnVerdict: func(iteration int, v trip.ReviewVerdict) {
			status := "needs revision"
			switch {
			case v.ForceApproved:
				status = "accepted at the iteration limit"
			case v.Approved:
				status = "approved"
			}
			fmt.Fprintf(w, "  review %d: %.1f/10, %s\n", iteration, v.Score, status)
		},
	}
}
