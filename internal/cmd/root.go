// Package cmd holds the trip-planner command line.
package cmd

import (
	"fmt"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/config"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trip-planner",
	Short: "Plan trips with a research, plan and review agent loop",
	Long: `trip-planner researches a destination, drafts a day-by-day itinerary and
has it reviewed until the review approves it or the iteration budget of the
selected tier is spent. Finished runs are stored, scored and exported.`,
	SilenceUsage: true,
}

var configPath string

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default is ./trip-planner.yaml)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// openOnline loads configuration and opens the application with a text
// generator. The provider API key must be set.
func openOnline(cmd *cobra.Command) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg)
}

func openOffline() (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.OpenOffline(cfg)
}
