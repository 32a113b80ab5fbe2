package export

import (
	"fmt"
	"strings"
	"time"

	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#A78BFA")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	mutedColor   = lipgloss.Color("#9CA3AF")

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(12)

	approvedStyle = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	forcedStyle   = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
)

// ConsoleSummary renders the end-of-run panel printed by the CLI.
func ConsoleSummary(s *storage.Session) string {
	rows := []string{titleStyle.Render(fmt.Sprintf("Trip to %s", s.Trip.Destination)), ""}

	row := func(label, value string) {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value))
	}

	row("Dates", fmt.Sprintf("%s to %s (%d days)",
		s.Trip.Dates.Start.Format(trip.DateLayout),
		s.Trip.Dates.End.Format(trip.DateLayout),
		s.Trip.Dates.Days()))
	row("Budget", fmt.Sprintf("%s, ~$%.0f total", s.Trip.Preferences.Budget, s.Itinerary.TotalCost))
	row("Tier", s.Metadata.Tier)
	row("Iterations", fmt.Sprintf("%d", s.Metadata.Iterations))

	status := approvedStyle.Render("approved")
	if s.Review.ForceApproved {
		status = forcedStyle.Render("accepted at iteration limit")
	}
	row("Review", fmt.Sprintf("%.1f/10, %s", s.Review.Score, status))
	if len(s.Review.Issues) > 0 {
		row("Issues", strings.Join(s.Review.Issues, "; "))
	}

	if s.Evaluation != nil {
		row("Evaluation", fmt.Sprintf("%.2f/10 (grade %s)", s.Evaluation.Overall, s.Evaluation.Grade))
	}
	row("Duration", s.Metrics.TotalDuration.Round(time.Millisecond).String())
	row("Session", s.ID)

	return panelStyle.Render(strings.Join(rows, "\n"))
}

// ExplorationPanel frames an exploration report for the terminal.
func ExplorationPanel(destination, report string) string {
	title := titleStyle.Render(fmt.Sprintf("Exploration Report: %s", destination))
	return panelStyle.Padding(1, 2).Render(title + "\n\n" + report)
}
