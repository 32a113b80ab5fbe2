package telegram

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLen = 4000

// parsePlanCommand reads
// "destination | start | end [| budget [| pace [| interests]]]".
func parsePlanCommand(args string) (trip.Parameters, error) {
	parts := strings.Split(args, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 3 || parts[0] == "" {
		return trip.Parameters{}, errors.New("expected at least a destination, a start date and an end date")
	}

	start, err := time.Parse(trip.DateLayout, parts[1])
	if err != nil {
		return trip.Parameters{}, fmt.Errorf("start date %q is not YYYY-MM-DD", parts[1])
	}
	end, err := time.Parse(trip.DateLayout, parts[2])
	if err != nil {
		return trip.Parameters{}, fmt.Errorf("end date %q is not YYYY-MM-DD", parts[2])
	}

	params := trip.Parameters{
		Destination: parts[0],
		Dates:       trip.DateRange{Start: start, End: end},
		Preferences: trip.Preferences{
			Budget: trip.BudgetMid,
			Pace:   trip.PaceModerate,
		},
	}
	if len(parts) > 3 && parts[3] != "" {
		params.Preferences.Budget = trip.BudgetTier(strings.ToLower(parts[3]))
	}
	if len(parts) > 4 && parts[4] != "" {
		params.Preferences.Pace = trip.Pace(strings.ToLower(parts[4]))
	}
	if len(parts) > 5 {
		for _, interest := range strings.Split(parts[5], ",") {
			if interest = strings.TrimSpace(interest); interest != "" {
				params.Preferences.Interests = append(params.Preferences.Interests, interest)
			}
		}
	}

	if err := params.Validate(); err != nil {
		return trip.Parameters{}, err
	}
	return params, nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "[", "\\[", "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// formatItineraryParts returns a markdown summary and the itinerary body
// as plain-text chunks that fit in a message each.
func formatItineraryParts(s *storage.Session) (string, []string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ *%s*\n", escapeMarkdown(s.Trip.Destination)))
	sb.WriteString(fmt.Sprintf("📅 %s to %s (%d days)\n",
		s.Trip.Dates.Start.Format(trip.DateLayout),
		s.Trip.Dates.End.Format(trip.DateLayout),
		s.Trip.Dates.Days()))
	sb.WriteString(fmt.Sprintf("💰 ~$%.0f (%s)\n", s.Itinerary.TotalCost, escapeMarkdown(string(s.Trip.Preferences.Budget))))

	review := fmt.Sprintf("⭐ Review: %.1f/10 after %d round(s)", s.Review.Score, s.Metadata.Iterations)
	if s.Review.ForceApproved {
		review += " _(iteration limit reached)_"
	}
	sb.WriteString(review + "\n")
	if s.Evaluation != nil {
		sb.WriteString(fmt.Sprintf("📈 Evaluation: %.2f (grade %s)\n", s.Evaluation.Overall, s.Evaluation.Grade))
	}
	if w := s.Research.Weather; w.TemperatureRange != "" {
		sb.WriteString(fmt.Sprintf("🌤 %s, %s\n", escapeMarkdown(w.TemperatureRange), escapeMarkdown(w.Conditions)))
	}

	return sb.String(), splitMessage(export.PlainText(s), maxMessageLen)
}

// splitMessage cuts text on line boundaries into chunks of at most limit
// bytes. A single longer line is cut hard.
func splitMessage(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		for len(line) > limit {
			flush()
			cut := limit
			for cut > 0 && !isRuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				// no rune start in reach: the line is not valid UTF-8
				cut = limit
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if current.Len()+len(line)+1 > limit {
			flush()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()
	return chunks
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

func formatHistory(runs []history.Run) string {
	if len(runs) == 0 {
		return "🗂 *Recent Trips*\n\n_No trips planned yet_"
	}

	var sb strings.Builder
	sb.WriteString("🗂 *Recent Trips*\n\n")
	for _, r := range runs {
		sb.WriteString(fmt.Sprintf("• *%s* %s to %s, score %.1f",
			escapeMarkdown(r.Destination),
			r.StartDate.Format(trip.DateLayout),
			r.EndDate.Format(trip.DateLayout),
			r.Score))
		if r.Grade != "" {
			sb.WriteString(fmt.Sprintf(", grade %s", r.Grade))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	sb.WriteString("\n🧠 *System Health*\n")
	sb.WriteString(fmt.Sprintf("• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB))
	sb.WriteString(fmt.Sprintf("• Goroutines: %d\n", health.Goroutines))
	sb.WriteString(fmt.Sprintf("• Uptime: %s\n", health.Uptime))
	sb.WriteString(fmt.Sprintf("• Disk Data: %s in %d files\n", health.DataDiskSize, health.DataFiles))
	return sb.String()
}
