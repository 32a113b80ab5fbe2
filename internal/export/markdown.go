package export

import (
	"fmt"
	"strings"

	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"
)

// narratives shorter than this are treated as missing and the structured
// days are rendered instead
const minNarrativeChars = 100

// Markdown renders a session as a shareable itinerary document.
func Markdown(s *storage.Session) string {
	var b strings.Builder
	params := s.Trip
	draft := s.Itinerary

	fmt.Fprintf(&b, "# %s Trip Itinerary\n\n", params.Destination)
	fmt.Fprintf(&b, "**Dates:** %s to %s (%d days)  \n",
		params.Dates.Start.Format(trip.DateLayout),
		params.Dates.End.Format(trip.DateLayout),
		params.Dates.Days())
	fmt.Fprintf(&b, "**Budget:** %s  \n", params.Preferences.Budget)
	fmt.Fprintf(&b, "**Pace:** %s  \n", params.Preferences.Pace)
	if len(params.Preferences.Interests) > 0 {
		fmt.Fprintf(&b, "**Interests:** %s  \n", strings.Join(params.Preferences.Interests, ", "))
	}
	if len(params.AdditionalDestinations) > 0 {
		fmt.Fprintf(&b, "**Also visiting:** %s  \n", strings.Join(params.AdditionalDestinations, ", "))
	}
	fmt.Fprintf(&b, "**Estimated total:** $%.0f\n\n", draft.TotalCost)

	w := s.Research.Weather
	if !w.IsZero() {
		b.WriteString("## Weather\n\n")
		if w.TemperatureRange != "" {
			fmt.Fprintf(&b, "- Temperature: %s\n", w.TemperatureRange)
		}
		if w.Conditions != "" {
			fmt.Fprintf(&b, "- Conditions: %s\n", w.Conditions)
		}
		if w.Season != "" {
			fmt.Fprintf(&b, "- Season: %s\n", w.Season)
		}
		if w.Source != "" {
			fmt.Fprintf(&b, "- Source: %s\n", w.Source)
		}
		b.WriteString("\n")
	}

	writeList(&b, "Top Attractions", s.Research.Attractions)
	writeList(&b, "Tips", s.Research.Tips)

	b.WriteString("## Itinerary\n\n")
	if len(strings.TrimSpace(draft.Narrative)) > minNarrativeChars {
		b.WriteString(strings.TrimSpace(draft.Narrative))
		b.WriteString("\n\n")
	} else {
		for _, day := range draft.Days {
			writeDay(&b, day)
		}
	}

	writeList(&b, "Packing List", draft.PackingList)
	writeList(&b, "Important Notes", draft.ImportantNotes)
	writeMaps(&b, params.Destination, draft.Days)

	fmt.Fprintf(&b, "---\n\n_Review score %.1f/10 after %d iteration(s)", s.Review.Score, s.Metadata.Iterations)
	if s.Review.ForceApproved {
		b.WriteString(", accepted at the iteration limit")
	}
	b.WriteString("._\n")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeDay(b *strings.Builder, day trip.DayPlan) {
	fmt.Fprintf(b, "### Day %d - %s", day.Index, day.Date.Format("Monday, January 2"))
	if day.Title != "" {
		fmt.Fprintf(b, ": %s", day.Title)
	}
	b.WriteString("\n\n")

	slots := []struct {
		name  string
		items []string
	}{
		{"Morning", day.Morning},
		{"Afternoon", day.Afternoon},
		{"Evening", day.Evening},
	}
	for _, slot := range slots {
		if len(slot.items) == 0 {
			continue
		}
		fmt.Fprintf(b, "**%s**\n", slot.name)
		for _, item := range slot.items {
			fmt.Fprintf(b, "- %s\n", item)
		}
		b.WriteString("\n")
	}

	for _, meal := range []string{"breakfast", "lunch", "dinner"} {
		if v, ok := day.Meals[meal]; ok && v != "" {
			fmt.Fprintf(b, "- %s: %s\n", strings.ToUpper(meal[:1])+meal[1:], v)
		}
	}
	if day.EstimatedCost > 0 {
		fmt.Fprintf(b, "- Estimated cost: $%.0f\n", day.EstimatedCost)
	}
	for _, note := range day.Notes {
		fmt.Fprintf(b, "- Tip: %s\n", note)
	}
	b.WriteString("\n")
}

// writeMaps adds a search link per named place and a transit route between
// the first and last place of each day.
func writeMaps(b *strings.Builder, destination string, days []trip.DayPlan) {
	var section strings.Builder
	for _, day := range days {
		var places []string
		seen := map[string]bool{}
		for _, activity := range day.Activities() {
			name := placeName(activity)
			if name == "" || seen[strings.ToLower(name)] || isPlaceholder(name) {
				continue
			}
			seen[strings.ToLower(name)] = true
			places = append(places, name)
		}
		if len(places) == 0 {
			continue
		}

		fmt.Fprintf(&section, "**Day %d**\n", day.Index)
		for _, p := range places {
			fmt.Fprintf(&section, "- [%s](%s)\n", p, SearchURL(p, destination))
		}
		if len(places) > 1 {
			origin := places[0] + ", " + destination
			dest := places[len(places)-1] + ", " + destination
			fmt.Fprintf(&section, "- [Route for the day](%s)\n", DirectionsURL(origin, dest, ModeTransit))
		}
		section.WriteString("\n")
	}

	if section.Len() == 0 {
		return
	}
	b.WriteString("## Maps\n\n")
	b.WriteString(section.String())
}

func isPlaceholder(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "activity") || strings.Contains(lower, " activity ")
}
