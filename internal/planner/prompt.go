package planner

import (
	"bytes"
	"text/template"

	"ai-trip-planner/internal/reference"
	"ai-trip-planner/internal/trip"
)

// maxReviewedNarrative bounds how much of a draft is sent to the reviewer.
const maxReviewedNarrative = 3000

type promptData struct {
	Destination            string
	StartDate              string
	EndDate                string
	Days                   int
	Budget                 trip.BudgetTier
	DailyBudget            float64
	Pace                   trip.Pace
	Interests              []string
	Dietary                []string
	SpecialRequests        string
	AdditionalDestinations []string

	References     []reference.Document
	WeatherContext string

	ResearchSummary string
	Attractions     []string
	CodeExecution   bool
	TransitGuide    string

	Feedback          string
	PreviousIteration int

	Itinerary     string
	Iteration     int
	MaxIterations int
	Threshold     float64
}

func newPromptData(params trip.Parameters) promptData {
	return promptData{
		Destination:            params.Destination,
		StartDate:              params.Dates.Start.Format(trip.DateLayout),
		EndDate:                params.Dates.End.Format(trip.DateLayout),
		Days:                   params.Dates.Days(),
		Budget:                 params.Preferences.Budget,
		DailyBudget:            trip.CostsFor(params.Preferences.Budget).Total(),
		Pace:                   params.Preferences.Pace,
		Interests:              params.Preferences.Interests,
		Dietary:                params.Preferences.DietaryRestrictions,
		SpecialRequests:        params.Preferences.SpecialRequests,
		AdditionalDestinations: params.AdditionalDestinations,
	}
}

func render(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func truncateRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
