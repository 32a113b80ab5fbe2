package trip

import (
	"time"
)

// DateLayout is the calendar date format used in trip inputs and exports.
const DateLayout = "2006-01-02"

// BudgetTier is the traveler's spending level.
type BudgetTier string

const (
	BudgetLow    BudgetTier = "budget"
	BudgetMid    BudgetTier = "mid-range"
	BudgetLuxury BudgetTier = "luxury"
)

// Pace is how densely the traveler wants days to be packed.
type Pace string

const (
	PaceRelaxed  Pace = "relaxed"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

// ValidBudgetTiers lists the accepted budget tiers in display order.
func ValidBudgetTiers() []BudgetTier {
	return []BudgetTier{BudgetLow, BudgetMid, BudgetLuxury}
}

// ValidPaces lists the accepted paces in display order.
func ValidPaces() []Pace {
	return []Pace{PaceRelaxed, PaceModerate, PaceFast}
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Days returns the number of calendar days covered, counting both ends.
func (d DateRange) Days() int {
	start := truncateDay(d.Start)
	end := truncateDay(d.End)
	return int(end.Sub(start).Hours()/24) + 1
}

// Day returns the calendar date of the n-th day (1-based).
func (d DateRange) Day(n int) time.Time {
	return truncateDay(d.Start).AddDate(0, 0, n-1)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Preferences describes how the traveler wants to travel.
type Preferences struct {
	Budget              BudgetTier `json:"budget_level"`
	Pace                Pace       `json:"pace_preference"`
	Interests           []string   `json:"interests"`
	DietaryRestrictions []string   `json:"dietary_restrictions"`
	SpecialRequests     string     `json:"special_requests,omitempty"`
}

// Parameters is the root input of a planning run.
type Parameters struct {
	Destination            string      `json:"destination"`
	Dates                  DateRange   `json:"dates"`
	Preferences            Preferences `json:"preferences"`
	AdditionalDestinations []string    `json:"additional_destinations,omitempty"`
	ReferenceFiles         []string    `json:"reference_files,omitempty"`
}

// Weather summarizes the expected conditions for the trip dates.
type Weather struct {
	TemperatureRange string   `json:"temperature_range"`
	Conditions       string   `json:"conditions"`
	Season           string   `json:"season,omitempty"`
	Packing          []string `json:"packing"`
	// Source says where the weather came from: a live forecast, the
	// research agent or seasonal averages.
	Source string `json:"source,omitempty"`
}

// IsZero reports whether no weather information is present.
func (w Weather) IsZero() bool {
	return w.TemperatureRange == "" && w.Conditions == "" && len(w.Packing) == 0
}

// ResearchFindings is the output of the research stage.
type ResearchFindings struct {
	Destination string   `json:"destination"`
	Summary     string   `json:"summary"`
	Attractions []string `json:"attractions"`
	Tips        []string `json:"tips"`
	Weather     Weather  `json:"weather"`
}

// DayPlan is the schedule of a single trip day.
type DayPlan struct {
	Index         int               `json:"day_number"`
	Date          time.Time         `json:"date"`
	Title         string            `json:"title,omitempty"`
	Morning       []string          `json:"morning_activities"`
	Afternoon     []string          `json:"afternoon_activities"`
	Evening       []string          `json:"evening_activities"`
	Meals         map[string]string `json:"meals"`
	EstimatedCost float64           `json:"estimated_cost"`
	Notes         []string          `json:"notes"`
}

// ActivityCount returns the number of scheduled activities across all slots.
func (d DayPlan) ActivityCount() int {
	return len(d.Morning) + len(d.Afternoon) + len(d.Evening)
}

// Activities returns all scheduled activities in slot order.
func (d DayPlan) Activities() []string {
	all := make([]string, 0, d.ActivityCount())
	all = append(all, d.Morning...)
	all = append(all, d.Afternoon...)
	return append(all, d.Evening...)
}

// PlanDraft is one candidate itinerary. The narrative is the authoritative
// content; Days is an approximate structured view of it.
type PlanDraft struct {
	Destination    string    `json:"destination"`
	Dates          DateRange `json:"dates"`
	Days           []DayPlan `json:"day_plans"`
	TotalCost      float64   `json:"total_estimated_cost"`
	Narrative      string    `json:"generated_itinerary"`
	PackingList    []string  `json:"packing_list"`
	ImportantNotes []string  `json:"important_notes"`
	Version        int       `json:"version"`
}

// DraftSummary is the structured skeleton of a draft.
type DraftSummary struct {
	DayCount  int
	TotalCost float64
}

// Summary reduces the draft to its structured fields.
func (p PlanDraft) Summary() DraftSummary {
	return DraftSummary{DayCount: len(p.Days), TotalCost: p.TotalCost}
}

// NewPlanDraft assembles a draft from a day sequence, deriving nothing from
// the narrative.
func NewPlanDraft(destination string, dates DateRange, days []DayPlan, totalCost float64, narrative string) PlanDraft {
	return PlanDraft{
		Destination: destination,
		Dates:       dates,
		Days:        days,
		TotalCost:   totalCost,
		Narrative:   narrative,
		Version:     1,
	}
}

// ReviewVerdict is the reviewer's judgement of one draft.
type ReviewVerdict struct {
	Approved      bool     `json:"approved"`
	Score         float64  `json:"quality_score"`
	ScoreFound    bool     `json:"score_found"`
	ForceApproved bool     `json:"force_approved"`
	Issues        []string `json:"issues_found"`
	Narrative     string   `json:"review_summary"`
	Iteration     int      `json:"iteration_number"`
}
