// Package evaluation scores a finished planning run after the fact. It
// never talks to the generator and can re-score stored runs.
package evaluation

import (
	"math"
	"strings"
	"time"

	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"
)

// Target constants the run is measured against.
const (
	targetResearchSeconds = 30
	targetPlanningSeconds = 30
	targetTotalSeconds    = 120
)

// RequiredFeatures is the capability checklist used for feature coverage.
var RequiredFeatures = []string{
	planner.FeatureGoogleSearch,
	planner.FeatureCodeExecution,
	planner.FeatureSessions,
	planner.FeatureMemory,
	planner.FeatureObservability,
	planner.FeatureSequentialAgents,
	planner.FeatureLoopAgent,
}

// expected daily spend per budget tier, flights included
var expectedDaily = map[trip.BudgetTier]float64{
	trip.BudgetLow:    100,
	trip.BudgetMid:    200,
	trip.BudgetLuxury: 400,
}

// Scores are the four 0-10 sub-scores.
type Scores struct {
	Performance      float64 `json:"performance"`
	Quality          float64 `json:"quality"`
	FeatureCoverage  float64 `json:"feature_coverage"`
	UserSatisfaction float64 `json:"user_satisfaction"`
}

type PerformanceDetails struct {
	ResearchSeconds  float64 `json:"research_time"`
	PlanningSeconds  float64 `json:"planning_time"`
	TotalSeconds     float64 `json:"total_time"`
	ReviewIterations int     `json:"review_iterations"`
}

type QualityDetails struct {
	DayPlans       int     `json:"num_day_plans"`
	Budget         float64 `json:"budget"`
	PackingItems   int     `json:"packing_list_items"`
	ImportantNotes int     `json:"important_notes"`
}

type Details struct {
	Performance  PerformanceDetails `json:"performance"`
	Quality      QualityDetails     `json:"quality"`
	FeaturesUsed []string           `json:"features_used"`
}

// Report is the evaluation of one run, serialized as evaluation.json.
type Report struct {
	Timestamp       time.Time `json:"timestamp,omitempty"`
	Destination     string    `json:"trip_destination"`
	Scores          Scores    `json:"scores"`
	Details         Details   `json:"details"`
	Overall         float64   `json:"overall_score"`
	Grade           string    `json:"grade"`
	Recommendations []string  `json:"recommendations"`
}

// Evaluate scores a final draft. It is deterministic: the caller stamps
// Timestamp if it wants one.
func Evaluate(params trip.Parameters, draft trip.PlanDraft, metrics planner.RunMetrics) Report {
	r := Report{
		Destination: params.Destination,
		Details: Details{
			Performance: PerformanceDetails{
				ResearchSeconds:  metrics.ResearchDuration.Seconds(),
				PlanningSeconds:  metrics.PlanningDuration.Seconds(),
				TotalSeconds:     metrics.TotalDuration.Seconds(),
				ReviewIterations: metrics.Iterations,
			},
			Quality: QualityDetails{
				DayPlans:       len(draft.Days),
				Budget:         draft.TotalCost,
				PackingItems:   len(draft.PackingList),
				ImportantNotes: len(draft.ImportantNotes),
			},
			FeaturesUsed: metrics.FeaturesUsed,
		},
	}

	r.Scores = Scores{
		Performance:      performanceScore(metrics),
		Quality:          qualityScore(params, draft),
		FeatureCoverage:  featureScore(metrics.FeaturesUsed),
		UserSatisfaction: satisfactionScore(params, draft),
	}

	overall := r.Scores.Performance*0.2 +
		r.Scores.Quality*0.4 +
		r.Scores.FeatureCoverage*0.2 +
		r.Scores.UserSatisfaction*0.2
	r.Overall = round2(overall)
	r.Grade = Grade(overall)
	r.Recommendations = recommendations(r.Scores)
	return r
}

func performanceScore(m planner.RunMetrics) float64 {
	speed := func(target float64, actual time.Duration) float64 {
		return math.Min(10, target/math.Max(actual.Seconds(), 1)*10)
	}

	research := speed(targetResearchSeconds, m.ResearchDuration)
	planning := speed(targetPlanningSeconds, m.PlanningDuration)
	total := speed(targetTotalSeconds, m.TotalDuration)

	iterations := m.Iterations
	if iterations == 0 {
		iterations = 1
	}
	iterationScore := 10 - float64(iterations-1)*2

	score := (research + planning + total + iterationScore) / 4
	return round2(math.Min(10, math.Max(0, score)))
}

func qualityScore(params trip.Parameters, draft trip.PlanDraft) float64 {
	duration := draft.Dates.Days()
	var scores [4]float64

	if duration == len(draft.Days) {
		scores[0] = 10
	} else if duration > 0 {
		scores[0] = float64(len(draft.Days)) / float64(duration) * 10
	}

	activities := 0
	for _, d := range draft.Days {
		activities += d.ActivityCount()
	}
	avg := float64(activities) / math.Max(float64(len(draft.Days)), 1)
	scores[1] = math.Min(10, avg*2)

	expected, ok := expectedDaily[params.Preferences.Budget]
	if !ok {
		expected = expectedDaily[trip.BudgetMid]
	}
	daily := draft.TotalCost / math.Max(float64(duration), 1)
	diff := math.Abs(daily-expected) / expected
	scores[2] = math.Max(0, 10-diff*10)

	scores[3] = math.Min(10, float64(len(draft.PackingList)+len(draft.ImportantNotes))/2)

	return round2((scores[0] + scores[1] + scores[2] + scores[3]) / 4)
}

func featureScore(used []string) float64 {
	matched := 0
	for _, required := range RequiredFeatures {
		for _, u := range used {
			if strings.Contains(strings.ToLower(u), strings.ToLower(required)) {
				matched++
				break
			}
		}
	}
	return round2(float64(matched) / float64(len(RequiredFeatures)) * 10)
}

func satisfactionScore(params trip.Parameters, draft trip.PlanDraft) float64 {
	pick := func(ok bool, yes, no float64) float64 {
		if ok {
			return yes
		}
		return no
	}

	allPlanned := true
	for _, d := range draft.Days {
		if len(d.Morning) == 0 || len(d.Afternoon) == 0 {
			allPlanned = false
			break
		}
	}

	sum := pick(draft.Dates.Days() == params.Dates.Days(), 10, 5) +
		pick(strings.Contains(strings.ToLower(draft.Destination), strings.ToLower(params.Destination)), 10, 5) +
		pick(len(draft.Narrative) > 100, 10, 5) +
		pick(allPlanned, 10, 7)
	return round2(sum / 4)
}

// Grade buckets an overall score.
func Grade(score float64) string {
	switch {
	case score >= 9:
		return "A+ (Excellent)"
	case score >= 8:
		return "A (Very Good)"
	case score >= 7:
		return "B (Good)"
	case score >= 6:
		return "C (Acceptable)"
	default:
		return "D (Needs Improvement)"
	}
}

func recommendations(s Scores) []string {
	var recs []string
	if s.Performance < 7 {
		recs = append(recs, "Consider caching research results or using faster models for improved performance.")
	}
	if s.Quality < 7 {
		recs = append(recs, "Improve itinerary quality by adding more detailed activities and practical information.")
	}
	if s.FeatureCoverage < 7 {
		recs = append(recs, "Utilize more planner features like code_execution, memory persistence, and observability.")
	}
	if s.UserSatisfaction < 8 {
		recs = append(recs, "Enhance user satisfaction by better matching preferences and providing richer content.")
	}
	if len(recs) == 0 {
		recs = append(recs, "Excellent work! All metrics are strong. Consider adding deployment.")
	}
	return recs
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
