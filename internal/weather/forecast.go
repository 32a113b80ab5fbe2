package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/trip"
)

// Source markers stored in trip.Weather.Source.
const (
	SourceLive          = "OpenWeatherMap API (Real-time)"
	SourceNoKey         = "AI Knowledge (No API key provided)"
	SourceAPIError      = "AI Knowledge (API error)"
	SourceOutOfWindow   = "AI Knowledge (dates beyond the 5-day forecast)"
	SourceSeasonal      = "Seasonal averages"
	SourceResearchAgent = "Research agent"
)

// Report is the weather context of a trip: the summary that lands in the
// research findings plus the daily lines, when a live forecast exists.
type Report struct {
	Weather trip.Weather
	Daily   []DailyForecast
}

// Live reports whether the report came from a real forecast.
func (r Report) Live() bool {
	return r.Weather.Source == SourceLive
}

// Service returns a live forecast when an API key is configured and falls
// back to seasonal averages otherwise or when the API fails. It never
// returns an error.
type Service struct {
	client *OpenWeatherClient
	logger *logging.Logger
}

// NewService creates a Service. An empty apiKey disables the live forecast.
func NewService(apiKey string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.NopLogger()
	}
	s := &Service{logger: logger}
	if apiKey != "" {
		s.client = NewOpenWeatherClient(apiKey)
	}
	return s
}

// NewServiceWithClient creates a Service around an existing client.
func NewServiceWithClient(client *OpenWeatherClient, logger *logging.Logger) *Service {
	s := NewService("", logger)
	s.client = client
	return s
}

// Forecast returns the weather for destination over dates.
func (s *Service) Forecast(ctx context.Context, destination string, dates trip.DateRange) Report {
	if s.client == nil {
		return fallback(destination, dates, SourceNoKey)
	}

	days, err := s.client.Forecast(ctx, destination, dates)
	if errors.Is(err, ErrOutsideForecast) {
		return fallback(destination, dates, SourceOutOfWindow)
	}
	if err != nil {
		s.logger.Warn("weather API unavailable, using seasonal patterns", "destination", destination, "error", err.Error())
		return fallback(destination, dates, SourceAPIError)
	}

	return Report{
		Weather: fromForecast(destination, dates, days),
		Daily:   days,
	}
}

func fallback(destination string, dates trip.DateRange, source string) Report {
	w := Seasonal(destination, dates)
	w.Source = source
	return Report{Weather: w}
}

func fromForecast(destination string, dates trip.DateRange, days []DailyForecast) trip.Weather {
	low, high := days[0].MinTemp, days[0].MaxTemp
	counts := map[string]int{}
	var order []string
	for _, d := range days {
		low = math.Min(low, d.MinTemp)
		high = math.Max(high, d.MaxTemp)
		if counts[d.Conditions] == 0 {
			order = append(order, d.Conditions)
		}
		counts[d.Conditions]++
	}

	conditions := mostCommon(order, counts)
	if len(order) > 1 {
		conditions = fmt.Sprintf("Mostly %s, varying by day", conditions)
	}

	return trip.Weather{
		TemperatureRange: fmt.Sprintf("%.0f-%.0f°C", low, high),
		Conditions:       capitalize(conditions),
		Season:           lookup(destination, dates.Start.Month()).season,
		Packing:          forecastRecommendations(days),
		Source:           SourceLive,
	}
}

// forecastRecommendations derives packing advice from average temperature
// and the worst rain chance of the trip.
func forecastRecommendations(days []DailyForecast) []string {
	var sum, rain float64
	for _, d := range days {
		sum += d.AvgTemp
		rain = math.Max(rain, d.RainChance)
	}
	avg := sum / float64(len(days))

	var recs []string
	switch {
	case avg < 10:
		recs = append(recs, "Pack warm layers, jacket, and gloves")
	case avg < 20:
		recs = append(recs, "Bring light jacket and layers for variable weather")
	default:
		recs = append(recs, "Light, breathable clothing recommended")
	}

	switch {
	case rain > 50:
		recs = append(recs, "High chance of rain - bring umbrella and waterproof jacket")
	case rain > 30:
		recs = append(recs, "Pack a compact umbrella just in case")
	}

	recs = append(recs,
		"Check forecast day before for any changes",
		"Plan indoor activities for rainy days",
		"Comfortable walking shoes essential",
	)
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Format renders the report as prompt context: the summary, up to five
// daily lines, the packing advice and the source.
func (r Report) Format(destination string, dates trip.DateRange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather for %s, %s to %s:\n", destination,
		dates.Start.Format("January 2"), dates.End.Format("January 2, 2006"))
	fmt.Fprintf(&b, "- Temperature: %s\n", r.Weather.TemperatureRange)
	fmt.Fprintf(&b, "- Conditions: %s\n", r.Weather.Conditions)

	if len(r.Daily) > 0 {
		b.WriteString("\nDaily forecast:\n")
		for i, d := range r.Daily {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  - %s: %.1f°C - %.1f°C, %s, Rain: %.0f%%\n",
				d.Date.Format(trip.DateLayout), d.MinTemp, d.MaxTemp, d.Conditions, d.RainChance)
		}
	}

	if len(r.Weather.Packing) > 0 {
		b.WriteString("\nPacking recommendations:\n")
		for _, p := range r.Weather.Packing {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
	}

	fmt.Fprintf(&b, "\n(Source: %s)\n", r.Weather.Source)
	return b.String()
}
