package planner

import (
	"context"
	"fmt"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/reference"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
	"ai-trip-planner/internal/weather"
)

// ResearchResult is the output of the research stage.
type ResearchResult struct {
	Findings trip.ResearchFindings
	Meta     shared.AgentMeta
}

func (p *Planner) runResearch(ctx context.Context, params trip.Parameters, log *logging.Logger) (ResearchResult, error) {
	start := time.Now()

	data := newPromptData(params)
	if p.references != nil && len(params.ReferenceFiles) > 0 {
		data.References = p.references.LoadAll(ctx, params.ReferenceFiles)
		log.Debug("loaded reference documents", "requested", len(params.ReferenceFiles), "loaded", len(data.References))
	}

	var forecast weather.Report
	if p.weather != nil {
		forecast = p.weather.Forecast(ctx, params.Destination, params.Dates)
		data.WeatherContext = forecast.Format(params.Destination, params.Dates)
		log.Debug("weather context ready", "source", forecast.Weather.Source)
	}

	prompt, err := render(p.profile.Templates.Research, data)
	if err != nil {
		return ResearchResult{}, fmt.Errorf("failed to render research prompt: %w", err)
	}

	var tools []llm.Tool
	if p.enableSearch {
		tools = append(tools, llm.ToolGoogleSearch)
	}

	resp, err := p.generate(ctx, prompt, tools...)
	if err != nil {
		return ResearchResult{}, err
	}

	findings, notes := p.parser.ParseResearch(resp.Content, params)
	warnDegraded(log, notes)
	findings.Weather = mergeForecast(findings.Weather, forecast)

	return ResearchResult{
		Findings: findings,
		Meta: shared.AgentMeta{
			AgentName: "Research",
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		},
	}, nil
}

// ReferenceLoader extracts traveler-supplied documents for the research prompt.
type ReferenceLoader interface {
	LoadAll(ctx context.Context, sources []string) []reference.Document
}

// Forecaster supplies weather for the travel dates. It degrades to
// seasonal data on its own and never fails a run.
type Forecaster interface {
	Forecast(ctx context.Context, destination string, dates trip.DateRange) weather.Report
}

// mergeForecast prefers a live forecast over whatever the research reply
// said, keeping the reply's packing items after the forecast's. Without a
// live forecast the parsed weather stands; when it came from seasonal
// averages it takes the forecaster's source marker.
func mergeForecast(parsed trip.Weather, forecast weather.Report) trip.Weather {
	if forecast.Live() {
		w := forecast.Weather
		w.Packing = mergeUnique(forecast.Weather.Packing, parsed.Packing)
		return w
	}
	if parsed.Source == weather.SourceSeasonal && forecast.Weather.Source != "" {
		parsed.Source = forecast.Weather.Source
	}
	return parsed
}
