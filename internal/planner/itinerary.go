package planner

import (
	"context"
	"fmt"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/transit"
	"ai-trip-planner/internal/trip"
)

// ItineraryResult is the output of one planning round.
type ItineraryResult struct {
	Draft trip.PlanDraft
	Meta  shared.AgentMeta
}

// runItinerary produces a new draft. Feedback is empty on the first round
// and carries the previous review narrative afterwards.
func (p *Planner) runItinerary(
	ctx context.Context,
	params trip.Parameters,
	research trip.ResearchFindings,
	feedback string,
	iteration int,
	log *logging.Logger,
) (ItineraryResult, error) {
	start := time.Now()

	data := newPromptData(params)
	data.ResearchSummary = research.Summary
	data.Attractions = research.Attractions
	data.CodeExecution = p.enableCodeExecution
	data.TransitGuide = transit.Guide(params.Destination, params.AdditionalDestinations)
	if feedback != "" {
		data.Feedback = feedback
		data.PreviousIteration = iteration - 1
	}

	prompt, err := render(p.profile.Templates.Plan, data)
	if err != nil {
		return ItineraryResult{}, fmt.Errorf("failed to render plan prompt: %w", err)
	}

	var tools []llm.Tool
	if p.enableCodeExecution {
		tools = append(tools, llm.ToolCodeExecution)
	}

	resp, err := p.generate(ctx, prompt, tools...)
	if err != nil {
		return ItineraryResult{}, err
	}

	draft, notes := p.parser.ParseDraft(resp.Content, params, research, iteration)
	warnDegraded(log, notes)

	return ItineraryResult{
		Draft: draft,
		Meta: shared.AgentMeta{
			AgentName: "Planner",
			Iteration: iteration,
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		},
	}, nil
}
