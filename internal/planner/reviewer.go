package planner

import (
	"context"
	"fmt"
	"time"

	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

// ReviewResult is the output of one review round.
type ReviewResult struct {
	Verdict trip.ReviewVerdict
	Meta    shared.AgentMeta
}

func (p *Planner) runReview(
	ctx context.Context,
	params trip.Parameters,
	draft trip.PlanDraft,
	iteration int,
	log *logging.Logger,
) (ReviewResult, error) {
	start := time.Now()

	data := newPromptData(params)
	data.Itinerary = truncateRunes(draft.Narrative, maxReviewedNarrative)
	data.Iteration = iteration
	data.MaxIterations = p.profile.MaxIterations
	data.Threshold = p.profile.Threshold

	prompt, err := render(p.profile.Templates.Review, data)
	if err != nil {
		return ReviewResult{}, fmt.Errorf("failed to render review prompt: %w", err)
	}

	resp, err := p.generate(ctx, prompt)
	if err != nil {
		return ReviewResult{}, err
	}

	verdict, notes := p.parser.ParseReview(resp.Content, iteration)
	warnDegraded(log, notes)

	return ReviewResult{
		Verdict: verdict,
		Meta: shared.AgentMeta{
			AgentName: "Reviewer",
			Iteration: iteration,
			Usage:     resp.Usage,
			Latency:   time.Since(start),
		},
	}, nil
}
