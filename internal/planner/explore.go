package planner

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"

	"github.com/google/uuid"
)

var exploreTemplate = template.Must(template.New("explore.md").Funcs(funcs).ParseFS(promptFS, "prompts/explore.md"))

// ExploreRequest asks for a high-level look at a destination before any
// dates are fixed.
type ExploreRequest struct {
	Destination string
	Days        int
	Interests   []string
	Budget      trip.BudgetTier
}

// Validate rejects requests the exploration prompt cannot describe. An
// empty budget means mid-range.
func (r *ExploreRequest) Validate() error {
	if strings.TrimSpace(r.Destination) == "" {
		return &trip.InputError{Field: "destination", Reason: "destination is required"}
	}
	if r.Days < 1 || r.Days > trip.MaxTripDays {
		return &trip.InputError{Field: "days", Reason: fmt.Sprintf("%d is not between 1 and %d", r.Days, trip.MaxTripDays)}
	}
	if r.Budget == "" {
		r.Budget = trip.BudgetMid
	}
	for _, b := range trip.ValidBudgetTiers() {
		if b == r.Budget {
			return nil
		}
	}
	return &trip.InputError{Field: "budget_level", Reason: fmt.Sprintf("%q is not a budget tier", r.Budget)}
}

// Exploration is the report of one exploration call.
type Exploration struct {
	RunID  string
	Report string
	Meta   shared.AgentMeta
}

// Explore runs the single exploration stage: overview, regions, trip
// structures, season, practical info and next steps in one reply. It uses
// search when the provider supports it. An empty reply is an error since
// there is nothing to fall back to.
func (p *Planner) Explore(ctx context.Context, req ExploreRequest) (*Exploration, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := p.logger.WithRun(runID).WithStage("explore")
	start := time.Now()

	prompt, err := render(exploreTemplate, promptData{
		Destination: req.Destination,
		Days:        req.Days,
		Budget:      req.Budget,
		Interests:   req.Interests,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render exploration prompt: %w", err)
	}

	var tools []llm.Tool
	if p.enableSearch {
		tools = append(tools, llm.ToolGoogleSearch)
	}

	log.Info("exploration started", "destination", req.Destination, "days", req.Days)
	resp, err := p.textGen.GenerateContent(ctx, prompt, tools...)
	if err != nil {
		log.Error("exploration failed", "error", err.Error())
		return nil, fmt.Errorf("%w: explore: %w", ErrGeneration, err)
	}
	report := strings.TrimSpace(resp.Content)
	if report == "" {
		return nil, fmt.Errorf("%w: explore: %w", ErrGeneration, llm.ErrNoContent)
	}

	meta := shared.AgentMeta{
		AgentName: "Exploration",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	log.Info("exploration finished", "latency", meta.Latency.String(), "chars", len(report))

	return &Exploration{
		RunID:  runID,
		Report: report,
		Meta:   meta,
	}, nil
}
