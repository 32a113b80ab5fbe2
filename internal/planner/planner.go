package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"

	"github.com/google/uuid"
)

// ErrGeneration marks a run aborted because the generator failed.
var ErrGeneration = errors.New("generation failed")

// Phase is the state of the refinement loop.
type Phase int

const (
	PhasePlanning Phase = iota
	PhaseReviewing
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhasePlanning:
		return "planning"
	case PhaseReviewing:
		return "reviewing"
	default:
		return "done"
	}
}

// Feature names reported in RunMetrics.FeaturesUsed.
const (
	FeatureSequentialAgents = "sequential_agents"
	FeatureLoopAgent        = "loop_agent"
	FeatureGoogleSearch     = "google_search"
	FeatureCodeExecution    = "code_execution"
	FeatureSessions         = "sessions"
	FeatureMemory           = "memory"
	FeatureObservability    = "observability"
)

// RunMetrics describes how a run went.
type RunMetrics struct {
	ResearchDuration time.Duration `json:"research_duration"`
	PlanningDuration time.Duration `json:"planning_duration"`
	ReviewDuration   time.Duration `json:"review_duration"`
	TotalDuration    time.Duration `json:"total_duration"`
	Iterations       int           `json:"iterations"`
	Success          bool          `json:"success"`
	FeaturesUsed     []string      `json:"features_used"`
	Tier             string        `json:"tier"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID    string
	Draft    trip.PlanDraft
	Verdict  trip.ReviewVerdict
	Research trip.ResearchFindings
	Metrics  RunMetrics
	Meta     []shared.AgentMeta
}

// Observer receives round events as they happen. Any field may be nil.
type Observer struct {
	OnResearch func(findings trip.ResearchFindings)
	OnDraft    func(iteration int, draft trip.PlanDraft)
	OnVerdict  func(iteration int, verdict trip.ReviewVerdict)
}

// Options configures a Planner.
type Options struct {
	Profile             Profile
	Parser              ResponseParser
	EnableSearch        bool
	EnableCodeExecution bool
	References          ReferenceLoader
	Weather             Forecaster
	Logger              *logging.Logger
	Observer            *Observer
	// Features lists capabilities wired around the planner (sessions,
	// memory, observability) so they show up in run metrics.
	Features []string
}

// Planner runs research, then plan and review rounds until the draft is
// approved or the tier's iteration budget is spent. It holds no per-run
// state, so one Planner may serve concurrent runs.
type Planner struct {
	textGen             llm.TextGenerator
	profile             Profile
	parser              ResponseParser
	enableSearch        bool
	enableCodeExecution bool
	references          ReferenceLoader
	weather             Forecaster
	logger              *logging.Logger
	observer            Observer
	features            []string
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, opts Options) *Planner {
	if opts.Profile.MaxIterations == 0 {
		opts.Profile = ProfileFor(TierLenient)
	}
	if opts.Parser == nil {
		opts.Parser = NewKeywordParser(opts.Profile)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NopLogger()
	}

	p := &Planner{
		textGen:             textGen,
		profile:             opts.Profile,
		parser:              opts.Parser,
		enableSearch:        opts.EnableSearch && llm.SupportsTool(textGen, llm.ToolGoogleSearch),
		enableCodeExecution: opts.EnableCodeExecution && llm.SupportsTool(textGen, llm.ToolCodeExecution),
		references:          opts.References,
		weather:             opts.Weather,
		logger:              opts.Logger,
	}
	if opts.Observer != nil {
		p.observer = *opts.Observer
	}

	p.features = []string{FeatureSequentialAgents, FeatureLoopAgent}
	if p.enableSearch {
		p.features = append(p.features, FeatureGoogleSearch)
	}
	if p.enableCodeExecution {
		p.features = append(p.features, FeatureCodeExecution)
	}
	p.features = appendMissing(p.features, opts.Features...)
	return p
}

// Run plans a trip. Invalid parameters are rejected before any generation
// call. A generation failure aborts the run with an error wrapping
// ErrGeneration; nothing produced before it is returned.
func (p *Planner) Run(ctx context.Context, params trip.Parameters) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := p.logger.WithRun(runID)
	runStart := time.Now()

	metrics := RunMetrics{
		Tier:         p.profile.Tier.String(),
		FeaturesUsed: append([]string(nil), p.features...),
	}
	var metas []shared.AgentMeta

	log.Info("planning run started",
		"destination", params.Destination,
		"days", params.Dates.Days(),
		"tier", metrics.Tier,
		"max_iterations", p.profile.MaxIterations,
	)

	research, err := p.runResearch(ctx, params, log.WithStage("research"))
	if err != nil {
		log.Error("research failed", "error", err.Error())
		return nil, fmt.Errorf("%w: research: %w", ErrGeneration, err)
	}
	metrics.ResearchDuration = research.Meta.Latency
	metas = append(metas, research.Meta)
	if p.observer.OnResearch != nil {
		p.observer.OnResearch(research.Findings)
	}

	var (
		draft     trip.PlanDraft
		verdict   trip.ReviewVerdict
		feedback  string
		iteration = 1
		phase     = PhasePlanning
	)

	for phase != PhaseDone {
		switch phase {
		case PhasePlanning:
			res, err := p.runItinerary(ctx, params, research.Findings, feedback, iteration, log.WithStage("plan"))
			if err != nil {
				log.Error("planning failed", "iteration", iteration, "error", err.Error())
				return nil, fmt.Errorf("%w: plan iteration %d: %w", ErrGeneration, iteration, err)
			}
			draft = res.Draft
			metrics.PlanningDuration += res.Meta.Latency
			metas = append(metas, res.Meta)
			if p.observer.OnDraft != nil {
				p.observer.OnDraft(iteration, draft)
			}
			phase = PhaseReviewing

		case PhaseReviewing:
			res, err := p.runReview(ctx, params, draft, iteration, log.WithStage("review"))
			if err != nil {
				log.Error("review failed", "iteration", iteration, "error", err.Error())
				return nil, fmt.Errorf("%w: review iteration %d: %w", ErrGeneration, iteration, err)
			}
			verdict = res.Verdict
			metrics.ReviewDuration += res.Meta.Latency
			metas = append(metas, res.Meta)
			if p.observer.OnVerdict != nil {
				p.observer.OnVerdict(iteration, verdict)
			}

			log.Info("review round finished",
				"iteration", iteration,
				"score", verdict.Score,
				"approved", verdict.Approved,
				"force_approved", verdict.ForceApproved,
				"issues", len(verdict.Issues),
			)

			if verdict.Approved || iteration >= p.profile.MaxIterations {
				phase = PhaseDone
				continue
			}
			feedback = verdict.Narrative
			iteration++
			phase = PhasePlanning
		}
	}

	metrics.Iterations = iteration
	metrics.Success = true
	metrics.TotalDuration = time.Since(runStart)

	log.Info("planning run finished",
		"iterations", iteration,
		"approved", verdict.Approved,
		"score", verdict.Score,
		"total_duration", metrics.TotalDuration.String(),
	)

	return &Result{
		RunID:    runID,
		Draft:    draft,
		Verdict:  verdict,
		Research: research.Findings,
		Metrics:  metrics,
		Meta:     metas,
	}, nil
}

// generate performs the single generator call of a stage. An empty reply
// is not a failure: the parser turns it into defaults.
func (p *Planner) generate(ctx context.Context, prompt string, tools ...llm.Tool) (llm.ContentResponse, error) {
	resp, err := p.textGen.GenerateContent(ctx, prompt, tools...)
	if errors.Is(err, llm.ErrNoContent) {
		return llm.ContentResponse{Usage: resp.Usage}, nil
	}
	return resp, err
}

func warnDegraded(log *logging.Logger, notes []string) {
	for _, n := range notes {
		log.Warn("response parsed with defaults", "detail", n)
	}
}

func appendMissing(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, have := range list {
			if have == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}
