package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/reference"
	"ai-trip-planner/internal/trip"
	"ai-trip-planner/internal/weather"
)

const draftReply = `## Day 1: Asakusa
Morning:
- Senso-ji Temple (2 hours, free)
Afternoon:
- Tokyo Skytree (2 hours, ¥2100)`

// scriptedGenerator answers by stage, recognized from the prompt header.
type scriptedGenerator struct {
	research func(call int) (string, error)
	plan     func(call int) (string, error)
	review   func(call int) (string, error)

	researchCalls int
	planCalls     int
	reviewCalls   int
	planPrompts   []string
	tools         map[string][]llm.Tool
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt string, tools ...llm.Tool) (llm.ContentResponse, error) {
	if g.tools == nil {
		g.tools = map[string][]llm.Tool{}
	}

	var reply func(int) (string, error)
	var call int
	switch {
	case strings.HasPrefix(prompt, "# Research Agent Prompt"):
		g.researchCalls++
		call, reply = g.researchCalls, g.research
		g.tools["research"] = tools
	case strings.HasPrefix(prompt, "# Planning Agent Prompt"):
		g.planCalls++
		call, reply = g.planCalls, g.plan
		g.planPrompts = append(g.planPrompts, prompt)
		g.tools["plan"] = tools
	case strings.HasPrefix(prompt, "# Review Agent Prompt"):
		g.reviewCalls++
		call, reply = g.reviewCalls, g.review
		g.tools["review"] = tools
	default:
		return llm.ContentResponse{}, fmt.Errorf("unexpected prompt: %.40q", prompt)
	}

	if reply == nil {
		return llm.ContentResponse{Content: "## Top attractions\n- Senso-ji Temple"}, nil
	}
	text, err := reply(call)
	return llm.ContentResponse{Content: text}, err
}

func (g *scriptedGenerator) totalCalls() int {
	return g.researchCalls + g.planCalls + g.reviewCalls
}

func fixed(text string) func(int) (string, error) {
	return func(int) (string, error) { return text, nil }
}

func TestRunLenientApprovesOnThirdRound(t *testing.T) {
	gen := &scriptedGenerator{
		plan: fixed(draftReply),
		review: func(call int) (string, error) {
			if call < 3 {
				return "Score: 6/10, needs revision", nil
			}
			return "Score: 9/10, approved", nil
		},
	}

	p := NewPlanner(gen, Options{Profile: ProfileFor(TierLenient)})
	res, err := p.Run(context.Background(), tokyoParams(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if gen.planCalls != 3 || gen.reviewCalls != 3 || gen.researchCalls != 1 {
		t.Errorf("expected 1 research, 3 plan and 3 review calls, got %d/%d/%d", gen.researchCalls, gen.planCalls, gen.reviewCalls)
	}
	if !res.Verdict.Approved || res.Verdict.ForceApproved {
		t.Errorf("expected a genuine approval, got %+v", res.Verdict)
	}
	if res.Verdict.Iteration != 3 || res.Metrics.Iterations != 3 {
		t.Errorf("expected iteration 3, got verdict=%d metrics=%d", res.Verdict.Iteration, res.Metrics.Iterations)
	}
	if res.Draft.Version != 3 || len(res.Draft.Days) != 10 {
		t.Errorf("expected the third 10-day draft, got version %d with %d days", res.Draft.Version, len(res.Draft.Days))
	}
	if !res.Metrics.Success || res.Metrics.Tier != "lenient" {
		t.Errorf("unexpected metrics %+v", res.Metrics)
	}
	if res.RunID == "" {
		t.Error("expected a run ID")
	}
	if len(res.Meta) != 7 {
		t.Errorf("expected 7 meta entries, got %d", len(res.Meta))
	}

	if strings.Contains(gen.planPrompts[0], "REVIEWER FEEDBACK") {
		t.Error("first plan call must not carry feedback")
	}
	if !strings.Contains(gen.planPrompts[1], "Score: 6/10, needs revision") {
		t.Error("second plan call must carry the previous review as feedback")
	}
}

func TestRunStrictForceTerminates(t *testing.T) {
	gen := &scriptedGenerator{
		research: fixed("Score: 5/10"),
		plan: func(call int) (string, error) {
			return fmt.Sprintf("Draft number %d\n%s", call, draftReply), nil
		},
		review: fixed("Score: 5/10"),
	}

	p := NewPlanner(gen, Options{Profile: ProfileFor(TierStrict)})
	res, err := p.Run(context.Background(), tokyoParams(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if gen.planCalls != 5 || gen.reviewCalls != 5 {
		t.Errorf("expected 5 rounds, got %d plan and %d review calls", gen.planCalls, gen.reviewCalls)
	}
	if !strings.HasPrefix(res.Draft.Narrative, "Draft number 5") || res.Draft.Version != 5 {
		t.Errorf("expected the 5th draft, got version %d", res.Draft.Version)
	}
	if !res.Verdict.Approved || !res.Verdict.ForceApproved {
		t.Errorf("expected force approval, got %+v", res.Verdict)
	}
	if res.Verdict.Score != 5 {
		t.Errorf("expected score 5, got %.1f", res.Verdict.Score)
	}
	if res.Metrics.Tier != "strict" || res.Metrics.Iterations != 5 {
		t.Errorf("unexpected metrics %+v", res.Metrics)
	}
}

func TestRunTerminatesWithinBudget(t *testing.T) {
	for _, tier := range []Tier{TierLenient, TierStrict} {
		t.Run(tier.String(), func(t *testing.T) {
			gen := &scriptedGenerator{review: fixed("Geographic: FAIL - rework needed")}
			profile := ProfileFor(tier)

			res, err := NewPlanner(gen, Options{Profile: profile}).Run(context.Background(), tokyoParams(4))
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if gen.reviewCalls != profile.MaxIterations {
				t.Errorf("expected %d rounds, got %d", profile.MaxIterations, gen.reviewCalls)
			}
			if len(res.Verdict.Issues) != 1 {
				t.Errorf("expected the geographic issue, got %v", res.Verdict.Issues)
			}
		})
	}
}

func TestRunRejectsInvalidInput(t *testing.T) {
	gen := &scriptedGenerator{}
	params := tokyoParams(3)
	params.Dates.End = params.Dates.Start.AddDate(0, 0, -1)

	res, err := NewPlanner(gen, Options{}).Run(context.Background(), params)
	if res != nil {
		t.Error("expected no result")
	}
	if !errors.Is(err, trip.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	var inputErr *trip.InputError
	if !errors.As(err, &inputErr) || inputErr.Field != "dates" {
		t.Errorf("expected the dates field to be named, got %v", err)
	}
	if gen.totalCalls() != 0 {
		t.Errorf("expected zero generation calls, got %d", gen.totalCalls())
	}
}

func TestRunAbortsOnGenerationFailure(t *testing.T) {
	boom := errors.New("quota exhausted")

	t.Run("Research", func(t *testing.T) {
		gen := &scriptedGenerator{research: func(int) (string, error) { return "", boom }}
		_, err := NewPlanner(gen, Options{}).Run(context.Background(), tokyoParams(3))
		if !errors.Is(err, ErrGeneration) || !errors.Is(err, boom) {
			t.Fatalf("expected wrapped generation error, got %v", err)
		}
		if gen.planCalls != 0 {
			t.Error("planning must not start after research fails")
		}
	})

	t.Run("Review", func(t *testing.T) {
		gen := &scriptedGenerator{
			plan: fixed(draftReply),
			review: func(call int) (string, error) {
				if call == 2 {
					return "", boom
				}
				return "Score: 3/10", nil
			},
		}
		res, err := NewPlanner(gen, Options{}).Run(context.Background(), tokyoParams(3))
		if res != nil || !errors.Is(err, ErrGeneration) {
			t.Fatalf("expected aborted run, got %v / %v", res, err)
		}
		if gen.planCalls != 2 {
			t.Errorf("expected 2 plan calls before the failure, got %d", gen.planCalls)
		}
	})
}

func TestRunTreatsEmptyReplyAsDegradation(t *testing.T) {
	gen := &scriptedGenerator{
		review: func(int) (string, error) {
			return "", fmt.Errorf("gemini: %w", llm.ErrNoContent)
		},
	}

	res, err := NewPlanner(gen, Options{Profile: ProfileFor(TierLenient)}).Run(context.Background(), tokyoParams(2))
	if err != nil {
		t.Fatalf("empty replies must not abort the run: %v", err)
	}
	if gen.reviewCalls != 3 || !res.Verdict.ForceApproved {
		t.Errorf("expected 3 rounds ending in force approval, got %d rounds, verdict %+v", gen.reviewCalls, res.Verdict)
	}
}

type stubReferences struct {
	sources []string
}

func (s *stubReferences) LoadAll(ctx context.Context, sources []string) []reference.Document {
	s.sources = sources
	return []reference.Document{{Source: sources[0], Title: "Friend's notes", Text: "Try the tamagoyaki at Tsukiji."}}
}

func TestRunToolsFeaturesAndObserver(t *testing.T) {
	var researchPrompt string
	gen := &scriptedGenerator{review: fixed("Score: 9/10")}
	refs := &stubReferences{}

	var drafts, verdicts int
	p := NewPlanner(captureResearch(gen, &researchPrompt), Options{
		Profile:             ProfileFor(TierLenient),
		EnableSearch:        true,
		EnableCodeExecution: true,
		References:          refs,
		Features:            []string{FeatureSessions, FeatureMemory, FeatureObservability, FeatureSessions},
		Observer: &Observer{
			OnDraft:   func(int, trip.PlanDraft) { drafts++ },
			OnVerdict: func(int, trip.ReviewVerdict) { verdicts++ },
		},
	})

	params := tokyoParams(2)
	params.ReferenceFiles = []string{"notes.md"}
	res, err := p.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := gen.tools["research"]; len(got) != 1 || got[0] != llm.ToolGoogleSearch {
		t.Errorf("research tools = %v", got)
	}
	if got := gen.tools["plan"]; len(got) != 1 || got[0] != llm.ToolCodeExecution {
		t.Errorf("plan tools = %v", got)
	}
	if got := gen.tools["review"]; len(got) != 0 {
		t.Errorf("review tools = %v", got)
	}
	if len(res.Metrics.FeaturesUsed) != 7 {
		t.Errorf("expected 7 distinct features, got %v", res.Metrics.FeaturesUsed)
	}
	if drafts != 1 || verdicts != 1 {
		t.Errorf("expected one draft and one verdict event, got %d/%d", drafts, verdicts)
	}
	if len(refs.sources) != 1 || !strings.Contains(researchPrompt, "tamagoyaki") {
		t.Error("expected reference notes in the research prompt")
	}
}

type promptCapture struct {
	next   llm.TextGenerator
	target *string
}

func (c promptCapture) GenerateContent(ctx context.Context, prompt string, tools ...llm.Tool) (llm.ContentResponse, error) {
	if strings.HasPrefix(prompt, "# Research Agent Prompt") {
		*c.target = prompt
	}
	return c.next.GenerateContent(ctx, prompt, tools...)
}

func captureResearch(next llm.TextGenerator, target *string) llm.TextGenerator {
	return promptCapture{next: next, target: target}
}

// noToolsGenerator is a provider that runs no hosted tools.
type noToolsGenerator struct {
	*scriptedGenerator
}

func (noToolsGenerator) SupportsTool(llm.Tool) bool { return false }

func TestRunReportsOnlySupportedTools(t *testing.T) {
	gen := &scriptedGenerator{review: fixed("Score: 9/10")}
	p := NewPlanner(noToolsGenerator{gen}, Options{
		Profile:             ProfileFor(TierLenient),
		EnableSearch:        true,
		EnableCodeExecution: true,
	})

	res, err := p.Run(context.Background(), tokyoParams(2))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, f := range res.Metrics.FeaturesUsed {
		if f == FeatureGoogleSearch || f == FeatureCodeExecution {
			t.Errorf("feature %q reported for a provider without tools", f)
		}
	}
	if len(gen.tools["research"]) != 0 || len(gen.tools["plan"]) != 0 {
		t.Errorf("expected no tools passed, got research=%v plan=%v", gen.tools["research"], gen.tools["plan"])
	}
}

type stubForecaster struct {
	report weather.Report
}

func (s stubForecaster) Forecast(ctx context.Context, destination string, dates trip.DateRange) weather.Report {
	return s.report
}

func TestRunUsesWeatherAndTransitContext(t *testing.T) {
	t.Run("LiveForecast", func(t *testing.T) {
		var researchPrompt string
		gen := &scriptedGenerator{
			research: fixed("## Top attractions\n- Senso-ji Temple\n\nTemperature: 30-35°C\nConditions: Scorching\n## What to pack\n- Fan"),
			review:   fixed("Score: 9/10"),
		}
		live := weather.Report{Weather: trip.Weather{
			TemperatureRange: "12-18°C",
			Conditions:       "Light rain",
			Packing:          []string{"Pack a compact umbrella just in case"},
			Source:           weather.SourceLive,
		}}

		p := NewPlanner(captureResearch(gen, &researchPrompt), Options{Weather: stubForecaster{live}})
		res, err := p.Run(context.Background(), tokyoParams(2))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}

		if !strings.Contains(researchPrompt, "(Source: "+weather.SourceLive+")") {
			t.Error("expected the forecast in the research prompt")
		}
		w := res.Research.Weather
		if w.TemperatureRange != "12-18°C" || w.Source != weather.SourceLive {
			t.Errorf("expected the live forecast to win, got %+v", w)
		}
		if len(w.Packing) != 2 || w.Packing[1] != "Fan" {
			t.Errorf("expected forecast packing then the reply's, got %v", w.Packing)
		}
		if len(gen.planPrompts) == 0 || !strings.Contains(gen.planPrompts[0], "Suica Card") {
			t.Error("expected the Tokyo transit guide in the plan prompt")
		}
	})

	t.Run("SeasonalMarker", func(t *testing.T) {
		gen := &scriptedGenerator{review: fixed("Score: 9/10")}
		seasonal := weather.Report{Weather: trip.Weather{TemperatureRange: "14-20°C", Source: weather.SourceNoKey}}

		res, err := NewPlanner(gen, Options{Weather: stubForecaster{seasonal}}).Run(context.Background(), tokyoParams(2))
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.Research.Weather.Source != weather.SourceNoKey {
			t.Errorf("expected the forecaster's marker on seasonal weather, got %q", res.Research.Weather.Source)
		}
	})
}

// exploreGenerator answers the exploration prompt and records it.
type exploreGenerator struct {
	reply  string
	err    error
	prompt string
	tools  []llm.Tool
}

func (g *exploreGenerator) GenerateContent(ctx context.Context, prompt string, tools ...llm.Tool) (llm.ContentResponse, error) {
	g.prompt, g.tools = prompt, tools
	return llm.ContentResponse{Content: g.reply}, g.err
}

func TestExplore(t *testing.T) {
	t.Run("Report", func(t *testing.T) {
		gen := &exploreGenerator{reply: "  ## DESTINATION OVERVIEW\nJapan mixes neon cities and quiet temples.\n"}
		p := NewPlanner(gen, Options{EnableSearch: true})

		res, err := p.Explore(context.Background(), ExploreRequest{
			Destination: "Japan",
			Days:        10,
			Interests:   []string{"culture", "food"},
		})
		if err != nil {
			t.Fatalf("Explore failed: %v", err)
		}
		if !strings.HasPrefix(res.Report, "## DESTINATION OVERVIEW") {
			t.Errorf("unexpected report %q", res.Report)
		}
		if res.RunID == "" || res.Meta.AgentName != "Exploration" {
			t.Errorf("unexpected metadata %+v", res)
		}
		for _, want := range []string{"# Exploration Agent Prompt", "Duration: 10 days", "Budget: mid-range", "culture, food", "## SUGGESTED TRIP STRUCTURES"} {
			if !strings.Contains(gen.prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
		if len(gen.tools) != 1 || gen.tools[0] != llm.ToolGoogleSearch {
			t.Errorf("expected search on the exploration call, got %v", gen.tools)
		}
	})

	t.Run("InvalidRequest", func(t *testing.T) {
		gen := &exploreGenerator{reply: "unused"}
		p := NewPlanner(gen, Options{})

		for _, req := range []ExploreRequest{
			{Destination: " ", Days: 5},
			{Destination: "Japan", Days: 0},
			{Destination: "Japan", Days: 5, Budget: "cheap"},
		} {
			_, err := p.Explore(context.Background(), req)
			if !errors.Is(err, trip.ErrInvalidInput) {
				t.Errorf("Explore(%+v) = %v, want ErrInvalidInput", req, err)
			}
		}
		if gen.prompt != "" {
			t.Error("expected no generation call for invalid requests")
		}
	})

	t.Run("EmptyReply", func(t *testing.T) {
		p := NewPlanner(&exploreGenerator{reply: "\n"}, Options{})
		_, err := p.Explore(context.Background(), ExploreRequest{Destination: "Japan", Days: 3})
		if !errors.Is(err, ErrGeneration) || !errors.Is(err, llm.ErrNoContent) {
			t.Errorf("expected ErrGeneration wrapping ErrNoContent, got %v", err)
		}
	})
}
