package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"

	"github.com/mark3labs/mcp-go/mcp"
)

type mockService struct {
	params trip.Parameters
	opts   app.PlanOptions
	err    error
	runs   []history.Run
}

func (m *mockService) PlanTrip(ctx context.Context, params trip.Parameters, opts app.PlanOptions) (*app.Outcome, error) {
	m.params, m.opts = params, opts
	if m.err != nil {
		return nil, m.err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &app.Outcome{Session: &storage.Session{
		ID:       "5b1f7a52-8a9e-4c55-9f0e-0f6b8f2f7c11",
		Trip:     params,
		Review:   trip.ReviewVerdict{Score: 8, Approved: true},
		Metadata: storage.Metadata{Iterations: 2},
	}}, nil
}

func (m *mockService) Session(id string) (*storage.Session, error) {
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
}

func (m *mockService) History(ctx context.Context, limit int) ([]history.Run, error) {
	if len(m.runs) > limit {
		return m.runs[:limit], nil
	}
	return m.runs, nil
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestHandlePlanTrip(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc := &mockService{}
		tools := &Tools{service: svc}

		res, err := tools.handlePlanTrip(context.Background(), call(map[string]interface{}{
			"destination": "Tokyo, Japan",
			"start_date":  "2025-04-01",
			"end_date":    "2025-04-03",
			"interests":   "food, temples",
			"tier":        "strict",
		}))
		if err != nil {
			t.Fatal(err)
		}
		if res.IsError {
			t.Fatalf("unexpected tool error: %s", resultText(t, res))
		}

		if svc.params.Preferences.Budget != trip.BudgetMid || svc.params.Preferences.Pace != trip.PaceModerate {
			t.Errorf("expected default preferences, got %+v", svc.params.Preferences)
		}
		if len(svc.params.Preferences.Interests) != 2 || svc.opts.Tier != "strict" {
			t.Errorf("unexpected request %+v / %+v", svc.params, svc.opts)
		}
		text := resultText(t, res)
		if !strings.Contains(text, "Trip ID: 5b1f7a52") || !strings.Contains(text, "# Tokyo, Japan Trip Itinerary") {
			t.Errorf("unexpected result:\n%s", text)
		}
	})

	tests := []struct {
		name string
		args map[string]interface{}
		err  error
		want string
	}{
		{"missing destination", map[string]interface{}{"start_date": "2025-04-01", "end_date": "2025-04-02"}, nil, "destination"},
		{"bad date", map[string]interface{}{"destination": "Tokyo", "start_date": "April", "end_date": "2025-04-02"}, nil, "YYYY-MM-DD"},
		{"invalid range", map[string]interface{}{"destination": "Tokyo", "start_date": "2025-04-05", "end_date": "2025-04-02"}, nil, "end date"},
		{"generation failure", map[string]interface{}{"destination": "Tokyo", "start_date": "2025-04-01", "end_date": "2025-04-02"}, errors.New("quota exhausted"), "Planning failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tools := &Tools{service: &mockService{err: tt.err}}
			res, err := tools.handlePlanTrip(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError || !strings.Contains(resultText(t, res), tt.want) {
				t.Errorf("expected an error mentioning %q, got %+v", tt.want, res)
			}
		})
	}
}

func TestHandleListTrips(t *testing.T) {
	tools := &Tools{service: &mockService{}}
	res, _ := tools.handleListTrips(context.Background(), call(nil))
	if resultText(t, res) != "No trips planned yet." {
		t.Errorf("unexpected empty listing %q", resultText(t, res))
	}

	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	svc := &mockService{runs: []history.Run{
		{ID: "a", Destination: "Tokyo", StartDate: start, EndDate: start.AddDate(0, 0, 2), Score: 8, Grade: "A"},
		{ID: "b", Destination: "Kyoto", StartDate: start, EndDate: start, Score: 6},
	}}
	tools = &Tools{service: svc}
	res, _ = tools.handleListTrips(context.Background(), call(map[string]interface{}{"limit": float64(1)}))
	text := resultText(t, res)
	if !strings.Contains(text, "a  Tokyo  2025-04-01 to 2025-04-03  score 8.0  grade A") || strings.Contains(text, "Kyoto") {
		t.Errorf("unexpected listing:\n%s", text)
	}
}

func TestHandleGetItinerary(t *testing.T) {
	tools := &Tools{service: &mockService{}}
	res, _ := tools.handleGetItinerary(context.Background(), call(map[string]interface{}{"id": "missing"}))
	if !res.IsError || !strings.Contains(resultText(t, res), "session not found") {
		t.Errorf("expected a not found error, got %+v", res)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	if NewServer(&mockService{}) == nil {
		t.Fatal("expected a server")
	}
}
