// Package mcpserver exposes the planner as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Service is the part of the application the tools call.
type Service interface {
	PlanTrip(ctx context.Context, params trip.Parameters, opts app.PlanOptions) (*app.Outcome, error)
	Session(id string) (*storage.Session, error)
	History(ctx context.Context, limit int) ([]history.Run, error)
}

// Tools holds the tool handlers.
type Tools struct {
	service Service
}

// NewServer creates an MCP server with the trip planner tools registered.
func NewServer(service Service) *server.MCPServer {
	s := server.NewMCPServer(
		"trip-planner",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)
	t := &Tools{service: service}
	t.register(s)
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(service Service) error {
	return server.ServeStdio(NewServer(service))
}

func (t *Tools) register(s *server.MCPServer) {
	planTool := mcp.NewTool("plan_trip",
		mcp.WithDescription("Research a destination and produce a reviewed day-by-day itinerary"),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("City and country, e.g. \"Tokyo, Japan\""),
		),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("First day of the trip (YYYY-MM-DD)"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("Last day of the trip (YYYY-MM-DD)"),
		),
		mcp.WithString("budget_level",
			mcp.Description("Spending level"),
			mcp.Enum("budget", "mid-range", "luxury"),
			mcp.DefaultString("mid-range"),
		),
		mcp.WithString("pace",
			mcp.Description("How full each day should be"),
			mcp.Enum("relaxed", "moderate", "fast"),
			mcp.DefaultString("moderate"),
		),
		mcp.WithString("interests",
			mcp.Description("Comma-separated interests, e.g. \"food, temples\""),
		),
		mcp.WithString("tier",
			mcp.Description("Planning tier; strict runs more review rounds with a higher bar"),
			mcp.Enum("lenient", "strict"),
		),
	)
	s.AddTool(planTool, t.handlePlanTrip)

	listTool := mcp.NewTool("list_trips",
		mcp.WithDescription("List recently planned trips"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of trips to return"),
			mcp.DefaultNumber(10),
			mcp.Min(1),
			mcp.Max(100),
		),
	)
	s.AddTool(listTool, t.handleListTrips)

	getTool := mcp.NewTool("get_itinerary",
		mcp.WithDescription("Return a planned trip as markdown"),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Trip ID as returned by plan_trip or list_trips"),
		),
	)
	s.AddTool(getTool, t.handleGetItinerary)
}

func (t *Tools) handlePlanTrip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	destination, err := request.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid destination: %v", err)), nil
	}
	startStr, err := request.RequireString("start_date")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid start_date: %v", err)), nil
	}
	endStr, err := request.RequireString("end_date")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid end_date: %v", err)), nil
	}

	start, err := time.Parse(trip.DateLayout, startStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("start_date %q is not YYYY-MM-DD", startStr)), nil
	}
	end, err := time.Parse(trip.DateLayout, endStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("end_date %q is not YYYY-MM-DD", endStr)), nil
	}

	params := trip.Parameters{
		Destination: destination,
		Dates:       trip.DateRange{Start: start, End: end},
		Preferences: trip.Preferences{
			Budget: trip.BudgetTier(request.GetString("budget_level", string(trip.BudgetMid))),
			Pace:   trip.Pace(request.GetString("pace", string(trip.PaceModerate))),
		},
	}
	for _, interest := range strings.Split(request.GetString("interests", ""), ",") {
		if interest = strings.TrimSpace(interest); interest != "" {
			params.Preferences.Interests = append(params.Preferences.Interests, interest)
		}
	}

	out, err := t.service.PlanTrip(ctx, params, app.PlanOptions{Tier: request.GetString("tier", "")})
	if err != nil {
		if errors.Is(err, trip.ErrInvalidInput) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Planning failed: %v", err)), nil
	}

	s := out.Session
	header := fmt.Sprintf("Trip ID: %s\nReview: %.1f/10 after %d iteration(s)\n\n", s.ID, s.Review.Score, s.Metadata.Iterations)
	return mcp.NewToolResultText(header + export.Markdown(s)), nil
}

func (t *Tools) handleListTrips(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	runs, err := t.service.History(ctx, request.GetInt("limit", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list trips: %v", err)), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No trips planned yet."), nil
	}

	var sb strings.Builder
	for _, r := range runs {
		fmt.Fprintf(&sb, "%s  %s  %s to %s  score %.1f",
			r.ID, r.Destination,
			r.StartDate.Format(trip.DateLayout), r.EndDate.Format(trip.DateLayout),
			r.Score)
		if r.Grade != "" {
			fmt.Fprintf(&sb, "  grade %s", r.Grade)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *Tools) handleGetItinerary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid id: %v", err)), nil
	}
	session, err := t.service.Session(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(export.Markdown(session)), nil
}
