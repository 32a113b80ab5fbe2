package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// writeConfig points every path of the configuration into a temp dir and
// returns the config file path and the data dir.
func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("TRIP_LLM_GEMINI_API_KEY", "")

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	cfg := fmt.Sprintf(`storage:
  data_dir: %[1]s
  database_path: %[1]s/trip-planner.db
  session_dir: %[1]s/sessions
  output_dir: %[2]s/output
logging:
  dir: %[2]s/logs
`, data, dir)

	path := filepath.Join(dir, "trip-planner.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path, data
}

func writeTrip(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trip.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("failed to write trip: %v", err)
	}
	return path
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "trip-planner" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "trip-planner")
	}

	expectedCmds := []string{"plan", "explore", "evaluate", "history", "sessions", "metrics-cleanup", "usage", "serve", "mcp"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func TestHistoryCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	output, err := executeCommand(rootCmd, "history", "--config", cfgPath, "--limit", "5")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(output, "No planning runs yet.") {
		t.Errorf("unexpected output %q", output)
	}
}

func TestMetricsCleanupCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	output, err := executeCommand(rootCmd, "metrics-cleanup", "--config", cfgPath, "--days", "7")
	if err != nil {
		t.Fatalf("metrics-cleanup failed: %v", err)
	}
	if !strings.Contains(output, "removed 0 old metric records") {
		t.Errorf("unexpected output %q", output)
	}

	_, err = executeCommand(rootCmd, "metrics-cleanup", "--config", cfgPath, "--days", "-1")
	if err == nil {
		t.Error("expected an error for negative days")
	}
	cleanupDays = 30
}

func TestEvaluateCommand(t *testing.T) {
	cfgPath, data := writeConfig(t)

	store, err := storage.NewSessionStore(filepath.Join(data, "sessions"))
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	dates := trip.DateRange{Start: start, End: start.AddDate(0, 0, 1)}
	session := storage.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Trip: trip.Parameters{
			Destination: "Kyoto, Japan",
			Dates:       dates,
			Preferences: trip.Preferences{Budget: trip.BudgetMid, Pace: trip.PaceModerate},
		},
		Itinerary: trip.PlanDraft{
			Destination: "Kyoto, Japan",
			Dates:       dates,
			Days: []trip.DayPlan{
				{Index: 1, Morning: []string{"Fushimi Inari"}, Afternoon: []string{"Gion"}},
				{Index: 2, Morning: []string{"Arashiyama"}, Afternoon: []string{"Kinkaku-ji"}},
			},
			TotalCost: 400,
		},
	}
	if err := store.Save(session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	t.Run("Stored", func(t *testing.T) {
		output, err := executeCommand(rootCmd, "evaluate", session.ID, "--config", cfgPath)
		if err != nil {
			t.Fatalf("evaluate failed: %v", err)
		}
		if !strings.Contains(output, "Kyoto, Japan") || !strings.Contains(output, "Overall:") {
			t.Errorf("unexpected output %q", output)
		}

		saved, err := store.Load(session.ID)
		if err != nil {
			t.Fatalf("failed to reload session: %v", err)
		}
		if saved.Evaluation == nil {
			t.Error("expected the evaluation to be saved with the session")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "evaluate", uuid.NewString(), "--config", cfgPath)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("NoArgs", func(t *testing.T) {
		if _, err := executeCommand(rootCmd, "evaluate", "--config", cfgPath); err == nil {
			t.Error("expected an argument error")
		}
	})
}

func TestPlanCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	t.Run("InvalidTrip", func(t *testing.T) {
		path := writeTrip(t, `destination: "Tokyo, Japan"
dates:
  start_date: "2025-04-10"
  end_date: "2025-04-01"
`)
		_, err := executeCommand(rootCmd, "plan", "--config", cfgPath, "-f", path)
		if !errors.Is(err, trip.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		path := writeTrip(t, `destination: "Tokyo, Japan"
dates:
  start_date: "2025-04-01"
  end_date: "2025-04-03"
`)
		_, err := executeCommand(rootCmd, "plan", "--config", cfgPath, "-f", path)
		if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
			t.Errorf("expected a missing key error, got %v", err)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "plan", "--config", cfgPath, "-f", filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Error("expected an error for a missing trip file")
		}
	})
}

func TestProgressObserver(t *testing.T) {
	var buf bytes.Buffer
	obs := progressObserver(&buf)

	obs.OnResearch(trip.ResearchFindings{
		Attractions: []string{"Senso-ji", "Meiji Shrine"},
		Weather:     trip.Weather{TemperatureRange: "14-20°C"},
	})
	obs.OnDraft(1, trip.PlanDraft{Days: make([]trip.DayPlan, 3)})
	obs.OnVerdict(1, trip.ReviewVerdict{Score: 6})
	obs.OnVerdict(3, trip.ReviewVerdict{Score: 6, Approved: true, ForceApproved: true})

	want := []string{
		"research done: 2 attractions, 14-20°C",
		"draft 1 ready: 3 days",
		"review 1: 6.0/10, needs revision",
		"review 3: 6.0/10, accepted at the iteration limit",
	}
	for _, w := range want {
		if !strings.Contains(buf.String(), w) {
			t.Errorf("output missing %q:\n%s", w, buf.String())
		}
	}
}

func TestSessionsCommand(t *testing.T) {
	cfgPath, data := writeConfig(t)

	store, err := storage.NewSessionStore(filepath.Join(data, "sessions"))
	if err != nil {
		t.Fatalf("failed to create session store: %v", err)
	}
	start := time.Date(2025, time.May, 3, 0, 0, 0, 0, time.UTC)
	session := storage.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Trip: trip.Parameters{
			Destination: "Porto, Portugal",
			Dates:       trip.DateRange{Start: start, End: start.AddDate(0, 0, 2)},
		},
		Metadata: storage.Metadata{Tier: "lenient", Score: 8},
	}
	if err := store.Save(session); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	output, err := executeCommand(rootCmd, "sessions", "--config", cfgPath)
	if err != nil {
		t.Fatalf("sessions failed: %v", err)
	}
	if !strings.Contains(output, session.ID) || !strings.Contains(output, "Porto, Portugal") {
		t.Errorf("unexpected listing %q", output)
	}

	output, err = executeCommand(rootCmd, "sessions", "delete", session.ID, "--config", cfgPath)
	if err != nil {
		t.Fatalf("sessions delete failed: %v", err)
	}
	if !strings.Contains(output, "Deleted "+session.ID) || store.Exists(session.ID) {
		t.Errorf("expected the session to be deleted, got %q", output)
	}

	output, err = executeCommand(rootCmd, "sessions", "--config", cfgPath)
	if err != nil || !strings.Contains(output, "No stored sessions.") {
		t.Errorf("expected an empty listing, got %q (%v)", output, err)
	}

	_, err = executeCommand(rootCmd, "sessions", "delete", session.ID, "--config", cfgPath)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExploreCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	t.Run("InvalidDays", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "explore", "Japan", "ten", "--config", cfgPath)
		if !errors.Is(err, trip.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("InvalidBudget", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "explore", "Japan", "10", "--config", cfgPath, "--budget", "cheap")
		if !errors.Is(err, trip.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("MissingAPIKey", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "explore", "Japan", "10", "--config", cfgPath, "--budget", "luxury", "--interests", "food,temples")
		if err == nil || !strings.Contains(err.Error(), "GEMINI_API_KEY") {
			t.Errorf("expected a missing key error, got %v", err)
		}
	})

	t.Run("MissingArgs", func(t *testing.T) {
		_, err := executeCommand(rootCmd, "explore", "Japan", "--config", cfgPath)
		if err == nil {
			t.Error("expected an error without the days argument")
		}
	})
	exploreBudget = string(trip.BudgetMid)
	exploreInterests = nil
}
