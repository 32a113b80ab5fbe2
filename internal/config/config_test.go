package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		t.Chdir(t.TempDir())

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLM.Provider != "gemini" {
			t.Errorf("Expected provider 'gemini', got '%s'", cfg.LLM.Provider)
		}
		if cfg.Planner.Tier != "lenient" {
			t.Errorf("Expected tier 'lenient', got '%s'", cfg.Planner.Tier)
		}
		if cfg.Retry.Attempts != 5 || cfg.Retry.InitialDelay != time.Second || cfg.Retry.Multiplier != 7 {
			t.Errorf("Unexpected retry defaults: %+v", cfg.Retry)
		}
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("TRIP_PLANNER_TIER", "strict")
		t.Setenv("TRIP_RETRY_INITIAL_DELAY", "250ms")

		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLM.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.LLM.GeminiAPIKey)
		}
		if cfg.Planner.Tier != "strict" {
			t.Errorf("Expected tier 'strict', got '%s'", cfg.Planner.Tier)
		}
		if cfg.Retry.InitialDelay != 250*time.Millisecond {
			t.Errorf("Expected 250ms initial delay, got %v", cfg.Retry.InitialDelay)
		}
	})

	t.Run("ConfigFile", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "trip-planner.yaml")
		content := `
llm:
  provider: groq
  model: llama-3.3-70b-versatile
planner:
  tier: strict
telegram:
  allowed_user_ids: [42, 7]
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLM.Provider != "groq" || cfg.LLM.Model != "llama-3.3-70b-versatile" {
			t.Errorf("Unexpected llm config: %+v", cfg.LLM)
		}
		if len(cfg.Telegram.AllowedUserIDs) != 2 || cfg.Telegram.AllowedUserIDs[0] != 42 {
			t.Errorf("Unexpected allowed user ids: %v", cfg.Telegram.AllowedUserIDs)
		}
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		if err == nil {
			t.Fatal("Expected an error for a missing config file, got nil")
		}
	})

	t.Run("UnknownTier", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TRIP_PLANNER_TIER", "pro")

		if _, err := Load(""); err == nil {
			t.Fatal("Expected an error for unknown tier, got nil")
		}
	})
}

func TestNewFromEnv(t *testing.T) {
	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("GEMINI_API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("MissingGroqAPIKey", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("TRIP_LLM_PROVIDER", "groq")
		t.Setenv("GROQ_API_KEY", "")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GROQ_API_KEY, got nil")
		}
		expectedError := "GROQ_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("Success", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("GEMINI_API_KEY", "gemini_key")
		t.Setenv("OPENWEATHER_API_KEY", "weather_key")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GhostEnabled() {
			t.Error("Expected Ghost publishing to be disabled without credentials")
		}
		if cfg.Weather.OpenWeatherAPIKey != "weather_key" {
			t.Errorf("Expected the weather key from OPENWEATHER_API_KEY, got %q", cfg.Weather.OpenWeatherAPIKey)
		}
	})
}
