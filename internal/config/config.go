package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	LLM      LLMConfig      `mapstructure:"llm"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Planner  PlannerConfig  `mapstructure:"planner"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Ghost    GhostConfig    `mapstructure:"ghost"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Weather  WeatherConfig  `mapstructure:"weather"`
}

// LLMConfig selects and configures the text generation provider.
type LLMConfig struct {
	// Provider is "gemini" or "groq".
	Provider            string  `mapstructure:"provider"`
	Model               string  `mapstructure:"model"`
	Temperature         float32 `mapstructure:"temperature"`
	GeminiAPIKey        string  `mapstructure:"gemini_api_key"`
	GroqAPIKey          string  `mapstructure:"groq_api_key"`
	EnableCodeExecution bool    `mapstructure:"enable_code_execution"`
	EnableSearch        bool    `mapstructure:"enable_search"`
	// CachePath, when set, persists replies keyed by prompt so reruns are free.
	CachePath string `mapstructure:"cache_path"`
}

// RetryConfig controls exponential backoff around generation calls.
type RetryConfig struct {
	Attempts     int           `mapstructure:"attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
}

// PlannerConfig holds run-level planner settings.
type PlannerConfig struct {
	// Tier is "lenient" or "strict".
	Tier string `mapstructure:"tier"`
}

// StorageConfig locates everything written to disk.
type StorageConfig struct {
	DataDir      string `mapstructure:"data_dir"`
	DatabasePath string `mapstructure:"database_path"`
	SessionDir   string `mapstructure:"session_dir"`
	OutputDir    string `mapstructure:"output_dir"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Dir, when set, writes logs to {Dir}/debug.log instead of stderr.
	Dir string `mapstructure:"dir"`
}

// TelegramConfig is only required by the bot.
type TelegramConfig struct {
	BotToken       string  `mapstructure:"bot_token"`
	WebhookURL     string  `mapstructure:"webhook_url"`
	AllowedUserIDs []int64 `mapstructure:"allowed_user_ids"`
	AdminUserID    int64   `mapstructure:"admin_user_id"`
}

// GhostConfig enables publishing itineraries to a Ghost blog.
type GhostConfig struct {
	URL      string `mapstructure:"url"`
	AdminKey string `mapstructure:"admin_key"`
}

// WeatherConfig enables the live forecast. Without a key the planner uses
// seasonal averages.
type WeatherConfig struct {
	OpenWeatherAPIKey string `mapstructure:"openweather_api_key"`
}

// HTTPConfig configures the REST API and webhook listeners.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:     "gemini",
			Model:        "gemini-2.5-flash-lite",
			Temperature:  0.7,
			EnableSearch: true,
		},
		Retry: RetryConfig{
			Attempts:     5,
			InitialDelay: time.Second,
			Multiplier:   7,
			MaxDelay:     time.Minute,
		},
		Planner: PlannerConfig{Tier: "lenient"},
		Storage: StorageConfig{
			DataDir:      "data",
			DatabasePath: filepath.Join("data", "trip-planner.db"),
			SessionDir:   filepath.Join("data", "sessions"),
			OutputDir:    "output",
		},
		Logging: LoggingConfig{Level: "INFO"},
		HTTP:    HTTPConfig{Addr: ":8080"},
	}
}

// SetDefaults registers default values with v.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.enable_code_execution", d.LLM.EnableCodeExecution)
	v.SetDefault("llm.enable_search", d.LLM.EnableSearch)
	v.SetDefault("llm.cache_path", d.LLM.CachePath)

	v.SetDefault("retry.attempts", d.Retry.Attempts)
	v.SetDefault("retry.initial_delay", d.Retry.InitialDelay)
	v.SetDefault("retry.multiplier", d.Retry.Multiplier)
	v.SetDefault("retry.max_delay", d.Retry.MaxDelay)

	v.SetDefault("planner.tier", d.Planner.Tier)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.database_path", d.Storage.DatabasePath)
	v.SetDefault("storage.session_dir", d.Storage.SessionDir)
	v.SetDefault("storage.output_dir", d.Storage.OutputDir)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.dir", d.Logging.Dir)

	v.SetDefault("http.addr", d.HTTP.Addr)
}

// conventional environment names that predate the TRIP_ prefix
var legacyEnv = map[string]string{
	"llm.gemini_api_key":          "GEMINI_API_KEY",
	"llm.groq_api_key":            "GROQ_API_KEY",
	"telegram.bot_token":          "TELEGRAM_BOT_TOKEN",
	"telegram.webhook_url":        "TELEGRAM_WEBHOOK_URL",
	"telegram.allowed_user_ids":   "TELEGRAM_ALLOWED_USER_IDS",
	"telegram.admin_user_id":      "TELEGRAM_ADMIN_USER_ID",
	"ghost.url":                   "GHOST_API_URL",
	"ghost.admin_key":             "GHOST_ADMIN_API_KEY",
	"weather.openweather_api_key": "OPENWEATHER_API_KEY",
}

// Load reads configuration from defaults, an optional YAML file and the
// environment. An empty path looks for ./trip-planner.yaml and ignores its absence.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("trip-planner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, name := range legacyEnv {
		prefixed := "TRIP_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewFromEnv loads configuration without a config file and requires the
// API key of the selected provider.
func NewFromEnv() (*Config, error) {
	cfg, err := Load("")
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini", "groq":
	default:
		return fmt.Errorf("unknown llm provider %q (want gemini or groq)", c.LLM.Provider)
	}

	switch strings.ToLower(c.Planner.Tier) {
	case "lenient", "strict":
	default:
		return fmt.Errorf("unknown planner tier %q (want lenient or strict)", c.Planner.Tier)
	}

	if c.Retry.Attempts < 1 {
		return fmt.Errorf("retry.attempts must be at least 1, got %d", c.Retry.Attempts)
	}

	return nil
}

// RequireLLM reports a missing API key for the configured provider.
func (c *Config) RequireLLM() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "groq":
		if c.LLM.GroqAPIKey == "" {
			return fmt.Errorf("GROQ_API_KEY environment variable not set")
		}
	default:
		if c.LLM.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	}
	return nil
}

// RequireTelegram reports missing bot settings.
func (c *Config) RequireTelegram() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.Telegram.WebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

// GhostEnabled reports whether publishing is configured.
func (c *Config) GhostEnabled() bool {
	return c.Ghost.URL != "" && c.Ghost.AdminKey != ""
}
