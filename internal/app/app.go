// Package app wires the planner to persistence, evaluation, export and
// publishing. Every front end (CLI, HTTP, Telegram, MCP) goes through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/evaluation"
	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/ghost"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"
)

var (
	// ErrPublishingDisabled is returned when publishing is requested without
	// a configured Ghost blog.
	ErrPublishingDisabled = errors.New("publishing is not configured")
	// ErrNoGenerator is returned by PlanTrip on an App opened offline.
	ErrNoGenerator = errors.New("no text generator configured")
)

// Deps are the collaborators of an App. Metrics, History, Publisher,
// Weather and both reference loaders are optional. PublicReferences
// serves calls made with PlanOptions.PublicReferencesOnly.
type Deps struct {
	Config           *config.Config
	Logger           *logging.Logger
	TextGen          llm.TextGenerator
	Sessions         *storage.SessionStore
	History          *history.Repository
	Metrics          *metrics.Store
	Publisher        ghost.Client
	References       planner.ReferenceLoader
	PublicReferences planner.ReferenceLoader
	Weather          planner.Forecaster
}

// App holds the application's dependencies.
type App struct {
	cfg        *config.Config
	logger     *logging.Logger
	textGen    llm.TextGenerator
	sessions   *storage.SessionStore
	history    *history.Repository
	metrics    *metrics.Store
	publisher  ghost.Client
	references planner.ReferenceLoader
	public     planner.ReferenceLoader
	weather    planner.Forecaster
	features   []string
	now        func() time.Time
	closers    []func() error
}

// New creates an App from already constructed dependencies.
func New(deps Deps) *App {
	if deps.Config == nil {
		deps.Config = config.Default()
	}
	if deps.Logger == nil {
		deps.Logger = logging.NopLogger()
	}

	a := &App{
		cfg:        deps.Config,
		logger:     deps.Logger,
		textGen:    deps.TextGen,
		sessions:   deps.Sessions,
		history:    deps.History,
		metrics:    deps.Metrics,
		publisher:  deps.Publisher,
		references: deps.References,
		public:     deps.PublicReferences,
		weather:    deps.Weather,
		now:        time.Now,
	}

	if a.sessions != nil {
		a.features = append(a.features, planner.FeatureSessions)
	}
	if a.history != nil {
		a.features = append(a.features, planner.FeatureMemory)
	}
	if a.metrics != nil {
		a.features = append(a.features, planner.FeatureObservability)
	}
	return a
}

// PlanOptions adjust a single PlanTrip call.
type PlanOptions struct {
	// Tier overrides the configured tier when set.
	Tier string
	// OutputDir, when set, receives the exported files.
	OutputDir string
	Publish   bool
	Observer  *planner.Observer
	// PublicReferencesOnly is set for remote callers: references are read
	// from public URLs only, never from local files or internal hosts.
	PublicReferencesOnly bool
}

// Outcome is everything a finished PlanTrip produced.
type Outcome struct {
	Session *storage.Session
	Files   []string
	Post    *ghost.Post
}

// PlanTrip runs the planner, scores the result and persists it. Failing
// to record history or metrics is logged but does not fail the call; the
// session snapshot is the durable record and must be written.
func (a *App) PlanTrip(ctx context.Context, params trip.Parameters, opts PlanOptions) (*Outcome, error) {
	if a.textGen == nil {
		return nil, ErrNoGenerator
	}
	tierName := opts.Tier
	if tierName == "" {
		tierName = a.cfg.Planner.Tier
	}
	tier, err := planner.ParseTier(tierName)
	if err != nil {
		return nil, err
	}
	if opts.Publish && a.publisher == nil {
		return nil, ErrPublishingDisabled
	}

	refs := a.references
	if opts.PublicReferencesOnly {
		refs = a.public
	}

	p := planner.NewPlanner(a.textGen, planner.Options{
		Profile:             planner.ProfileFor(tier),
		EnableSearch:        a.cfg.LLM.EnableSearch,
		EnableCodeExecution: a.cfg.LLM.EnableCodeExecution,
		References:          refs,
		Weather:             a.weather,
		Logger:              a.logger,
		Observer:            opts.Observer,
		Features:            a.features,
	})

	res, err := p.Run(ctx, params)
	if err != nil {
		return nil, err
	}
	log := a.logger.WithRun(res.RunID)

	report := evaluation.Evaluate(params, res.Draft, res.Metrics)
	report.Timestamp = a.now().UTC()

	session := storage.NewSession(params, res, &report)
	out := &Outcome{Session: &session}

	if a.sessions != nil {
		if err := a.sessions.Save(session); err != nil {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}
	}
	if a.history != nil {
		if err := a.history.Save(ctx, history.FromResult(params, res, &report)); err != nil {
			log.Warn("failed to record run history", "error", err.Error())
		}
	}
	if a.metrics != nil {
		if err := a.metrics.RecordAll(ctx, res.RunID, res.Meta); err != nil {
			log.Warn("failed to record execution metrics", "error", err.Error())
		}
	}

	if opts.OutputDir != "" {
		files, err := export.WriteAll(opts.OutputDir, &session)
		if err != nil {
			return nil, err
		}
		out.Files = files
	}

	if opts.Publish {
		post, err := a.publish(ctx, &session)
		if err != nil {
			return nil, err
		}
		out.Post = post
	}

	log.Info("trip planned",
		"destination", params.Destination,
		"overall", report.Overall,
		"grade", report.Grade,
		"files", len(out.Files),
	)
	return out, nil
}

// Explore returns a high-level report on a destination. Nothing is stored
// but the call's execution metrics.
func (a *App) Explore(ctx context.Context, req planner.ExploreRequest) (*planner.Exploration, error) {
	if a.textGen == nil {
		return nil, ErrNoGenerator
	}
	p := planner.NewPlanner(a.textGen, planner.Options{
		EnableSearch: a.cfg.LLM.EnableSearch,
		Logger:       a.logger,
	})
	res, err := p.Explore(ctx, req)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		if err := a.metrics.RecordAll(ctx, res.RunID, []shared.AgentMeta{res.Meta}); err != nil {
			a.logger.WithRun(res.RunID).Warn("failed to record execution metrics", "error", err.Error())
		}
	}
	return res, nil
}

func (a *App) publish(ctx context.Context, s *storage.Session) (*ghost.Post, error) {
	post, err := a.publisher.CreatePost(ctx, ghost.Draft{
		Title:    fmt.Sprintf("%d days in %s", s.Trip.Dates.Days(), s.Trip.Destination),
		Markdown: export.Markdown(s),
		Tags:     []string{"itinerary", s.Trip.Destination},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish itinerary: %w", err)
	}
	a.logger.WithRun(s.ID).Info("itinerary published", "post_id", post.ID)
	return post, nil
}

// Session loads a stored run.
func (a *App) Session(id string) (*storage.Session, error) {
	if a.sessions == nil {
		return nil, storage.ErrNotFound
	}
	return a.sessions.Load(id)
}

// Sessions lists stored runs, newest first.
func (a *App) Sessions() ([]storage.Summary, error) {
	if a.sessions == nil {
		return nil, nil
	}
	return a.sessions.List()
}

// DeleteSession removes a stored run: its session snapshot and its
// history row. Execution metrics are kept for usage reporting and age out
// through CleanupMetrics.
func (a *App) DeleteSession(ctx context.Context, id string) error {
	if a.sessions == nil {
		return storage.ErrNotFound
	}
	if err := a.sessions.Delete(id); err != nil {
		return err
	}
	if a.history != nil {
		if err := a.history.Delete(ctx, id); err != nil {
			a.logger.WithRun(id).Warn("failed to delete run history", "error", err.Error())
		}
	}
	return nil
}

// Evaluate re-scores a stored run and saves the new report alongside it.
func (a *App) Evaluate(ctx context.Context, id string) (*evaluation.Report, error) {
	session, err := a.Session(id)
	if err != nil {
		return nil, err
	}

	report := evaluation.Evaluate(session.Trip, session.Itinerary, session.Metrics)
	report.Timestamp = a.now().UTC()
	session.Evaluation = &report

	if err := a.sessions.Save(*session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if a.history != nil {
		if err := a.history.UpdateEvaluation(ctx, id, report); err != nil {
			a.logger.WithRun(id).Warn("failed to update run history", "error", err.Error())
		}
	}
	return &report, nil
}

// History lists recent runs from the database.
func (a *App) History(ctx context.Context, limit int) ([]history.Run, error) {
	if a.history == nil {
		return nil, nil
	}
	return a.history.ListRecent(ctx, limit)
}

// Usage returns token usage per day for the last days.
func (a *App) Usage(ctx context.Context, days int) ([]metrics.DailyUsage, error) {
	if a.metrics == nil {
		return nil, nil
	}
	return a.metrics.GetDailyUsage(ctx, days)
}

// CleanupMetrics removes execution metrics older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) (int64, error) {
	if a.metrics == nil {
		return 0, nil
	}
	return a.metrics.Cleanup(ctx, days)
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger {
	return a.logger
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Health reports process and data directory health.
func (a *App) Health() metrics.SysHealth {
	return metrics.GetSysHealth(a.cfg.Storage.DataDir)
}

// Close releases resources opened by Open or OpenOffline.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}
