// Package history indexes finished planning runs in SQLite so they can be
// listed and re-evaluated later.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/evaluation"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"
)

// ErrNotFound is returned when no run exists for an ID.
var ErrNotFound = errors.New("run not found")

// Run is one row of planning history.
type Run struct {
	ID            string
	Destination   string
	StartDate     time.Time
	EndDate       time.Time
	Budget        trip.BudgetTier
	Pace          trip.Pace
	Tier          string
	Iterations    int
	Approved      bool
	ForceApproved bool
	Score         float64
	TotalCost     float64
	Overall       float64
	Grade         string
	TotalDuration time.Duration
	CreatedAt     time.Time
}

// FromResult builds a history row from a finished run. The report may be nil.
func FromResult(params trip.Parameters, res *planner.Result, report *evaluation.Report) Run {
	r := Run{
		ID:            res.RunID,
		Destination:   params.Destination,
		StartDate:     params.Dates.Start,
		EndDate:       params.Dates.End,
		Budget:        params.Preferences.Budget,
		Pace:          params.Preferences.Pace,
		Tier:          res.Metrics.Tier,
		Iterations:    res.Metrics.Iterations,
		Approved:      res.Verdict.Approved,
		ForceApproved: res.Verdict.ForceApproved,
		Score:         res.Verdict.Score,
		TotalCost:     res.Draft.TotalCost,
		TotalDuration: res.Metrics.TotalDuration,
		CreatedAt:     time.Now().UTC(),
	}
	if report != nil {
		r.Overall = report.Overall
		r.Grade = report.Grade
	}
	return r
}

// Repository is a database-backed repository for planning runs.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const runColumns = `id, destination, start_date, end_date, budget_level, pace, tier, iterations,
	approved, force_approved, quality_score, total_cost, overall_score, grade, total_duration_ms, created_at`

// Save inserts a run, replacing an existing row with the same ID.
func (r *Repository) Save(ctx context.Context, run Run) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `INSERT OR REPLACE INTO planning_runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Destination,
		run.StartDate.Format(trip.DateLayout), run.EndDate.Format(trip.DateLayout),
		string(run.Budget), string(run.Pace), run.Tier, run.Iterations,
		run.Approved, run.ForceApproved, run.Score, run.TotalCost,
		run.Overall, run.Grade, run.TotalDuration.Milliseconds(),
		created.UTC().Format(database.TimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateEvaluation stores a fresh evaluation for an existing run.
func (r *Repository) UpdateEvaluation(ctx context.Context, id string, report evaluation.Report) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE planning_runs SET overall_score = ?, grade = ? WHERE id = ?`,
		report.Overall, report.Grade, id)
	if err != nil {
		return fmt.Errorf("failed to update evaluation of run %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a run. Deleting a run that does not exist is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM planning_runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	return nil
}

// Get retrieves a run by ID.
func (r *Repository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM planning_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRecent retrieves the N most recent runs.
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM planning_runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var (
		run                 Run
		start, end, created string
		budget, pace        string
		durationMS          int64
	)
	err := s.Scan(&run.ID, &run.Destination, &start, &end, &budget, &pace, &run.Tier, &run.Iterations,
		&run.Approved, &run.ForceApproved, &run.Score, &run.TotalCost, &run.Overall, &run.Grade,
		&durationMS, &created)
	if err != nil {
		return nil, err
	}

	run.Budget = trip.BudgetTier(budget)
	run.Pace = trip.Pace(pace)
	run.TotalDuration = time.Duration(durationMS) * time.Millisecond
	run.StartDate, _ = time.Parse(trip.DateLayout, start)
	run.EndDate, _ = time.Parse(trip.DateLayout, end)
	run.CreatedAt, _ = time.Parse(database.TimeLayout, created)
	return &run, nil
}
