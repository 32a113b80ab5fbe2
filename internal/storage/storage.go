package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ai-trip-planner/internal/evaluation"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = errors.New("session not found")
	// ErrInvalidID is returned for IDs that are not UUIDs.
	ErrInvalidID = errors.New("invalid session id")
)

// Metadata is the quick-look part of a session.
type Metadata struct {
	Tier          string  `json:"tier"`
	Iterations    int     `json:"iterations"`
	Approved      bool    `json:"approved"`
	ForceApproved bool    `json:"force_approved"`
	Score         float64 `json:"quality_score"`
	TotalCost     float64 `json:"total_cost"`
}

// Session is the full snapshot of one planning run.
type Session struct {
	ID         string                `json:"session_id"`
	CreatedAt  time.Time             `json:"created_at"`
	Trip       trip.Parameters       `json:"trip"`
	Research   trip.ResearchFindings `json:"research"`
	Itinerary  trip.PlanDraft        `json:"itinerary"`
	Review     trip.ReviewVerdict    `json:"review"`
	Metrics    planner.RunMetrics    `json:"metrics"`
	Evaluation *evaluation.Report    `json:"evaluation,omitempty"`
	Metadata   Metadata              `json:"metadata"`
}

// NewSession snapshots a planner result.
func NewSession(params trip.Parameters, res *planner.Result, report *evaluation.Report) Session {
	return Session{
		ID:         res.RunID,
		CreatedAt:  time.Now().UTC(),
		Trip:       params,
		Research:   res.Research,
		Itinerary:  res.Draft,
		Review:     res.Verdict,
		Metrics:    res.Metrics,
		Evaluation: report,
		Metadata: Metadata{
			Tier:          res.Metrics.Tier,
			Iterations:    res.Metrics.Iterations,
			Approved:      res.Verdict.Approved,
			ForceApproved: res.Verdict.ForceApproved,
			Score:         res.Verdict.Score,
			TotalCost:     res.Draft.TotalCost,
		},
	}
}

// Summary is one line of a session listing.
type Summary struct {
	ID          string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	CreatedAt   time.Time
	Metadata    Metadata
}

// SessionStore keeps one JSON file per session.
type SessionStore struct {
	basePath string
}

// NewSessionStore creates a new SessionStore and ensures the base directory exists.
func NewSessionStore(basePath string) (*SessionStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", basePath, err)
	}
	return &SessionStore{basePath: basePath}, nil
}

// getPath returns the file of a session. IDs are UUIDs, which also keeps
// them from escaping the base directory.
func (s *SessionStore) getPath(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidID, id, err)
	}
	return filepath.Join(s.basePath, parsed.String()+".json"), nil
}

// Save writes a session, replacing any previous snapshot with the same ID.
func (s *SessionStore) Save(session Session) error {
	path, err := s.getPath(session.ID)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move session file into place: %w", err)
	}
	return nil
}

// Load retrieves a session by ID.
func (s *SessionStore) Load(id string) (*Session, error) {
	path, err := s.getPath(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}

// Exists checks if a session file exists.
func (s *SessionStore) Exists(id string) bool {
	path, err := s.getPath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Delete removes a session.
func (s *SessionStore) Delete(id string) error {
	path, err := s.getPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// List returns summaries of all sessions, newest first. Unreadable files
// are skipped.
func (s *SessionStore) List() ([]Summary, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]Summary, 0, len(matches))
	for _, m := range matches {
		id := strings.TrimSuffix(filepath.Base(m), ".json")
		session, err := s.Load(id)
		if err != nil {
			continue
		}
		summaries = append(summaries, Summary{
			ID:          session.ID,
			Destination: session.Trip.Destination,
			StartDate:   session.Trip.Dates.Start,
			EndDate:     session.Trip.Dates.End,
			CreatedAt:   session.CreatedAt,
			Metadata:    session.Metadata,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}
