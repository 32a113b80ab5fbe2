// Package export writes a finished session in shareable formats.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"
)

// File names written by WriteAll.
const (
	MarkdownFile   = "itinerary.md"
	JSONFile       = "itinerary.json"
	TextFile       = "itinerary.txt"
	EvaluationFile = "evaluation.json"
)

var extraBlankLines = regexp.MustCompile(`\n{3,}`)

// PlainText renders the markdown itinerary without markdown syntax.
func PlainText(s *storage.Session) string {
	text := Markdown(s)
	text = strings.NewReplacer("#", "", "**", "", "_", "", "`", "").Replace(text)
	return extraBlankLines.ReplaceAllString(text, "\n\n")
}

type itineraryDoc struct {
	SessionID string             `json:"session_id"`
	Trip      trip.Parameters    `json:"trip"`
	Itinerary trip.PlanDraft     `json:"itinerary"`
	Review    trip.ReviewVerdict `json:"review"`
}

type outputFile struct {
	name string
	data []byte
}

// JSON renders the itinerary with its trip parameters.
func JSON(s *storage.Session) ([]byte, error) {
	doc := itineraryDoc{
		SessionID: s.ID,
		Trip:      s.Trip,
		Itinerary: s.Itinerary,
		Review:    s.Review,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal itinerary: %w", err)
	}
	return data, nil
}

// WriteAll writes every format into dir and returns the written paths.
// The evaluation file is skipped when the session carries no report.
func WriteAll(dir string, s *storage.Session) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	jsonData, err := JSON(s)
	if err != nil {
		return nil, err
	}

	files := []outputFile{
		{MarkdownFile, []byte(Markdown(s))},
		{JSONFile, jsonData},
		{TextFile, []byte(PlainText(s))},
	}
	if s.Evaluation != nil {
		evalData, err := json.MarshalIndent(s.Evaluation, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal evaluation: %w", err)
		}
		files = append(files, outputFile{EvaluationFile, evalData})
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return paths, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
