package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/export"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/reference"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"

	"github.com/gin-gonic/gin"
)

const maxBodySize = 64 << 10 // 64KB

// tripResponse is the API view of a stored run.
type tripResponse struct {
	ID        string                `json:"id"`
	Trip      trip.Parameters       `json:"trip"`
	Research  trip.ResearchFindings `json:"research"`
	Itinerary trip.PlanDraft        `json:"itinerary"`
	Review    trip.ReviewVerdict    `json:"review"`
	Metrics   planner.RunMetrics    `json:"metrics"`
	Metadata  storage.Metadata      `json:"metadata"`
	Overall   float64               `json:"overall_score,omitempty"`
	Grade     string                `json:"grade,omitempty"`
}

func newTripResponse(s *storage.Session) tripResponse {
	r := tripResponse{
		ID:        s.ID,
		Trip:      s.Trip,
		Research:  s.Research,
		Itinerary: s.Itinerary,
		Review:    s.Review,
		Metrics:   s.Metrics,
		Metadata:  s.Metadata,
	}
	if s.Evaluation != nil {
		r.Overall = s.Evaluation.Overall
		r.Grade = s.Evaluation.Grade
	}
	return r
}

type runResponse struct {
	ID          string  `json:"id"`
	Destination string  `json:"destination"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	Tier        string  `json:"tier"`
	Iterations  int     `json:"iterations"`
	Approved    bool    `json:"approved"`
	Score       float64 `json:"quality_score"`
	Overall     float64 `json:"overall_score"`
	Grade       string  `json:"grade"`
	CreatedAt   string  `json:"created_at"`
}

func newRunResponse(r history.Run) runResponse {
	return runResponse{
		ID:          r.ID,
		Destination: r.Destination,
		StartDate:   r.StartDate.Format(trip.DateLayout),
		EndDate:     r.EndDate.Format(trip.DateLayout),
		Tier:        r.Tier,
		Iterations:  r.Iterations,
		Approved:    r.Approved,
		Score:       r.Score,
		Overall:     r.Overall,
		Grade:       r.Grade,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// handleCreateTrip accepts the same document as a trip YAML file, in JSON
// or YAML. Only public http(s) URLs are accepted as references; the API
// never reads local files or internal hosts on behalf of a caller.
func (s *Server) handleCreateTrip(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize+1))
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	if len(body) > maxBodySize {
		s.fail(c, http.StatusRequestEntityTooLarge, errors.New("request body exceeds 64KB"))
		return
	}

	params, err := trip.Parse(body)
	if err != nil {
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	for _, ref := range params.ReferenceFiles {
		if err := reference.CheckPublicURL(ref); err != nil {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
	}

	out, err := s.service.PlanTrip(c.Request.Context(), params, app.PlanOptions{
		Tier:                 c.Query("tier"),
		PublicReferencesOnly: true,
	})
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    newTripResponse(out.Session),
	})
}

func (s *Server) handleListTrips(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		s.fail(c, http.StatusBadRequest, errors.New("limit must be between 1 and 100"))
		return
	}

	runs, err := s.service.History(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	data := make([]runResponse, 0, len(runs))
	for _, r := range runs {
		data = append(data, newRunResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"count":   len(data),
	})
}

func (s *Server) handleGetTrip(c *gin.Context) {
	session, err := s.service.Session(c.Param("id"))
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    newTripResponse(session),
	})
}

func (s *Server) handleGetMarkdown(c *gin.Context) {
	session, err := s.service.Session(c.Param("id"))
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(export.Markdown(session)))
}

func (s *Server) handleEvaluate(c *gin.Context) {
	report, err := s.service.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, statusFor(err), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "status", status, "error", err.Error())
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, trip.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, storage.ErrInvalidID), errors.Is(err, planner.ErrUnknownTier):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
