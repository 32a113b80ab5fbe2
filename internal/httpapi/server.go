// Package httpapi exposes the planner over a small JSON API.
package httpapi

import (
	"context"
	"net/http"

	"ai-trip-planner/internal/app"
	"ai-trip-planner/internal/evaluation"
	"ai-trip-planner/internal/history"
	"ai-trip-planner/internal/logging"
	"ai-trip-planner/internal/storage"
	"ai-trip-planner/internal/trip"

	"github.com/gin-gonic/gin"
)

// Service is the part of the application the API serves.
type Service interface {
	PlanTrip(ctx context.Context, params trip.Parameters, opts app.PlanOptions) (*app.Outcome, error)
	Session(id string) (*storage.Session, error)
	Evaluate(ctx context.Context, id string) (*evaluation.Report, error)
	History(ctx context.Context, limit int) ([]history.Run, error)
}

// Server is the trip planner API server.
type Server struct {
	service Service
	logger  *logging.Logger
	router  *gin.Engine
}

// NewServer creates the server and registers its routes.
func NewServer(service Service, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		service: service,
		logger:  logger,
		router:  router,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/trips", s.handleCreateTrip)
		api.GET("/trips", s.handleListTrips)
		api.GET("/trips/:id", s.handleGetTrip)
		api.GET("/trips/:id/markdown", s.handleGetMarkdown)
		api.POST("/trips/:id/evaluate", s.handleEvaluate)
	}

	return s
}

// Handler returns the HTTP handler, for use with an http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}
