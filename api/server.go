// Package api serves filter results over HTTP for a browser front end.
package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"hdb-resale/models"
	"hdb-resale/services"
	"hdb-resale/utils"
)

// DatasetSource is satisfied by *loader.Cached.
type DatasetSource interface {
	Load(ctx context.Context) (*models.Dataset, error)
	Reload(ctx context.Context) (*models.Dataset, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	source   DatasetSource
	pipeline *services.Pipeline
	logger   *utils.Logger
}

// NewServer creates a Server.
func NewServer(source DatasetSource, pipeline *services.Pipeline, logger *utils.Logger) *Server {
	return &Server{source: source, pipeline: pipeline, logger: logger}
}

// Routes returns the router wrapped in request logging and compression.
func (s *Server) Routes() http.Handler {
	router := httprouter.New()

	router.GET("/api/health", s.healthHandler)
	router.GET("/api/dataset", s.datasetHandler)
	router.GET("/api/options", s.optionsHandler)
	router.GET("/api/results", s.resultsHandler)
	router.POST("/api/results", s.resultsHandler)
	router.GET("/api/results.csv", s.resultsCSVHandler)
	router.POST("/api/reload", s.reloadHandler)

	return requestLogging(s.logger, compression(router))
}
