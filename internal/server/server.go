// Package server exposes the document pipeline over HTTP.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Lllllllleong/docpipeline/internal/models"
	"github.com/Lllllllleong/docpipeline/internal/services"
	"github.com/Lllllllleong/docpipeline/internal/tokenizer"
	"github.com/Lllllllleong/docpipeline/internal/validation"
	"github.com/gin-gonic/gin"
)

// Processor runs a batch of documents.
type Processor interface {
	ProcessBatch(ctx context.Context, inputs []models.DocumentInput, onProgress services.ProgressFunc) services.BatchResult
}

// TokenizerAdmin reads, updates and probes the tokenizer configuration.
type TokenizerAdmin interface {
	Config() tokenizer.Config
	UpdateConfig(u tokenizer.ConfigUpdate) tokenizer.Config
	TestConnection(ctx context.Context) bool
}

// Server holds the state for the REST API server.
type Server struct {
	processor Processor
	tokenizer TokenizerAdmin
	limits    validation.Limits
	logger    *slog.Logger
	router    *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(processor Processor, tok TokenizerAdmin, limits validation.Limits, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(logger))
	s := &Server{
		processor: processor,
		tokenizer: tok,
		limits:    limits,
		logger:    logger,
		router:    r,
	}
	s.setupRoutes()
	return s
}

// Handler returns the router for embedding in another server or a function.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ProcessHandler serves document processing on every path. Function hosts
// route a single URL to it.
func (s *Server) ProcessHandler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.logger))
	r.NoRoute(s.handleProcess)
	return r
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.POST("/v1/documents", s.handleProcess)
	s.router.GET("/v1/tokenizer/config", s.handleGetTokenizerConfig)
	s.router.PUT("/v1/tokenizer/config", s.handleUpdateTokenizerConfig)
	s.router.POST("/v1/tokenizer/test", s.handleTestTokenizer)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
