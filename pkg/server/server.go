// Package server exposes a Parser over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/japaniel/duckparse/pkg/duckparse"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// Server holds the state for the REST API server.
type Server struct {
	parser *duckparse.Parser
	logger *slog.Logger
	router *gin.Engine
}

// New creates a Server answering with p. A nil logger means slog.Default().
func New(p *duckparse.Parser, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		parser: p,
		logger: logger,
		router: gin.New(),
	}
	s.router.Use(gin.Recovery(), s.requestLogger)
	s.setupRoutes()
	return s
}

// Handler returns the router, for embedding in another server or a test.
func (s *Server) Handler() http.Handler { return s.router }

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/dimensions", s.handleDimensions)
	s.router.GET("/v1/languages", s.handleLanguages)
	s.router.POST("/v1/parse", s.handleParse)
	s.router.POST("/v1/parse/:dim", s.handleParse)
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	l := s.logger.With("request_id", id)
	c.Set(loggerKey, l)

	start := time.Now()
	c.Next()
	l.Info("Request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start),
	)
}

func logger(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}

// Health check. Reports 503 until the parser is loaded.
func (s *Server) healthCheck(c *gin.Context) {
	if !s.parser.Loaded() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "loading"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
