package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voterpulse/sentinel/internal/logger"
)

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Server wraps the HTTP server with lifecycle management.
type Server struct {
	server *http.Server
	logger logger.Logger
}

// NewServer builds the router and HTTP server. registry may be nil to
// skip the metrics endpoint.
func NewServer(port int, debug bool, handlers *Handlers, registry *prometheus.Registry, log logger.Logger) *Server {
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(recovery(log))
	router.Use(requestLogger(log))

	router.GET("/health", handlers.Health)
	if registry != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/constituencies", handlers.ListConstituencies)
		v1.GET("/constituencies/:id", handlers.GetConstituency)
		v1.GET("/constituencies/:id/issues", handlers.ListIssues)
		v1.GET("/constituencies/:id/attack-points", handlers.ListAttackPoints)
		v1.GET("/constituencies/:id/scores", handlers.ScoreHistory)
		v1.POST("/issues/:id/close", handlers.CloseIssue)
		v1.POST("/attack-points/:id/deactivate", handlers.DeactivateAttackPoint)
		v1.POST("/classify", handlers.Classify)
		v1.POST("/pipeline/run", handlers.RunPipeline)
		v1.GET("/sources/quotas", handlers.SourceQuotas)
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      router,
			ReadTimeout:  defaultReadTimeout,
			WriteTimeout: defaultWriteTimeout,
			IdleTimeout:  defaultIdleTimeout,
		},
		logger: log,
	}
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("starting http server", logger.String("address", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, defaultShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
