// Package api exposes the backend over HTTP: JSON endpoints for agents,
// meetings, and call tokens, plus health and metrics. All business endpoints
// require a session token; handlers translate between HTTP and the services
// and hold no logic of their own.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/parleyhq/parley/config"
	"github.com/parleyhq/parley/pkg/agents"
	"github.com/parleyhq/parley/pkg/buildinfo"
	"github.com/parleyhq/parley/pkg/logging"
	"github.com/parleyhq/parley/pkg/meetings"
)

// HealthFunc reports backend dependency health. A nil error means healthy.
type HealthFunc func(ctx context.Context) error

// Server is the HTTP front end.
type Server struct {
	cfg      *config.Config
	engine   *gin.Engine
	agents   *agents.Service
	meetings *meetings.Service
	health   HealthFunc
	logger   logging.Logger
}

// NewServer builds the engine and routes.
func NewServer(cfg *config.Config, agentSvc *agents.Service, meetingSvc *meetings.Service, health HealthFunc, logger logging.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		agents:   agentSvc,
		meetings: meetingSvc,
		health:   health,
		logger:   logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/version", gin.WrapF(buildinfo.Handler()))

	authed := engine.Group("/api")
	authed.Use(requireAuth(cfg.Server.SessionSecret))
	{
		authed.POST("/agents", s.createAgent)
		authed.GET("/agents", s.listAgents)
		authed.GET("/agents/:id", s.getAgent)
		authed.PUT("/agents/:id", s.updateAgent)

		authed.POST("/meetings", s.createMeeting)
		authed.GET("/meetings", s.listMeetings)
		authed.GET("/meetings/:id", s.getMeeting)
		authed.PUT("/meetings/:id", s.updateMeeting)
		authed.DELETE("/meetings/:id", s.deleteMeeting)
		authed.POST("/meetings/token", s.generateToken)
	}

	s.engine = engine
	return s
}

// Handler returns the underlying HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully
// within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Server.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logging.F("addr", s.cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}

func (s *Server) handleHealthz(c *gin.Context) {
	if err := s.health(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
