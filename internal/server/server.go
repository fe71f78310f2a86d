package server

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"snapsync/internal/config"
	"snapsync/internal/jobs"
	"snapsync/internal/snap"
	"snapsync/internal/volumes"
)

// ServiceFactory builds a pipeline Service for the given config. The config
// file can change between requests (POST /config), so each invocation gets
// a Service wired from the config as it is at that moment.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (*snap.Service, error)

// IdentityFactory builds the AWS identity checker for the given config.
type IdentityFactory func(ctx context.Context, cfg *config.Config) (snap.IdentityChecker, error)

// Server is the HTTP control surface over the import/upload pipeline.
type Server struct {
	logger     snap.Logger
	cfgManager *config.Manager
	tracker    *jobs.Tracker
	services   ServiceFactory
	identity   IdentityFactory
	listVols   func(importBase string) []volumes.Volume
}

// New creates a Server. Reconcile must be called before Run so interrupted
// jobs are reclassified before any new job can be started.
func New(logger snap.Logger, cfgManager *config.Manager, tracker *jobs.Tracker,
	services ServiceFactory, identity IdentityFactory) *Server {
	return &Server{
		logger:     logger,
		cfgManager: cfgManager,
		tracker:    tracker,
		services:   services,
		identity:   identity,
		listVols:   volumes.List,
	}
}

// Reconcile runs the tracker's startup reconciliation pass.
func (s *Server) Reconcile() error {
	return s.tracker.Reconcile()
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.requestLog())

	router.GET("/config", s.getConfig)
	router.POST("/config", s.postConfig)
	router.GET("/volumes", s.getVolumes)
	router.POST("/import", s.postImport)
	router.POST("/upload", s.postUpload)
	router.GET("/uploads", s.listUploads)
	router.GET("/uploads/:id", s.getUpload)
	router.POST("/uploads/:id/stop", s.stopUpload)
	router.GET("/check-aws", s.checkAWS)

	return router
}

// Run reconciles persisted jobs and serves until the listener fails.
func (s *Server) Run(addr string) error {
	if err := s.Reconcile(); err != nil {
		return fmt.Errorf("reconciling persisted jobs: %w", err)
	}
	s.logger.Info("control api listening", "addr", addr)
	return s.Router().Run(addr)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}

func (s *Server) fail(c *gin.Context, status int, err error) {
	s.logger.Warn("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(status, gin.H{"success": false, "error": err.Error()})
}
