package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ibsurgeon/fts-udr-go/internal/logging"
	"github.com/ibsurgeon/fts-udr-go/internal/ratelimit"
	"github.com/ibsurgeon/fts-udr-go/internal/routines"
	"github.com/ibsurgeon/fts-udr-go/pkg/config"
)

// Server is the REST bridge over the routine surface, reachable for
// operators and test harnesses that are not calling through the host
// database's external-routine ABI.
type Server struct {
	router     *gin.Engine
	service    *routines.Service
	config     *config.Config
	httpServer *http.Server
	log        *logging.Logger
}

// NewServer wires the routine service into a gin router.
func NewServer(service *routines.Service, cfg *config.Config) *Server {
	log := logging.GetLogger("api")
	log.Info("initializing REST bridge")

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	if cfg.RestAPI.CORS {
		log.Debug("enabling CORS")
		corsConfig := cors.Config{
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
			ExposeHeaders: []string{"Content-Length", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}
		if len(cfg.RestAPI.AllowOrigins) > 0 {
			corsConfig.AllowOrigins = cfg.RestAPI.AllowOrigins
		} else if cfg.RestAPI.APIKey != "" {
			corsConfig.AllowOrigins = []string{
				"http://localhost:*",
				"http://127.0.0.1:*",
				"https://localhost:*",
				"https://127.0.0.1:*",
			}
			corsConfig.AllowWildcard = true
		} else {
			corsConfig.AllowAllOrigins = true
		}
		router.Use(cors.New(corsConfig))
	}

	if cfg.RestAPI.APIKey != "" {
		log.Info("API key authentication enabled")
		router.Use(APIKeyAuthMiddleware(cfg.RestAPI.APIKey))
	}

	if cfg.RateLimit.Enabled {
		log.Info("rate limiting enabled")
		rlCfg := ratelimit.DefaultConfig()
		rlCfg.Enabled = cfg.RateLimit.Enabled
		if cfg.RateLimit.RequestsPerSecond > 0 {
			rlCfg.Global.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
			rlCfg.Global.BurstSize = cfg.RateLimit.BurstSize
		}
		router.Use(RateLimitMiddleware(ratelimit.NewLimiter(rlCfg)))
	}

	router.Use(MaxBodySizeMiddleware(DefaultBodyLimit))

	server := &Server{
		router:  router,
		service: service,
		config:  cfg,
		log:     log,
	}
	server.setupRoutes()
	return server
}

// setupRoutes binds the routine surface onto paths.
func (s *Server) setupRoutes() {
	api := s.router.Group("/api/v1")
	{
		api.GET("/health", s.healthHandler)

		// Index catalog and lifecycle
		api.POST("/indexes", s.createIndex)
		api.GET("/indexes", s.listIndexes)
		api.GET("/indexes/:name", s.getIndex)
		api.DELETE("/indexes/:name", s.dropIndex)
		api.POST("/indexes/:name/active", s.setIndexActive)
		api.POST("/indexes/:name/fields", s.addIndexField)
		api.DELETE("/indexes/:name/fields/:field", s.dropIndexField)
		api.PATCH("/indexes/:name/fields/:field", s.setIndexFieldBoost)
		api.POST("/indexes/:name/rebuild", s.rebuildIndex)
		api.POST("/indexes/:name/optimize", s.optimizeIndex)

		// Maintenance and search
		api.POST("/update-indexes", s.updateIndexes)
		api.GET("/indexes/:name/search", s.search)
		api.POST("/analyze", s.analyze)
		api.POST("/escape-query", s.escapeQuery)
		api.POST("/highlight/best-fragment", s.bestFragment)
		api.POST("/highlight/best-fragments", s.bestFragments)

		// Statistics
		api.GET("/indexes/:name/statistics", s.indexStatistics)
		api.GET("/indexes/:name/files", s.indexFiles)
		api.GET("/indexes/:name/segments", s.indexSegmentInfos)
		api.GET("/indexes/:name/fields", s.indexFields)
		api.GET("/indexes/:name/field-infos", s.indexFieldInfos)
		api.GET("/indexes/:name/terms", s.indexTerms)

		// Analyzer catalog
		api.GET("/analyzers/system", s.systemAnalyzers)
		api.GET("/analyzers/system/:name", s.getSystemAnalyzer)
		api.GET("/analyzers", s.listAnalyzers)
		api.POST("/analyzers", s.createAnalyzer)
		api.DELETE("/analyzers/:name", s.dropAnalyzer)
		api.GET("/analyzers/:name/stop-words", s.analyzerStopWords)
		api.POST("/analyzers/:name/stop-words", s.addStopWord)
		api.DELETE("/analyzers/:name/stop-words/:word", s.dropStopWord)

		// Triggers and environment
		api.POST("/relations/:relation/trigger", s.makeTrigger)
		api.GET("/directory", s.getDirectory)
		api.GET("/version", s.luceneVersion)
	}
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.RestAPI.Host, s.config.RestAPI.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	s.log.Info("starting REST bridge", "address", addr)
	return s.httpServer.ListenAndServe()
}

// StartWithContext starts the HTTP server with graceful shutdown support.
// It blocks until the context is cancelled or the server fails.
func (s *Server) StartWithContext(ctx context.Context, shutdownTimeout time.Duration) error {
	addr := fmt.Sprintf("%s:%d", s.config.RestAPI.Host, s.config.RestAPI.Port)
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("starting REST bridge", "address", addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("stopping REST bridge")
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.log.Error("server shutdown error", "error", err)
			return err
		}
	}
	return nil
}

// Router returns the underlying Gin router for testing.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// FindAvailablePort finds an open port at or above startPort.
func FindAvailablePort(startPort int) (int, error) {
	for port := startPort; port < startPort+100; port++ {
		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err == nil {
			ln.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found in range %d-%d", startPort, startPort+99)
}
