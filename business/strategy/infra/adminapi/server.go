// Package adminapi exposes the strategy orchestrator's run state,
// opportunity queues, and recent bundle/execution history over a gin
// HTTP API, the same router setup (gin.New plus Logger/Recovery
// middleware) DimaJoyti-go-coffee's service commands use for their own
// admin and health surfaces. Kept on its own port, separate from the
// teacher's stdlib internal/health mux which still serves
// /health,/ready,/live.
package adminapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	executionapp "github.com/fd1az/mev-searcher/business/execution/app"
	opportunityapp "github.com/fd1az/mev-searcher/business/opportunity/app"
	opportunitydomain "github.com/fd1az/mev-searcher/business/opportunity/domain"
	strategyapp "github.com/fd1az/mev-searcher/business/strategy/app"
	"github.com/fd1az/mev-searcher/internal/logger"
)

// Server serves the orchestrator's admin API on its own port.
type Server struct {
	strategies   *strategyapp.Manager
	opportunities *opportunityapp.Manager
	execution    *executionapp.Engine
	logger       logger.LoggerInterface
	port         int
	server       *http.Server
}

// NewServer builds an admin API Server. execution may be nil when no
// execution engine is configured; the /execution routes then report a
// 404 rather than panicking on a nil receiver.
func NewServer(strategies *strategyapp.Manager, opportunities *opportunityapp.Manager, execution *executionapp.Engine,
	port int, log logger.LoggerInterface) *Server {
	return &Server{strategies: strategies, opportunities: opportunities, execution: execution, port: port, logger: log}
}

// Start builds the router and begins serving in the background.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s.registerRoutes(router)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error(context.Background(), "strategy admin API stopped unexpectedly", "error", err.Error())
		}
	}()
	return nil
}

// Stop gracefully shuts down the admin API server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/strategies", s.handleListStrategies)
	router.POST("/strategies/:name/start", s.handleSetStrategy(true))
	router.POST("/strategies/:name/stop", s.handleSetStrategy(false))
	router.GET("/opportunities", s.handleOpportunities)
	router.GET("/bundles", s.handleBundles)
	router.GET("/execution", s.handleExecutionStats)
	router.POST("/execution/resume", s.handleExecutionResume)
	router.POST("/execution/blacklist/:symbol/clear", s.handleExecutionClearBlacklist)
}

func (s *Server) handleListStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"strategies": s.strategies.Statuses()})
}

func (s *Server) handleSetStrategy(value bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		strategy := opportunitydomain.StrategyTag(c.Param("name"))
		if !s.strategies.SetEnabled(strategy, value) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown strategy: " + string(strategy)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"strategy": strategy, "enabled": value})
	}
}

func (s *Server) handleOpportunities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"queue_sizes": s.opportunities.QueueSizes(),
		"queue_stats": s.opportunities.QueueStats(),
		"stats":       s.opportunities.Stats(),
	})
}

func (s *Server) handleBundles(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	c.JSON(http.StatusOK, gin.H{"bundles": s.strategies.Bundles(limit)})
}

func (s *Server) handleExecutionStats(c *gin.Context) {
	if s.execution == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution engine not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": s.execution.Stats(), "stopped": s.execution.IsStopped()})
}

func (s *Server) handleExecutionResume(c *gin.Context) {
	if s.execution == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution engine not configured"})
		return
	}
	s.execution.Resume()
	c.JSON(http.StatusOK, gin.H{"stopped": false})
}

func (s *Server) handleExecutionClearBlacklist(c *gin.Context) {
	if s.execution == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "execution engine not configured"})
		return
	}
	s.execution.ClearBlacklist(c.Param("symbol"))
	c.JSON(http.StatusOK, gin.H{"symbol": c.Param("symbol"), "blacklisted": false})
}
