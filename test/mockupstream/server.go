package mockupstream

import (
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Server is a fake of the gateway and billing APIs. One instance serves both,
// so the dashboard can point its gateway and billing URLs at the same address.
type Server struct {
	state  *State
	router *gin.Engine
	logger *slog.Logger
}

// NewServer creates a new mock upstream server
func NewServer(state *State) *Server {
	if state == nil {
		state = NewState()
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		state:  state,
		router: router,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}

	s.setupRoutes()
	return s
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

// State returns the underlying state for test manipulation
func (s *Server) State() *State {
	return s.state
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	v1.Use(s.recordMiddleware(), s.faultMiddleware())
	{
		// Gateway
		v1.GET("/sessions", s.handleListSessions)
		v1.GET("/sessions/:id", s.handleGetSession)
		v1.GET("/teams", s.handleListTeams)
		v1.GET("/analytics/cost-by-team", s.handleCostByTeam)
		v1.GET("/analytics/token-usage/daily", s.handleTokenUsage)
		v1.GET("/usage/top-routes", s.handleTopRoutes)
		v1.GET("/usage/top-callers", s.handleTopCallers)
		v1.GET("/contracts/current", s.handleCurrentContracts)
		v1.GET("/contracts/changes", s.handleContractChanges)
		v1.GET("/contracts/changes/:id", s.handleContractChange)

		// Billing
		v1.GET("/billing/summary", s.handleBillingSummary)
		v1.GET("/invoices", s.handleInvoices)
	}

	// Test control endpoints
	s.router.POST("/_test/reset", s.handleTestReset)
	s.router.POST("/_test/fail", s.handleTestFail)
	s.router.POST("/_test/config", s.handleTestConfig)
	s.router.GET("/_test/calls", s.handleTestCalls)
}

func (s *Server) recordMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.state.RecordCall(Call{
			Path:          c.Request.URL.Path,
			Query:         c.Request.URL.RawQuery,
			CallerService: c.GetHeader("X-Caller-Service"),
			RequestID:     c.GetHeader("X-Request-ID"),
			TraceParent:   c.GetHeader("traceparent"),
		})
		c.Next()
	}
}

func (s *Server) faultMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if d := s.state.Delay(); d > 0 {
			select {
			case <-time.After(d):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}

		fault, ok := s.state.FaultFor(c.Request.URL.Path)
		if !ok {
			c.Next()
			return
		}

		if fault.Drop {
			if conn, _, err := c.Writer.Hijack(); err == nil {
				_ = conn.Close()
				c.Abort()
				return
			}
		}

		s.logger.Debug("injecting fault", "path", c.Request.URL.Path, "status", fault.Status)
		c.Data(fault.Status, "text/plain; charset=utf-8", []byte(fault.Body))
		c.Abort()
	}
}

// list answers with the wrapper object, or with the bare array when configured
func (s *Server) list(c *gin.Context, field string, items []map[string]any, extra gin.H) {
	if s.state.BareLists() {
		c.JSON(http.StatusOK, items)
		return
	}
	body := gin.H{field: items}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"type":   "mock-upstream",
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions := s.state.Sessions()
	s.list(c, "sessions", sessions, gin.H{"total": len(sessions)})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.state.Session(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *Server) handleListTeams(c *gin.Context) {
	s.list(c, "teams", s.state.Teams(), nil)
}

func (s *Server) handleCostByTeam(c *gin.Context) {
	s.list(c, "teams", s.state.CostByTeam(), nil)
}

func (s *Server) handleTokenUsage(c *gin.Context) {
	s.list(c, "usage", s.state.TokenUsage(), nil)
}

func (s *Server) handleInvoices(c *gin.Context) {
	s.list(c, "invoices", s.state.Invoices(), nil)
}

func (s *Server) handleBillingSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.BillingSummary())
}

func sinceDays(c *gin.Context) (int, bool) {
	days, err := strconv.Atoi(c.DefaultQuery("since_days", "7"))
	if err != nil || days < 1 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "since_days must be a positive integer"})
		return 0, false
	}
	return days, true
}

func (s *Server) handleTopRoutes(c *gin.Context) {
	if _, ok := sinceDays(c); !ok {
		return
	}
	c.JSON(http.StatusOK, s.state.TopRoutes())
}

func (s *Server) handleTopCallers(c *gin.Context) {
	if _, ok := sinceDays(c); !ok {
		return
	}
	c.JSON(http.StatusOK, s.state.TopCallers(c.Query("route")))
}

func (s *Server) handleCurrentContracts(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Contracts())
}

func (s *Server) handleContractChanges(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "limit must be an integer"})
		return
	}
	c.JSON(http.StatusOK, s.state.ContractChanges(limit))
}

func (s *Server) handleContractChange(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "change id must be an integer"})
		return
	}
	detail, ok := s.state.ContractChange(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Contract change not found"})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Test control handlers

func (s *Server) handleTestReset(c *gin.Context) {
	s.state.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// TestFailRequest installs or clears a fault on one upstream path
type TestFailRequest struct {
	Path   string `json:"path" binding:"required"`
	Status int    `json:"status"`
	Body   string `json:"body"`
	Drop   bool   `json:"drop"`
}

func (s *Server) handleTestFail(c *gin.Context) {
	var req TestFailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.state.SetFault(req.Path, Fault{Status: req.Status, Body: req.Body, Drop: req.Drop})
	c.JSON(http.StatusOK, gin.H{"status": "configured"})
}

// TestConfig is the configuration for test behavior
type TestConfig struct {
	BareLists bool `json:"bare_lists"`
	DelayMs   int  `json:"delay_ms"`
}

func (s *Server) handleTestConfig(c *gin.Context) {
	var config TestConfig
	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.state.SetBareLists(config.BareLists)
	s.state.SetDelay(time.Duration(config.DelayMs) * time.Millisecond)

	c.JSON(http.StatusOK, gin.H{"status": "configured"})
}

func (s *Server) handleTestCalls(c *gin.Context) {
	c.JSON(http.StatusOK, s.state.Calls())
}

// Run starts the server on the specified address
func (s *Server) Run(addr string) error {
	s.logger.Info("starting mock upstream server", "addr", addr)
	return s.router.Run(addr)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
