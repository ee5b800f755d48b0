package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"regexp"
	"runtime/debug"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/agentboard/dashboard-service/internal/logging"
	"github.com/agentboard/dashboard-service/internal/metrics"
	"github.com/agentboard/dashboard-service/pkg/models"
)

// DefaultServiceName is reported by /health and used as the tracing service name
const DefaultServiceName = "dashboard-service"

// DashboardService is what the HTTP layer needs from the dashboard service
type DashboardService interface {
	BuildDashboard(ctx context.Context) models.DashboardPayload
	Sessions(ctx context.Context) (models.SessionList, error)
	Session(ctx context.Context, id string) (any, error)
	Teams(ctx context.Context) (any, error)
	TokenUsage(ctx context.Context) (models.TokenUsage, error)
	CostByTeam(ctx context.Context) (any, error)
	Invoices(ctx context.Context) (any, error)
	BillingSummary(ctx context.Context) (any, error)
	TopRoutes(ctx context.Context, sinceDays int) (any, error)
	TopCallers(ctx context.Context, route string, sinceDays int) (any, error)
	CurrentContracts(ctx context.Context) (any, error)
	ContractChanges(ctx context.Context, limit int) (any, error)
	ContractChange(ctx context.Context, id int64) (any, error)
}

// Server is the HTTP API server
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger

	dashboard DashboardService

	// Configuration
	host        string
	port        int
	serviceName string
	staticDir   string
	corsOrigins []string
	debug       bool

	// Readiness state (atomic for thread-safe access)
	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHost sets the server host
func WithHost(host string) Option {
	return func(s *Server) {
		s.host = host
	}
}

// WithPort sets the server port
func WithPort(port int) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithServiceName sets the name reported by /health
func WithServiceName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// WithStaticDir serves the built frontend from dir when it exists
func WithStaticDir(dir string) Option {
	return func(s *Server) {
		s.staticDir = dir
	}
}

// WithCORSOrigins sets the allowed CORS origins; "*" allows any origin
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithDebug switches gin to debug mode
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.debug = debug
	}
}

// New creates a new API server
func New(dashboard DashboardService, opts ...Option) *Server {
	s := &Server{
		logger:      slog.Default(),
		dashboard:   dashboard,
		host:        "0.0.0.0",
		port:        8003,
		serviceName: DefaultServiceName,
		corsOrigins: []string{"*"},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.setupRouter()
	return s
}

// SetReady sets the server readiness state
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
	s.logger.Info("server readiness changed", slog.Bool("ready", ready))
}

// IsReady returns whether the server is ready to accept traffic
func (s *Server) IsReady() bool {
	return s.ready.Load()
}

// setupRouter configures the Gin router
func (s *Server) setupRouter() {
	if s.debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(s.requestIDMiddleware())
	router.Use(otelgin.Middleware(s.serviceName))
	router.Use(s.metricsMiddleware())
	router.Use(s.bodySizeLimitMiddleware(1 << 20)) // 1MB limit
	router.Use(s.loggingMiddleware())
	router.Use(s.recoveryMiddleware())
	router.Use(s.corsMiddleware())

	// Health and readiness endpoints
	router.GET("/health", s.handleHealth)
	router.GET("/ready", s.handleReady)

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		// Aggregate
		api.GET("/dashboard", s.handleDashboard)

		// Sessions
		api.GET("/sessions", s.handleListSessions)
		api.GET("/sessions/:id", s.handleGetSession)

		// Gateway passthrough
		api.GET("/teams", s.handleListTeams)
		api.GET("/analytics/token-usage", s.handleTokenUsage)
		api.GET("/analytics/cost-by-team", s.handleCostByTeam)

		// Billing passthrough
		api.GET("/billing/invoices", s.handleInvoices)
		api.GET("/billing/summary", s.handleBillingSummary)

		// Usage
		api.GET("/usage/top-routes", s.handleTopRoutes)
		api.GET("/usage/top-callers", s.handleTopCallers)

		// Contracts
		api.GET("/contracts/current", s.handleCurrentContracts)
		api.GET("/contracts/changes", s.handleContractChanges)
		api.GET("/contracts/changes/:id", s.handleContractChange)
	}

	router.NoRoute(s.handleNoRoute)

	s.router = router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	// The write timeout covers the slowest aggregate: upstream calls time out at 30s
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("starting API server", slog.String("addr", addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Router returns the Gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Middleware

// validRequestIDRegex allows alphanumeric, dots, underscores, and hyphens up to 128 chars.
var validRequestIDRegex = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,128}$`)

func isValidRequestID(id string) bool {
	return id != "" && validRequestIDRegex.MatchString(id)
}

// requestIDMiddleware also stores the ID in the request context, where the
// upstream client picks it up and forwards it
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if !isValidRequestID(requestID) {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// Use the matched route pattern for consistent path labels
		// This prevents high cardinality from path parameters like /sessions/:id
		path := c.FullPath()
		if path == "" {
			// Fallback for unmatched routes (static files, 404s)
			path = "unmatched"
		}

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		metrics.RecordHTTPRequest(method, path, status, duration)
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.String("request_id", c.GetString("request_id")),
			slog.String("client_ip", c.ClientIP()))
	}
}

func (s *Server) recoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := string(debug.Stack())
				s.logger.Error("panic recovered",
					slog.Any("error", err),
					slog.String("stack", stack),
					slog.String("request_id", c.GetString("request_id")))

				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:     "internal server error",
					RequestID: c.GetString("request_id"),
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

func (s *Server) bodySizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range s.corsOrigins {
		if origin == "*" {
			// Browsers reject a literal "*" on credentialed requests, so echo the origin
			cfg.AllowOriginFunc = func(string) bool { return true }
			return cors.New(cfg)
		}
	}

	if len(s.corsOrigins) == 0 {
		// cors.New rejects a config that allows nothing
		return func(c *gin.Context) { c.Next() }
	}
	cfg.AllowOrigins = s.corsOrigins

	return cors.New(cfg)
}

// staticRoot returns the static directory when it exists on disk
func (s *Server) staticRoot() (string, bool) {
	if s.staticDir == "" {
		return "", false
	}
	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return s.staticDir, true
}
