package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/agentboard/dashboard-service/internal/service/dashboard"
	"github.com/agentboard/dashboard-service/internal/upstream"
	"github.com/agentboard/dashboard-service/pkg/models"
)

// Request/Response types

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ReadyResponse is the readiness check response
type ReadyResponse struct {
	Ready     bool      `json:"ready"`
	Timestamp time.Time `json:"timestamp"`
}

// UsageQuery defines query parameters for the usage endpoints
type UsageQuery struct {
	SinceDays int    `form:"since_days,default=7" binding:"min=1,max=365"`
	Route     string `form:"route"`
}

// ContractChangesQuery defines query parameters for listing contract changes
type ContractChangesQuery struct {
	Limit int `form:"limit,default=20" binding:"min=1,max=500"`
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: s.serviceName,
	})
}

func (s *Server) handleReady(c *gin.Context) {
	response := ReadyResponse{
		Ready:     s.ready.Load(),
		Timestamp: time.Now(),
	}

	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// handleDashboard always answers 200; unavailable sources are defaulted by the service
func (s *Server) handleDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, s.dashboard.BuildDashboard(c.Request.Context()))
}

func (s *Server) handleListSessions(c *gin.Context) {
	list, err := s.dashboard.Sessions(c.Request.Context())
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleGetSession(c *gin.Context) {
	s.passthrough(c)(s.dashboard.Session(c.Request.Context(), c.Param("id")))
}

func (s *Server) handleListTeams(c *gin.Context) {
	s.passthrough(c)(s.dashboard.Teams(c.Request.Context()))
}

func (s *Server) handleTokenUsage(c *gin.Context) {
	usage, err := s.dashboard.TokenUsage(c.Request.Context())
	if err != nil {
		s.writeUpstreamError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (s *Server) handleCostByTeam(c *gin.Context) {
	s.passthrough(c)(s.dashboard.CostByTeam(c.Request.Context()))
}

func (s *Server) handleInvoices(c *gin.Context) {
	s.passthrough(c)(s.dashboard.Invoices(c.Request.Context()))
}

func (s *Server) handleBillingSummary(c *gin.Context) {
	s.passthrough(c)(s.dashboard.BillingSummary(c.Request.Context()))
}

func (s *Server) handleTopRoutes(c *gin.Context) {
	var query UsageQuery
	if !s.bindQuery(c, &query) {
		return
	}
	s.passthrough(c)(s.dashboard.TopRoutes(c.Request.Context(), query.SinceDays))
}

func (s *Server) handleTopCallers(c *gin.Context) {
	var query UsageQuery
	if !s.bindQuery(c, &query) {
		return
	}
	s.passthrough(c)(s.dashboard.TopCallers(c.Request.Context(), query.Route, query.SinceDays))
}

func (s *Server) handleCurrentContracts(c *gin.Context) {
	s.passthrough(c)(s.dashboard.CurrentContracts(c.Request.Context()))
}

func (s *Server) handleContractChanges(c *gin.Context) {
	var query ContractChangesQuery
	if !s.bindQuery(c, &query) {
		return
	}
	s.passthrough(c)(s.dashboard.ContractChanges(c.Request.Context(), query.Limit))
}

func (s *Server) handleContractChange(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "change id must be an integer",
			RequestID: c.GetString("request_id"),
		})
		return
	}
	s.passthrough(c)(s.dashboard.ContractChange(c.Request.Context(), id))
}

// handleNoRoute serves the built frontend. Unknown API paths get a JSON 404;
// any other unknown path falls back to index.html for client-side routing.
func (s *Server) handleNoRoute(c *gin.Context) {
	reqPath := c.Request.URL.Path
	root, ok := s.staticRoot()
	if !ok || strings.HasPrefix(reqPath, "/api/") || reqPath == "/api" ||
		(c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:     "not found",
			RequestID: c.GetString("request_id"),
		})
		return
	}

	// path.Clean on a rooted path drops any ".." segments
	file := filepath.Join(root, filepath.FromSlash(path.Clean("/"+reqPath)))
	if isFile(file) {
		c.File(file)
		return
	}

	index := filepath.Join(root, "index.html")
	if isFile(index) {
		c.File(index)
		return
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:     "not found",
		RequestID: c.GetString("request_id"),
	})
}

// Helper functions

// passthrough writes an upstream JSON value, or the mapped upstream error
func (s *Server) passthrough(c *gin.Context) func(value any, err error) {
	return func(value any, err error) {
		if err != nil {
			s.writeUpstreamError(c, err)
			return
		}
		c.JSON(http.StatusOK, value)
	}
}

// writeUpstreamError maps upstream failures to responses: unreachable upstreams
// become 502, upstream error statuses are passed through with the upstream body,
// and anything else is a 500.
func (s *Server) writeUpstreamError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var unreachable *upstream.UnreachableError
	var httpErr *upstream.HTTPError
	switch {
	case errors.As(err, &unreachable):
		status = http.StatusBadGateway
		message = fmt.Sprintf("Upstream unreachable: %s", unreachable.URL)
	case errors.As(err, &httpErr):
		status = httpErr.StatusCode
		message = fmt.Sprintf("Upstream error: %s", httpErr.Body)
	}

	c.JSON(status, ErrorResponse{
		Error:     message,
		RequestID: c.GetString("request_id"),
	})
}

func (s *Server) bindQuery(c *gin.Context, query any) bool {
	if err := c.ShouldBindQuery(query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     sanitizeValidationError(err),
			RequestID: c.GetString("request_id"),
		})
		return false
	}
	return true
}

// sanitizeValidationError converts validator errors to user-friendly messages
func sanitizeValidationError(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err.Error()
	}

	var messages []string
	for _, fe := range validationErrs {
		name := queryFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", name))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", name, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", name, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation (%s)", name, fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}

// queryFieldName maps struct fields back to their query parameter names
func queryFieldName(field string) string {
	switch field {
	case "SinceDays":
		return "since_days"
	case "Limit":
		return "limit"
	case "Route":
		return "route"
	default:
		return strings.ToLower(field)
	}
}

func isFile(name string) bool {
	info, err := os.Stat(name)
	return err == nil && !info.IsDir()
}

var _ DashboardService = (*dashboard.Service)(nil)
