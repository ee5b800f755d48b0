package dashboard

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/agentboard/dashboard-service/internal/metrics"
)

const (
	// DefaultRecentSessions is how many sessions the dashboard shows
	DefaultRecentSessions = 20

	pathSessions       = "/api/v1/sessions"
	pathTeams          = "/api/v1/teams"
	pathCostByTeam     = "/api/v1/analytics/cost-by-team"
	pathTokenUsage     = "/api/v1/analytics/token-usage/daily"
	pathInvoices       = "/api/v1/invoices"
	pathBillingSummary = "/api/v1/billing/summary"
	pathTopRoutes      = "/api/v1/usage/top-routes"
	pathTopCallers     = "/api/v1/usage/top-callers"
	pathContracts      = "/api/v1/contracts/current"
	pathContractChange = "/api/v1/contracts/changes"

	sourceSessions       = "sessions"
	sourceCostByTeam     = "cost_by_team"
	sourceBillingSummary = "billing_summary"
	sourceTeams          = "teams"
)

// Fetcher issues one GET against an upstream and returns the decoded JSON body.
// *upstream.Client implements it; tests substitute a fake.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (any, error)
}

// Service shapes gateway and billing responses for the dashboard frontend
type Service struct {
	fetcher        Fetcher
	gatewayURL     string
	billingURL     string
	recentSessions int
	logger         *slog.Logger
}

// Option configures the dashboard service
type Option func(*Service)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRecentSessions sets how many sessions the aggregate includes
func WithRecentSessions(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.recentSessions = n
		}
	}
}

// New creates a new dashboard service
func New(fetcher Fetcher, gatewayURL, billingURL string, opts ...Option) *Service {
	s := &Service{
		fetcher:        fetcher,
		gatewayURL:     strings.TrimRight(gatewayURL, "/"),
		billingURL:     strings.TrimRight(billingURL, "/"),
		recentSessions: DefaultRecentSessions,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *Service) gateway(path string) string {
	return s.gatewayURL + path
}

func (s *Service) billing(path string) string {
	return s.billingURL + path
}

func withQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

// degraded records that an aggregate source fell back to its default
func (s *Service) degraded(ctx context.Context, source string, err error) {
	metrics.RecordDegraded(source)
	s.logger.WarnContext(ctx, "dashboard source unavailable, using default",
		slog.String("source", source),
		slog.String("error", err.Error()))
}
