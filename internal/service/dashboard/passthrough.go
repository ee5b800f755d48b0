package dashboard

import (
	"context"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/agentboard/dashboard-service/pkg/models"
)

const (
	// DefaultSinceDays is the usage window when the caller gives none
	DefaultSinceDays = 7

	// DefaultChangesLimit is the contract change page size when the caller gives none
	DefaultChangesLimit = 20
)

// Sessions returns every gateway session in dashboard shape. Unlike the
// aggregate, a sessions failure is returned to the caller.
func (s *Service) Sessions(ctx context.Context) (models.SessionList, error) {
	var (
		records   []any
		directory models.TeamDirectory
	)

	var g errgroup.Group
	g.Go(func() error {
		raw, err := s.fetcher.Fetch(ctx, s.gateway(pathSessions))
		if err != nil {
			return err
		}
		records = NormalizeList(raw, "sessions")
		return nil
	})
	g.Go(func() error {
		directory = s.ResolveTeams(ctx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.SessionList{}, err
	}

	sessions := TransformSessions(records, directory)
	return models.SessionList{Sessions: sessions, Total: len(sessions)}, nil
}

// Session returns one gateway session as-is
func (s *Service) Session(ctx context.Context, id string) (any, error) {
	return s.fetcher.Fetch(ctx, s.gateway(pathSessions+"/"+url.PathEscape(id)))
}

// Teams returns the gateway team list as-is
func (s *Service) Teams(ctx context.Context) (any, error) {
	return s.fetcher.Fetch(ctx, s.gateway(pathTeams))
}

// TokenUsage returns the daily token usage series
func (s *Service) TokenUsage(ctx context.Context) (models.TokenUsage, error) {
	raw, err := s.fetcher.Fetch(ctx, s.gateway(pathTokenUsage))
	if err != nil {
		return models.TokenUsage{}, err
	}
	return models.TokenUsage{Usage: NormalizeList(raw, "usage")}, nil
}

// CostByTeam returns the gateway cost-by-team analytics as-is
func (s *Service) CostByTeam(ctx context.Context) (any, error) {
	return s.fetcher.Fetch(ctx, s.gateway(pathCostByTeam))
}

// Invoices returns the billing invoices as-is
func (s *Service) Invoices(ctx context.Context) (any, error) {
	return s.fetcher.Fetch(ctx, s.billing(pathInvoices))
}

// BillingSummary returns the billing summary as-is
func (s *Service) BillingSummary(ctx context.Context) (any, error) {
	return s.fetcher.Fetch(ctx, s.billing(pathBillingSummary))
}

// TopRoutes returns the most called gateway routes over the last sinceDays days
func (s *Service) TopRoutes(ctx context.Context, sinceDays int) (any, error) {
	params := url.Values{}
	params.Set("since_days", strconv.Itoa(sinceDays))
	return s.fetcher.Fetch(ctx, withQuery(s.gateway(pathTopRoutes), params))
}

// TopCallers returns the heaviest callers, optionally restricted to one route
func (s *Service) TopCallers(ctx context.Context, route string, sinceDays int) (any, error) {
	params := url.Values{}
	params.Set("since_days", strconv.Itoa(sinceDays))
	if route != "" {
		params.Set("route", route)
	}
	return s.fetcher.Fetch(ctx, withQuery(s.gateway(pathTopCallers), params))
}

// CurrentContracts returns the current API contract snapshot
func (s *Service) CurrentContracts(ctx context.Context) (any, error) {
	return s.fetcher.Fetch(ctx, s.gateway(pathContracts))
}

// ContractChanges returns the most recent contract changes
func (s *Service) ContractChanges(ctx context.Context, limit int) (any, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	return s.fetcher.Fetch(ctx, withQuery(s.gateway(pathContractChange), params))
}

// ContractChange returns one contract change with its blast radius
func (s *Service) ContractChange(ctx context.Context, id int64) (any, error) {
	return s.fetcher.Fetch(ctx, s.gateway(pathContractChange+"/"+strconv.FormatInt(id, 10)))
}
