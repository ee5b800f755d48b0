package dashboard

import (
	"context"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/agentboard/dashboard-service/pkg/models"
)

// BuildDashboard fetches sessions, cost-by-team, the billing summary and the team
// directory concurrently and assembles the dashboard payload. Each source fails
// independently and is replaced by its default, so this never returns an error.
func (s *Service) BuildDashboard(ctx context.Context) models.DashboardPayload {
	var (
		sessions  []any
		teamCosts []any
		billing   map[string]any
		directory models.TeamDirectory
	)

	// Every task swallows its own error; the group is only a join point.
	var g errgroup.Group

	g.Go(func() error {
		raw, err := s.fetcher.Fetch(ctx, s.gateway(pathSessions))
		if err != nil {
			s.degraded(ctx, sourceSessions, err)
			sessions = []any{}
			return nil
		}
		sessions = NormalizeList(raw, "sessions")
		return nil
	})

	g.Go(func() error {
		raw, err := s.fetcher.Fetch(ctx, s.gateway(pathCostByTeam))
		if err != nil {
			s.degraded(ctx, sourceCostByTeam, err)
			teamCosts = []any{}
			return nil
		}
		teamCosts = NormalizeList(raw, "teams")
		return nil
	})

	g.Go(func() error {
		raw, err := s.fetcher.Fetch(ctx, s.billing(pathBillingSummary))
		if err != nil {
			s.degraded(ctx, sourceBillingSummary, err)
			return nil
		}
		billing, _ = raw.(map[string]any)
		return nil
	})

	g.Go(func() error {
		directory = s.ResolveTeams(ctx)
		return nil
	})

	_ = g.Wait()

	stats := ComputeStats(sessions)
	stats.TotalCost = roundTo(TotalCost(billing, teamCosts), 4)

	recent := sessions
	if len(recent) > s.recentSessions {
		recent = recent[:s.recentSessions]
	}

	return models.DashboardPayload{
		Stats:          stats,
		CostByTeam:     EnrichTeamCosts(teamCosts, directory),
		RecentSessions: TransformSessions(recent, directory),
	}
}

// ComputeStats counts sessions by status. TotalCost is left for the caller.
func ComputeStats(sessions []any) models.DashboardStats {
	stats := models.DashboardStats{TotalSessions: len(sessions)}

	for _, item := range sessions {
		switch models.SessionStatus(asString(asObject(item)["status"])) {
		case models.StatusRunning:
			stats.ActiveSessions++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusFailed:
			stats.Failed++
		}
	}

	if stats.TotalSessions > 0 {
		stats.SuccessRate = roundTo(float64(stats.Completed)/float64(stats.TotalSessions)*100, 1)
	}

	return stats
}

// TotalCost returns the billing summary's total_cost when billing reports one,
// zero included. Without a usable billing figure it sums the per-team costs.
func TotalCost(billing map[string]any, teamCosts []any) float64 {
	if total, ok := asNumber(billing["total_cost"]); ok {
		return total
	}

	var sum float64
	for _, item := range teamCosts {
		sum += asFloat(asObject(item)["total_cost"])
	}
	return sum
}

// EnrichTeamCosts attaches team display names and budgets to cost-by-team rows
func EnrichTeamCosts(teamCosts []any, directory models.TeamDirectory) []models.TeamCost {
	rows := make([]models.TeamCost, 0, len(teamCosts))
	for _, item := range teamCosts {
		entry := asObject(item)
		info := directory.Lookup(asString(entry["team_id"]))
		rows = append(rows, models.TeamCost{
			Team:         info.Name,
			TotalCost:    asFloat(entry["total_cost"]),
			SessionCount: asInt(entry["sessions"]),
			Budget:       info.Budget,
		})
	}
	return rows
}

// roundTo rounds the exact binary value of x to the given number of decimals,
// ties to even. Scaling by a power of ten first would round twice.
func roundTo(x float64, decimals int) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', decimals, 64), 64)
	if err != nil {
		return x
	}
	return rounded
}
