package dashboard

import (
	"context"

	"github.com/agentboard/dashboard-service/pkg/models"
)

// ResolveTeams fetches the team directory. Team names are optional enrichment,
// so a failed fetch yields an empty directory instead of an error.
func (s *Service) ResolveTeams(ctx context.Context) models.TeamDirectory {
	raw, err := s.fetcher.Fetch(ctx, s.gateway(pathTeams))
	if err != nil {
		s.degraded(ctx, sourceTeams, err)
		return models.TeamDirectory{}
	}
	return BuildTeamDirectory(NormalizeList(raw, "teams"))
}

// BuildTeamDirectory keys teams by ID. Entries without an ID are skipped.
func BuildTeamDirectory(teams []any) models.TeamDirectory {
	directory := make(models.TeamDirectory, len(teams))
	for _, item := range teams {
		team := asObject(item)
		id := asString(team["id"])
		if id == "" {
			continue
		}

		name := asString(team["name"])
		if name == "" {
			name = id
		}

		directory[id] = models.TeamInfo{
			Name:   name,
			Budget: asFloat(team["monthly_budget"]),
		}
	}
	return directory
}
