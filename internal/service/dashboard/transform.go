package dashboard

import (
	"github.com/agentboard/dashboard-service/pkg/models"
)

// TransformSession maps a gateway session record to the dashboard shape.
// Missing or null fields become "", 0 or a null duration.
func TransformSession(record map[string]any, directory models.TeamDirectory) models.DashboardSession {
	teamID := asString(record["team_id"])

	session := models.DashboardSession{
		ID:          asString(record["session_id"]),
		Agent:       asString(record["agent_name"]),
		Model:       asString(record["model"]),
		Team:        directory.Lookup(teamID).Name,
		Status:      models.SessionStatus(asString(record["status"])),
		TotalTokens: asInt(record["input_tokens"]) + asInt(record["output_tokens"]),
		Cost:        asFloat(record["total_cost"]),
	}

	if seconds := asFloat(record["duration_seconds"]); seconds != 0 {
		ms := int64(seconds * 1000)
		session.DurationMs = &ms
	}

	return session
}

// TransformSessions transforms every record of an already normalized session list
func TransformSessions(records []any, directory models.TeamDirectory) []models.DashboardSession {
	sessions := make([]models.DashboardSession, 0, len(records))
	for _, item := range records {
		sessions = append(sessions, TransformSession(asObject(item), directory))
	}
	return sessions
}
