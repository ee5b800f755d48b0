package models

// SessionStatus is the lifecycle state reported by the gateway for an agent session
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

// DashboardSession is one agent session in the shape the frontend renders
type DashboardSession struct {
	ID          string        `json:"id"`
	Agent       string        `json:"agent"`
	Model       string        `json:"model"`
	Team        string        `json:"team"` // Team display name, or the raw team ID when unknown
	Status      SessionStatus `json:"status"`
	TotalTokens int64         `json:"total_tokens"`
	Cost        float64       `json:"cost"`
	DurationMs  *int64        `json:"duration_ms"` // null when the gateway reports no duration
}

// DashboardStats holds the headline counters of the dashboard
type DashboardStats struct {
	TotalSessions  int     `json:"total_sessions"`
	ActiveSessions int     `json:"active_sessions"`
	TotalCost      float64 `json:"total_cost"`   // Rounded to 4 decimals
	SuccessRate    float64 `json:"success_rate"` // Percent, 1 decimal, 0 when there are no sessions
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
}

// TeamCost is a cost-by-team row enriched from the team directory
type TeamCost struct {
	Team         string  `json:"team"`
	TotalCost    float64 `json:"total_cost"`
	SessionCount int64   `json:"session_count"`
	Budget       float64 `json:"budget"`
}

// DashboardPayload is the aggregated response of /api/dashboard
type DashboardPayload struct {
	Stats          DashboardStats     `json:"stats"`
	CostByTeam     []TeamCost         `json:"cost_by_team"`
	RecentSessions []DashboardSession `json:"recent_sessions"`
}

// SessionList is the response of /api/sessions
type SessionList struct {
	Sessions []DashboardSession `json:"sessions"`
	Total    int                `json:"total"`
}

// TokenUsage is the response of /api/analytics/token-usage
type TokenUsage struct {
	Usage []any `json:"usage"`
}

// TeamInfo is a team directory entry
type TeamInfo struct {
	Name   string  `json:"name"`
	Budget float64 `json:"budget"`
}

// TeamDirectory maps team ID to display name and monthly budget
type TeamDirectory map[string]TeamInfo

// Lookup returns the entry for teamID, falling back to the raw ID as the
// name and a zero budget when the team is unknown
func (d TeamDirectory) Lookup(teamID string) TeamInfo {
	if info, ok := d[teamID]; ok {
		return info
	}
	return TeamInfo{Name: teamID}
}

// HealthResponse is the liveness response
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
