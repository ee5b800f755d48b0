package mockupstream

func session(id, agent, model, teamID, status string, in, out int, cost, durationSeconds float64) map[string]any {
	return map[string]any{
		"session_id":       id,
		"agent_name":       agent,
		"model":            model,
		"team_id":          teamID,
		"status":           status,
		"input_tokens":     in,
		"output_tokens":    out,
		"total_cost":       cost,
		"duration_seconds": durationSeconds,
		"started_at":       "2026-02-14T09:12:00Z",
	}
}

func defaultSessions() []map[string]any {
	return []map[string]any{
		session("sess-001", "code-review-bot", "gpt-4o", "team-1", "completed", 12000, 3420, 0.0231, 4.5),
		session("sess-002", "deploy-agent", "gpt-4o", "team-2", "running", 6000, 2200, 0.0164, 2.1),
		session("sess-003", "test-writer", "gpt-4o", "team-1", "failed", 2000, 1100, 0.0047, 1.2),
	}
}

func defaultTeams() []map[string]any {
	return []map[string]any{
		{"id": "team-1", "name": "platform", "monthly_budget": 500.0},
		{"id": "team-2", "name": "infra", "monthly_budget": 300.0},
		{"id": "team-3", "name": "ml", "monthly_budget": 400.0},
	}
}

func defaultCostByTeam() []map[string]any {
	return []map[string]any{
		{"team_id": "team-1", "total_cost": 124.56, "sessions": 340},
		{"team_id": "team-2", "total_cost": 89.23, "sessions": 210},
		{"team_id": "team-3", "total_cost": 67.89, "sessions": 150},
	}
}

func defaultTokenUsage() []map[string]any {
	return []map[string]any{
		{"date": "2026-02-10", "input_tokens": 182000, "output_tokens": 54000},
		{"date": "2026-02-11", "input_tokens": 201500, "output_tokens": 61200},
		{"date": "2026-02-12", "input_tokens": 176300, "output_tokens": 49800},
	}
}

func defaultInvoices() []map[string]any {
	return []map[string]any{
		{"id": "inv-2026-01", "period": "2026-01", "total_cost": 264.12, "status": "paid"},
		{"id": "inv-2026-02", "period": "2026-02", "total_cost": 281.68, "status": "open"},
	}
}

func defaultTopRoutes() []map[string]any {
	return []map[string]any{
		{"method": "GET", "route_template": "/api/v1/sessions", "total_calls": 1840, "unique_callers": 3, "avg_duration_ms": 42.5},
		{"method": "GET", "route_template": "/api/v1/teams", "total_calls": 920, "unique_callers": 2, "avg_duration_ms": 12.1},
		{"method": "POST", "route_template": "/api/v1/sessions", "total_calls": 310, "unique_callers": 1, "avg_duration_ms": 88.0},
	}
}

func defaultTopCallers() []map[string]any {
	return []map[string]any{
		{"caller_service": "dashboard-service", "route_template": "/api/v1/sessions", "call_count": 1210, "routes_called": 4, "avg_duration_ms": 40.2},
		{"caller_service": "billing-service", "route_template": "/api/v1/sessions", "call_count": 630, "routes_called": 2, "avg_duration_ms": 47.0},
		{"caller_service": "dashboard-service", "route_template": "/api/v1/teams", "call_count": 920, "routes_called": 4, "avg_duration_ms": 12.1},
	}
}

func defaultContracts() map[string]any {
	return map[string]any{
		"version":     "2026.02.14",
		"captured_at": "2026-02-14T08:00:00Z",
		"routes": []map[string]any{
			{"method": "GET", "route_template": "/api/v1/sessions"},
			{"method": "GET", "route_template": "/api/v1/sessions/{session_id}"},
			{"method": "GET", "route_template": "/api/v1/teams"},
		},
	}
}

func defaultContractChanges() ([]map[string]any, map[int64]map[string]any) {
	latest := map[string]any{
		"id":                  12,
		"severity":            "breaking",
		"summary_json":        `{"summary":"Removed field agent_name from session response"}`,
		"changed_routes_json": `["GET /api/v1/sessions","GET /api/v1/sessions/{session_id}"]`,
		"affected_services":   2,
		"remediation_status":  "in_progress",
		"created_at":          "2026-02-14T08:05:00Z",
	}
	older := map[string]any{
		"id":                  11,
		"severity":            "low",
		"summary_json":        `{"summary":"Added optional field currency to billing summary"}`,
		"changed_routes_json": `["GET /api/v1/billing/summary"]`,
		"affected_services":   0,
		"remediation_status":  "not_required",
		"created_at":          "2026-02-10T15:30:00Z",
	}

	details := map[int64]map[string]any{
		12: {
			"change": latest,
			"impact_sets": []map[string]any{
				{"caller_service": "dashboard-service", "route_template": "/api/v1/sessions", "calls_last_7d": 1210},
				{"caller_service": "billing-service", "route_template": "/api/v1/sessions", "calls_last_7d": 630},
			},
			"remediation_jobs": []map[string]any{
				{
					"job_id":        "job-77",
					"target_repo":   "agentboard/dashboard-service",
					"status":        "pr_opened",
					"pr_url":        "https://git.example.com/agentboard/dashboard-service/pull/214",
					"error_summary": nil,
					"created_at":    "2026-02-14T08:06:00Z",
					"updated_at":    "2026-02-14T08:20:00Z",
				},
			},
		},
		11: {
			"change":           older,
			"impact_sets":      []map[string]any{},
			"remediation_jobs": []map[string]any{},
		},
	}

	return []map[string]any{latest, older}, details
}
