package dashboard

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/agentboard/dashboard-service/internal/upstream"
)

const (
	testGateway = "http://gateway.test"
	testBilling = "http://billing.test"
)

var errConnRefused = errors.New("connection refused")

// fakeFetcher serves canned JSON values keyed by URL path (query ignored)
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]any
	failures  map[string]error
	calls     []string
	failAll   error
	// barrier, when set, blocks every Fetch until all expected calls arrived
	barrier *sync.WaitGroup
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		responses: make(map[string]any),
		failures:  make(map[string]error),
	}
}

func (f *fakeFetcher) on(path string, value any) *fakeFetcher {
	f.responses[path] = value
	return f
}

func (f *fakeFetcher) fail(path string, err error) *fakeFetcher {
	f.failures[path] = err
	return f
}

func (f *fakeFetcher) Fetch(ctx context.Context, rawURL string) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, rawURL)
	barrier := f.barrier
	f.mu.Unlock()

	if barrier != nil {
		barrier.Done()
		barrier.Wait()
	}

	if f.failAll != nil {
		return nil, &upstream.UnreachableError{URL: rawURL, Err: f.failAll}
	}

	path := rawURL
	path = strings.TrimPrefix(path, testGateway)
	path = strings.TrimPrefix(path, testBilling)
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}

	if err, ok := f.failures[path]; ok {
		return nil, err
	}
	if value, ok := f.responses[path]; ok {
		return value, nil
	}
	return nil, &upstream.HTTPError{URL: rawURL, StatusCode: 404, Body: `{"detail":"Not found"}`}
}

func (f *fakeFetcher) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if strings.HasSuffix(strings.SplitN(c, "?", 2)[0], path) {
			n++
		}
	}
	return n
}

func (f *fakeFetcher) lastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	return f.calls[len(f.calls)-1]
}

func gatewaySession(id, agent, teamID, status string, in, out, cost, durationSeconds float64) map[string]any {
	return map[string]any{
		"session_id":       id,
		"agent_name":       agent,
		"model":            "gpt-4o",
		"team_id":          teamID,
		"status":           status,
		"input_tokens":     in,
		"output_tokens":    out,
		"total_cost":       cost,
		"duration_seconds": durationSeconds,
	}
}

// standardFetcher mirrors a healthy gateway and billing service
func standardFetcher() *fakeFetcher {
	return newFakeFetcher().
		on(pathSessions, map[string]any{
			"sessions": []any{
				gatewaySession("sess-001", "code-review-bot", "team-1", "completed", 12000, 3420, 0.0231, 4.5),
				gatewaySession("sess-002", "deploy-agent", "team-2", "running", 6000, 2200, 0.0164, 2.1),
				gatewaySession("sess-003", "test-writer", "team-1", "failed", 2000, 1100, 0.0047, 1.2),
			},
			"total": 3.0,
		}).
		on(pathCostByTeam, map[string]any{
			"teams": []any{
				map[string]any{"team_id": "team-1", "total_cost": 124.56, "sessions": 340.0},
				map[string]any{"team_id": "team-2", "total_cost": 89.23, "sessions": 210.0},
				map[string]any{"team_id": "team-3", "total_cost": 67.89, "sessions": 150.0},
			},
		}).
		on(pathBillingSummary, map[string]any{"total_cost": 281.68, "period": "2026-02"}).
		on(pathTeams, []any{
			map[string]any{"id": "team-1", "name": "platform", "monthly_budget": 500.0},
			map[string]any{"id": "team-2", "name": "infra", "monthly_budget": 300.0},
			map[string]any{"id": "team-3", "name": "ml", "monthly_budget": 400.0},
		})
}
