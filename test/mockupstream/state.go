package mockupstream

import (
	"net/http"
	"sync"
	"time"
)

// Fault makes every request to a path fail with the given status and body
type Fault struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
	// Drop closes the connection without answering
	Drop bool `json:"drop"`
}

// Call is one request seen by the mock upstream
type Call struct {
	Path          string `json:"path"`
	Query         string `json:"query"`
	CallerService string `json:"caller_service"`
	RequestID     string `json:"request_id"`
	TraceParent   string `json:"traceparent"`
}

// State holds the fixture data and fault configuration of the mock upstream
type State struct {
	mu sync.RWMutex

	sessions        []map[string]any
	teams           []map[string]any
	costByTeam      []map[string]any
	tokenUsage      []map[string]any
	invoices        []map[string]any
	billingSummary  map[string]any
	topRoutes       []map[string]any
	topCallers      []map[string]any
	contracts       map[string]any
	contractChanges []map[string]any
	changeDetails   map[int64]map[string]any

	// bareLists answers list endpoints with a bare array instead of a wrapper object
	bareLists bool
	delay     time.Duration
	faults    map[string]Fault
	calls     []Call
}

// NewState creates a mock upstream state loaded with the default fixtures
func NewState() *State {
	s := &State{}
	s.Reset()
	return s
}

// Reset restores the default fixtures and clears faults and recorded calls
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = defaultSessions()
	s.teams = defaultTeams()
	s.costByTeam = defaultCostByTeam()
	s.tokenUsage = defaultTokenUsage()
	s.invoices = defaultInvoices()
	s.billingSummary = map[string]any{"total_cost": 281.68, "period": "2026-02", "currency": "USD"}
	s.topRoutes = defaultTopRoutes()
	s.topCallers = defaultTopCallers()
	s.contracts = defaultContracts()
	s.contractChanges, s.changeDetails = defaultContractChanges()

	s.bareLists = false
	s.delay = 0
	s.faults = make(map[string]Fault)
	s.calls = nil
}

// SetFault installs a fault for path; a zero status and no drop clears it
func (s *State) SetFault(path string, fault Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fault.Status == 0 && !fault.Drop {
		delete(s.faults, path)
		return
	}
	if fault.Status == 0 {
		fault.Status = http.StatusInternalServerError
	}
	s.faults[path] = fault
}

// FaultFor returns the fault installed for path, if any
func (s *State) FaultFor(path string) (Fault, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.faults[path]
	return f, ok
}

// SetBareLists switches list endpoints between bare arrays and wrapper objects
func (s *State) SetBareLists(bare bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bareLists = bare
}

// BareLists reports whether list endpoints answer with bare arrays
func (s *State) BareLists() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bareLists
}

// SetDelay delays every answer by d
func (s *State) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Delay returns the configured answer delay
func (s *State) Delay() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delay
}

// SetSessions replaces the session fixtures
func (s *State) SetSessions(sessions []map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
}

// SetBillingSummary replaces the billing summary fixture
func (s *State) SetBillingSummary(summary map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.billingSummary = summary
}

// RecordCall appends a call to the request log
func (s *State) RecordCall(call Call) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

// Calls returns a copy of the request log
func (s *State) Calls() []Call {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns how many requests hit path
func (s *State) CallCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, c := range s.calls {
		if c.Path == path {
			n++
		}
	}
	return n
}

// Sessions returns the session fixtures
func (s *State) Sessions() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions
}

// Session returns one session by its session_id
func (s *State) Session(id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess["session_id"] == id {
			return sess, true
		}
	}
	return nil, false
}

// Teams returns the team fixtures
func (s *State) Teams() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.teams
}

// CostByTeam returns the cost-by-team fixtures
func (s *State) CostByTeam() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.costByTeam
}

// TokenUsage returns the daily token usage fixtures
func (s *State) TokenUsage() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokenUsage
}

// Invoices returns the invoice fixtures
func (s *State) Invoices() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.invoices
}

// BillingSummary returns the billing summary fixture
func (s *State) BillingSummary() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.billingSummary
}

// TopRoutes returns the route usage fixtures
func (s *State) TopRoutes() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topRoutes
}

// TopCallers returns the caller usage fixtures, restricted to route when given
func (s *State) TopCallers(route string) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if route == "" {
		return s.topCallers
	}
	out := make([]map[string]any, 0, len(s.topCallers))
	for _, c := range s.topCallers {
		if c["route_template"] == route {
			out = append(out, c)
		}
	}
	return out
}

// Contracts returns the current contract snapshot
func (s *State) Contracts() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contracts
}

// ContractChanges returns at most limit contract changes, newest first
func (s *State) ContractChanges(limit int) []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.contractChanges) {
		limit = len(s.contractChanges)
	}
	return s.contractChanges[:limit]
}

// ContractChange returns one contract change with its blast radius
func (s *State) ContractChange(id int64) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.changeDetails[id]
	return d, ok
}
