package agents

import "time"

// Agent is a call-center agent eligible to receive transferred calls.
//
// Capacity invariant: CurrentCalls never exceeds MaxConcurrentCalls. The only
// code path that increments CurrentCalls is Store.Reserve, which is a single
// atomic conditional write.
type Agent struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`
	Name     string `json:"name" db:"name"`

	Status Status `json:"status" db:"status"`

	CurrentCalls       int `json:"current_calls" db:"current_call_count"`
	MaxConcurrentCalls int `json:"max_concurrent_calls" db:"max_concurrent_calls"`

	// Extension is the transfer target: a phone extension or full number the
	// provider dials.
	Extension string `json:"extension" db:"extension"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusBreak     Status = "break"
	StatusOffline   Status = "offline"
)

// Eligible reports whether the agent can take one more call right now.
func (a Agent) Eligible() bool {
	return a.Status == StatusAvailable && a.CurrentCalls < a.MaxConcurrentCalls
}

// Queue is a named routing target holding candidate agent ids.
// Read-only to the router; membership is managed administratively.
type Queue struct {
	TenantID string   `json:"tenant_id" db:"tenant_id"`
	Name     string   `json:"name" db:"name"`
	AgentIDs []string `json:"agent_ids"`
}
