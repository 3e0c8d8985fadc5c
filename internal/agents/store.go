package agents

import (
	"context"
	"errors"
)

var (
	ErrQueueNotFound    = errors.New("agents: queue not found")
	ErrAgentNotFound    = errors.New("agents: agent not found")
	ErrAgentUnavailable = errors.New("agents: agent unavailable")
	ErrNoAgentAvailable = errors.New("agents: no agent available")
)

// Store is the persistence contract for queues and agents.
//
// Reserve is the one place genuine races matter: two simultaneous inbound
// calls selecting the same lone available agent must not both succeed.
// Implementations make the capacity check and the increment one atomic
// conditional write and return ErrAgentUnavailable when the condition fails.
type Store interface {
	QueueByName(ctx context.Context, tenantID, name string) (Queue, error)
	AgentsByIDs(ctx context.Context, tenantID string, ids []string) ([]Agent, error)

	// Reserve increments the agent's call count iff the agent is available
	// and under capacity, returning the post-reserve agent row.
	Reserve(ctx context.Context, tenantID, agentID string) (Agent, error)

	// Release decrements the agent's call count (never below zero) and
	// restores available status when the agent drops under capacity.
	Release(ctx context.Context, tenantID, agentID string) error
}
