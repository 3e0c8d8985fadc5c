package agents

import (
	"context"
	"database/sql"
	"errors"
)

// PostgresStore persists queues and agents.
//
// Assumed schema:
//
//	call_queues(tenant_id, name)
//	call_queue_agents(tenant_id, queue_name, agent_id, position)
//	agents(id, tenant_id, name, status, current_call_count, max_concurrent_calls,
//	       extension, updated_at)
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) QueueByName(ctx context.Context, tenantID, name string) (Queue, error) {
	const exists = `SELECT 1 FROM call_queues WHERE tenant_id = $1 AND name = $2`
	var one int
	if err := s.db.QueryRowContext(ctx, exists, tenantID, name).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Queue{}, ErrQueueNotFound
		}
		return Queue{}, err
	}

	const members = `
SELECT agent_id
FROM call_queue_agents
WHERE tenant_id = $1 AND queue_name = $2
ORDER BY position
`
	rows, err := s.db.QueryContext(ctx, members, tenantID, name)
	if err != nil {
		return Queue{}, err
	}
	defer rows.Close()

	q := Queue{TenantID: tenantID, Name: name}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return Queue{}, err
		}
		q.AgentIDs = append(q.AgentIDs, id)
	}
	return q, rows.Err()
}

func (s *PostgresStore) AgentsByIDs(ctx context.Context, tenantID string, ids []string) ([]Agent, error) {
	const q = `
SELECT id, tenant_id, name, status, current_call_count, max_concurrent_calls, extension, updated_at
FROM agents
WHERE tenant_id = $1 AND id = ANY($2)
`
	rows, err := s.db.QueryContext(ctx, q, tenantID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]Agent, len(ids))
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Name, &a.Status, &a.CurrentCalls, &a.MaxConcurrentCalls, &a.Extension, &a.UpdatedAt); err != nil {
			return nil, err
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preserve queue ordering; the selection policy depends on it.
	out := make([]Agent, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// Reserve is the atomic check-and-increment. The WHERE clause compares the
// live counter against the per-row capacity column, so the reservation and
// the capacity check cannot interleave with a concurrent caller; zero rows
// affected means someone else took the last slot.
func (s *PostgresStore) Reserve(ctx context.Context, tenantID, agentID string) (Agent, error) {
	const q = `
UPDATE agents
SET current_call_count = current_call_count + 1,
    status = CASE WHEN current_call_count + 1 >= max_concurrent_calls THEN 'busy' ELSE status END,
    updated_at = NOW()
WHERE tenant_id = $1
  AND id = $2
  AND status = 'available'
  AND current_call_count < max_concurrent_calls
RETURNING id, tenant_id, name, status, current_call_count, max_concurrent_calls, extension, updated_at
`
	var a Agent
	err := s.db.QueryRowContext(ctx, q, tenantID, agentID).Scan(
		&a.ID, &a.TenantID, &a.Name, &a.Status, &a.CurrentCalls, &a.MaxConcurrentCalls, &a.Extension, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Agent{}, ErrAgentUnavailable
		}
		return Agent{}, err
	}
	return a, nil
}

func (s *PostgresStore) Release(ctx context.Context, tenantID, agentID string) error {
	const q = `
UPDATE agents
SET current_call_count = GREATEST(current_call_count - 1, 0),
    status = CASE
      WHEN status = 'busy' AND GREATEST(current_call_count - 1, 0) < max_concurrent_calls THEN 'available'
      ELSE status
    END,
    updated_at = NOW()
WHERE tenant_id = $1 AND id = $2
`
	res, err := s.db.ExecContext(ctx, q, tenantID, agentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAgentNotFound
	}
	return nil
}
