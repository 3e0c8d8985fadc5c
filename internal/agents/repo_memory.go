package agents

import (
	"context"
	"sync"
)

// MemoryStore keeps queues and agents in memory with mutex-serialized
// reservation, giving the same check-and-increment atomicity the Postgres
// store gets from a conditional UPDATE. Test use and local development.
type MemoryStore struct {
	mu     sync.Mutex
	queues map[string]map[string]Queue // tenant -> name -> queue
	agents map[string]map[string]*Agent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queues: make(map[string]map[string]Queue),
		agents: make(map[string]map[string]*Agent),
	}
}

func (s *MemoryStore) PutQueue(q Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queues[q.TenantID] == nil {
		s.queues[q.TenantID] = make(map[string]Queue)
	}
	s.queues[q.TenantID][q.Name] = q
}

func (s *MemoryStore) PutAgent(a Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.agents[a.TenantID] == nil {
		s.agents[a.TenantID] = make(map[string]*Agent)
	}
	cp := a
	s.agents[a.TenantID][a.ID] = &cp
}

func (s *MemoryStore) QueueByName(ctx context.Context, tenantID, name string) (Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[tenantID][name]
	if !ok {
		return Queue{}, ErrQueueNotFound
	}
	return q, nil
}

func (s *MemoryStore) AgentsByIDs(ctx context.Context, tenantID string, ids []string) ([]Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Agent, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.agents[tenantID][id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *MemoryStore) Reserve(ctx context.Context, tenantID, agentID string) (Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[tenantID][agentID]
	if !ok {
		return Agent{}, ErrAgentNotFound
	}
	if a.Status != StatusAvailable || a.CurrentCalls >= a.MaxConcurrentCalls {
		return Agent{}, ErrAgentUnavailable
	}
	a.CurrentCalls++
	if a.CurrentCalls >= a.MaxConcurrentCalls {
		a.Status = StatusBusy
	}
	return *a, nil
}

func (s *MemoryStore) Release(ctx context.Context, tenantID, agentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[tenantID][agentID]
	if !ok {
		return ErrAgentNotFound
	}
	if a.CurrentCalls > 0 {
		a.CurrentCalls--
	}
	if a.Status == StatusBusy && a.CurrentCalls < a.MaxConcurrentCalls {
		a.Status = StatusAvailable
	}
	return nil
}

// AgentByID returns a snapshot of one agent. Test helper.
func (s *MemoryStore) AgentByID(tenantID, agentID string) (Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[tenantID][agentID]
	if !ok {
		return Agent{}, false
	}
	return *a, true
}
