package agents

import (
	"context"
	"errors"
)

// Selector picks and reserves an agent for a queue.
//
// Selection and assignment are one logical transaction from the caller's
// perspective: a transfer directive is only ever emitted for an agent the
// selector actually reserved, so concurrent calls cannot double-book the
// last free slot.
type Selector struct {
	store  Store
	policy SelectionPolicy
}

func NewSelector(store Store, policy SelectionPolicy) *Selector {
	if policy == nil {
		policy = FirstAvailable{}
	}
	return &Selector{store: store, policy: policy}
}

// SelectAndReserve resolves the queue, filters eligible candidates, and
// attempts reservation in policy order. The eligibility filter is advisory
// (the row may change between read and reserve); Reserve re-checks
// atomically, and a failed reservation just moves on to the next candidate.
//
// Returns ErrQueueNotFound when the queue is missing or has no configured
// agents, and ErrNoAgentAvailable when every candidate is saturated.
func (s *Selector) SelectAndReserve(ctx context.Context, tenantID, queueName string) (Agent, error) {
	q, err := s.store.QueueByName(ctx, tenantID, queueName)
	if err != nil {
		return Agent{}, err
	}
	if len(q.AgentIDs) == 0 {
		return Agent{}, ErrQueueNotFound
	}

	candidates, err := s.store.AgentsByIDs(ctx, tenantID, q.AgentIDs)
	if err != nil {
		return Agent{}, err
	}

	eligible := candidates[:0]
	for _, a := range candidates {
		if a.Eligible() {
			eligible = append(eligible, a)
		}
	}
	if len(eligible) == 0 {
		return Agent{}, ErrNoAgentAvailable
	}

	for _, a := range s.policy.Order(queueName, eligible) {
		reserved, err := s.store.Reserve(ctx, tenantID, a.ID)
		if err != nil {
			if errors.Is(err, ErrAgentUnavailable) {
				continue
			}
			return Agent{}, err
		}
		return reserved, nil
	}
	return Agent{}, ErrNoAgentAvailable
}
