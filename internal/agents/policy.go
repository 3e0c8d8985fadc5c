package agents

import "sync"

// SelectionPolicy orders a queue's candidate agents before reservation is
// attempted. The selector tries candidates in the returned order, so the
// policy decides fairness, not correctness; capacity is enforced by Reserve.
type SelectionPolicy interface {
	Order(queueName string, candidates []Agent) []Agent
}

// FirstAvailable keeps queue order as configured. This is explicitly NOT
// load-balancing: the first configured agent absorbs traffic until saturated.
type FirstAvailable struct{}

func (FirstAvailable) Order(queueName string, candidates []Agent) []Agent {
	return candidates
}

// RoundRobin rotates the starting candidate per queue so load spreads across
// agents. Rotation state is process-local; across instances distribution is
// approximate, which is acceptable for fairness.
type RoundRobin struct {
	mu   sync.Mutex
	next map[string]int
}

func NewRoundRobin() *RoundRobin {
	return &RoundRobin{next: make(map[string]int)}
}

func (p *RoundRobin) Order(queueName string, candidates []Agent) []Agent {
	if len(candidates) <= 1 {
		return candidates
	}

	p.mu.Lock()
	start := p.next[queueName] % len(candidates)
	p.next[queueName] = start + 1
	p.mu.Unlock()

	out := make([]Agent, 0, len(candidates))
	out = append(out, candidates[start:]...)
	out = append(out, candidates[:start]...)
	return out
}
