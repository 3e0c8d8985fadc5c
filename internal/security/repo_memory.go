package security

import (
	"context"
	"sync"
)

// MemoryAlertRepo is a simple in-memory append-only repository useful for tests.
type MemoryAlertRepo struct {
	mu     sync.Mutex
	alerts []Alert
}

func NewMemoryAlertRepo() *MemoryAlertRepo { return &MemoryAlertRepo{} }

func (r *MemoryAlertRepo) Append(ctx context.Context, a Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, a)
	return nil
}

func (r *MemoryAlertRepo) List(ctx context.Context, tenantID string, limit int) ([]Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, 0, limit)
	for i := len(r.alerts) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.alerts[i]
		if tenantID != "" && a.TenantID != tenantID {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *MemoryAlertRepo) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}
