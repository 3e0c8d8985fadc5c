package crm

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo keeps contacts in memory. Test use.
type MemoryRepo struct {
	mu       sync.Mutex
	contacts map[string]*Contact // tenant + "/" + phone
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{contacts: make(map[string]*Contact)}
}

func (r *MemoryRepo) TouchByPhone(ctx context.Context, tenantID, phoneNumber string, now time.Time) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := tenantID + "/" + phoneNumber
	if c, ok := r.contacts[k]; ok {
		c.CallCount++
		c.LastSeen = now
		return *c, nil
	}
	c := NewContact(tenantID, phoneNumber, now)
	r.contacts[k] = &c
	return c, nil
}
