package ivr

import (
	"context"
	"sync"
)

// MemoryMenuRepo holds menus in memory. Test use and local development.
type MemoryMenuRepo struct {
	mu    sync.Mutex
	menus map[string][]Menu // by tenant
}

func NewMemoryMenuRepo() *MemoryMenuRepo {
	return &MemoryMenuRepo{menus: make(map[string][]Menu)}
}

func (r *MemoryMenuRepo) Put(m Menu) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.menus[m.TenantID] = append(r.menus[m.TenantID], m)
}

func (r *MemoryMenuRepo) ActiveMenu(ctx context.Context, tenantID string) (Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.menus[tenantID] {
		if m.Active {
			return m, nil
		}
	}
	return Menu{}, ErrNotFound
}

func (r *MemoryMenuRepo) ListMenus(ctx context.Context, tenantID string) ([]Menu, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Menu, len(r.menus[tenantID]))
	copy(out, r.menus[tenantID])
	return out, nil
}

func (r *MemoryMenuRepo) Activate(ctx context.Context, tenantID, menuID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.menus[tenantID]
	found := false
	for i := range list {
		if list[i].ID == menuID {
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	for i := range list {
		list[i].Active = list[i].ID == menuID
	}
	return nil
}
