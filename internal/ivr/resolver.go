package ivr

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("ivr: menu not found")
	ErrInvalidArgument = errors.New("ivr: invalid argument")
)

// MenuRepository is the persistence contract for menus.
type MenuRepository interface {
	ActiveMenu(ctx context.Context, tenantID string) (Menu, error)
	ListMenus(ctx context.Context, tenantID string) ([]Menu, error)

	// Activate flags menuID active and deactivates any previously active menu
	// for the tenant in the same transaction, preserving the single-active
	// invariant.
	Activate(ctx context.Context, tenantID, menuID string) error
}

// Resolver loads the menu the router should play for a tenant.
//
// Read path only. Repeated calls within one call's lifetime return the same
// menu unless an activation happens in between, which is rare relative to
// call volume.
type Resolver struct {
	repo MenuRepository
}

func NewResolver(repo MenuRepository) *Resolver {
	return &Resolver{repo: repo}
}

// ActiveMenu returns the tenant's active menu, or the built-in default when
// none is configured. Storage errors other than not-found propagate.
func (r *Resolver) ActiveMenu(ctx context.Context, tenantID string) (Menu, error) {
	if tenantID == "" {
		return Menu{}, ErrInvalidArgument
	}
	if r.repo == nil {
		return DefaultMenu(tenantID), nil
	}

	m, err := r.repo.ActiveMenu(ctx, tenantID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return DefaultMenu(tenantID), nil
		}
		return Menu{}, err
	}
	return m, nil
}
