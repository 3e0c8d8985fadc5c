package ivr

import (
	"context"
	"testing"
)

func TestResolver_FallsBackToDefaultMenu(t *testing.T) {
	r := NewResolver(NewMemoryMenuRepo())

	m, err := r.ActiveMenu(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("active menu: %v", err)
	}
	if m.ID != "default" {
		t.Fatalf("expected default menu, got %q", m.ID)
	}
	if m.InputTimeoutSec != 10 {
		t.Fatalf("expected 10s gather timeout, got %d", m.InputTimeoutSec)
	}

	for digit, queue := range map[string]string{"1": "sales", "2": "support", "3": "hr"} {
		opt, ok := m.OptionForDigit(digit)
		if !ok {
			t.Fatalf("digit %s should be mapped", digit)
		}
		if opt.QueueName != queue {
			t.Fatalf("digit %s maps to %q, want %q", digit, opt.QueueName, queue)
		}
	}
	if _, ok := m.OptionForDigit("9"); ok {
		t.Fatalf("digit 9 should be unmapped in the default menu")
	}
}

func TestResolver_ReturnsActiveMenu(t *testing.T) {
	repo := NewMemoryMenuRepo()
	repo.Put(Menu{ID: "m1", TenantID: "tenant-1", Active: false, WelcomeMessage: "old"})
	repo.Put(Menu{ID: "m2", TenantID: "tenant-1", Active: true, WelcomeMessage: "current"})

	r := NewResolver(repo)
	m, err := r.ActiveMenu(context.Background(), "tenant-1")
	if err != nil {
		t.Fatalf("active menu: %v", err)
	}
	if m.ID != "m2" {
		t.Fatalf("expected m2, got %q", m.ID)
	}
}

func TestMemoryRepo_ActivateKeepsSingleActive(t *testing.T) {
	repo := NewMemoryMenuRepo()
	repo.Put(Menu{ID: "m1", TenantID: "t", Active: true})
	repo.Put(Menu{ID: "m2", TenantID: "t", Active: false})

	if err := repo.Activate(context.Background(), "t", "m2"); err != nil {
		t.Fatalf("activate: %v", err)
	}
	list, _ := repo.ListMenus(context.Background(), "t")
	active := 0
	for _, m := range list {
		if m.Active {
			active++
			if m.ID != "m2" {
				t.Fatalf("wrong menu active: %q", m.ID)
			}
		}
	}
	if active != 1 {
		t.Fatalf("expected exactly one active menu, got %d", active)
	}
}

func TestResolver_RequiresTenant(t *testing.T) {
	r := NewResolver(nil)
	if _, err := r.ActiveMenu(context.Background(), ""); err != ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
