package calls

import (
	"context"
	"testing"
	"time"
)

func TestCanTransition_ForwardOnly(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusQueued, StatusRinging},
		{StatusQueued, StatusFailed},
		{StatusRinging, StatusInProgress},
		{StatusRinging, StatusNoAnswer},
		{StatusInProgress, StatusCompleted},
		{StatusQueued, StatusMissed},
	}
	for _, c := range allowed {
		if !CanTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be allowed", c.from, c.to)
		}
	}

	denied := []struct{ from, to Status }{
		{StatusRinging, StatusQueued},
		{StatusInProgress, StatusRinging},
		{StatusCompleted, StatusInProgress},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusCompleted},
		{StatusQueued, StatusQueued},
	}
	for _, c := range denied {
		if CanTransition(c.from, c.to) {
			t.Errorf("%s -> %s should be denied", c.from, c.to)
		}
	}
}

func TestStatusFromProvider(t *testing.T) {
	cases := map[string]Status{
		"ringing":     StatusRinging,
		"in-progress": StatusInProgress,
		"completed":   StatusCompleted,
		"no-answer":   StatusNoAnswer,
		"busy":        StatusMissed,
		"canceled":    StatusMissed,
	}
	for in, want := range cases {
		got, ok := StatusFromProvider(in)
		if !ok || got != want {
			t.Errorf("StatusFromProvider(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := StatusFromProvider("exploded"); ok {
		t.Errorf("unknown provider status should not map")
	}
}

func TestMemoryRepo_MonotonicStatus(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	rec := CallRecord{
		ID:             "r1",
		TenantID:       "t",
		ProviderCallID: "CA1",
		From:           "+15551234567",
		Direction:      DirectionInbound,
		Status:         StatusQueued,
		StartedAt:      time.Now().UTC(),
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.UpdateStatus(ctx, "t", "CA1", StatusRinging, 0, nil); err != nil {
		t.Fatalf("queued->ringing: %v", err)
	}
	ended := time.Now().UTC()
	if _, err := repo.UpdateStatus(ctx, "t", "CA1", StatusCompleted, 42, &ended); err != nil {
		t.Fatalf("ringing->completed: %v", err)
	}

	// Terminal records are immutable.
	if _, err := repo.UpdateStatus(ctx, "t", "CA1", StatusInProgress, 0, nil); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	got, err := repo.ByProviderCallID(ctx, "t", "CA1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.DurationSeconds != 42 || got.EndedAt == nil {
		t.Fatalf("expected duration recorded on terminal, got %+v", got)
	}
}

func TestMemoryRepo_CreateIsIdempotentPerCallSid(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, CallRecord{ID: "r1", TenantID: "t", ProviderCallID: "CA1", Status: StatusQueued, MenuAttempts: 1})
	_ = repo.Create(ctx, CallRecord{ID: "r2", TenantID: "t", ProviderCallID: "CA1", Status: StatusQueued})

	got, _ := repo.ByProviderCallID(ctx, "t", "CA1")
	if got.ID != "r1" {
		t.Fatalf("second create must not replace the record, got %+v", got)
	}
}

func TestMemoryRepo_IncrementMenuAttempts(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	_ = repo.Create(ctx, CallRecord{ID: "r1", TenantID: "t", ProviderCallID: "CA1", Status: StatusQueued})

	for want := 1; want <= 3; want++ {
		n, err := repo.IncrementMenuAttempts(ctx, "t", "CA1")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if n != want {
			t.Fatalf("attempt %d: got %d", want, n)
		}
	}
}
