package reporting

import (
	"context"
	"testing"
	"time"

	"callcenter-platform/internal/calls"
)

func seedCall(t *testing.T, repo *calls.MemoryRepo, rec calls.CallRecord) {
	t.Helper()
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed %s: %v", rec.ProviderCallID, err)
	}
}

func TestCallVolume_TenantIsolation(t *testing.T) {
	repo := calls.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seedCall(t, repo, calls.CallRecord{
		ID: "c1", TenantID: "t1", ProviderCallID: "CA1",
		Status: calls.StatusCompleted, DurationSeconds: 30, StartedAt: now,
	})
	seedCall(t, repo, calls.CallRecord{
		ID: "c2", TenantID: "t2", ProviderCallID: "CA2",
		Status: calls.StatusCompleted, DurationSeconds: 50, StartedAt: now,
	})

	svc := NewService(repo)
	out, err := svc.CallVolume(context.Background(), CallVolumeRequest{
		TenantID: "t1",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.TotalCalls != 1 {
		t.Fatalf("expected 1 call, got %d", out.TotalCalls)
	}
}

func TestCallVolume_Aggregates(t *testing.T) {
	repo := calls.NewMemoryRepo()
	now := time.Unix(1700000000, 0).UTC()
	seedCall(t, repo, calls.CallRecord{
		ID: "c1", TenantID: "t", ProviderCallID: "CA1",
		Status: calls.StatusCompleted, QueueName: "sales", AgentID: "a1",
		DurationSeconds: 60, StartedAt: now,
	})
	seedCall(t, repo, calls.CallRecord{
		ID: "c2", TenantID: "t", ProviderCallID: "CA2",
		Status: calls.StatusCompleted, QueueName: "sales",
		DurationSeconds: 40, RecordingURL: "https://cdn/r.mp3", TranscriptText: "hi",
		StartedAt: now,
	})
	seedCall(t, repo, calls.CallRecord{
		ID: "c3", TenantID: "t", ProviderCallID: "CA3",
		Status: calls.StatusMissed, StartedAt: now,
	})

	svc := NewService(repo)
	out, err := svc.CallVolume(context.Background(), CallVolumeRequest{
		TenantID: "t",
		Range:    TimeRange{From: now.Add(-time.Hour), To: now.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if out.TotalCalls != 3 || out.CompletedCalls != 2 || out.MissedCalls != 1 {
		t.Fatalf("counts: %+v", out)
	}
	if out.Voicemails != 1 || out.Transcribed != 1 {
		t.Fatalf("voicemail counts: %+v", out)
	}
	if out.TotalDurationSeconds != 100 || out.AverageDurationSeconds != 33 {
		t.Fatalf("durations: total=%d avg=%d", out.TotalDurationSeconds, out.AverageDurationSeconds)
	}
	if len(out.Queues) != 2 {
		t.Fatalf("queues: %+v", out.Queues)
	}
	// Sorted by name: "none" before "sales".
	if out.Queues[0].QueueName != "none" || out.Queues[0].Calls != 1 {
		t.Fatalf("queue[0]: %+v", out.Queues[0])
	}
	if out.Queues[1].QueueName != "sales" || out.Queues[1].Calls != 2 || out.Queues[1].Answered != 1 {
		t.Fatalf("queue[1]: %+v", out.Queues[1])
	}
}

func TestCallVolume_RejectsBadRequests(t *testing.T) {
	svc := NewService(calls.NewMemoryRepo())
	now := time.Now()

	cases := map[string]CallVolumeRequest{
		"missing tenant": {Range: TimeRange{From: now.Add(-time.Hour), To: now}},
		"zero range":     {TenantID: "t"},
		"inverted range": {TenantID: "t", Range: TimeRange{From: now, To: now.Add(-time.Hour)}},
	}
	for name, req := range cases {
		if _, err := svc.CallVolume(context.Background(), req); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
