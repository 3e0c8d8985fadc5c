package router

import (
	"context"
	"strings"
	"testing"
	"time"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/crm"
	"callcenter-platform/internal/ivr"
	"callcenter-platform/internal/telephony"
)

const tenant = "tenant-1"

type fixture struct {
	router *Router
	agents *agents.MemoryStore
	calls  *calls.MemoryRepo
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := agents.NewMemoryStore()
	store.PutQueue(agents.Queue{TenantID: tenant, Name: "sales", AgentIDs: []string{"a1", "a2"}})
	store.PutAgent(agents.Agent{
		ID: "a1", TenantID: tenant, Name: "Asha", Status: agents.StatusAvailable,
		MaxConcurrentCalls: 1, Extension: "+15550000001",
	})
	store.PutAgent(agents.Agent{
		ID: "a2", TenantID: tenant, Name: "Ben", Status: agents.StatusAvailable,
		MaxConcurrentCalls: 1, Extension: "+15550000002",
	})

	callRepo := calls.NewMemoryRepo()
	r := New(
		ivr.NewResolver(nil), // no configured menus, default menu everywhere
		agents.NewSelector(store, agents.FirstAvailable{}),
		store,
		callRepo,
		crm.NewMemoryRepo(),
		DefaultPaths(),
	)
	return fixture{router: r, agents: store, calls: callRepo}
}

func incoming(sid string) IncomingCall {
	return IncomingCall{CallSid: sid, From: "+15551234567", To: "+15559876543"}
}

func findVerb[T any](t *testing.T, resp telephony.Response) T {
	t.Helper()
	for _, v := range resp.Verbs {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	var zero T
	t.Fatalf("response %#v has no %T verb", resp.Verbs, zero)
	return zero
}

func hasVerb[T any](resp telephony.Response) bool {
	for _, v := range resp.Verbs {
		if _, ok := v.(T); ok {
			return true
		}
	}
	return false
}

func TestIncomingCall_PlaysDefaultMenu(t *testing.T) {
	f := newFixture(t)
	resp, err := f.router.IncomingCall(context.Background(), tenant, incoming("CA100"))
	if err != nil {
		t.Fatalf("IncomingCall: %v", err)
	}

	g := findVerb[telephony.Gather](t, resp)
	if g.NumDigits != 1 || g.Timeout != 10 {
		t.Errorf("gather numDigits=%d timeout=%d, want 1 and 10", g.NumDigits, g.Timeout)
	}
	if g.Action != "/webhooks/voice/ivr-input" || g.Method != "POST" {
		t.Errorf("gather action=%q method=%q", g.Action, g.Method)
	}
	if len(g.Verbs) != 1 {
		t.Fatalf("gather nested verbs = %d, want 1", len(g.Verbs))
	}
	say := g.Verbs[0].(telephony.Say)
	if !strings.Contains(say.Text, "For sales, press 1") || say.Language != "en-US" {
		t.Errorf("unexpected welcome prompt: %+v", say)
	}

	rec, err := f.calls.ByProviderCallID(context.Background(), tenant, "CA100")
	if err != nil {
		t.Fatalf("record not created: %v", err)
	}
	if rec.Status != calls.StatusQueued || rec.MenuAttempts != 1 || rec.MenuID != "default" {
		t.Errorf("record = status %q attempts %d menu %q", rec.Status, rec.MenuAttempts, rec.MenuID)
	}
}

func TestIncomingCall_ReplayBoundedByMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Default menu allows 3 attempts; the timeout redirect replays the same
	// CallSid against this handler.
	for i := 0; i < 3; i++ {
		resp, err := f.router.IncomingCall(ctx, tenant, incoming("CA200"))
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if !hasVerb[telephony.Gather](resp) {
			t.Fatalf("attempt %d should replay the menu", i+1)
		}
	}

	resp, err := f.router.IncomingCall(ctx, tenant, incoming("CA200"))
	if err != nil {
		t.Fatalf("final attempt: %v", err)
	}
	if hasVerb[telephony.Gather](resp) {
		t.Error("fourth attempt should not gather again")
	}
	if !hasVerb[telephony.Hangup](resp) {
		t.Error("fourth attempt should hang up")
	}

	rec, _ := f.calls.ByProviderCallID(ctx, tenant, "CA200")
	if rec.MenuAttempts != 4 {
		t.Errorf("menu attempts = %d, want 4", rec.MenuAttempts)
	}
}

func TestDigitInput_TransfersToAvailableAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA300")); err != nil {
		t.Fatal(err)
	}
	resp, err := f.router.DigitInput(ctx, tenant, DigitInput{CallSid: "CA300", From: "+15551234567", Digits: "1"})
	if err != nil {
		t.Fatalf("DigitInput: %v", err)
	}

	dial := findVerb[telephony.Dial](t, resp)
	if dial.Number != "+15550000001" {
		t.Errorf("dialed %q, want first available agent", dial.Number)
	}
	if dial.Timeout != 30 {
		t.Errorf("dial timeout = %d, want 30", dial.Timeout)
	}
	// Voicemail fallback rides behind the dial for the no-answer case.
	rec := findVerb[telephony.Record](t, resp)
	if !rec.Transcribe || rec.TranscribeCallback == "" {
		t.Errorf("fallback record must transcribe: %+v", rec)
	}

	stored, err := f.calls.ByProviderCallID(ctx, tenant, "CA300")
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != calls.StatusRinging || stored.AgentID != "a1" || stored.QueueName != "sales" || stored.Digits != "1" {
		t.Errorf("record after route = %+v", stored)
	}
	a, _ := f.agents.AgentByID(tenant, "a1")
	if a.CurrentCalls != 1 || a.Status != agents.StatusBusy {
		t.Errorf("agent not reserved: %+v", a)
	}
}

func TestDigitInput_AllAgentsBusyGoesToVoicemail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"a1", "a2"} {
		if _, err := f.agents.Reserve(ctx, tenant, id); err != nil {
			t.Fatalf("saturate %s: %v", id, err)
		}
	}
	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA400")); err != nil {
		t.Fatal(err)
	}

	resp, err := f.router.DigitInput(ctx, tenant, DigitInput{CallSid: "CA400", Digits: "1"})
	if err != nil {
		t.Fatalf("DigitInput: %v", err)
	}
	if hasVerb[telephony.Dial](resp) {
		t.Error("saturated queue must not dial")
	}
	rec := findVerb[telephony.Record](t, resp)
	if !rec.Transcribe {
		t.Error("voicemail recording must request transcription")
	}
	if rec.TranscribeCallback != "/webhooks/voice/transcription-complete" {
		t.Errorf("transcribe callback = %q", rec.TranscribeCallback)
	}

	stored, _ := f.calls.ByProviderCallID(ctx, tenant, "CA400")
	if stored.Status != calls.StatusQueued || stored.AgentID != "" {
		t.Errorf("voicemail path must not assign a route: %+v", stored)
	}
}

func TestDigitInput_UnmappedDigitRedirectsToMenu(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA500")); err != nil {
		t.Fatal(err)
	}

	resp, err := f.router.DigitInput(ctx, tenant, DigitInput{CallSid: "CA500", Digits: "9"})
	if err != nil {
		t.Fatalf("DigitInput: %v", err)
	}
	say := findVerb[telephony.Say](t, resp)
	if !strings.Contains(say.Text, "Invalid selection") {
		t.Errorf("say = %q", say.Text)
	}
	redirect := findVerb[telephony.Redirect](t, resp)
	if redirect.URL != "/webhooks/voice/incoming-call" {
		t.Errorf("redirect = %q", redirect.URL)
	}

	stored, _ := f.calls.ByProviderCallID(ctx, tenant, "CA500")
	if stored.Digits != "" || stored.Status != calls.StatusQueued {
		t.Errorf("unmapped digit must not mutate the record: %+v", stored)
	}
}

func TestDigitInput_MissingQueueHangsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	// Default menu digit 3 targets "hr", which this store never defines.
	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA600")); err != nil {
		t.Fatal(err)
	}
	resp, err := f.router.DigitInput(ctx, tenant, DigitInput{CallSid: "CA600", Digits: "3"})
	if err != nil {
		t.Fatalf("DigitInput: %v", err)
	}
	if !hasVerb[telephony.Hangup](resp) {
		t.Error("missing queue should hang up")
	}
	if hasVerb[telephony.Dial](resp) || hasVerb[telephony.Record](resp) {
		t.Error("missing queue should neither dial nor record")
	}
}

func TestCallStatus_TerminalReleasesAgent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA700")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.router.DigitInput(ctx, tenant, DigitInput{CallSid: "CA700", Digits: "1"}); err != nil {
		t.Fatal(err)
	}

	if err := f.router.CallStatus(ctx, tenant, StatusUpdate{CallSid: "CA700", ProviderStatus: "in-progress", DurationSeconds: -1}); err != nil {
		t.Fatalf("in-progress: %v", err)
	}
	if err := f.router.CallStatus(ctx, tenant, StatusUpdate{CallSid: "CA700", ProviderStatus: "completed", DurationSeconds: 95}); err != nil {
		t.Fatalf("completed: %v", err)
	}

	rec, _ := f.calls.ByProviderCallID(ctx, tenant, "CA700")
	if rec.Status != calls.StatusCompleted || rec.DurationSeconds != 95 || rec.EndedAt == nil {
		t.Errorf("record after completion = %+v", rec)
	}
	a, _ := f.agents.AgentByID(tenant, "a1")
	if a.CurrentCalls != 0 || a.Status != agents.StatusAvailable {
		t.Errorf("agent not released: %+v", a)
	}
}

func TestCallStatus_IgnoresStaleAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA800")); err != nil {
		t.Fatal(err)
	}
	if err := f.router.CallStatus(ctx, tenant, StatusUpdate{CallSid: "CA800", ProviderStatus: "completed", DurationSeconds: 10}); err != nil {
		t.Fatal(err)
	}

	// Late "ringing" after completion must be swallowed, not surfaced.
	if err := f.router.CallStatus(ctx, tenant, StatusUpdate{CallSid: "CA800", ProviderStatus: "ringing", DurationSeconds: -1}); err != nil {
		t.Errorf("stale callback returned error: %v", err)
	}
	if err := f.router.CallStatus(ctx, tenant, StatusUpdate{CallSid: "CA800", ProviderStatus: "whatever", DurationSeconds: -1}); err != nil {
		t.Errorf("unknown status returned error: %v", err)
	}

	rec, _ := f.calls.ByProviderCallID(ctx, tenant, "CA800")
	if rec.Status != calls.StatusCompleted {
		t.Errorf("status = %q, want completed", rec.Status)
	}
}

func TestRecordingAndTranscriptionAttach(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.router.IncomingCall(ctx, tenant, incoming("CA900")); err != nil {
		t.Fatal(err)
	}

	if err := f.router.RecordingStatus(ctx, "CA900", "https://cdn.example.com/rec/CA900.mp3"); err != nil {
		t.Fatalf("RecordingStatus: %v", err)
	}
	if err := f.router.TranscriptionComplete(ctx, "CA900", "please call me back"); err != nil {
		t.Fatalf("TranscriptionComplete: %v", err)
	}

	rec, _ := f.calls.ByProviderCallID(ctx, tenant, "CA900")
	if rec.RecordingURL == "" || rec.TranscriptText != "please call me back" {
		t.Errorf("attachments missing: %+v", rec)
	}

	// Callbacks for calls this system never saw are acknowledged, not errors.
	if err := f.router.RecordingStatus(ctx, "CA-unknown", "https://x"); err != nil {
		t.Errorf("unknown recording call: %v", err)
	}
	if err := f.router.TranscriptionComplete(ctx, "CA-unknown", "hi"); err != nil {
		t.Errorf("unknown transcript call: %v", err)
	}
}

func TestRateLimitedAndApologyDocuments(t *testing.T) {
	for name, resp := range map[string]telephony.Response{
		"rate limited": RateLimited(),
		"apology":      Apology(),
	} {
		if !hasVerb[telephony.Hangup](resp) {
			t.Errorf("%s document must hang up", name)
		}
		if !hasVerb[telephony.Say](resp) {
			t.Errorf("%s document must say something", name)
		}
	}
}

func TestIncomingCall_ActiveMenuOverridesDefault(t *testing.T) {
	store := agents.NewMemoryStore()
	callRepo := calls.NewMemoryRepo()
	menus := ivr.NewMemoryMenuRepo()
	menus.Put(ivr.Menu{
		ID: "m1", TenantID: tenant, Version: 2, Active: true,
		WelcomeMessage: "Thanks for calling Acme.", Language: "en-GB",
		Options:     []ivr.MenuOption{{Digit: "5", Description: "Billing", QueueName: "billing"}},
		MaxAttempts: 2, InputTimeoutSec: 7,
	})

	r := New(ivr.NewResolver(menus), agents.NewSelector(store, agents.FirstAvailable{}), store, callRepo, nil, DefaultPaths())
	resp, err := r.IncomingCall(context.Background(), tenant, incoming("CA110"))
	if err != nil {
		t.Fatal(err)
	}
	g := findVerb[telephony.Gather](t, resp)
	if g.Timeout != 7 {
		t.Errorf("timeout = %d, want the configured menu's 7", g.Timeout)
	}
	say := g.Verbs[0].(telephony.Say)
	if say.Text != "Thanks for calling Acme." || say.Language != "en-GB" {
		t.Errorf("prompt = %+v", say)
	}
}

func TestSetClock(t *testing.T) {
	f := newFixture(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.router.SetClock(func() time.Time { return fixed })

	if _, err := f.router.IncomingCall(context.Background(), tenant, incoming("CA120")); err != nil {
		t.Fatal(err)
	}
	rec, _ := f.calls.ByProviderCallID(context.Background(), tenant, "CA120")
	if !rec.StartedAt.Equal(fixed) {
		t.Errorf("started at %v, want %v", rec.StartedAt, fixed)
	}
}
