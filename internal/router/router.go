package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/crm"
	"callcenter-platform/internal/ivr"
	"callcenter-platform/internal/telephony"
	"callcenter-platform/pkg/logger"
)

// Paths holds the webhook action URLs baked into rendered voice documents.
// They are relative to the public base URL the provider already calls.
type Paths struct {
	IncomingCall    string
	IVRInput        string
	RecordingStatus string
	Transcription   string
}

func DefaultPaths() Paths {
	return Paths{
		IncomingCall:    "/webhooks/voice/incoming-call",
		IVRInput:        "/webhooks/voice/ivr-input",
		RecordingStatus: "/webhooks/voice/recording-status",
		Transcription:   "/webhooks/voice/transcription-complete",
	}
}

// Router drives one inbound call through menu, digit selection, and agent
// transfer. It holds no per-call state of its own: everything a later webhook
// needs lives on the call record, so consecutive webhooks for the same call
// may land on different instances.
type Router struct {
	menus    *ivr.Resolver
	selector *agents.Selector
	agents   agents.Store
	calls    calls.Repository
	contacts crm.Repository

	paths Paths
	now   func() time.Time
}

func New(menus *ivr.Resolver, selector *agents.Selector, agentStore agents.Store, callRepo calls.Repository, contacts crm.Repository, paths Paths) *Router {
	return &Router{
		menus:    menus,
		selector: selector,
		agents:   agentStore,
		calls:    callRepo,
		contacts: contacts,
		paths:    paths,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source. Test use.
func (r *Router) SetClock(now func() time.Time) { r.now = now }

type IncomingCall struct {
	CallSid string
	From    string
	To      string
}

type DigitInput struct {
	CallSid string
	From    string
	Digits  string
}

type StatusUpdate struct {
	CallSid         string
	ProviderStatus  string
	DurationSeconds int
}

const dialTimeoutSec = 30

// IncomingCall answers a new (or replayed) inbound call leg with the active
// menu. A redirect back to this handler after a gather timeout arrives as the
// same CallSid; the persisted attempt counter bounds how many times the menu
// replays before the call is dropped.
func (r *Router) IncomingCall(ctx context.Context, tenantID string, in IncomingCall) (telephony.Response, error) {
	menu, err := r.menus.ActiveMenu(ctx, tenantID)
	if err != nil {
		return telephony.Response{}, fmt.Errorf("resolve menu: %w", err)
	}

	if r.contacts != nil {
		if _, err := r.contacts.TouchByPhone(ctx, tenantID, in.From, r.now()); err != nil {
			logger.From(ctx).Warn("contact touch failed", "error", err, "from", in.From)
		}
	}

	now := r.now()
	rec := calls.CallRecord{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		ProviderCallID: in.CallSid,
		From:           in.From,
		To:             in.To,
		Direction:      calls.DirectionInbound,
		Status:         calls.StatusQueued,
		MenuID:         menu.ID,
		MenuAttempts:   1,
		StartedAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := r.calls.Create(ctx, rec); err != nil {
		return telephony.Response{}, fmt.Errorf("create call record: %w", err)
	}

	// Create is idempotent, so a replayed leg keeps the original row and the
	// attempt counter carries across instances. A differing id means the
	// insert lost to an existing row, i.e. this is a replay.
	stored, err := r.calls.ByProviderCallID(ctx, tenantID, in.CallSid)
	if err != nil {
		return telephony.Response{}, fmt.Errorf("load call record: %w", err)
	}
	attempts := stored.MenuAttempts
	if stored.ID != rec.ID {
		attempts, err = r.calls.IncrementMenuAttempts(ctx, tenantID, in.CallSid)
		if err != nil {
			return telephony.Response{}, fmt.Errorf("bump menu attempts: %w", err)
		}
	}
	if attempts > menu.MaxAttempts {
		return telephony.NewResponse(
			telephony.Say{Language: menu.Language, Text: "We did not receive your selection. Goodbye."},
			telephony.Hangup{},
		), nil
	}

	return r.menuResponse(menu), nil
}

func (r *Router) menuResponse(menu ivr.Menu) telephony.Response {
	return telephony.NewResponse(
		telephony.Gather{
			NumDigits: 1,
			Timeout:   menu.InputTimeoutSec,
			Action:    r.paths.IVRInput,
			Method:    "POST",
			Verbs: []any{
				telephony.Say{Language: menu.Language, Text: menu.WelcomeMessage},
			},
		},
		// No input within the timeout falls through here and replays the menu.
		telephony.Say{Language: menu.Language, Text: "We did not receive any input."},
		telephony.Redirect{Method: "POST", URL: r.paths.IncomingCall},
	)
}

// DigitInput routes a menu selection. Resolution is repeatable: an unmapped
// digit or a failed transfer never mutates the record, it just sends the
// caller back to the menu or to voicemail.
func (r *Router) DigitInput(ctx context.Context, tenantID string, in DigitInput) (telephony.Response, error) {
	menu, err := r.menus.ActiveMenu(ctx, tenantID)
	if err != nil {
		return telephony.Response{}, fmt.Errorf("resolve menu: %w", err)
	}

	opt, ok := menu.OptionForDigit(in.Digits)
	if !ok {
		return telephony.NewResponse(
			telephony.Say{Language: menu.Language, Text: "Invalid selection."},
			telephony.Redirect{Method: "POST", URL: r.paths.IncomingCall},
		), nil
	}

	agent, err := r.selector.SelectAndReserve(ctx, tenantID, opt.QueueName)
	switch {
	case errors.Is(err, agents.ErrQueueNotFound):
		logger.From(ctx).Warn("menu option points at missing queue",
			"queue", opt.QueueName, "digit", in.Digits, "tenant_id", tenantID)
		return telephony.NewResponse(
			telephony.Say{Language: menu.Language, Text: "That department is currently unavailable. Goodbye."},
			telephony.Hangup{},
		), nil
	case errors.Is(err, agents.ErrNoAgentAvailable):
		return r.voicemailResponse(menu), nil
	case err != nil:
		return telephony.Response{}, fmt.Errorf("select agent: %w", err)
	}

	if err := r.calls.AssignRoute(ctx, tenantID, in.CallSid, in.Digits, opt.QueueName, agent.ID); err != nil {
		// The reservation must not leak when the record write fails.
		if relErr := r.agents.Release(ctx, tenantID, agent.ID); relErr != nil {
			logger.From(ctx).Error("agent release after failed route write", "error", relErr, "agent_id", agent.ID)
		}
		return telephony.Response{}, fmt.Errorf("assign route: %w", err)
	}

	return telephony.NewResponse(
		telephony.Say{Language: menu.Language, Text: "Connecting you to the next available agent."},
		telephony.Dial{Timeout: dialTimeoutSec, Number: agent.Extension},
		// Dial without an action falls through when the agent does not pick up.
		telephony.Say{Language: menu.Language, Text: "The agent did not answer. Please leave a message after the beep."},
		r.recordVerb(),
		telephony.Hangup{},
	), nil
}

func (r *Router) voicemailResponse(menu ivr.Menu) telephony.Response {
	return telephony.NewResponse(
		telephony.Say{Language: menu.Language, Text: "All of our agents are currently busy. Please leave a message after the beep."},
		r.recordVerb(),
		telephony.Hangup{},
	)
}

func (r *Router) recordVerb() telephony.Record {
	return telephony.Record{
		MaxLength:          120,
		PlayBeep:           true,
		Transcribe:         true,
		TranscribeCallback: r.paths.Transcription,
		Action:             r.paths.RecordingStatus,
		Method:             "POST",
	}
}

// CallStatus applies a provider lifecycle callback. Unknown statuses and
// out-of-order callbacks are ignored: the record machine is forward-only and
// the provider retries on non-2xx, so rejecting here would only cause replays.
func (r *Router) CallStatus(ctx context.Context, tenantID string, in StatusUpdate) error {
	status, ok := calls.StatusFromProvider(in.ProviderStatus)
	if !ok {
		logger.From(ctx).Warn("unknown provider call status", "status", in.ProviderStatus, "call_sid", in.CallSid)
		return nil
	}

	var endedAt *time.Time
	if status.IsTerminal() {
		t := r.now()
		endedAt = &t
	}

	rec, err := r.calls.UpdateStatus(ctx, tenantID, in.CallSid, status, in.DurationSeconds, endedAt)
	if err != nil {
		if errors.Is(err, calls.ErrInvalidTransition) {
			logger.From(ctx).Debug("ignoring stale status callback", "status", status, "call_sid", in.CallSid)
			return nil
		}
		return fmt.Errorf("update call status: %w", err)
	}

	if status.IsTerminal() && rec.AgentID != "" {
		if err := r.agents.Release(ctx, tenantID, rec.AgentID); err != nil {
			return fmt.Errorf("release agent: %w", err)
		}
	}
	return nil
}

// RecordingStatus attaches a finished voicemail recording to its call.
func (r *Router) RecordingStatus(ctx context.Context, callSid, recordingURL string) error {
	if err := r.calls.AttachRecording(ctx, callSid, recordingURL); err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			logger.From(ctx).Warn("recording for unknown call", "call_sid", callSid)
			return nil
		}
		return fmt.Errorf("attach recording: %w", err)
	}
	return nil
}

// TranscriptionComplete attaches the voicemail transcript to its call.
func (r *Router) TranscriptionComplete(ctx context.Context, callSid, text string) error {
	if err := r.calls.AttachTranscript(ctx, callSid, text); err != nil {
		if errors.Is(err, calls.ErrNotFound) {
			logger.From(ctx).Warn("transcript for unknown call", "call_sid", callSid)
			return nil
		}
		return fmt.Errorf("attach transcript: %w", err)
	}
	return nil
}

// RateLimited is the voice document played to callers over the per-number
// limit. The call is answered and dropped; no record is created for it.
func RateLimited() telephony.Response {
	return telephony.NewResponse(
		telephony.Say{Language: "en-US", Text: "We are receiving too many calls from your number. Please try again later."},
		telephony.Hangup{},
	)
}

// Apology is the fail-safe document returned when call handling errors out,
// so the caller hears something other than dead air.
func Apology() telephony.Response {
	return telephony.NewResponse(
		telephony.Say{Language: "en-US", Text: "We are sorry, an application error has occurred. Please try again later."},
		telephony.Hangup{},
	)
}
