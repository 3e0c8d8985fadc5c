package calls

import "time"

// CallRecord is the durable log of one call attempt and its outcome.
//
// Invariants:
//   - ProviderCallID is unique per tenant; one record per call attempt.
//   - Status transitions are monotonic (see CanTransition); a record with a
//     terminal status is immutable apart from recording/transcript attachment.
type CallRecord struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// ProviderCallID is the provider's unique identifier for this call leg.
	ProviderCallID string `json:"provider_call_id" db:"provider_call_id"`

	From      string    `json:"from" db:"from_number"`
	To        string    `json:"to" db:"to_number"`
	Direction Direction `json:"direction" db:"direction"`

	Status Status `json:"status" db:"status"`

	QueueName string `json:"queue_name,omitempty" db:"queue_name"`
	AgentID   string `json:"agent_id,omitempty" db:"agent_id"`

	// MenuID and Digits capture the IVR path taken.
	MenuID string `json:"menu_id,omitempty" db:"menu_id"`
	Digits string `json:"digits,omitempty" db:"digits"`

	// MenuAttempts counts menu replays for this call. Persisted because the
	// webhook handling the retry may not be the instance that handled the
	// first attempt.
	MenuAttempts int `json:"menu_attempts" db:"menu_attempts"`

	StartedAt       time.Time  `json:"started_at" db:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DurationSeconds int        `json:"duration_seconds" db:"duration_seconds"`

	RecordingURL   string `json:"recording_url,omitempty" db:"recording_url"`
	TranscriptText string `json:"transcript_text,omitempty" db:"transcript_text"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type Status string

const (
	StatusQueued     Status = "queued"
	StatusRinging    Status = "ringing"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusNoAnswer   Status = "no_answer"
	StatusMissed     Status = "missed"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusNoAnswer, StatusMissed:
		return true
	default:
		return false
	}
}

// rank orders statuses along the call lifecycle so transitions can be
// checked for monotonicity.
func (s Status) rank() int {
	switch s {
	case StatusQueued:
		return 0
	case StatusRinging:
		return 1
	case StatusInProgress:
		return 2
	case StatusCompleted, StatusFailed, StatusNoAnswer, StatusMissed:
		return 3
	default:
		return -1
	}
}

// CanTransition reports whether from → to is a legal forward move:
// queued → ringing → in_progress → completed, with failed/no_answer/missed
// reachable from any non-terminal state. No transition leaves a terminal
// state and none goes backward.
func CanTransition(from, to Status) bool {
	if from.rank() < 0 || to.rank() < 0 {
		return false
	}
	if from.IsTerminal() {
		return false
	}
	if to.IsTerminal() {
		return true
	}
	return to.rank() > from.rank()
}

// StatusFromProvider normalizes the provider's status vocabulary.
func StatusFromProvider(s string) (Status, bool) {
	switch s {
	case "queued", "initiated":
		return StatusQueued, true
	case "ringing":
		return StatusRinging, true
	case "in-progress", "answered":
		return StatusInProgress, true
	case "completed":
		return StatusCompleted, true
	case "failed":
		return StatusFailed, true
	case "no-answer":
		return StatusNoAnswer, true
	case "busy", "canceled":
		return StatusMissed, true
	default:
		return "", false
	}
}
