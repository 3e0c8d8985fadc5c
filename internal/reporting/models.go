package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallVolumeRequest requests aggregated inbound call metrics.
// Tenant isolation: TenantID is required.

type CallVolumeRequest struct {
	TenantID string    `json:"tenant_id"`
	Range    TimeRange `json:"range"`
}

type CallVolumeReport struct {
	TenantID string    `json:"tenant_id"`
	Range    TimeRange `json:"range"`

	TotalCalls      int `json:"total_calls"`
	CompletedCalls  int `json:"completed_calls"`
	FailedCalls     int `json:"failed_calls"`
	NoAnswerCalls   int `json:"no_answer_calls"`
	MissedCalls     int `json:"missed_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	// Voicemails counts calls that left a recording instead of reaching an agent.
	Voicemails  int `json:"voicemails"`
	Transcribed int `json:"transcribed"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`

	// Queues breaks volume down by the queue the IVR routed to. Calls that
	// never picked a menu option land under the empty key, reported as "none".
	Queues []QueueVolume `json:"queues"`
}

type QueueVolume struct {
	QueueName string `json:"queue_name"`
	Calls     int    `json:"calls"`
	Answered  int    `json:"answered"`
}
