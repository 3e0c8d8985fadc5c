package calls

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound          = errors.New("calls: record not found")
	ErrInvalidTransition = errors.New("calls: invalid status transition")
)

// Repository is the persistence contract for call records.
//
// UpdateStatus must enforce the monotonic transition invariant: an update
// that would move a record backward, or out of a terminal state, returns
// ErrInvalidTransition and leaves the row untouched.
type Repository interface {
	Create(ctx context.Context, rec CallRecord) error
	ByProviderCallID(ctx context.Context, tenantID, providerCallID string) (CallRecord, error)

	// AssignRoute records the IVR outcome: digit pressed, resolved queue,
	// reserved agent, and the ringing status, in one write.
	AssignRoute(ctx context.Context, tenantID, providerCallID, digit, queueName, agentID string) error

	UpdateStatus(ctx context.Context, tenantID, providerCallID string, to Status, durationSeconds int, endedAt *time.Time) (CallRecord, error)

	// IncrementMenuAttempts bumps the replay counter and returns the new value.
	IncrementMenuAttempts(ctx context.Context, tenantID, providerCallID string) (int, error)

	// Attachment callbacks carry no dialed number to resolve a tenant from,
	// so they key on the provider call id alone (unique across tenants).
	AttachRecording(ctx context.Context, providerCallID, url string) error
	AttachTranscript(ctx context.Context, providerCallID, text string) error

	// ListBetween feeds reporting; rows are scoped to the tenant.
	ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]CallRecord, error)
}
