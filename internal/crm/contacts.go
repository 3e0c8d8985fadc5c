package crm

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Contact is a CRM-style record keyed by caller number. The router upserts
// one per inbound call, best-effort: a failed upsert never aborts call
// handling.
type Contact struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id" db:"tenant_id"`

	PhoneNumber string `json:"phone_number" db:"phone_number"`

	CallCount int       `json:"call_count" db:"call_count"`
	FirstSeen time.Time `json:"first_seen" db:"first_seen"`
	LastSeen  time.Time `json:"last_seen" db:"last_seen"`
}

// Repository is the persistence contract for contacts.
type Repository interface {
	// TouchByPhone creates the contact on first sight and bumps
	// call_count/last_seen on every subsequent call.
	TouchByPhone(ctx context.Context, tenantID, phoneNumber string, now time.Time) (Contact, error)
}

// NewContact builds a first-sighting contact row.
func NewContact(tenantID, phoneNumber string, now time.Time) Contact {
	return Contact{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		PhoneNumber: phoneNumber,
		CallCount:   1,
		FirstSeen:   now,
		LastSeen:    now,
	}
}
