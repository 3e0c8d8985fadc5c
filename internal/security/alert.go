package security

import "time"

// Alert is an immutable, append-only record of a rejected or suspicious
// webhook request.
//
// Invariants:
// - Alerts are never updated or deleted.
// - Recording is best-effort; webhook rejection must not block on alert storage.
//
// Storage recommendation (Postgres):
// - Table security_alerts with an INSERT-only policy.
// - Optional: partition by time for retention.

type Alert struct {
	ID       string `json:"id" db:"id"`
	TenantID string `json:"tenant_id,omitempty" db:"tenant_id"`

	Type     AlertType `json:"type" db:"type"`
	Severity Severity  `json:"severity" db:"severity"`

	// Source identifies the suspicious party: caller number when known,
	// otherwise the client IP.
	Source   string `json:"source,omitempty" db:"source"`
	Endpoint string `json:"endpoint" db:"endpoint"`

	// Details is JSON carrying the full parameter set and the truncated
	// signature for forensic review.
	Details string `json:"details,omitempty" db:"details"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type AlertType string

const (
	AlertTypeWebhookRejected  AlertType = "webhook_rejected"
	AlertTypeMalformedWebhook AlertType = "malformed_webhook"
	AlertTypeRateLimited      AlertType = "rate_limited"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)
