package calls

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PostgresRepo persists call records.
//
// Assumed schema:
//
//	call_records(id, tenant_id, provider_call_id, from_number, to_number,
//	             direction, status, queue_name, agent_id, menu_id, digits,
//	             menu_attempts, started_at, ended_at, duration_seconds,
//	             recording_url, transcript_text, created_at, updated_at)
//	UNIQUE (tenant_id, provider_call_id)
//
// Monotonicity is enforced in SQL: the status columns of terminal rows are
// never matched by the UPDATE's WHERE clause, so a replayed or out-of-order
// callback cannot move a record backward.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const callColumns = `
id, tenant_id, provider_call_id, from_number, to_number, direction, status,
queue_name, agent_id, menu_id, digits, menu_attempts, started_at, ended_at,
duration_seconds, recording_url, transcript_text, created_at, updated_at
`

func (r *PostgresRepo) Create(ctx context.Context, rec CallRecord) error {
	const q = `
INSERT INTO call_records (
  id, tenant_id, provider_call_id, from_number, to_number, direction, status,
  queue_name, agent_id, menu_id, digits, menu_attempts, started_at, ended_at,
  duration_seconds, recording_url, transcript_text, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19
)
ON CONFLICT (tenant_id, provider_call_id) DO NOTHING
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.TenantID, rec.ProviderCallID, rec.From, rec.To, rec.Direction, rec.Status,
		rec.QueueName, rec.AgentID, rec.MenuID, rec.Digits, rec.MenuAttempts, rec.StartedAt, rec.EndedAt,
		rec.DurationSeconds, rec.RecordingURL, rec.TranscriptText, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) ByProviderCallID(ctx context.Context, tenantID, providerCallID string) (CallRecord, error) {
	q := `SELECT ` + callColumns + ` FROM call_records WHERE tenant_id = $1 AND provider_call_id = $2`
	return r.scan(r.db.QueryRowContext(ctx, q, tenantID, providerCallID))
}

func (r *PostgresRepo) AssignRoute(ctx context.Context, tenantID, providerCallID, digit, queueName, agentID string) error {
	const q = `
UPDATE call_records
SET digits = digits || $3,
    queue_name = $4,
    agent_id = $5,
    status = 'ringing',
    updated_at = NOW()
WHERE tenant_id = $1
  AND provider_call_id = $2
  AND status = 'queued'
`
	res, err := r.db.ExecContext(ctx, q, tenantID, providerCallID, digit, queueName, agentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return r.missingOrIllegal(ctx, tenantID, providerCallID)
	}
	return nil
}

func (r *PostgresRepo) UpdateStatus(ctx context.Context, tenantID, providerCallID string, to Status, durationSeconds int, endedAt *time.Time) (CallRecord, error) {
	// Forward-only: terminal rows never match, and non-terminal targets must
	// outrank the current status.
	const q = `
UPDATE call_records
SET status = $3,
    duration_seconds = CASE WHEN $4 >= 0 AND $3 IN ('completed','failed','no_answer','missed') THEN $4 ELSE duration_seconds END,
    ended_at = CASE WHEN $3 IN ('completed','failed','no_answer','missed') THEN $5 ELSE ended_at END,
    updated_at = NOW()
WHERE tenant_id = $1
  AND provider_call_id = $2
  AND status NOT IN ('completed','failed','no_answer','missed')
  AND (
    $3 IN ('completed','failed','no_answer','missed')
    OR (CASE status WHEN 'queued' THEN 0 WHEN 'ringing' THEN 1 WHEN 'in_progress' THEN 2 END)
       < (CASE $3 WHEN 'queued' THEN 0 WHEN 'ringing' THEN 1 WHEN 'in_progress' THEN 2 END)
  )
RETURNING ` + callColumns
	rec, err := r.scan(r.db.QueryRowContext(ctx, q, tenantID, providerCallID, to, durationSeconds, endedAt))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CallRecord{}, r.missingOrIllegal(ctx, tenantID, providerCallID)
		}
		return CallRecord{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) IncrementMenuAttempts(ctx context.Context, tenantID, providerCallID string) (int, error) {
	const q = `
UPDATE call_records
SET menu_attempts = menu_attempts + 1, updated_at = NOW()
WHERE tenant_id = $1 AND provider_call_id = $2
RETURNING menu_attempts
`
	var n int
	if err := r.db.QueryRowContext(ctx, q, tenantID, providerCallID).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return n, nil
}

func (r *PostgresRepo) AttachRecording(ctx context.Context, providerCallID, url string) error {
	const q = `
UPDATE call_records SET recording_url = $2, updated_at = NOW()
WHERE provider_call_id = $1
`
	return r.execExpectingRow(ctx, q, providerCallID, url)
}

func (r *PostgresRepo) AttachTranscript(ctx context.Context, providerCallID, text string) error {
	const q = `
UPDATE call_records SET transcript_text = $2, updated_at = NOW()
WHERE provider_call_id = $1
`
	return r.execExpectingRow(ctx, q, providerCallID, text)
}

func (r *PostgresRepo) ListBetween(ctx context.Context, tenantID string, from, to time.Time) ([]CallRecord, error) {
	q := `SELECT ` + callColumns + `
FROM call_records
WHERE tenant_id = $1 AND started_at >= $2 AND started_at <= $3
ORDER BY started_at`
	rows, err := r.db.QueryContext(ctx, q, tenantID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		rec, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresRepo) scan(row rowScanner) (CallRecord, error) {
	var rec CallRecord
	err := row.Scan(
		&rec.ID, &rec.TenantID, &rec.ProviderCallID, &rec.From, &rec.To, &rec.Direction, &rec.Status,
		&rec.QueueName, &rec.AgentID, &rec.MenuID, &rec.Digits, &rec.MenuAttempts, &rec.StartedAt, &rec.EndedAt,
		&rec.DurationSeconds, &rec.RecordingURL, &rec.TranscriptText, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CallRecord{}, ErrNotFound
		}
		return CallRecord{}, err
	}
	return rec, nil
}

func (r *PostgresRepo) execExpectingRow(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// missingOrIllegal distinguishes "no such record" from "transition rejected"
// after a guarded UPDATE matched zero rows.
func (r *PostgresRepo) missingOrIllegal(ctx context.Context, tenantID, providerCallID string) error {
	if _, err := r.ByProviderCallID(ctx, tenantID, providerCallID); err != nil {
		return err
	}
	return ErrInvalidTransition
}
