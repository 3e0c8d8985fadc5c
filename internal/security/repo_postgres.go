package security

import (
	"context"
	"database/sql"
)

// PostgresAlertRepo persists alerts to the security_alerts table.
//
// Assumed schema:
//
//	security_alerts(id, tenant_id, type, severity, source, endpoint, details, created_at)
type PostgresAlertRepo struct {
	db *sql.DB
}

func NewPostgresAlertRepo(db *sql.DB) *PostgresAlertRepo { return &PostgresAlertRepo{db: db} }

func (r *PostgresAlertRepo) Append(ctx context.Context, a Alert) error {
	const q = `
INSERT INTO security_alerts (id, tenant_id, type, severity, source, endpoint, details, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`
	_, err := r.db.ExecContext(ctx, q,
		a.ID,
		a.TenantID,
		a.Type,
		a.Severity,
		a.Source,
		a.Endpoint,
		a.Details,
		a.CreatedAt,
	)
	return err
}

func (r *PostgresAlertRepo) List(ctx context.Context, tenantID string, limit int) ([]Alert, error) {
	const q = `
SELECT id, tenant_id, type, severity, source, endpoint, details, created_at
FROM security_alerts
WHERE ($1 = '' OR tenant_id = $1)
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := r.db.QueryContext(ctx, q, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.TenantID, &a.Type, &a.Severity, &a.Source, &a.Endpoint, &a.Details, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
