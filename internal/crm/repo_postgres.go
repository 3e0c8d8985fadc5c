package crm

import (
	"context"
	"database/sql"
	"time"
)

// PostgresRepo persists contacts.
//
// Assumed schema:
//
//	crm_contacts(id, tenant_id, phone_number, call_count, first_seen, last_seen)
//	UNIQUE (tenant_id, phone_number)
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) TouchByPhone(ctx context.Context, tenantID, phoneNumber string, now time.Time) (Contact, error) {
	c := NewContact(tenantID, phoneNumber, now)
	const q = `
INSERT INTO crm_contacts (id, tenant_id, phone_number, call_count, first_seen, last_seen)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (tenant_id, phone_number)
DO UPDATE SET call_count = crm_contacts.call_count + 1,
              last_seen = EXCLUDED.last_seen
RETURNING id, tenant_id, phone_number, call_count, first_seen, last_seen
`
	var out Contact
	err := r.db.QueryRowContext(ctx, q, c.ID, c.TenantID, c.PhoneNumber, c.CallCount, c.FirstSeen, c.LastSeen).Scan(
		&out.ID, &out.TenantID, &out.PhoneNumber, &out.CallCount, &out.FirstSeen, &out.LastSeen,
	)
	if err != nil {
		return Contact{}, err
	}
	return out, nil
}
