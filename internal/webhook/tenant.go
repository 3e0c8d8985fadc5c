package webhook

import (
	"context"
	"database/sql"
	"errors"
)

// TenantResolver maps the dialed number of an inbound call to the tenant that
// owns it.
type TenantResolver interface {
	TenantByNumber(ctx context.Context, dialed string) (string, error)
}

// StaticTenants answers every number with one tenant id. Single-tenant
// deployments and tests.
type StaticTenants struct {
	TenantID string
}

func (s StaticTenants) TenantByNumber(ctx context.Context, dialed string) (string, error) {
	return s.TenantID, nil
}

// PostgresNumberDirectory resolves tenants from provisioned numbers, falling
// back to a default tenant for numbers nobody claimed.
//
// Assumed schema:
//
//	tenant_numbers(phone_number PRIMARY KEY, tenant_id)
type PostgresNumberDirectory struct {
	db              *sql.DB
	defaultTenantID string
}

func NewPostgresNumberDirectory(db *sql.DB, defaultTenantID string) *PostgresNumberDirectory {
	return &PostgresNumberDirectory{db: db, defaultTenantID: defaultTenantID}
}

func (d *PostgresNumberDirectory) TenantByNumber(ctx context.Context, dialed string) (string, error) {
	const q = `SELECT tenant_id FROM tenant_numbers WHERE phone_number = $1`
	var tenantID string
	err := d.db.QueryRowContext(ctx, q, dialed).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return d.defaultTenantID, nil
		}
		return "", err
	}
	return tenantID, nil
}
