package ivr

import (
	"context"
	"database/sql"
	"errors"

	"callcenter-platform/pkg/utils"
)

// PostgresMenuRepo persists menus.
//
// Assumed schema:
//
//	ivr_menus(id, tenant_id, version, welcome_message, language, max_attempts,
//	          input_timeout_sec, active, created_at, updated_at)
//	ivr_menu_options(menu_id, digit, description, queue_name, position)
//	partial unique index: one active menu per tenant
//	  CREATE UNIQUE INDEX ON ivr_menus (tenant_id) WHERE active
type PostgresMenuRepo struct {
	db *sql.DB
}

func NewPostgresMenuRepo(db *sql.DB) *PostgresMenuRepo { return &PostgresMenuRepo{db: db} }

func (r *PostgresMenuRepo) ActiveMenu(ctx context.Context, tenantID string) (Menu, error) {
	const q = `
SELECT id, tenant_id, version, welcome_message, language, max_attempts, input_timeout_sec, active, created_at, updated_at
FROM ivr_menus
WHERE tenant_id = $1 AND active
`
	m, err := r.scanMenu(r.db.QueryRowContext(ctx, q, tenantID))
	if err != nil {
		return Menu{}, err
	}
	opts, err := r.optionsFor(ctx, m.ID)
	if err != nil {
		return Menu{}, err
	}
	m.Options = opts
	return m, nil
}

func (r *PostgresMenuRepo) ListMenus(ctx context.Context, tenantID string) ([]Menu, error) {
	const q = `
SELECT id, tenant_id, version, welcome_message, language, max_attempts, input_timeout_sec, active, created_at, updated_at
FROM ivr_menus
WHERE tenant_id = $1
ORDER BY version DESC
`
	rows, err := r.db.QueryContext(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Menu
	for rows.Next() {
		m, err := r.scanMenu(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		opts, err := r.optionsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Options = opts
	}
	return out, nil
}

func (r *PostgresMenuRepo) Activate(ctx context.Context, tenantID, menuID string) error {
	return utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		// Deactivate first so the partial unique index never sees two active rows.
		if _, err := tx.ExecContext(ctx,
			`UPDATE ivr_menus SET active = FALSE, updated_at = NOW() WHERE tenant_id = $1 AND active`,
			tenantID,
		); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE ivr_menus SET active = TRUE, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`,
			tenantID, menuID,
		)
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
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PostgresMenuRepo) scanMenu(row rowScanner) (Menu, error) {
	var m Menu
	err := row.Scan(
		&m.ID,
		&m.TenantID,
		&m.Version,
		&m.WelcomeMessage,
		&m.Language,
		&m.MaxAttempts,
		&m.InputTimeoutSec,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Menu{}, ErrNotFound
		}
		return Menu{}, err
	}
	return m, nil
}

func (r *PostgresMenuRepo) optionsFor(ctx context.Context, menuID string) ([]MenuOption, error) {
	const q = `
SELECT digit, description, queue_name
FROM ivr_menu_options
WHERE menu_id = $1
ORDER BY position
`
	rows, err := r.db.QueryContext(ctx, q, menuID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MenuOption
	for rows.Next() {
		var o MenuOption
		if err := rows.Scan(&o.Digit, &o.Description, &o.QueueName); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
