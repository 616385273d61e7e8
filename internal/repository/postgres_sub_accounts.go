package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresSubAccountsRepository struct {
	db *sql.DB
}

func NewPostgresSubAccountsRepository(db *sql.DB) *PostgresSubAccountsRepository {
	return &PostgresSubAccountsRepository{db: db}
}

var _ SubAccountsRepository = (*PostgresSubAccountsRepository)(nil)

const subAccountColumns = `sub_account_id::text, tenant_id::text, name, COALESCE(domain, ''), status, created_at, updated_at`

func scanSubAccount(row rowScanner) (*domain.SubAccount, error) {
	var s domain.SubAccount
	if err := row.Scan(&s.SubAccountID, &s.TenantID, &s.Name, &s.Domain, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PostgresSubAccountsRepository) ListSubAccounts(ctx context.Context, tenantID string) ([]*domain.SubAccount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+subAccountColumns+` FROM sub_accounts WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub accounts: %w", err)
	}
	defer rows.Close()

	out := []*domain.SubAccount{}
	for rows.Next() {
		s, err := scanSubAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sub account: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sub accounts: %w", err)
	}
	return out, nil
}

func (r *PostgresSubAccountsRepository) GetSubAccount(ctx context.Context, tenantID, subAccountID string) (*domain.SubAccount, error) {
	s, err := scanSubAccount(r.db.QueryRowContext(ctx,
		`SELECT `+subAccountColumns+` FROM sub_accounts WHERE tenant_id = $1 AND sub_account_id = $2`, tenantID, subAccountID))
	if err != nil {
		return nil, fmt.Errorf("failed to get sub account: %w", notFound(err, "sub account", subAccountID))
	}
	return s, nil
}

func (r *PostgresSubAccountsRepository) CreateSubAccount(ctx context.Context, s *domain.SubAccount) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sub_accounts (tenant_id, name, domain, status)
		VALUES ($1, $2, $3, $4)
		RETURNING sub_account_id::text, created_at, updated_at`,
		s.TenantID, s.Name, nullString(s.Domain), s.Status,
	).Scan(&s.SubAccountID, &s.CreatedAt, &s.UpdatedAt)
	if uniqueViolation(err) {
		return fmt.Errorf("domain %q already in use: %w", s.Domain, domain.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to create sub account: %w", err)
	}
	return nil
}

func (r *PostgresSubAccountsRepository) UpdateSubAccount(ctx context.Context, s *domain.SubAccount) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE sub_accounts SET name = $3, domain = $4, status = $5, updated_at = now()
		WHERE tenant_id = $1 AND sub_account_id = $2
		RETURNING updated_at`,
		s.TenantID, s.SubAccountID, s.Name, nullString(s.Domain), s.Status,
	).Scan(&s.UpdatedAt)
	if uniqueViolation(err) {
		return fmt.Errorf("domain %q already in use: %w", s.Domain, domain.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to update sub account: %w", notFound(err, "sub account", s.SubAccountID))
	}
	return nil
}

func (r *PostgresSubAccountsRepository) DeleteSubAccount(ctx context.Context, tenantID, subAccountID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sub_accounts WHERE tenant_id = $1 AND sub_account_id = $2`, tenantID, subAccountID)
	if err != nil {
		return fmt.Errorf("failed to delete sub account: %w", err)
	}
	return requireAffected(res, "sub account", subAccountID)
}
