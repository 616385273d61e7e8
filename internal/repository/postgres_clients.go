package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresClientsRepository struct {
	db *sql.DB
}

func NewPostgresClientsRepository(db *sql.DB) *PostgresClientsRepository {
	return &PostgresClientsRepository{db: db}
}

var _ ClientsRepository = (*PostgresClientsRepository)(nil)

const clientColumns = `
	client_id::text, tenant_id::text, name, COALESCE(email, ''), COALESCE(phone, ''),
	status, monthly_fee, COALESCE(contact_id::text, ''), created_at, updated_at`

func scanClient(row rowScanner) (*domain.Client, error) {
	var c domain.Client
	var fee sql.NullFloat64
	err := row.Scan(&c.ClientID, &c.TenantID, &c.Name, &c.Email, &c.Phone,
		&c.Status, &fee, &c.ContactID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.MonthlyFee = floatPtr(fee)
	return &c, nil
}

func (r *PostgresClientsRepository) ListClients(ctx context.Context, tenantID, status string) ([]*domain.Client, error) {
	w := newWhere("tenant_id = $1", tenantID)
	if status != "" {
		w.add("status = ?", status)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+clientColumns+` FROM clients WHERE `+w.String()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	out := []*domain.Client{}
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return out, nil
}

func (r *PostgresClientsRepository) GetClient(ctx context.Context, tenantID, clientID string) (*domain.Client, error) {
	c, err := scanClient(r.db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE tenant_id = $1 AND client_id = $2`, tenantID, clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", notFound(err, "client", clientID))
	}
	return c, nil
}

func (r *PostgresClientsRepository) CreateClient(ctx context.Context, c *domain.Client) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO clients (tenant_id, name, email, phone, status, monthly_fee, contact_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING client_id::text, created_at, updated_at`,
		c.TenantID, c.Name, nullString(c.Email), nullString(c.Phone), c.Status,
		nullFloat(c.MonthlyFee), nullString(c.ContactID),
	).Scan(&c.ClientID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *PostgresClientsRepository) UpdateClient(ctx context.Context, c *domain.Client) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE clients SET
			name = $3, email = $4, phone = $5, status = $6, monthly_fee = $7, contact_id = $8,
			updated_at = now()
		WHERE tenant_id = $1 AND client_id = $2
		RETURNING updated_at`,
		c.TenantID, c.ClientID,
		c.Name, nullString(c.Email), nullString(c.Phone), c.Status,
		nullFloat(c.MonthlyFee), nullString(c.ContactID),
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", notFound(err, "client", c.ClientID))
	}
	return nil
}

func (r *PostgresClientsRepository) DeleteClient(ctx context.Context, tenantID, clientID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM clients WHERE tenant_id = $1 AND client_id = $2`, tenantID, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return requireAffected(res, "client", clientID)
}
