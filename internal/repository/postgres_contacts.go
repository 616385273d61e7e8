package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// PostgresContactsRepository 联系人Repository实现
type PostgresContactsRepository struct {
	db *sql.DB
}

func NewPostgresContactsRepository(db *sql.DB) *PostgresContactsRepository {
	return &PostgresContactsRepository{db: db}
}

var _ ContactsRepository = (*PostgresContactsRepository)(nil)

const contactColumns = `
	contact_id::text,
	tenant_id::text,
	name,
	COALESCE(email, ''),
	COALESCE(phone, ''),
	COALESCE(business_name, ''),
	COALESCE(owner, ''),
	COALESCE(source, ''),
	COALESCE(linkedin, ''),
	COALESCE(notes, ''),
	COALESCE(lead_score, ''),
	last_contacted_at,
	created_at,
	updated_at`

func scanContact(row rowScanner) (*domain.Contact, error) {
	var c domain.Contact
	var lastContacted sql.NullTime
	err := row.Scan(
		&c.ContactID,
		&c.TenantID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.BusinessName,
		&c.Owner,
		&c.Source,
		&c.LinkedIn,
		&c.Notes,
		&c.LeadScore,
		&lastContacted,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.LastContactedAt = timePtr(lastContacted)
	return &c, nil
}

func (r *PostgresContactsRepository) GetContact(ctx context.Context, tenantID, contactID string) (*domain.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE tenant_id = $1 AND contact_id = $2`
	c, err := scanContact(r.db.QueryRowContext(ctx, query, tenantID, contactID))
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", notFound(err, "contact", contactID))
	}
	return c, nil
}

func (r *PostgresContactsRepository) ListContacts(ctx context.Context, tenantID string, filter ContactsFilter, page, size int) ([]*domain.Contact, int, error) {
	if tenantID == "" {
		return nil, 0, fmt.Errorf("tenant_id is required")
	}

	w := newWhere("tenant_id = $1", tenantID)
	if filter.Search != "" {
		w.add("(name ILIKE ? OR email ILIKE ? OR business_name ILIKE ?)", "%"+filter.Search+"%")
	}
	if filter.Owner != "" {
		w.add("owner = ?", filter.Owner)
	}
	if filter.LeadScore != "" {
		w.add("lead_score = ?", filter.LeadScore)
	}
	if filter.Source != "" {
		w.add("source = ?", filter.Source)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM contacts WHERE ` + w.String()
	if err := r.db.QueryRowContext(ctx, countQuery, w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE ` + w.String() + ` ORDER BY created_at DESC`
	args := w.args
	if limit, offset := normalizePage(page, size); limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*domain.Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate contacts: %w", err)
	}
	return contacts, total, nil
}

const insertContactSQL = `
	INSERT INTO contacts (
		tenant_id, name, email, phone, business_name, owner, source, linkedin, notes, lead_score, last_contacted_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING contact_id::text, created_at, updated_at`

func contactInsertArgs(c *domain.Contact) []any {
	return []any{
		c.TenantID,
		c.Name,
		nullString(c.Email),
		nullString(c.Phone),
		nullString(c.BusinessName),
		nullString(c.Owner),
		nullString(c.Source),
		nullString(c.LinkedIn),
		nullString(c.Notes),
		nullString(c.LeadScore),
		nullTime(c.LastContactedAt),
	}
}

func (r *PostgresContactsRepository) CreateContact(ctx context.Context, c *domain.Contact) error {
	err := r.db.QueryRowContext(ctx, insertContactSQL, contactInsertArgs(c)...).
		Scan(&c.ContactID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

func (r *PostgresContactsRepository) BulkCreateContacts(ctx context.Context, tenantID string, contacts []*domain.Contact) (int, error) {
	if len(contacts) == 0 {
		return 0, nil
	}
	inserted := 0
	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insertContactSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare contact insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range contacts {
			c.TenantID = tenantID
			if err := stmt.QueryRowContext(ctx, contactInsertArgs(c)...).Scan(&c.ContactID, &c.CreatedAt, &c.UpdatedAt); err != nil {
				return fmt.Errorf("failed to insert contact row %d: %w", i+1, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (r *PostgresContactsRepository) UpdateContact(ctx context.Context, c *domain.Contact) error {
	query := `
		UPDATE contacts SET
			name = $3, email = $4, phone = $5, business_name = $6, owner = $7,
			source = $8, linkedin = $9, notes = $10, lead_score = $11,
			updated_at = now()
		WHERE tenant_id = $1 AND contact_id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		c.TenantID, c.ContactID,
		c.Name,
		nullString(c.Email),
		nullString(c.Phone),
		nullString(c.BusinessName),
		nullString(c.Owner),
		nullString(c.Source),
		nullString(c.LinkedIn),
		nullString(c.Notes),
		nullString(c.LeadScore),
	).Scan(&c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", notFound(err, "contact", c.ContactID))
	}
	return nil
}

func (r *PostgresContactsRepository) DeleteContact(ctx context.Context, tenantID, contactID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE tenant_id = $1 AND contact_id = $2`, tenantID, contactID)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return requireAffected(res, "contact", contactID)
}

func (r *PostgresContactsRepository) TouchLastContacted(ctx context.Context, tenantID, contactID string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, touchContactSQL, tenantID, contactID, at)
	if err != nil {
		return fmt.Errorf("failed to touch contact: %w", err)
	}
	return requireAffected(res, "contact", contactID)
}

// touchContactSQL 只向前推进 last_contacted_at，补录的旧 activity 不会回退
const touchContactSQL = `
	UPDATE contacts SET last_contacted_at = GREATEST(COALESCE(last_contacted_at, $3), $3), updated_at = now()
	WHERE tenant_id = $1 AND contact_id = $2`
