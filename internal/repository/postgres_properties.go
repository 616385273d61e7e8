package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresPropertiesRepository struct {
	db *sql.DB
}

func NewPostgresPropertiesRepository(db *sql.DB) *PostgresPropertiesRepository {
	return &PostgresPropertiesRepository{db: db}
}

var _ PropertiesRepository = (*PostgresPropertiesRepository)(nil)

const propertyColumns = `
	property_id::text, tenant_id::text, title, COALESCE(address, ''), COALESCE(city, ''),
	price, bedrooms, bathrooms, status, COALESCE(contact_id::text, ''), created_at, updated_at`

func scanProperty(row rowScanner) (*domain.Property, error) {
	var p domain.Property
	var price, baths sql.NullFloat64
	var beds sql.NullInt64
	err := row.Scan(&p.PropertyID, &p.TenantID, &p.Title, &p.Address, &p.City,
		&price, &beds, &baths, &p.Status, &p.ContactID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Price = floatPtr(price)
	p.Bathrooms = floatPtr(baths)
	if beds.Valid {
		n := int(beds.Int64)
		p.Bedrooms = &n
	}
	return &p, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (r *PostgresPropertiesRepository) ListProperties(ctx context.Context, tenantID string, filter PropertiesFilter) ([]*domain.Property, error) {
	w := newWhere("tenant_id = $1", tenantID)
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.City != "" {
		w.add("city ILIKE ?", filter.City)
	}
	if filter.MinPrice != nil {
		w.add("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		w.add("price <= ?", *filter.MaxPrice)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE `+w.String()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	out := []*domain.Property{}
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate properties: %w", err)
	}
	return out, nil
}

func (r *PostgresPropertiesRepository) GetProperty(ctx context.Context, tenantID, propertyID string) (*domain.Property, error) {
	p, err := scanProperty(r.db.QueryRowContext(ctx,
		`SELECT `+propertyColumns+` FROM properties WHERE tenant_id = $1 AND property_id = $2`, tenantID, propertyID))
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", notFound(err, "property", propertyID))
	}
	return p, nil
}

func (r *PostgresPropertiesRepository) CreateProperty(ctx context.Context, p *domain.Property) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO properties (tenant_id, title, address, city, price, bedrooms, bathrooms, status, contact_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING property_id::text, created_at, updated_at`,
		p.TenantID, p.Title, nullString(p.Address), nullString(p.City),
		nullFloat(p.Price), nullInt(p.Bedrooms), nullFloat(p.Bathrooms), p.Status, nullString(p.ContactID),
	).Scan(&p.PropertyID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create property: %w", err)
	}
	return nil
}

func (r *PostgresPropertiesRepository) UpdateProperty(ctx context.Context, p *domain.Property) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE properties SET
			title = $3, address = $4, city = $5, price = $6, bedrooms = $7, bathrooms = $8,
			status = $9, contact_id = $10, updated_at = now()
		WHERE tenant_id = $1 AND property_id = $2
		RETURNING updated_at`,
		p.TenantID, p.PropertyID,
		p.Title, nullString(p.Address), nullString(p.City),
		nullFloat(p.Price), nullInt(p.Bedrooms), nullFloat(p.Bathrooms), p.Status, nullString(p.ContactID),
	).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", notFound(err, "property", p.PropertyID))
	}
	return nil
}

func (r *PostgresPropertiesRepository) DeleteProperty(ctx context.Context, tenantID, propertyID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM properties WHERE tenant_id = $1 AND property_id = $2`, tenantID, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
	}
	return requireAffected(res, "property", propertyID)
}
