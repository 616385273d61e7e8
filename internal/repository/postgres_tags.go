package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/common/database"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// PostgresTagsRepository 标签Repository实现
type PostgresTagsRepository struct {
	db *sql.DB
}

func NewPostgresTagsRepository(db *sql.DB) *PostgresTagsRepository {
	return &PostgresTagsRepository{db: db}
}

var _ TagsRepository = (*PostgresTagsRepository)(nil)

func (r *PostgresTagsRepository) queryTags(ctx context.Context, query string, args ...any) ([]*domain.Tag, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	tags := []*domain.Tag{}
	for rows.Next() {
		var t domain.Tag
		if err := rows.Scan(&t.TagID, &t.TenantID, &t.Name, &t.Color); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

func (r *PostgresTagsRepository) ListTags(ctx context.Context, tenantID string) ([]*domain.Tag, error) {
	return r.queryTags(ctx, `
		SELECT tag_id::text, tenant_id::text, name, COALESCE(color, '')
		FROM tags
		WHERE tenant_id = $1
		ORDER BY name`, tenantID)
}

func (r *PostgresTagsRepository) GetTag(ctx context.Context, tenantID, tagID string) (*domain.Tag, error) {
	var t domain.Tag
	err := r.db.QueryRowContext(ctx, `
		SELECT tag_id::text, tenant_id::text, name, COALESCE(color, '')
		FROM tags
		WHERE tenant_id = $1 AND tag_id = $2`, tenantID, tagID).
		Scan(&t.TagID, &t.TenantID, &t.Name, &t.Color)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", notFound(err, "tag", tagID))
	}
	return &t, nil
}

func (r *PostgresTagsRepository) CreateTag(ctx context.Context, t *domain.Tag) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO tags (tenant_id, name, color) VALUES ($1, $2, $3) RETURNING tag_id::text`,
		t.TenantID, t.Name, nullString(t.Color),
	).Scan(&t.TagID)
	if uniqueViolation(err) {
		return fmt.Errorf("tag %q already exists: %w", t.Name, domain.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	return nil
}

func (r *PostgresTagsRepository) DeleteTag(ctx context.Context, tenantID, tagID string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contact_tags WHERE tenant_id = $1 AND tag_id = $2`, tenantID, tagID); err != nil {
			return fmt.Errorf("failed to delete contact tags: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE tenant_id = $1 AND tag_id = $2`, tenantID, tagID)
		if err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		return requireAffected(res, "tag", tagID)
	})
}

func (r *PostgresTagsRepository) AddTagToContact(ctx context.Context, tenantID, contactID, tagID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_tags (tenant_id, contact_id, tag_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (contact_id, tag_id) DO NOTHING`, tenantID, contactID, tagID)
	if err != nil {
		return fmt.Errorf("failed to tag contact: %w", err)
	}
	return nil
}

func (r *PostgresTagsRepository) RemoveTagFromContact(ctx context.Context, tenantID, contactID, tagID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM contact_tags WHERE tenant_id = $1 AND contact_id = $2 AND tag_id = $3`,
		tenantID, contactID, tagID)
	if err != nil {
		return fmt.Errorf("failed to untag contact: %w", err)
	}
	return nil
}

func (r *PostgresTagsRepository) ListContactTags(ctx context.Context, tenantID, contactID string) ([]*domain.Tag, error) {
	return r.queryTags(ctx, `
		SELECT t.tag_id::text, t.tenant_id::text, t.name, COALESCE(t.color, '')
		FROM contact_tags ct
		JOIN tags t ON t.tag_id = ct.tag_id
		WHERE ct.tenant_id = $1 AND ct.contact_id = $2
		ORDER BY t.name`, tenantID, contactID)
}
