package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresContentAssetsRepository struct {
	db *sql.DB
}

func NewPostgresContentAssetsRepository(db *sql.DB) *PostgresContentAssetsRepository {
	return &PostgresContentAssetsRepository{db: db}
}

var _ ContentAssetsRepository = (*PostgresContentAssetsRepository)(nil)

const contentAssetColumns = `
	asset_id::text, tenant_id::text, title, asset_type, COALESCE(url, ''), COALESCE(body, ''),
	tags, metadata, created_at, updated_at`

func scanContentAsset(row rowScanner) (*domain.ContentAsset, error) {
	var a domain.ContentAsset
	var meta []byte
	err := row.Scan(&a.AssetID, &a.TenantID, &a.Title, &a.AssetType, &a.URL, &a.Body,
		pq.Array(&a.Tags), &meta, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if a.Tags == nil {
		a.Tags = []string{}
	}
	a.Metadata = jsonRaw(meta)
	return &a, nil
}

func (r *PostgresContentAssetsRepository) ListContentAssets(ctx context.Context, tenantID, assetType, tag string) ([]*domain.ContentAsset, error) {
	w := newWhere("tenant_id = $1", tenantID)
	if assetType != "" {
		w.add("asset_type = ?", assetType)
	}
	if tag != "" {
		w.add("? = ANY(tags)", tag)
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contentAssetColumns+` FROM content_assets WHERE `+w.String()+` ORDER BY updated_at DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list content assets: %w", err)
	}
	defer rows.Close()

	out := []*domain.ContentAsset{}
	for rows.Next() {
		a, err := scanContentAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan content asset: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate content assets: %w", err)
	}
	return out, nil
}

func (r *PostgresContentAssetsRepository) GetContentAsset(ctx context.Context, tenantID, assetID string) (*domain.ContentAsset, error) {
	a, err := scanContentAsset(r.db.QueryRowContext(ctx,
		`SELECT `+contentAssetColumns+` FROM content_assets WHERE tenant_id = $1 AND asset_id = $2`, tenantID, assetID))
	if err != nil {
		return nil, fmt.Errorf("failed to get content asset: %w", notFound(err, "content asset", assetID))
	}
	return a, nil
}

func (r *PostgresContentAssetsRepository) CreateContentAsset(ctx context.Context, a *domain.ContentAsset) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO content_assets (tenant_id, title, asset_type, url, body, tags, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING asset_id::text, created_at, updated_at`,
		a.TenantID, a.Title, a.AssetType, nullString(a.URL), nullString(a.Body),
		pq.Array(a.Tags), jsonOrNull(a.Metadata),
	).Scan(&a.AssetID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create content asset: %w", err)
	}
	return nil
}

func (r *PostgresContentAssetsRepository) UpdateContentAsset(ctx context.Context, a *domain.ContentAsset) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE content_assets SET
			title = $3, asset_type = $4, url = $5, body = $6, tags = $7, metadata = $8,
			updated_at = now()
		WHERE tenant_id = $1 AND asset_id = $2
		RETURNING updated_at`,
		a.TenantID, a.AssetID,
		a.Title, a.AssetType, nullString(a.URL), nullString(a.Body),
		pq.Array(a.Tags), jsonOrNull(a.Metadata),
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update content asset: %w", notFound(err, "content asset", a.AssetID))
	}
	return nil
}

func (r *PostgresContentAssetsRepository) DeleteContentAsset(ctx context.Context, tenantID, assetID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_assets WHERE tenant_id = $1 AND asset_id = $2`, tenantID, assetID)
	if err != nil {
		return fmt.Errorf("failed to delete content asset: %w", err)
	}
	return requireAffected(res, "content asset", assetID)
}
