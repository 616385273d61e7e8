package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// PostgresPipelinesRepository stages 存为 TEXT[]，用 pq.Array 读写
type PostgresPipelinesRepository struct {
	db *sql.DB
}

func NewPostgresPipelinesRepository(db *sql.DB) *PostgresPipelinesRepository {
	return &PostgresPipelinesRepository{db: db}
}

var _ PipelinesRepository = (*PostgresPipelinesRepository)(nil)

const pipelineColumns = `pipeline_id::text, tenant_id::text, name, stages, created_at, updated_at`

func scanPipeline(row rowScanner) (*domain.Pipeline, error) {
	var p domain.Pipeline
	if err := row.Scan(&p.PipelineID, &p.TenantID, &p.Name, pq.Array(&p.Stages), &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.Stages == nil {
		p.Stages = []string{}
	}
	return &p, nil
}

func (r *PostgresPipelinesRepository) GetPipeline(ctx context.Context, tenantID, pipelineID string) (*domain.Pipeline, error) {
	query := `SELECT ` + pipelineColumns + ` FROM pipelines WHERE tenant_id = $1 AND pipeline_id = $2`
	p, err := scanPipeline(r.db.QueryRowContext(ctx, query, tenantID, pipelineID))
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline: %w", notFound(err, "pipeline", pipelineID))
	}
	return p, nil
}

func (r *PostgresPipelinesRepository) ListPipelines(ctx context.Context, tenantID string) ([]*domain.Pipeline, error) {
	query := `SELECT ` + pipelineColumns + ` FROM pipelines WHERE tenant_id = $1 ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipelines: %w", err)
	}
	defer rows.Close()

	out := []*domain.Pipeline{}
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pipeline: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pipelines: %w", err)
	}
	return out, nil
}

func (r *PostgresPipelinesRepository) CreatePipeline(ctx context.Context, p *domain.Pipeline) error {
	query := `
		INSERT INTO pipelines (tenant_id, name, stages)
		VALUES ($1, $2, $3)
		RETURNING pipeline_id::text, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, p.TenantID, p.Name, pq.Array(p.Stages)).
		Scan(&p.PipelineID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	return nil
}

func (r *PostgresPipelinesRepository) UpdatePipeline(ctx context.Context, p *domain.Pipeline) error {
	query := `
		UPDATE pipelines SET name = $3, stages = $4, updated_at = now()
		WHERE tenant_id = $1 AND pipeline_id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, p.TenantID, p.PipelineID, p.Name, pq.Array(p.Stages)).Scan(&p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update pipeline: %w", notFound(err, "pipeline", p.PipelineID))
	}
	return nil
}

func (r *PostgresPipelinesRepository) DeletePipeline(ctx context.Context, tenantID, pipelineID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pipelines WHERE tenant_id = $1 AND pipeline_id = $2`, tenantID, pipelineID)
	if err != nil {
		return fmt.Errorf("failed to delete pipeline: %w", err)
	}
	return requireAffected(res, "pipeline", pipelineID)
}
