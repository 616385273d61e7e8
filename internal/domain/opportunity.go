package domain

import "time"

// Opportunity 商机（对应 opportunities 表）：contact × pipeline × stage
// 每个 contact 全局只应有一条 opportunity（由 bulk assign 的先删后插保证，schema 不强制）
type Opportunity struct {
	OpportunityID string `db:"opportunity_id"` // UUID, PRIMARY KEY
	TenantID      string `db:"tenant_id"`      // UUID, NOT NULL
	ContactID     string `db:"contact_id"`     // UUID, NOT NULL, FK to contacts
	PipelineID    string `db:"pipeline_id"`    // UUID, NOT NULL, FK to pipelines
	Stage         string `db:"stage"`          // VARCHAR(100), NOT NULL（应属于 pipeline.stages）

	Value            *float64   `db:"value"`               // NUMERIC(14,2), nullable
	Owner            string     `db:"owner"`               // VARCHAR(100), nullable
	NextFollowUpDate *time.Time `db:"next_follow_up_date"` // DATE, nullable

	CreatedAt      time.Time `db:"created_at"`       // TIMESTAMPTZ, NOT NULL
	UpdatedAt      time.Time `db:"updated_at"`       // TIMESTAMPTZ, NOT NULL
	StageChangedAt time.Time `db:"stage_changed_at"` // TIMESTAMPTZ, NOT NULL
}
