package domain

import (
	"encoding/json"
	"time"
)

// Setting 租户级配置项（对应 settings 表），value 为 JSONB
type Setting struct {
	TenantID  string          `db:"tenant_id"`  // UUID, NOT NULL
	Key       string          `db:"key"`        // VARCHAR(100), PRIMARY KEY(tenant_id, key)
	Value     json.RawMessage `db:"value"`      // JSONB, NOT NULL
	UpdatedAt time.Time       `db:"updated_at"` // TIMESTAMPTZ, NOT NULL
}
