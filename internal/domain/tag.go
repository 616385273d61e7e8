package domain

// Tag 联系人标签（对应 tags 表），通过 contact_tags 关联
type Tag struct {
	TagID    string `db:"tag_id"`    // UUID, PRIMARY KEY
	TenantID string `db:"tenant_id"` // UUID, NOT NULL
	Name     string `db:"name"`      // VARCHAR(100), NOT NULL, UNIQUE(tenant_id, name)
	Color    string `db:"color"`     // VARCHAR(20), nullable（#RRGGBB）
}
