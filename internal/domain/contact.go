package domain

import "time"

// Contact 联系人领域模型（对应 contacts 表）
type Contact struct {
	ContactID string `db:"contact_id"` // UUID, PRIMARY KEY
	TenantID  string `db:"tenant_id"`  // UUID, NOT NULL

	Name         string `db:"name"`          // VARCHAR(200), NOT NULL
	Email        string `db:"email"`         // VARCHAR(255), nullable
	Phone        string `db:"phone"`         // VARCHAR(50), nullable
	BusinessName string `db:"business_name"` // VARCHAR(200), nullable
	Owner        string `db:"owner"`         // VARCHAR(100), nullable
	Source       string `db:"source"`        // VARCHAR(100), nullable（manual, csv, referral ...）
	LinkedIn     string `db:"linkedin"`      // VARCHAR(255), nullable
	Notes        string `db:"notes"`         // TEXT, nullable

	// 存储的分类（hot/warm/cold），与计算出来的 lead score 分数互相独立
	LeadScore string `db:"lead_score"` // VARCHAR(10), nullable

	LastContactedAt *time.Time `db:"last_contacted_at"` // TIMESTAMPTZ, nullable（记录 activity 时更新）
	CreatedAt       time.Time  `db:"created_at"`        // TIMESTAMPTZ, NOT NULL, DEFAULT now()
	UpdatedAt       time.Time  `db:"updated_at"`        // TIMESTAMPTZ, NOT NULL, DEFAULT now()
}

// LeadCategory 存储的线索分类
type LeadCategory string

const (
	LeadCategoryHot  LeadCategory = "hot"
	LeadCategoryWarm LeadCategory = "warm"
	LeadCategoryCold LeadCategory = "cold"
)

// IsValidLeadCategory 空值视为未分类，合法
func IsValidLeadCategory(v string) bool {
	switch LeadCategory(v) {
	case "", LeadCategoryHot, LeadCategoryWarm, LeadCategoryCold:
		return true
	}
	return false
}
