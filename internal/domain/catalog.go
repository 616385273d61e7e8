package domain

import (
	"encoding/json"
	"time"
)

// Client 代理机构的客户（对应 clients 表）
type Client struct {
	ClientID    string    `db:"client_id"`
	TenantID    string    `db:"tenant_id"`
	Name        string    `db:"name"`         // NOT NULL
	Email       string    `db:"email"`        // nullable
	Phone       string    `db:"phone"`        // nullable
	Status      string    `db:"status"`       // NOT NULL, DEFAULT 'active'（active/paused/churned）
	MonthlyFee  *float64  `db:"monthly_fee"`  // NUMERIC(12,2), nullable
	ContactID   string    `db:"contact_id"`   // nullable（从联系人转化而来）
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Property 房源（对应 properties 表）
type Property struct {
	PropertyID string    `db:"property_id"`
	TenantID   string    `db:"tenant_id"`
	Title      string    `db:"title"`     // NOT NULL
	Address    string    `db:"address"`   // nullable
	City       string    `db:"city"`      // nullable
	Price      *float64  `db:"price"`     // NUMERIC(14,2), nullable
	Bedrooms   *int      `db:"bedrooms"`  // nullable
	Bathrooms  *float64  `db:"bathrooms"` // nullable
	Status     string    `db:"status"`    // NOT NULL, DEFAULT 'available'（available/under_offer/sold/off_market）
	ContactID  string    `db:"contact_id"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ContentAsset 内容库条目（对应 content_assets 表）
type ContentAsset struct {
	AssetID   string          `db:"asset_id"`
	TenantID  string          `db:"tenant_id"`
	Title     string          `db:"title"`      // NOT NULL
	AssetType string          `db:"asset_type"` // NOT NULL（script, email_template, document, video, image）
	URL       string          `db:"url"`        // nullable
	Body      string          `db:"body"`       // TEXT, nullable
	Tags      []string        `db:"tags"`       // TEXT[], DEFAULT '{}'
	Metadata  json.RawMessage `db:"metadata"`   // JSONB, nullable
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// SubAccount 子账户（对应 sub_accounts 表）：代理机构为其客户开的独立工作区
type SubAccount struct {
	SubAccountID string    `db:"sub_account_id"`
	TenantID     string    `db:"tenant_id"` // 所属父租户
	Name         string    `db:"name"`      // NOT NULL
	Domain       string    `db:"domain"`    // nullable
	Status       string    `db:"status"`    // NOT NULL, DEFAULT 'active'（active/suspended）
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
