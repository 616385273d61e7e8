package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

var (
	clientStatuses   = map[string]bool{"active": true, "paused": true, "churned": true}
	propertyStatuses = map[string]bool{"available": true, "under_offer": true, "sold": true, "off_market": true}
	assetTypes       = map[string]bool{"script": true, "email_template": true, "document": true, "video": true, "image": true}
)

// CatalogService 客户、房源、内容库的简单 CRUD
type CatalogService struct {
	clients    repository.ClientsRepository
	properties repository.PropertiesRepository
	assets     repository.ContentAssetsRepository
	logger     *zap.Logger
}

func NewCatalogService(clients repository.ClientsRepository, properties repository.PropertiesRepository, assets repository.ContentAssetsRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{clients: clients, properties: properties, assets: assets, logger: logger}
}

// ClientItem 客户
type ClientItem struct {
	ClientID   string    `json:"client_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	Status     string    `json:"status"`
	MonthlyFee *float64  `json:"monthly_fee,omitempty"`
	ContactID  string    `json:"contact_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toClientItem(c *domain.Client) ClientItem {
	return ClientItem{
		ClientID:   c.ClientID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Status:     c.Status,
		MonthlyFee: c.MonthlyFee,
		ContactID:  c.ContactID,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

// ClientRequest 新建/更新客户
type ClientRequest struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Status     string   `json:"status"`
	MonthlyFee *float64 `json:"monthly_fee"`
	ContactID  string   `json:"contact_id"`
}

func (r *ClientRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalid("client name is required")
	}
	if r.Status == "" {
		r.Status = "active"
	}
	if !clientStatuses[r.Status] {
		return invalid("invalid client status %q", r.Status)
	}
	if r.MonthlyFee != nil && *r.MonthlyFee < 0 {
		return invalid("monthly_fee must not be negative")
	}
	return nil
}

func (r ClientRequest) apply(c *domain.Client) {
	c.Name = r.Name
	c.Email = strings.TrimSpace(r.Email)
	c.Phone = r.Phone
	c.Status = r.Status
	c.MonthlyFee = r.MonthlyFee
	c.ContactID = r.ContactID
}

func (s *CatalogService) ListClients(ctx context.Context, tenantID, status string) ([]ClientItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.clients.ListClients(ctx, tenantID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	items := make([]ClientItem, 0, len(list))
	for _, c := range list {
		items = append(items, toClientItem(c))
	}
	return items, nil
}

func (s *CatalogService) GetClient(ctx context.Context, tenantID, clientID string) (*ClientItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	c, err := s.clients.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	item := toClientItem(c)
	return &item, nil
}

func (s *CatalogService) CreateClient(ctx context.Context, tenantID string, req ClientRequest) (*ClientItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	c := &domain.Client{TenantID: tenantID}
	req.apply(c)
	if err := s.clients.CreateClient(ctx, c); err != nil {
		return nil, err
	}
	item := toClientItem(c)
	return &item, nil
}

func (s *CatalogService) UpdateClient(ctx context.Context, tenantID, clientID string, req ClientRequest) (*ClientItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	c, err := s.clients.GetClient(ctx, tenantID, clientID)
	if err != nil {
		return nil, err
	}
	req.apply(c)
	if err := s.clients.UpdateClient(ctx, c); err != nil {
		return nil, err
	}
	item := toClientItem(c)
	return &item, nil
}

func (s *CatalogService) DeleteClient(ctx context.Context, tenantID, clientID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.clients.DeleteClient(ctx, tenantID, clientID)
}

// PropertyItem 房源
type PropertyItem struct {
	PropertyID string    `json:"property_id"`
	Title      string    `json:"title"`
	Address    string    `json:"address,omitempty"`
	City       string    `json:"city,omitempty"`
	Price      *float64  `json:"price,omitempty"`
	Bedrooms   *int      `json:"bedrooms,omitempty"`
	Bathrooms  *float64  `json:"bathrooms,omitempty"`
	Status     string    `json:"status"`
	ContactID  string    `json:"contact_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toPropertyItem(p *domain.Property) PropertyItem {
	return PropertyItem{
		PropertyID: p.PropertyID,
		Title:      p.Title,
		Address:    p.Address,
		City:       p.City,
		Price:      p.Price,
		Bedrooms:   p.Bedrooms,
		Bathrooms:  p.Bathrooms,
		Status:     p.Status,
		ContactID:  p.ContactID,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// PropertyRequest 新建/更新房源
type PropertyRequest struct {
	Title     string   `json:"title"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Price     *float64 `json:"price"`
	Bedrooms  *int     `json:"bedrooms"`
	Bathrooms *float64 `json:"bathrooms"`
	Status    string   `json:"status"`
	ContactID string   `json:"contact_id"`
}

func (r *PropertyRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return invalid("property title is required")
	}
	if r.Status == "" {
		r.Status = "available"
	}
	if !propertyStatuses[r.Status] {
		return invalid("invalid property status %q", r.Status)
	}
	if r.Price != nil && *r.Price < 0 {
		return invalid("price must not be negative")
	}
	if r.Bedrooms != nil && *r.Bedrooms < 0 {
		return invalid("bedrooms must not be negative")
	}
	return nil
}

func (r PropertyRequest) apply(p *domain.Property) {
	p.Title = r.Title
	p.Address = r.Address
	p.City = strings.TrimSpace(r.City)
	p.Price = r.Price
	p.Bedrooms = r.Bedrooms
	p.Bathrooms = r.Bathrooms
	p.Status = r.Status
	p.ContactID = r.ContactID
}

func (s *CatalogService) ListProperties(ctx context.Context, tenantID string, filter repository.PropertiesFilter) ([]PropertyItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MaxPrice < *filter.MinPrice {
		return nil, invalid("max_price must not be below min_price")
	}
	list, err := s.properties.ListProperties(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	items := make([]PropertyItem, 0, len(list))
	for _, p := range list {
		items = append(items, toPropertyItem(p))
	}
	return items, nil
}

func (s *CatalogService) GetProperty(ctx context.Context, tenantID, propertyID string) (*PropertyItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	p, err := s.properties.GetProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	item := toPropertyItem(p)
	return &item, nil
}

func (s *CatalogService) CreateProperty(ctx context.Context, tenantID string, req PropertyRequest) (*PropertyItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	p := &domain.Property{TenantID: tenantID}
	req.apply(p)
	if err := s.properties.CreateProperty(ctx, p); err != nil {
		return nil, err
	}
	item := toPropertyItem(p)
	return &item, nil
}

func (s *CatalogService) UpdateProperty(ctx context.Context, tenantID, propertyID string, req PropertyRequest) (*PropertyItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	p, err := s.properties.GetProperty(ctx, tenantID, propertyID)
	if err != nil {
		return nil, err
	}
	req.apply(p)
	if err := s.properties.UpdateProperty(ctx, p); err != nil {
		return nil, err
	}
	item := toPropertyItem(p)
	return &item, nil
}

func (s *CatalogService) DeleteProperty(ctx context.Context, tenantID, propertyID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.properties.DeleteProperty(ctx, tenantID, propertyID)
}

// ContentAssetItem 内容库条目
type ContentAssetItem struct {
	AssetID   string          `json:"asset_id"`
	Title     string          `json:"title"`
	AssetType string          `json:"asset_type"`
	URL       string          `json:"url,omitempty"`
	Body      string          `json:"body,omitempty"`
	Tags      []string        `json:"tags"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toContentAssetItem(a *domain.ContentAsset) ContentAssetItem {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	return ContentAssetItem{
		AssetID:   a.AssetID,
		Title:     a.Title,
		AssetType: a.AssetType,
		URL:       a.URL,
		Body:      a.Body,
		Tags:      tags,
		Metadata:  a.Metadata,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// ContentAssetRequest 新建/更新内容
type ContentAssetRequest struct {
	Title     string          `json:"title"`
	AssetType string          `json:"asset_type"`
	URL       string          `json:"url"`
	Body      string          `json:"body"`
	Tags      []string        `json:"tags"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (r *ContentAssetRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return invalid("asset title is required")
	}
	if !assetTypes[r.AssetType] {
		return invalid("invalid asset_type %q", r.AssetType)
	}
	if len(r.Metadata) > 0 && !json.Valid(r.Metadata) {
		return invalid("metadata is not valid JSON")
	}
	tags := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	r.Tags = tags
	return nil
}

func (r ContentAssetRequest) apply(a *domain.ContentAsset) {
	a.Title = r.Title
	a.AssetType = r.AssetType
	a.URL = r.URL
	a.Body = r.Body
	a.Tags = r.Tags
	a.Metadata = r.Metadata
}

func (s *CatalogService) ListContentAssets(ctx context.Context, tenantID, assetType, tag string) ([]ContentAssetItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.assets.ListContentAssets(ctx, tenantID, assetType, tag)
	if err != nil {
		return nil, fmt.Errorf("failed to list content assets: %w", err)
	}
	items := make([]ContentAssetItem, 0, len(list))
	for _, a := range list {
		items = append(items, toContentAssetItem(a))
	}
	return items, nil
}

func (s *CatalogService) GetContentAsset(ctx context.Context, tenantID, assetID string) (*ContentAssetItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	a, err := s.assets.GetContentAsset(ctx, tenantID, assetID)
	if err != nil {
		return nil, err
	}
	item := toContentAssetItem(a)
	return &item, nil
}

func (s *CatalogService) CreateContentAsset(ctx context.Context, tenantID string, req ContentAssetRequest) (*ContentAssetItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	a := &domain.ContentAsset{TenantID: tenantID}
	req.apply(a)
	if err := s.assets.CreateContentAsset(ctx, a); err != nil {
		return nil, err
	}
	item := toContentAssetItem(a)
	return &item, nil
}

func (s *CatalogService) UpdateContentAsset(ctx context.Context, tenantID, assetID string, req ContentAssetRequest) (*ContentAssetItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	a, err := s.assets.GetContentAsset(ctx, tenantID, assetID)
	if err != nil {
		return nil, err
	}
	req.apply(a)
	if err := s.assets.UpdateContentAsset(ctx, a); err != nil {
		return nil, err
	}
	item := toContentAssetItem(a)
	return &item, nil
}

func (s *CatalogService) DeleteContentAsset(ctx context.Context, tenantID, assetID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.assets.DeleteContentAsset(ctx, tenantID, assetID)
}
