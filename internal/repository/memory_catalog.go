package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// 内存版 catalog（clients / properties / content assets / sub accounts）

type MemoryClientsRepo struct{ t *memTable[domain.Client] }

func NewMemoryClientsRepo() *MemoryClientsRepo {
	return &MemoryClientsRepo{t: newMemTable[domain.Client]()}
}

var _ ClientsRepository = (*MemoryClientsRepo)(nil)

func (r *MemoryClientsRepo) ListClients(_ context.Context, tenantID, status string) ([]*domain.Client, error) {
	rows := r.t.list(tenantID, func(c domain.Client) bool { return status == "" || c.Status == status })
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return toPtrs(rows), nil
}

func (r *MemoryClientsRepo) GetClient(_ context.Context, tenantID, clientID string) (*domain.Client, error) {
	c, ok := r.t.get(tenantID, clientID)
	if !ok {
		return nil, fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryClientsRepo) CreateClient(_ context.Context, c *domain.Client) error {
	c.ClientID = uuid.NewString()
	c.CreatedAt, c.UpdatedAt = stamp()
	r.t.put(c.TenantID, c.ClientID, *c)
	return nil
}

func (r *MemoryClientsRepo) UpdateClient(_ context.Context, c *domain.Client) error {
	old, ok := r.t.get(c.TenantID, c.ClientID)
	if !ok {
		return fmt.Errorf("client %s: %w", c.ClientID, domain.ErrNotFound)
	}
	c.CreatedAt, c.UpdatedAt = old.CreatedAt, time.Now().UTC()
	r.t.replace(c.TenantID, c.ClientID, *c)
	return nil
}

func (r *MemoryClientsRepo) DeleteClient(_ context.Context, tenantID, clientID string) error {
	if !r.t.del(tenantID, clientID) {
		return fmt.Errorf("client %s: %w", clientID, domain.ErrNotFound)
	}
	return nil
}

type MemoryPropertiesRepo struct{ t *memTable[domain.Property] }

func NewMemoryPropertiesRepo() *MemoryPropertiesRepo {
	return &MemoryPropertiesRepo{t: newMemTable[domain.Property]()}
}

var _ PropertiesRepository = (*MemoryPropertiesRepo)(nil)

func (r *MemoryPropertiesRepo) ListProperties(_ context.Context, tenantID string, filter PropertiesFilter) ([]*domain.Property, error) {
	rows := r.t.list(tenantID, func(p domain.Property) bool {
		if filter.Status != "" && p.Status != filter.Status {
			return false
		}
		if filter.City != "" && !strings.EqualFold(p.City, filter.City) {
			return false
		}
		if filter.MinPrice != nil && (p.Price == nil || *p.Price < *filter.MinPrice) {
			return false
		}
		if filter.MaxPrice != nil && (p.Price == nil || *p.Price > *filter.MaxPrice) {
			return false
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })
	return toPtrs(rows), nil
}

func (r *MemoryPropertiesRepo) GetProperty(_ context.Context, tenantID, propertyID string) (*domain.Property, error) {
	p, ok := r.t.get(tenantID, propertyID)
	if !ok {
		return nil, fmt.Errorf("property %s: %w", propertyID, domain.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryPropertiesRepo) CreateProperty(_ context.Context, p *domain.Property) error {
	p.PropertyID = uuid.NewString()
	p.CreatedAt, p.UpdatedAt = stamp()
	r.t.put(p.TenantID, p.PropertyID, *p)
	return nil
}

func (r *MemoryPropertiesRepo) UpdateProperty(_ context.Context, p *domain.Property) error {
	old, ok := r.t.get(p.TenantID, p.PropertyID)
	if !ok {
		return fmt.Errorf("property %s: %w", p.PropertyID, domain.ErrNotFound)
	}
	p.CreatedAt, p.UpdatedAt = old.CreatedAt, time.Now().UTC()
	r.t.replace(p.TenantID, p.PropertyID, *p)
	return nil
}

func (r *MemoryPropertiesRepo) DeleteProperty(_ context.Context, tenantID, propertyID string) error {
	if !r.t.del(tenantID, propertyID) {
		return fmt.Errorf("property %s: %w", propertyID, domain.ErrNotFound)
	}
	return nil
}

type MemoryContentAssetsRepo struct{ t *memTable[domain.ContentAsset] }

func NewMemoryContentAssetsRepo() *MemoryContentAssetsRepo {
	return &MemoryContentAssetsRepo{t: newMemTable[domain.ContentAsset]()}
}

var _ ContentAssetsRepository = (*MemoryContentAssetsRepo)(nil)

func (r *MemoryContentAssetsRepo) ListContentAssets(_ context.Context, tenantID, assetType, tag string) ([]*domain.ContentAsset, error) {
	rows := r.t.list(tenantID, func(a domain.ContentAsset) bool {
		if assetType != "" && a.AssetType != assetType {
			return false
		}
		if tag == "" {
			return true
		}
		for _, t := range a.Tags {
			if t == tag {
				return true
			}
		}
		return false
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].UpdatedAt.After(rows[j].UpdatedAt) })
	return toPtrs(rows), nil
}

func (r *MemoryContentAssetsRepo) GetContentAsset(_ context.Context, tenantID, assetID string) (*domain.ContentAsset, error) {
	a, ok := r.t.get(tenantID, assetID)
	if !ok {
		return nil, fmt.Errorf("content asset %s: %w", assetID, domain.ErrNotFound)
	}
	return &a, nil
}

func (r *MemoryContentAssetsRepo) CreateContentAsset(_ context.Context, a *domain.ContentAsset) error {
	a.AssetID = uuid.NewString()
	a.CreatedAt, a.UpdatedAt = stamp()
	a.Tags = append([]string{}, a.Tags...)
	r.t.put(a.TenantID, a.AssetID, *a)
	return nil
}

func (r *MemoryContentAssetsRepo) UpdateContentAsset(_ context.Context, a *domain.ContentAsset) error {
	old, ok := r.t.get(a.TenantID, a.AssetID)
	if !ok {
		return fmt.Errorf("content asset %s: %w", a.AssetID, domain.ErrNotFound)
	}
	a.CreatedAt, a.UpdatedAt = old.CreatedAt, time.Now().UTC()
	a.Tags = append([]string{}, a.Tags...)
	r.t.replace(a.TenantID, a.AssetID, *a)
	return nil
}

func (r *MemoryContentAssetsRepo) DeleteContentAsset(_ context.Context, tenantID, assetID string) error {
	if !r.t.del(tenantID, assetID) {
		return fmt.Errorf("content asset %s: %w", assetID, domain.ErrNotFound)
	}
	return nil
}

type MemorySubAccountsRepo struct{ t *memTable[domain.SubAccount] }

func NewMemorySubAccountsRepo() *MemorySubAccountsRepo {
	return &MemorySubAccountsRepo{t: newMemTable[domain.SubAccount]()}
}

var _ SubAccountsRepository = (*MemorySubAccountsRepo)(nil)

func (r *MemorySubAccountsRepo) ListSubAccounts(_ context.Context, tenantID string) ([]*domain.SubAccount, error) {
	rows := r.t.list(tenantID, nil)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Name < rows[j].Name })
	return toPtrs(rows), nil
}

func (r *MemorySubAccountsRepo) GetSubAccount(_ context.Context, tenantID, subAccountID string) (*domain.SubAccount, error) {
	s, ok := r.t.get(tenantID, subAccountID)
	if !ok {
		return nil, fmt.Errorf("sub account %s: %w", subAccountID, domain.ErrNotFound)
	}
	return &s, nil
}

func (r *MemorySubAccountsRepo) CreateSubAccount(_ context.Context, s *domain.SubAccount) error {
	s.SubAccountID = uuid.NewString()
	s.CreatedAt, s.UpdatedAt = stamp()
	r.t.put(s.TenantID, s.SubAccountID, *s)
	return nil
}

func (r *MemorySubAccountsRepo) UpdateSubAccount(_ context.Context, s *domain.SubAccount) error {
	old, ok := r.t.get(s.TenantID, s.SubAccountID)
	if !ok {
		return fmt.Errorf("sub account %s: %w", s.SubAccountID, domain.ErrNotFound)
	}
	s.CreatedAt, s.UpdatedAt = old.CreatedAt, time.Now().UTC()
	r.t.replace(s.TenantID, s.SubAccountID, *s)
	return nil
}

func (r *MemorySubAccountsRepo) DeleteSubAccount(_ context.Context, tenantID, subAccountID string) error {
	if !r.t.del(tenantID, subAccountID) {
		return fmt.Errorf("sub account %s: %w", subAccountID, domain.ErrNotFound)
	}
	return nil
}

func stamp() (created, updated time.Time) {
	now := time.Now().UTC()
	return now, now
}
