package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

// SubAccountService 子账户管理
type SubAccountService struct {
	subAccounts repository.SubAccountsRepository
	logger      *zap.Logger
}

func NewSubAccountService(subAccounts repository.SubAccountsRepository, logger *zap.Logger) *SubAccountService {
	return &SubAccountService{subAccounts: subAccounts, logger: logger}
}

// SubAccountItem 子账户
type SubAccountItem struct {
	SubAccountID string    `json:"sub_account_id"`
	Name         string    `json:"name"`
	Domain       string    `json:"domain,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toSubAccountItem(s *domain.SubAccount) SubAccountItem {
	return SubAccountItem{
		SubAccountID: s.SubAccountID,
		Name:         s.Name,
		Domain:       s.Domain,
		Status:       s.Status,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// SubAccountRequest 新建/更新
type SubAccountRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
	Status string `json:"status"`
}

func (r *SubAccountRequest) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return invalid("sub-account name is required")
	}
	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	if strings.ContainsAny(r.Domain, " /:") {
		return invalid("domain must be a bare host name")
	}
	if r.Status == "" {
		r.Status = "active"
	}
	if r.Status != "active" && r.Status != "suspended" {
		return invalid("status must be active or suspended")
	}
	return nil
}

func (s *SubAccountService) ListSubAccounts(ctx context.Context, tenantID string) ([]SubAccountItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.subAccounts.ListSubAccounts(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-accounts: %w", err)
	}
	items := make([]SubAccountItem, 0, len(list))
	for _, sa := range list {
		items = append(items, toSubAccountItem(sa))
	}
	return items, nil
}

func (s *SubAccountService) GetSubAccount(ctx context.Context, tenantID, subAccountID string) (*SubAccountItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	sa, err := s.subAccounts.GetSubAccount(ctx, tenantID, subAccountID)
	if err != nil {
		return nil, err
	}
	item := toSubAccountItem(sa)
	return &item, nil
}

// CreateSubAccount domain 全局唯一，重复返回 ErrValidation
func (s *SubAccountService) CreateSubAccount(ctx context.Context, tenantID string, req SubAccountRequest) (*SubAccountItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	sa := &domain.SubAccount{TenantID: tenantID, Name: req.Name, Domain: req.Domain, Status: req.Status}
	if err := s.subAccounts.CreateSubAccount(ctx, sa); err != nil {
		return nil, err
	}
	s.logger.Info("Sub-account created", zap.String("tenant_id", tenantID), zap.String("sub_account_id", sa.SubAccountID))
	item := toSubAccountItem(sa)
	return &item, nil
}

func (s *SubAccountService) UpdateSubAccount(ctx context.Context, tenantID, subAccountID string, req SubAccountRequest) (*SubAccountItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	sa, err := s.subAccounts.GetSubAccount(ctx, tenantID, subAccountID)
	if err != nil {
		return nil, err
	}
	sa.Name = req.Name
	sa.Domain = req.Domain
	sa.Status = req.Status
	if err := s.subAccounts.UpdateSubAccount(ctx, sa); err != nil {
		return nil, err
	}
	item := toSubAccountItem(sa)
	return &item, nil
}

func (s *SubAccountService) DeleteSubAccount(ctx context.Context, tenantID, subAccountID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.subAccounts.DeleteSubAccount(ctx, tenantID, subAccountID)
}
