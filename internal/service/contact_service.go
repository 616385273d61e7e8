package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/events"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/scoring"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/store"
)

// ContactService 联系人服务
type ContactService struct {
	contacts      repository.ContactsRepository
	activities    repository.ActivitiesRepository
	appointments  repository.AppointmentsRepository
	opportunities repository.OpportunitiesRepository
	tags          repository.TagsRepository
	kv            store.KV
	publisher     events.Publisher
	logger        *zap.Logger

	previewTTL time.Duration
	now        func() time.Time
}

// ContactRepos ContactService 依赖的 repository 集合
type ContactRepos struct {
	Contacts      repository.ContactsRepository
	Activities    repository.ActivitiesRepository
	Appointments  repository.AppointmentsRepository
	Opportunities repository.OpportunitiesRepository
	Tags          repository.TagsRepository
}

// NewContactService previewTTL 为导入预览在 KV 中的保留时间
func NewContactService(repos ContactRepos, kv store.KV, publisher events.Publisher, previewTTL time.Duration, logger *zap.Logger) *ContactService {
	if previewTTL <= 0 {
		previewTTL = 30 * time.Minute
	}
	return &ContactService{
		contacts:      repos.Contacts,
		activities:    repos.Activities,
		appointments:  repos.Appointments,
		opportunities: repos.Opportunities,
		tags:          repos.Tags,
		kv:            kv,
		publisher:     publisher,
		logger:        logger,
		previewTTL:    previewTTL,
		now:           utcNow,
	}
}

// ListContactsRequest 查询联系人列表请求
type ListContactsRequest struct {
	TenantID  string
	Search    string
	Owner     string
	LeadScore string
	Source    string
	Page      int
	Size      int
}

// ListContactsResponse 查询联系人列表响应
type ListContactsResponse struct {
	Items []ContactItem `json:"items"`
	Total int           `json:"total"`
}

// ListContacts 查询联系人列表（分页）
func (s *ContactService) ListContacts(ctx context.Context, req ListContactsRequest) (*ListContactsResponse, error) {
	if err := requireTenant(req.TenantID); err != nil {
		return nil, err
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.Size <= 0 {
		req.Size = 50
	}
	if !domain.IsValidLeadCategory(req.LeadScore) {
		return nil, invalid("invalid lead_score filter %q", req.LeadScore)
	}

	filter := repository.ContactsFilter{
		Search:    strings.TrimSpace(req.Search),
		Owner:     req.Owner,
		LeadScore: req.LeadScore,
		Source:    req.Source,
	}
	contacts, total, err := s.contacts.ListContacts(ctx, req.TenantID, filter, req.Page, req.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	items := make([]ContactItem, 0, len(contacts))
	for _, c := range contacts {
		items = append(items, toContactItem(c))
	}
	return &ListContactsResponse{Items: items, Total: total}, nil
}

// ContactDetail 联系人详情：存储的分类与计算出的分数并列返回，互不影响
type ContactDetail struct {
	Contact       ContactItem       `json:"contact"`
	Score         scoring.Score     `json:"score"`
	Activities    []ActivityItem    `json:"activities"`
	Appointments  []AppointmentItem `json:"appointments"`
	Opportunities []OpportunityItem `json:"opportunities"`
	Tags          []TagItem         `json:"tags"`
}

// related 联系人的关联数据
type related struct {
	contact       *domain.Contact
	activities    []*domain.Activity
	appointments  []*domain.Appointment
	opportunities []*domain.Opportunity
}

func (s *ContactService) loadRelated(ctx context.Context, tenantID, contactID string) (*related, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if contactID == "" {
		return nil, invalid("contact_id is required")
	}

	c, err := s.contacts.GetContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	acts, err := s.activities.ListByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activities: %w", err)
	}
	appts, err := s.appointments.ListByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	opps, err := s.opportunities.ListByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load opportunities: %w", err)
	}
	return &related{contact: c, activities: acts, appointments: appts, opportunities: opps}, nil
}

func (s *ContactService) score(r *related) scoring.Score {
	return scoring.ComputeLeadScore(scoring.Input{
		Activities:      derefAll(r.activities),
		Appointments:    derefAll(r.appointments),
		Opportunities:   derefAll(r.opportunities),
		LastContactedAt: r.contact.LastContactedAt,
	}, s.now())
}

// GetContactDetail 联系人详情页（每次请求重新计算分数）
func (s *ContactService) GetContactDetail(ctx context.Context, tenantID, contactID string) (*ContactDetail, error) {
	r, err := s.loadRelated(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}

	detail := &ContactDetail{
		Contact:       toContactItem(r.contact),
		Score:         s.score(r),
		Activities:    make([]ActivityItem, 0, len(r.activities)),
		Appointments:  make([]AppointmentItem, 0, len(r.appointments)),
		Opportunities: make([]OpportunityItem, 0, len(r.opportunities)),
		Tags:          []TagItem{},
	}
	for _, a := range r.activities {
		detail.Activities = append(detail.Activities, toActivityItem(a))
	}
	for _, a := range r.appointments {
		detail.Appointments = append(detail.Appointments, toAppointmentItem(a))
	}
	for _, o := range r.opportunities {
		detail.Opportunities = append(detail.Opportunities, toOpportunityItem(o))
	}
	if s.tags != nil {
		tags, err := s.tags.ListContactTags(ctx, tenantID, contactID)
		if err != nil {
			s.logger.Warn("Failed to load contact tags", zap.String("contact_id", contactID), zap.Error(err))
		} else {
			detail.Tags = toTagItems(tags)
		}
	}
	return detail, nil
}

// LeadScoreResponse 单独查询分数
type LeadScoreResponse struct {
	ContactID string        `json:"contact_id"`
	Category  string        `json:"category,omitempty"` // 存储的分类，不由分数推导
	Score     scoring.Score `json:"score"`
}

// GetLeadScore 计算联系人当前分数
func (s *ContactService) GetLeadScore(ctx context.Context, tenantID, contactID string) (*LeadScoreResponse, error) {
	r, err := s.loadRelated(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	return &LeadScoreResponse{
		ContactID: contactID,
		Category:  r.contact.LeadScore,
		Score:     s.score(r),
	}, nil
}

// ContactFields 创建/更新共用字段
type ContactFields struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	BusinessName string `json:"business_name"`
	Owner        string `json:"owner"`
	Source       string `json:"source"`
	LinkedIn     string `json:"linkedin"`
	Notes        string `json:"notes"`
	LeadScore    string `json:"lead_score"`
}

func (f *ContactFields) normalize() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.LeadScore = strings.ToLower(strings.TrimSpace(f.LeadScore))
	if f.Name == "" {
		return invalid("name is required")
	}
	if !domain.IsValidLeadCategory(f.LeadScore) {
		return invalid("lead_score must be one of hot, warm, cold")
	}
	return nil
}

func (f ContactFields) apply(c *domain.Contact) {
	c.Name = f.Name
	c.Email = f.Email
	c.Phone = f.Phone
	c.BusinessName = f.BusinessName
	c.Owner = f.Owner
	c.Source = f.Source
	c.LinkedIn = f.LinkedIn
	c.Notes = f.Notes
	c.LeadScore = f.LeadScore
}

// CreateContact 表单新建联系人
func (s *ContactService) CreateContact(ctx context.Context, tenantID string, fields ContactFields) (*ContactItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := fields.normalize(); err != nil {
		return nil, err
	}
	if fields.Source == "" {
		fields.Source = "manual"
	}

	c := &domain.Contact{TenantID: tenantID}
	fields.apply(c)
	if err := s.contacts.CreateContact(ctx, c); err != nil {
		return nil, err
	}

	publish(ctx, s.publisher, s.logger, events.New(domain.EventContactCreated, tenantID, c.ContactID, map[string]string{
		"name":   c.Name,
		"source": c.Source,
		"owner":  c.Owner,
	}))
	item := toContactItem(c)
	return &item, nil
}

// UpdateContact 手动编辑（整体替换可编辑字段）
func (s *ContactService) UpdateContact(ctx context.Context, tenantID, contactID string, fields ContactFields) (*ContactItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := fields.normalize(); err != nil {
		return nil, err
	}
	c, err := s.contacts.GetContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, err
	}
	fields.apply(c)
	if err := s.contacts.UpdateContact(ctx, c); err != nil {
		return nil, err
	}
	item := toContactItem(c)
	return &item, nil
}

// DeleteContact 硬删除
func (s *ContactService) DeleteContact(ctx context.Context, tenantID, contactID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	if err := s.contacts.DeleteContact(ctx, tenantID, contactID); err != nil {
		return err
	}
	s.logger.Info("Contact deleted", zap.String("tenant_id", tenantID), zap.String("contact_id", contactID))
	return nil
}
