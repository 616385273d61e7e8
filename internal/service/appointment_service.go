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
)

// AppointmentService 日历与预约状态机
// 日历列表和联系人详情读同一张表，状态迁移两边同时可见
type AppointmentService struct {
	appointments repository.AppointmentsRepository
	contacts     repository.ContactsRepository
	publisher    events.Publisher
	logger       *zap.Logger
}

func NewAppointmentService(appointments repository.AppointmentsRepository, contacts repository.ContactsRepository, publisher events.Publisher, logger *zap.Logger) *AppointmentService {
	return &AppointmentService{appointments: appointments, contacts: contacts, publisher: publisher, logger: logger}
}

// ListAppointmentsRequest 日历查询，From/To 按 starts_at 过滤
type ListAppointmentsRequest struct {
	TenantID  string
	ContactID string
	Status    string
	From      *time.Time
	To        *time.Time
}

func (s *AppointmentService) ListAppointments(ctx context.Context, req ListAppointmentsRequest) ([]AppointmentItem, error) {
	if err := requireTenant(req.TenantID); err != nil {
		return nil, err
	}
	if req.Status != "" && !domain.AppointmentStatus(req.Status).IsValid() {
		return nil, invalid("invalid status %q", req.Status)
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		return nil, invalid("to must not be before from")
	}
	list, err := s.appointments.ListAppointments(ctx, req.TenantID, repository.AppointmentsFilter{
		ContactID: req.ContactID,
		Status:    req.Status,
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return toAppointmentItems(list), nil
}

// ListByContact 联系人详情页中的预约（starts_at DESC）
func (s *AppointmentService) ListByContact(ctx context.Context, tenantID, contactID string) ([]AppointmentItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	list, err := s.appointments.ListByContact(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return toAppointmentItems(list), nil
}

func toAppointmentItems(list []*domain.Appointment) []AppointmentItem {
	items := make([]AppointmentItem, 0, len(list))
	for _, a := range list {
		items = append(items, toAppointmentItem(a))
	}
	return items
}

func (s *AppointmentService) GetAppointment(ctx context.Context, tenantID, appointmentID string) (*AppointmentItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	a, err := s.appointments.GetAppointment(ctx, tenantID, appointmentID)
	if err != nil {
		return nil, err
	}
	item := toAppointmentItem(a)
	return &item, nil
}

// AppointmentRequest 新建/编辑表单
type AppointmentRequest struct {
	ContactID string    `json:"contact_id"`
	Title     string    `json:"title"`
	Location  string    `json:"location"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
}

func (r *AppointmentRequest) validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return invalid("title is required")
	}
	if r.StartsAt.IsZero() {
		return invalid("starts_at is required")
	}
	if r.EndsAt.IsZero() {
		r.EndsAt = r.StartsAt.Add(30 * time.Minute)
	}
	if r.EndsAt.Before(r.StartsAt) {
		return invalid("ends_at must not be before starts_at")
	}
	if r.Status != "" && !domain.AppointmentStatus(r.Status).IsValid() {
		return invalid("invalid status %q", r.Status)
	}
	return nil
}

// CreateAppointment 新预约总是 scheduled
func (s *AppointmentService) CreateAppointment(ctx context.Context, tenantID string, req AppointmentRequest) (*AppointmentItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if req.ContactID == "" {
		return nil, invalid("contact_id is required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	if _, err := s.contacts.GetContact(ctx, tenantID, req.ContactID); err != nil {
		return nil, err
	}

	a := &domain.Appointment{
		TenantID:  tenantID,
		ContactID: req.ContactID,
		Title:     req.Title,
		Location:  req.Location,
		StartsAt:  req.StartsAt.UTC(),
		EndsAt:    req.EndsAt.UTC(),
		Status:    string(domain.AppointmentScheduled),
		Notes:     req.Notes,
	}
	if err := s.appointments.CreateAppointment(ctx, a); err != nil {
		return nil, err
	}
	item := toAppointmentItem(a)
	return &item, nil
}

// UpdateAppointment 编辑表单：终态也可以被改写，包括 status 本身
func (s *AppointmentService) UpdateAppointment(ctx context.Context, tenantID, appointmentID string, req AppointmentRequest) (*AppointmentItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	a, err := s.appointments.GetAppointment(ctx, tenantID, appointmentID)
	if err != nil {
		return nil, err
	}
	prev := a.Status

	a.Title = req.Title
	a.Location = req.Location
	a.StartsAt = req.StartsAt.UTC()
	a.EndsAt = req.EndsAt.UTC()
	a.Notes = req.Notes
	if req.Status != "" {
		a.Status = req.Status
	}
	if err := s.appointments.UpdateAppointment(ctx, a); err != nil {
		return nil, err
	}

	if a.Status != prev {
		s.statusChanged(ctx, a, prev)
	}
	item := toAppointmentItem(a)
	return &item, nil
}

// TransitionAppointment 显式状态迁移：只能从 scheduled 到终态
// 条件更新保证并发修改过的记录不会被覆盖
func (s *AppointmentService) TransitionAppointment(ctx context.Context, tenantID, appointmentID, status string) (*AppointmentItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	next := domain.AppointmentStatus(status)
	if !next.IsValid() {
		return nil, invalid("invalid status %q", status)
	}
	current, err := s.appointments.GetAppointment(ctx, tenantID, appointmentID)
	if err != nil {
		return nil, err
	}
	from := domain.AppointmentStatus(current.Status)
	if !from.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, next)
	}

	updated, err := s.appointments.UpdateStatus(ctx, tenantID, appointmentID, string(from), string(next))
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, updated, string(from))
	item := toAppointmentItem(updated)
	return &item, nil
}

func (s *AppointmentService) statusChanged(ctx context.Context, a *domain.Appointment, from string) {
	publish(ctx, s.publisher, s.logger, events.New(domain.EventAppointmentStatus, a.TenantID, a.ContactID, map[string]string{
		"appointment_id": a.AppointmentID,
		"from_status":    from,
		"status":         a.Status,
	}))
}

func (s *AppointmentService) DeleteAppointment(ctx context.Context, tenantID, appointmentID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.appointments.DeleteAppointment(ctx, tenantID, appointmentID)
}
