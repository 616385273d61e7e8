package repository

import (
	"context"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// AppointmentsRepository 预约Repository接口
// 日历列表和联系人详情读的是同一张表
type AppointmentsRepository interface {
	GetAppointment(ctx context.Context, tenantID, appointmentID string) (*domain.Appointment, error)

	// ListAppointments 按 starts_at 升序
	ListAppointments(ctx context.Context, tenantID string, filter AppointmentsFilter) ([]*domain.Appointment, error)

	// ListByContact 按 starts_at DESC
	ListByContact(ctx context.Context, tenantID, contactID string) ([]*domain.Appointment, error)

	CreateAppointment(ctx context.Context, a *domain.Appointment) error

	// UpdateAppointment 编辑表单：可修改任意字段（包括 status）
	UpdateAppointment(ctx context.Context, a *domain.Appointment) error

	// UpdateStatus 条件更新：仅当当前 status = from 时改为 to，否则返回 domain.ErrInvalidTransition
	UpdateStatus(ctx context.Context, tenantID, appointmentID, from, to string) (*domain.Appointment, error)

	DeleteAppointment(ctx context.Context, tenantID, appointmentID string) error
}

// AppointmentsFilter From/To 按 starts_at 过滤，闭开区间 [From, To)
type AppointmentsFilter struct {
	ContactID string
	Status    string
	From      *time.Time
	To        *time.Time
}
