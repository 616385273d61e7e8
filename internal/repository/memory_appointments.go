package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type MemoryAppointmentsRepo struct {
	t *memTable[domain.Appointment]
}

func NewMemoryAppointmentsRepo() *MemoryAppointmentsRepo {
	return &MemoryAppointmentsRepo{t: newMemTable[domain.Appointment]()}
}

var _ AppointmentsRepository = (*MemoryAppointmentsRepo)(nil)

func (r *MemoryAppointmentsRepo) GetAppointment(_ context.Context, tenantID, appointmentID string) (*domain.Appointment, error) {
	a, ok := r.t.get(tenantID, appointmentID)
	if !ok {
		return nil, fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}
	return &a, nil
}

func (r *MemoryAppointmentsRepo) ListAppointments(_ context.Context, tenantID string, filter AppointmentsFilter) ([]*domain.Appointment, error) {
	rows := r.t.list(tenantID, func(a domain.Appointment) bool {
		if filter.ContactID != "" && a.ContactID != filter.ContactID {
			return false
		}
		if filter.Status != "" && a.Status != filter.Status {
			return false
		}
		if filter.From != nil && a.StartsAt.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !a.StartsAt.Before(*filter.To) {
			return false
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartsAt.Before(rows[j].StartsAt) })
	return toPtrs(rows), nil
}

func (r *MemoryAppointmentsRepo) ListByContact(_ context.Context, tenantID, contactID string) ([]*domain.Appointment, error) {
	rows := r.t.list(tenantID, func(a domain.Appointment) bool { return a.ContactID == contactID })
	sort.Slice(rows, func(i, j int) bool { return rows[i].StartsAt.After(rows[j].StartsAt) })
	return toPtrs(rows), nil
}

func (r *MemoryAppointmentsRepo) CreateAppointment(_ context.Context, a *domain.Appointment) error {
	now := time.Now().UTC()
	a.AppointmentID = uuid.NewString()
	a.CreatedAt = now
	a.UpdatedAt = now
	r.t.put(a.TenantID, a.AppointmentID, *a)
	return nil
}

func (r *MemoryAppointmentsRepo) UpdateAppointment(_ context.Context, a *domain.Appointment) error {
	return r.t.update(a.TenantID, func(rows map[string]domain.Appointment) error {
		old, ok := rows[a.AppointmentID]
		if !ok {
			return fmt.Errorf("appointment %s: %w", a.AppointmentID, domain.ErrNotFound)
		}
		a.ContactID = old.ContactID
		a.CreatedAt = old.CreatedAt
		a.UpdatedAt = time.Now().UTC()
		rows[a.AppointmentID] = *a
		return nil
	})
}

func (r *MemoryAppointmentsRepo) UpdateStatus(_ context.Context, tenantID, appointmentID, from, to string) (*domain.Appointment, error) {
	var out domain.Appointment
	err := r.t.update(tenantID, func(rows map[string]domain.Appointment) error {
		a, ok := rows[appointmentID]
		if !ok || a.Status != from {
			return fmt.Errorf("appointment %s is no longer %s: %w", appointmentID, from, domain.ErrInvalidTransition)
		}
		a.Status = to
		a.UpdatedAt = time.Now().UTC()
		rows[appointmentID] = a
		out = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *MemoryAppointmentsRepo) DeleteAppointment(_ context.Context, tenantID, appointmentID string) error {
	if !r.t.del(tenantID, appointmentID) {
		return fmt.Errorf("appointment %s: %w", appointmentID, domain.ErrNotFound)
	}
	return nil
}
