package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

type PostgresAppointmentsRepository struct {
	db *sql.DB
}

func NewPostgresAppointmentsRepository(db *sql.DB) *PostgresAppointmentsRepository {
	return &PostgresAppointmentsRepository{db: db}
}

var _ AppointmentsRepository = (*PostgresAppointmentsRepository)(nil)

const appointmentColumns = `
	appointment_id::text,
	tenant_id::text,
	contact_id::text,
	title,
	COALESCE(location, ''),
	starts_at,
	ends_at,
	status,
	COALESCE(notes, ''),
	created_at,
	updated_at`

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.AppointmentID,
		&a.TenantID,
		&a.ContactID,
		&a.Title,
		&a.Location,
		&a.StartsAt,
		&a.EndsAt,
		&a.Status,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PostgresAppointmentsRepository) queryList(ctx context.Context, query string, args ...any) ([]*domain.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	out := []*domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointments: %w", err)
	}
	return out, nil
}

func (r *PostgresAppointmentsRepository) GetAppointment(ctx context.Context, tenantID, appointmentID string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE tenant_id = $1 AND appointment_id = $2`
	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, tenantID, appointmentID))
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", notFound(err, "appointment", appointmentID))
	}
	return a, nil
}

func (r *PostgresAppointmentsRepository) ListAppointments(ctx context.Context, tenantID string, filter AppointmentsFilter) ([]*domain.Appointment, error) {
	w := newWhere("tenant_id = $1", tenantID)
	if filter.ContactID != "" {
		w.add("contact_id = ?", filter.ContactID)
	}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.From != nil {
		w.add("starts_at >= ?", *filter.From)
	}
	if filter.To != nil {
		w.add("starts_at < ?", *filter.To)
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE ` + w.String() + ` ORDER BY starts_at`
	return r.queryList(ctx, query, w.args...)
}

func (r *PostgresAppointmentsRepository) ListByContact(ctx context.Context, tenantID, contactID string) ([]*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
		WHERE tenant_id = $1 AND contact_id = $2
		ORDER BY starts_at DESC`
	return r.queryList(ctx, query, tenantID, contactID)
}

func (r *PostgresAppointmentsRepository) CreateAppointment(ctx context.Context, a *domain.Appointment) error {
	query := `
		INSERT INTO appointments (tenant_id, contact_id, title, location, starts_at, ends_at, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING appointment_id::text, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		a.TenantID, a.ContactID, a.Title, nullString(a.Location),
		a.StartsAt, a.EndsAt, a.Status, nullString(a.Notes),
	).Scan(&a.AppointmentID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *PostgresAppointmentsRepository) UpdateAppointment(ctx context.Context, a *domain.Appointment) error {
	query := `
		UPDATE appointments SET
			title = $3, location = $4, starts_at = $5, ends_at = $6, status = $7, notes = $8,
			updated_at = now()
		WHERE tenant_id = $1 AND appointment_id = $2
		RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query,
		a.TenantID, a.AppointmentID,
		a.Title, nullString(a.Location), a.StartsAt, a.EndsAt, a.Status, nullString(a.Notes),
	).Scan(&a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", notFound(err, "appointment", a.AppointmentID))
	}
	return nil
}

func (r *PostgresAppointmentsRepository) UpdateStatus(ctx context.Context, tenantID, appointmentID, from, to string) (*domain.Appointment, error) {
	query := `
		UPDATE appointments SET status = $4, updated_at = now()
		WHERE tenant_id = $1 AND appointment_id = $2 AND status = $3
		RETURNING ` + appointmentColumns
	a, err := scanAppointment(r.db.QueryRowContext(ctx, query, tenantID, appointmentID, from, to))
	if errors.Is(err, sql.ErrNoRows) {
		// 记录不存在或状态已被并发修改
		return nil, fmt.Errorf("appointment %s is no longer %s: %w", appointmentID, from, domain.ErrInvalidTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update appointment status: %w", err)
	}
	return a, nil
}

func (r *PostgresAppointmentsRepository) DeleteAppointment(ctx context.Context, tenantID, appointmentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE tenant_id = $1 AND appointment_id = $2`, tenantID, appointmentID)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return requireAffected(res, "appointment", appointmentID)
}
