package domain

import "time"

// Appointment 预约（对应 appointments 表）
type Appointment struct {
	AppointmentID string    `db:"appointment_id"` // UUID, PRIMARY KEY
	TenantID      string    `db:"tenant_id"`      // UUID, NOT NULL
	ContactID     string    `db:"contact_id"`     // UUID, NOT NULL, FK to contacts
	Title         string    `db:"title"`          // VARCHAR(200), NOT NULL
	Location      string    `db:"location"`       // VARCHAR(255), nullable
	StartsAt      time.Time `db:"starts_at"`      // TIMESTAMPTZ, NOT NULL
	EndsAt        time.Time `db:"ends_at"`        // TIMESTAMPTZ, NOT NULL
	Status        string    `db:"status"`         // VARCHAR(20), NOT NULL, DEFAULT 'scheduled'
	Notes         string    `db:"notes"`          // TEXT, nullable
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// AppointmentStatus 预约状态
// scheduled 为初始状态，其余均为终态
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// IsValid 是否为已知状态
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// IsTerminal 是否为终态
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled || s == AppointmentNoShow
}

// CanTransitionTo 显式状态迁移只允许 scheduled -> 终态
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	return s == AppointmentScheduled && next.IsTerminal()
}
