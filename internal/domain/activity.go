package domain

import "time"

// Activity 活动记录（对应 activities 表），只追加不修改
type Activity struct {
	ActivityID    string    `db:"activity_id"`    // UUID, PRIMARY KEY
	TenantID      string    `db:"tenant_id"`      // UUID, NOT NULL
	ContactID     string    `db:"contact_id"`     // UUID, NOT NULL, FK to contacts
	OpportunityID string    `db:"opportunity_id"` // UUID, nullable
	Outcome       string    `db:"outcome"`        // VARCHAR(50), NOT NULL
	Channel       string    `db:"channel"`        // VARCHAR(30), NOT NULL（call, email, sms, linkedin, in_person）
	Notes         string    `db:"notes"`          // TEXT, nullable
	LoggedAt      time.Time `db:"logged_at"`      // TIMESTAMPTZ, NOT NULL, DEFAULT now()
}

// Activity outcome 常量（lead score 关注的几个）
const (
	OutcomeMeetingBooked = "Meeting Booked"
	OutcomeAnswered      = "Answered"
	OutcomeCallback      = "Callback"
	OutcomeNoAnswer      = "No Answer"
	OutcomeVoicemail     = "Voicemail"
	OutcomeNotInterested = "Not Interested"
)
