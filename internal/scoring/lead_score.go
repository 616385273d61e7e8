// Package scoring 计算联系人的 lead score（只读展示用，不落库）
package scoring

import (
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// 各分项的单位分值与上限
const (
	activityPoints = 5
	activityCap    = 30

	meetingPoints = 10
	meetingCap    = 30

	positivePoints = 3
	positiveCap    = 15

	pipelinePresencePoints = 10
	lateStagePoints        = 15
	midStagePoints         = 10

	completedAppointmentPoints = 15
)

var (
	lateStages = map[string]bool{"Proposal": true, "Negotiation": true, "Closed Won": true}
	midStages  = map[string]bool{"Discovery": true, "Demo": true, "Trial": true}
)

// Input 计算所需的关联数据（只包含当前联系人的）
type Input struct {
	Activities      []domain.Activity
	Appointments    []domain.Appointment
	Opportunities   []domain.Opportunity
	LastContactedAt *time.Time
}

// Breakdown 各分项得分
type Breakdown struct {
	Activity              int `json:"activity"`
	Meetings              int `json:"meetings"`
	PositiveOutcomes      int `json:"positive_outcomes"`
	Recency               int `json:"recency"`
	Pipeline              int `json:"pipeline"`
	CompletedAppointments int `json:"completed_appointments"`
}

// Score 计算结果
type Score struct {
	Total     int       `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// ComputeLeadScore 纯函数：相同输入永远得到相同结果，不做 I/O，nil 输入合法
// 总分可能为负（只有 recency 罚分时）
func ComputeLeadScore(in Input, now time.Time) Score {
	var b Breakdown

	b.Activity = capped(len(in.Activities)*activityPoints, activityCap)

	meetings, positive := 0, 0
	for _, a := range in.Activities {
		switch a.Outcome {
		case domain.OutcomeMeetingBooked:
			meetings++
		case domain.OutcomeAnswered, domain.OutcomeCallback:
			positive++
		}
	}
	b.Meetings = capped(meetings*meetingPoints, meetingCap)
	b.PositiveOutcomes = capped(positive*positivePoints, positiveCap)

	b.Recency = recencyPoints(in.LastContactedAt, now)
	b.Pipeline = pipelinePoints(in.Opportunities)

	for _, appt := range in.Appointments {
		if domain.AppointmentStatus(appt.Status) == domain.AppointmentCompleted {
			b.CompletedAppointments = completedAppointmentPoints
			break
		}
	}

	return Score{
		Total:     b.Activity + b.Meetings + b.PositiveOutcomes + b.Recency + b.Pipeline + b.CompletedAppointments,
		Breakdown: b,
	}
}

func capped(v, max int) int {
	if v > max {
		return max
	}
	return v
}

// recencyPoints 按距离上次联系的整天数给分，超过 30 天扣 10 分
func recencyPoints(last *time.Time, now time.Time) int {
	if last == nil {
		return 0
	}
	days := int(now.Sub(*last) / (24 * time.Hour))
	switch {
	case days <= 7:
		return 15
	case days <= 14:
		return 10
	case days <= 30:
		return 5
	default:
		return -10
	}
}

// pipelinePoints 有 opportunity 得 10 分，最近一条的 stage 处于后期/中期再加分
func pipelinePoints(opps []domain.Opportunity) int {
	if len(opps) == 0 {
		return 0
	}
	points := pipelinePresencePoints

	latest := opps[0]
	for _, o := range opps[1:] {
		if o.CreatedAt.After(latest.CreatedAt) {
			latest = o
		}
	}
	switch {
	case lateStages[latest.Stage]:
		points += lateStagePoints
	case midStages[latest.Stage]:
		points += midStagePoints
	}
	return points
}
