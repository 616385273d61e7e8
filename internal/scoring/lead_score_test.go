package scoring

import (
	"testing"
	"time"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func activities(outcomes ...string) []domain.Activity {
	out := make([]domain.Activity, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, domain.Activity{Outcome: o})
	}
	return out
}

func repeat(outcome string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = outcome
	}
	return out
}

func daysAgo(d int) *time.Time {
	t := now.Add(-time.Duration(d) * 24 * time.Hour)
	return &t
}

func TestComputeLeadScore_Empty(t *testing.T) {
	score := ComputeLeadScore(Input{}, now)
	assert.Equal(t, 0, score.Total)
	assert.Equal(t, Breakdown{}, score.Breakdown)
}

func TestComputeLeadScore_OnlyStaleContactIsNegative(t *testing.T) {
	score := ComputeLeadScore(Input{LastContactedAt: daysAgo(45)}, now)
	assert.Equal(t, -10, score.Total)
	assert.Equal(t, -10, score.Breakdown.Recency)
}

func TestComputeLeadScore_HundredPointExample(t *testing.T) {
	outcomes := append(repeat(domain.OutcomeMeetingBooked, 5), repeat(domain.OutcomeNoAnswer, 5)...)
	in := Input{
		Activities:      activities(outcomes...),
		LastContactedAt: daysAgo(3),
		Opportunities:   []domain.Opportunity{{Stage: "Proposal", CreatedAt: now}},
	}

	score := ComputeLeadScore(in, now)

	assert.Equal(t, Breakdown{
		Activity:              30,
		Meetings:              30,
		PositiveOutcomes:      0,
		Recency:               15,
		Pipeline:              25,
		CompletedAppointments: 0,
	}, score.Breakdown)
	assert.Equal(t, 100, score.Total)
}

func TestComputeLeadScore_Caps(t *testing.T) {
	in := Input{
		Activities: activities(append(repeat(domain.OutcomeAnswered, 4), repeat(domain.OutcomeCallback, 4)...)...),
	}
	score := ComputeLeadScore(in, now)
	assert.Equal(t, 30, score.Breakdown.Activity)         // 8*5=40 → 30
	assert.Equal(t, 15, score.Breakdown.PositiveOutcomes) // 8*3=24 → 15
	assert.Equal(t, 0, score.Breakdown.Meetings)
}

func TestComputeLeadScore_RecencyBuckets(t *testing.T) {
	cases := []struct {
		days int
		want int
	}{
		{0, 15}, {7, 15}, {8, 10}, {14, 10}, {15, 5}, {30, 5}, {31, -10},
	}
	for _, c := range cases {
		score := ComputeLeadScore(Input{LastContactedAt: daysAgo(c.days)}, now)
		assert.Equal(t, c.want, score.Breakdown.Recency, "days=%d", c.days)
	}

	// 不足一整天按 0 天算
	partial := now.Add(-7*24*time.Hour - 23*time.Hour)
	assert.Equal(t, 15, ComputeLeadScore(Input{LastContactedAt: &partial}, now).Breakdown.Recency)
}

func TestComputeLeadScore_PipelineUsesMostRecentOpportunity(t *testing.T) {
	older := domain.Opportunity{Stage: "Negotiation", CreatedAt: now.Add(-48 * time.Hour)}
	newer := domain.Opportunity{Stage: "Demo", CreatedAt: now.Add(-time.Hour)}

	score := ComputeLeadScore(Input{Opportunities: []domain.Opportunity{older, newer}}, now)
	assert.Equal(t, 20, score.Breakdown.Pipeline)

	score = ComputeLeadScore(Input{Opportunities: []domain.Opportunity{{Stage: "New Lead"}}}, now)
	assert.Equal(t, 10, score.Breakdown.Pipeline)
}

func TestComputeLeadScore_CompletedAppointmentIsFlat(t *testing.T) {
	in := Input{Appointments: []domain.Appointment{
		{Status: "completed"}, {Status: "completed"}, {Status: "no_show"},
	}}
	assert.Equal(t, 15, ComputeLeadScore(in, now).Total)

	in = Input{Appointments: []domain.Appointment{{Status: "scheduled"}, {Status: "cancelled"}}}
	assert.Equal(t, 0, ComputeLeadScore(in, now).Total)
}

func TestComputeLeadScore_Deterministic(t *testing.T) {
	in := Input{
		Activities:      activities(domain.OutcomeAnswered, domain.OutcomeMeetingBooked, "Emailed"),
		Appointments:    []domain.Appointment{{Status: "completed"}},
		Opportunities:   []domain.Opportunity{{Stage: "Trial"}},
		LastContactedAt: daysAgo(10),
	}
	first := ComputeLeadScore(in, now)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, ComputeLeadScore(in, now))
	}
	// 15 + 10 + 3 + 10 + 20 + 15
	assert.Equal(t, 73, first.Total)
}
