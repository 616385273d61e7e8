package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipeline_StageHelpers(t *testing.T) {
	p := &Pipeline{Stages: []string{"New", "Discovery", "Proposal"}}

	assert.Equal(t, 1, p.StageIndex("Discovery"))
	assert.Equal(t, -1, p.StageIndex("discovery")) // 大小写敏感
	assert.True(t, p.HasStage("Proposal"))
	assert.False(t, p.HasStage("Closed Won"))

	first, err := p.FirstStage()
	require.NoError(t, err)
	assert.Equal(t, "New", first)

	_, err = (&Pipeline{}).FirstStage()
	assert.ErrorIs(t, err, ErrPipelineHasNoStages)
}

func TestAppointmentStatus_Transitions(t *testing.T) {
	for _, next := range []AppointmentStatus{AppointmentCompleted, AppointmentCancelled, AppointmentNoShow} {
		assert.True(t, AppointmentScheduled.CanTransitionTo(next), next)
		assert.True(t, next.IsTerminal())
		// 终态之间、终态回 scheduled 都不允许
		assert.False(t, next.CanTransitionTo(AppointmentScheduled))
		assert.False(t, next.CanTransitionTo(AppointmentCompleted))
	}
	assert.False(t, AppointmentScheduled.CanTransitionTo(AppointmentScheduled))
	assert.False(t, AppointmentStatus("done").IsValid())
}

func TestCondition_Matches(t *testing.T) {
	data := map[string]string{"stage": "Proposal"}
	assert.True(t, Condition{}.Matches(data))
	assert.True(t, Condition{Field: "stage", Equals: "Proposal"}.Matches(data))
	assert.False(t, Condition{Field: "stage", Equals: "Demo"}.Matches(data))
	assert.False(t, Condition{Field: "pipeline_id", Equals: "p-1"}.Matches(data))
}

func TestIsValidLeadCategory(t *testing.T) {
	assert.True(t, IsValidLeadCategory(""))
	assert.True(t, IsValidLeadCategory("hot"))
	assert.False(t, IsValidLeadCategory("HOT"))
	assert.False(t, IsValidLeadCategory("lukewarm"))
}
