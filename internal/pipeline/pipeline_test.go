package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

func fptr(v float64) *float64 { return &v }

func salesPipeline() domain.Pipeline {
	return domain.Pipeline{
		PipelineID: "p-sales",
		Name:       "Sales",
		Stages:     []string{"Lead", "Discovery", "Proposal", "Closed Won"},
	}
}

func TestResolveStage(t *testing.T) {
	p := salesPipeline()

	stage, err := ResolveStage(&p, "")
	require.NoError(t, err)
	assert.Equal(t, "Lead", stage)

	stage, err = ResolveStage(&p, "Proposal")
	require.NoError(t, err)
	assert.Equal(t, "Proposal", stage)

	_, err = ResolveStage(&p, "Negotiation")
	assert.ErrorIs(t, err, domain.ErrStageNotInPipeline)

	empty := domain.Pipeline{PipelineID: "p-empty"}
	_, err = ResolveStage(&empty, "")
	assert.ErrorIs(t, err, domain.ErrPipelineHasNoStages)
}

func TestValidateMove_AnyOrder(t *testing.T) {
	p := salesPipeline()
	// 允许跳级和回退
	assert.NoError(t, ValidateMove(&p, "Closed Won"))
	assert.NoError(t, ValidateMove(&p, "Lead"))
	assert.ErrorIs(t, ValidateMove(&p, "lead"), domain.ErrStageNotInPipeline)
}

func TestResolvePipelineChange_ResetsToFirstStage(t *testing.T) {
	opp := &domain.Opportunity{OpportunityID: "o1", PipelineID: "p-sales", Stage: "Proposal"}
	short := &domain.Pipeline{PipelineID: "p-onboard", Stages: []string{"Kickoff", "Live"}}

	stage, err := ResolvePipelineChange(opp, short, nil)
	require.NoError(t, err)
	assert.Equal(t, "Kickoff", stage)
}

func TestResolvePipelineChange_SamePipelineKeepsStage(t *testing.T) {
	p := salesPipeline()
	opp := &domain.Opportunity{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Proposal"}

	stage, err := ResolvePipelineChange(opp, &p, nil)
	require.NoError(t, err)
	assert.Equal(t, "Proposal", stage)
}

func TestResolvePipelineChange_ExplicitStage(t *testing.T) {
	opp := &domain.Opportunity{OpportunityID: "o1", PipelineID: "p-sales", Stage: "Proposal"}
	next := &domain.Pipeline{PipelineID: "p-onboard", Stages: []string{"Kickoff", "Live"}}

	live := "Live"
	stage, err := ResolvePipelineChange(opp, next, &live)
	require.NoError(t, err)
	assert.Equal(t, "Live", stage)

	bogus := "Proposal"
	_, err = ResolvePipelineChange(opp, next, &bogus)
	assert.ErrorIs(t, err, domain.ErrStageNotInPipeline)

	empty := &domain.Pipeline{PipelineID: "p-empty"}
	_, err = ResolvePipelineChange(opp, empty, nil)
	assert.ErrorIs(t, err, domain.ErrPipelineHasNoStages)
}

func TestOrphansAndCount(t *testing.T) {
	p := salesPipeline()
	opps := []domain.Opportunity{
		{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Lead"},
		{OpportunityID: "o2", PipelineID: p.PipelineID, Stage: "Qualified"},
		{OpportunityID: "o3", PipelineID: p.PipelineID, Stage: "Proposal"},
		{OpportunityID: "o4", PipelineID: "other", Stage: "Whatever"},
	}

	orphans := Orphans(&p, opps)
	require.Len(t, orphans, 1)
	assert.Equal(t, "o2", orphans[0].OpportunityID)

	// 改名 Proposal -> Quote 会让 o3 变成孤儿，o2 本来就是孤儿不重复计数
	n := CountOrphanedBy(&p, []string{"Lead", "Discovery", "Quote", "Closed Won"}, opps)
	assert.Equal(t, 1, n)
}

func TestNewBoard(t *testing.T) {
	p := salesPipeline()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	opps := []domain.Opportunity{
		{OpportunityID: "o2", PipelineID: p.PipelineID, Stage: "Lead", Value: fptr(200), StageChangedAt: base.Add(time.Hour)},
		{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Lead", Value: fptr(100), StageChangedAt: base},
		{OpportunityID: "o3", PipelineID: p.PipelineID, Stage: "Proposal"},
		{OpportunityID: "o4", PipelineID: p.PipelineID, Stage: "Renamed"},
		{OpportunityID: "o5", PipelineID: "other", Stage: "Lead"},
	}

	b := NewBoard(p, opps)
	require.Len(t, b.Columns, 4)
	assert.Equal(t, "Lead", b.Columns[0].Stage)
	require.Len(t, b.Columns[0].Cards, 2)
	assert.Equal(t, "o1", b.Columns[0].Cards[0].OpportunityID)
	assert.Equal(t, 300.0, b.Columns[0].TotalValue)
	assert.Len(t, b.Columns[2].Cards, 1)
	assert.Equal(t, 0.0, b.Columns[2].TotalValue)
	require.Len(t, b.Orphans, 1)
	assert.Equal(t, "o4", b.Orphans[0].OpportunityID)
}

func TestBoardMove_Persisted(t *testing.T) {
	p := salesPipeline()
	b := NewBoard(p, []domain.Opportunity{
		{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Lead", Value: fptr(50)},
	})

	var saved domain.Opportunity
	err := b.Move("o1", "Proposal", func(updated domain.Opportunity) error {
		saved = updated
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Proposal", saved.Stage)
	assert.Empty(t, b.Columns[0].Cards)
	require.Len(t, b.Columns[2].Cards, 1)
	assert.Equal(t, 50.0, b.Columns[2].TotalValue)
}

func TestBoardMove_RollbackOnPersistFailure(t *testing.T) {
	p := salesPipeline()
	b := NewBoard(p, []domain.Opportunity{
		{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Lead", Value: fptr(50)},
		{OpportunityID: "o2", PipelineID: p.PipelineID, Stage: "Lead"},
	})

	boom := errors.New("db down")
	err := b.Move("o1", "Closed Won", func(domain.Opportunity) error { return boom })
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	card, ok := b.Card("o1")
	require.True(t, ok)
	assert.Equal(t, "Lead", card.Stage)
	assert.Len(t, b.Columns[0].Cards, 2)
	assert.Equal(t, "o1", b.Columns[0].Cards[0].OpportunityID)
	assert.Equal(t, 50.0, b.Columns[0].TotalValue)
	assert.Empty(t, b.Columns[3].Cards)
}

func TestBoardMove_OrphanCanBeRescued(t *testing.T) {
	p := salesPipeline()
	b := NewBoard(p, []domain.Opportunity{
		{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Old"},
	})

	require.NoError(t, b.Move("o1", "Discovery", nil))
	assert.Empty(t, b.Orphans)
	assert.Len(t, b.Columns[1].Cards, 1)
}

func TestBoardMove_Errors(t *testing.T) {
	p := salesPipeline()
	b := NewBoard(p, []domain.Opportunity{
		{OpportunityID: "o1", PipelineID: p.PipelineID, Stage: "Lead"},
	})

	called := false
	persist := func(domain.Opportunity) error { called = true; return nil }

	assert.ErrorIs(t, b.Move("o1", "Nope", persist), domain.ErrStageNotInPipeline)
	assert.ErrorIs(t, b.Move("missing", "Lead", persist), domain.ErrNotFound)
	// 同列移动不触发持久化
	assert.NoError(t, b.Move("o1", "Lead", persist))
	assert.False(t, called)
}
